// Package model defines shared data structures.
package model

import "time"

// HistogramSample is one per-key observation attached to a session.
type HistogramSample struct {
	CodePoint  int
	HitCount   int
	MissCount  int
	TimeToType float64
}

// Session captures a completed practice lesson.
type Session struct {
	Timestamp  time.Time
	Speed      float64
	Errors     int
	Length     int
	DurationMs int64
	TextType   string
	Histogram  []HistogramSample
}

// Accuracy returns the session accuracy in percent. Empty lessons score 0.
func (s Session) Accuracy() float64 {
	if s.Length <= 0 {
		return 0
	}
	return (1.0 - float64(s.Errors)/float64(s.Length)) * 100
}

// WPM converts the raw speed (characters per minute) to words per minute.
func (s Session) WPM() float64 {
	return s.Speed / 5.0
}

// LocalTime returns the session timestamp in the local time zone.
func (s Session) LocalTime() time.Time {
	return s.Timestamp.Local()
}

// WindowStats holds counts and rates for one time window.
type WindowStats struct {
	Hits      int
	Misses    int
	ErrorRate float64
	WPM       float64
}

// KeyPerformance is the multi-window profile of a single key.
type KeyPerformance struct {
	CodePoint int
	Key       string

	All WindowStats
	L7  WindowStats
	L3  WindowStats
	L1  WindowStats

	// Individual days: D1 is the reference date, D2 the day before, D3 two days before.
	D1 WindowStats
	D2 WindowStats
	D3 WindowStats

	Latency   float64
	L7Latency float64
	CV        float64
	L7CV      float64

	Mastery    float64
	P50        float64
	P95        float64
	StallRatio float64

	// DailyWPM is ordered oldest to newest and ends on the reference date.
	DailyWPM []float64

	Improvement          float64
	ImprovementYesterday float64
	L7Impact             float64
}

// AccuracyStreak is a run of consecutive sessions at or above a threshold.
type AccuracyStreak struct {
	Threshold    float64
	Lessons      int
	Characters   int
	TopSpeed     float64
	AverageSpeed float64
	StartDate    time.Time
	IsMax        bool
	IsCurrent    bool
}

// WithFlags returns a copy of the streak carrying the given flags.
func (s AccuracyStreak) WithFlags(isMax, isCurrent bool) AccuracyStreak {
	out := s
	out.IsMax = isMax
	out.IsCurrent = isCurrent
	return out
}

// ReportConfig defines the options for a full report run.
type ReportConfig struct {
	Source     string
	DataFile   string
	SourceDir  string
	DBPath     string
	ShowAll    bool
	AllWPMCap  float64
	Thresholds []float64
	OpenedKeys []string
	FocusKeys  []string
	LockedKeys map[string][]string
}
