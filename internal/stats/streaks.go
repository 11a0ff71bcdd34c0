package stats

import (
	"errors"
	"sort"

	"github.com/verte-zerg/keystat/internal/model"
)

var (
	// ErrNilSessions is returned when no session list is supplied.
	ErrNilSessions = errors.New("stats: sessions must not be nil")
	// ErrNilThresholds is returned when no threshold list is supplied.
	ErrNilThresholds = errors.New("stats: thresholds must not be nil")
)

// DefaultStreakThresholds are the accuracy levels reported by default.
var DefaultStreakThresholds = []float64{100.0, 97.0, 95.0}

// run is a half-open index range into the chronologically sorted sessions.
type run struct {
	start int
	end   int
}

func (r run) len() int {
	return r.end - r.start
}

// AccuracyStreaks returns, per threshold, the longest run of consecutive
// sessions at or above the threshold and the run still active at the end of
// the history. When both are the same run a single record carries both flags.
func AccuracyStreaks(sessions []model.Session, thresholds []float64) ([]model.AccuracyStreak, error) {
	if sessions == nil {
		return nil, ErrNilSessions
	}
	if thresholds == nil {
		return nil, ErrNilThresholds
	}

	sorted := make([]model.Session, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var out []model.AccuracyStreak
	for _, threshold := range thresholds {
		longest, active, hasLongest, hasActive := streakRuns(sorted, threshold)
		if hasLongest && hasActive && longest == active {
			out = append(out, buildStreak(threshold, sorted[longest.start:longest.end]).WithFlags(true, true))
			continue
		}
		if hasLongest {
			out = append(out, buildStreak(threshold, sorted[longest.start:longest.end]).WithFlags(true, false))
		}
		if hasActive {
			out = append(out, buildStreak(threshold, sorted[active.start:active.end]).WithFlags(false, true))
		}
	}
	return out, nil
}

func streakRuns(sorted []model.Session, threshold float64) (longest, active run, hasLongest, hasActive bool) {
	start := -1
	for i, s := range sorted {
		if s.Accuracy() >= threshold {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			current := run{start: start, end: i}
			if !hasLongest || current.len() > longest.len() {
				longest = current
				hasLongest = true
			}
			start = -1
		}
	}
	if start >= 0 {
		active = run{start: start, end: len(sorted)}
		hasActive = true
		if !hasLongest || active.len() > longest.len() {
			longest = active
			hasLongest = true
		}
	}
	return longest, active, hasLongest, hasActive
}

func buildStreak(threshold float64, sessions []model.Session) model.AccuracyStreak {
	streak := model.AccuracyStreak{
		Threshold: threshold,
		Lessons:   len(sessions),
		StartDate: sessions[0].LocalTime(),
	}
	var total float64
	for i, s := range sessions {
		streak.Characters += s.Length
		wpm := s.WPM()
		total += wpm
		if i == 0 || wpm > streak.TopSpeed {
			streak.TopSpeed = wpm
		}
	}
	streak.AverageSpeed = total / float64(len(sessions))
	return streak
}
