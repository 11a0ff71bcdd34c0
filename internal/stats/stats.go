// Package stats contains the per-key aggregation engine, the accuracy streak
// detector and session-level statistics.
package stats

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/verte-zerg/keystat/internal/model"
)

const (
	fatigueBlockSize = 5
	fatigueMaxBlock  = 10
	// FatigueSlopeLimit is the WPM-per-lesson slope below which fatigue is reported.
	FatigueSlopeLimit = -0.5
)

// Summary aggregates a set of sessions.
type Summary struct {
	Lessons     int
	DurationMs  int64
	TopWPM      float64
	AvgWPM      float64
	TopAccuracy float64
	AvgAccuracy float64
}

// DayProgress summarizes the sessions of one local calendar day.
type DayProgress struct {
	Date time.Time
	Summary
	Speeds []float64
}

// HourStats summarizes sessions started within one local hour of the day.
type HourStats struct {
	Hour     int
	Sessions int
	AvgWPM   float64
	AvgAcc   float64
}

// FatigueBlock summarizes sessions by their position within the day.
type FatigueBlock struct {
	Block    int
	Label    string
	Sessions int
	AvgWPM   float64
	AvgAcc   float64
}

// MilestoneStats holds career totals.
type MilestoneStats struct {
	TotalChars   int64
	TotalErrors  int64
	TotalHours   float64
	BestWPM      float64
	BestAt       time.Time
	AvgSessionLn float64
}

// Summarize computes lesson count, time and speed/accuracy extremes.
func Summarize(sessions []model.Session) Summary {
	var sum Summary
	if len(sessions) == 0 {
		return sum
	}
	var totalWPM, totalAcc float64
	for i, s := range sessions {
		wpm := s.WPM()
		acc := s.Accuracy()
		sum.DurationMs += s.DurationMs
		totalWPM += wpm
		totalAcc += acc
		if i == 0 || wpm > sum.TopWPM {
			sum.TopWPM = wpm
		}
		if i == 0 || acc > sum.TopAccuracy {
			sum.TopAccuracy = acc
		}
	}
	sum.Lessons = len(sessions)
	count := float64(len(sessions))
	sum.AvgWPM = totalWPM / count
	sum.AvgAccuracy = totalAcc / count
	return sum
}

// DailyProgress groups sessions by local date and keeps the most recent days.
func DailyProgress(sessions []model.Session, days int) []DayProgress {
	groups := map[time.Time][]model.Session{}
	for _, s := range sessions {
		day := civilDay(s.LocalTime())
		groups[day] = append(groups[day], s)
	}
	dates := make([]time.Time, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if days > 0 && len(dates) > days {
		dates = dates[len(dates)-days:]
	}
	out := make([]DayProgress, 0, len(dates))
	for _, d := range dates {
		group := groups[d]
		speeds := make([]float64, len(group))
		for i, s := range group {
			speeds[i] = s.WPM()
		}
		out = append(out, DayProgress{Date: d, Summary: Summarize(group), Speeds: speeds})
	}
	return out
}

// HourlyBreakdown aggregates sessions by their local start hour.
func HourlyBreakdown(sessions []model.Session) []HourStats {
	groups := map[int][]model.Session{}
	for _, s := range sessions {
		h := s.LocalTime().Hour()
		groups[h] = append(groups[h], s)
	}
	out := make([]HourStats, 0, len(groups))
	for h, group := range groups {
		sum := Summarize(group)
		out = append(out, HourStats{Hour: h, Sessions: sum.Lessons, AvgWPM: sum.AvgWPM, AvgAcc: sum.AvgAccuracy})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// FatigueBlocks numbers sessions within each local day and averages them in
// blocks of five lessons. Lessons past the fiftieth share the last block.
func FatigueBlocks(sessions []model.Session) []FatigueBlock {
	byDay := map[time.Time][]model.Session{}
	for _, s := range sessions {
		day := civilDay(s.LocalTime())
		byDay[day] = append(byDay[day], s)
	}
	blocks := map[int][]model.Session{}
	for _, group := range byDay {
		ordered := sortedByTime(group)
		for i, s := range ordered {
			b := i / fatigueBlockSize
			if b > fatigueMaxBlock {
				b = fatigueMaxBlock
			}
			blocks[b] = append(blocks[b], s)
		}
	}
	out := make([]FatigueBlock, 0, len(blocks))
	for b, group := range blocks {
		sum := Summarize(group)
		out = append(out, FatigueBlock{
			Block:    b,
			Label:    fatigueLabel(b),
			Sessions: sum.Lessons,
			AvgWPM:   sum.AvgWPM,
			AvgAcc:   sum.AvgAccuracy,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Block < out[j].Block })
	return out
}

func fatigueLabel(block int) string {
	if block >= fatigueMaxBlock {
		return strconv.Itoa(block*fatigueBlockSize+1) + "+"
	}
	return strconv.Itoa(block*fatigueBlockSize+1) + "-" + strconv.Itoa(block*fatigueBlockSize+fatigueBlockSize)
}

// FatigueSlope fits WPM against lesson index for the latest local day. It
// reports false with fewer than three lessons or a degenerate fit.
func FatigueSlope(sessions []model.Session) (float64, bool) {
	latest, ok := LatestTimestamp(sessions)
	if !ok {
		return 0, false
	}
	today := sortedByTime(SessionsOnDay(sessions, latest))
	n := float64(len(today))
	if len(today) < 3 {
		return 0, false
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, s := range today {
		x := float64(i)
		y := s.WPM()
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if math.Abs(den) < 0.000001 {
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / den, true
}

// Milestones returns career totals and the personal best.
func Milestones(sessions []model.Session) MilestoneStats {
	var m MilestoneStats
	if len(sessions) == 0 {
		return m
	}
	var totalMs int64
	for i, s := range sessions {
		m.TotalChars += int64(s.Length)
		m.TotalErrors += int64(s.Errors)
		totalMs += s.DurationMs
		if i == 0 || s.WPM() > m.BestWPM {
			m.BestWPM = s.WPM()
			m.BestAt = s.LocalTime()
		}
	}
	m.TotalHours = float64(totalMs) / 1000.0 / 3600.0
	m.AvgSessionLn = float64(m.TotalChars) / float64(len(sessions))
	return m
}

// DomainGap returns the WPM difference between generated lessons and
// code/natural lessons. Negative values mean code is typed faster.
func DomainGap(sessions []model.Session) (float64, bool) {
	code := SelectByText(sessions, "code", "natural")
	generated := SelectByText(sessions, "generated")
	if len(code) == 0 || len(generated) == 0 {
		return 0, false
	}
	return Summarize(generated).AvgWPM - Summarize(code).AvgWPM, true
}

// SelectByText returns the sessions whose text type is one of types.
func SelectByText(sessions []model.Session, types ...string) []model.Session {
	var out []model.Session
	for _, s := range sessions {
		for _, t := range types {
			if s.TextType == t {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// SessionsOnDay returns the sessions on the same local date as day.
func SessionsOnDay(sessions []model.Session, day time.Time) []model.Session {
	target := civilDay(day.Local())
	var out []model.Session
	for _, s := range sessions {
		if civilDay(s.LocalTime()).Equal(target) {
			out = append(out, s)
		}
	}
	return out
}

// SessionsSince returns the sessions at or after since.
func SessionsSince(sessions []model.Session, since time.Time) []model.Session {
	var out []model.Session
	for _, s := range sessions {
		if !s.Timestamp.Before(since) {
			out = append(out, s)
		}
	}
	return out
}

func sortedByTime(sessions []model.Session) []model.Session {
	out := make([]model.Session, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
