package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/keystat/internal/model"
)

func lessonsWithAccuracy(start time.Time, accuracies ...float64) []model.Session {
	out := make([]model.Session, len(accuracies))
	for i, acc := range accuracies {
		out[i] = model.Session{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Speed:     float64(200 + 10*i),
			Length:    100,
			Errors:    int(100 - acc),
		}
	}
	return out
}

func TestAccuracyStreaksMergesMaxAndCurrent(t *testing.T) {
	start := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	sessions := lessonsWithAccuracy(start, 100, 100, 95, 100, 100, 100)

	streaks, err := AccuracyStreaks(sessions, DefaultStreakThresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(streaks) != 3 {
		t.Fatalf("expected one record per threshold, got %d", len(streaks))
	}

	for _, s := range streaks[:2] {
		if s.Lessons != 3 {
			t.Fatalf("threshold %v: expected 3 lessons, got %d", s.Threshold, s.Lessons)
		}
		if !s.IsMax || !s.IsCurrent {
			t.Fatalf("threshold %v: expected both flags, got %+v", s.Threshold, s)
		}
		if !s.StartDate.Equal(sessions[3].Timestamp) {
			t.Fatalf("threshold %v: expected start at fourth lesson, got %v", s.Threshold, s.StartDate)
		}
		if s.Characters != 300 {
			t.Fatalf("expected 300 characters, got %d", s.Characters)
		}
		if s.TopSpeed != 50 {
			t.Fatalf("expected top speed 50, got %v", s.TopSpeed)
		}
		if s.AverageSpeed != 48 {
			t.Fatalf("expected average speed 48, got %v", s.AverageSpeed)
		}
	}
	last := streaks[2]
	if last.Threshold != 95 || last.Lessons != 6 || !last.IsMax || !last.IsCurrent {
		t.Fatalf("expected full six-lesson streak at 95, got %+v", last)
	}
}

func TestAccuracyStreaksSeparateMaxAndCurrent(t *testing.T) {
	start := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	sessions := lessonsWithAccuracy(start, 100, 100, 100, 90, 100)

	streaks, err := AccuracyStreaks(sessions, []float64{100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(streaks) != 2 {
		t.Fatalf("expected max and current records, got %d", len(streaks))
	}
	longest, current := streaks[0], streaks[1]
	if !longest.IsMax || longest.IsCurrent || longest.Lessons != 3 {
		t.Fatalf("unexpected max record: %+v", longest)
	}
	if current.IsMax || !current.IsCurrent || current.Lessons != 1 {
		t.Fatalf("unexpected current record: %+v", current)
	}
	if !current.StartDate.Equal(sessions[4].Timestamp) {
		t.Fatalf("expected current streak to start at the last lesson, got %v", current.StartDate)
	}
}

func TestAccuracyStreaksTieKeepsEarlierRun(t *testing.T) {
	start := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	sessions := lessonsWithAccuracy(start, 100, 100, 80, 100, 100, 80)

	streaks, err := AccuracyStreaks(sessions, []float64{100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(streaks) != 1 {
		t.Fatalf("expected a single max record without an active run, got %d", len(streaks))
	}
	if !streaks[0].StartDate.Equal(sessions[0].Timestamp) || streaks[0].IsCurrent {
		t.Fatalf("expected earliest run to win the tie, got %+v", streaks[0])
	}
}

func TestAccuracyStreaksUnsortedInput(t *testing.T) {
	start := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	sessions := lessonsWithAccuracy(start, 100, 90, 100, 100)
	shuffled := []model.Session{sessions[3], sessions[0], sessions[2], sessions[1]}

	streaks, err := AccuracyStreaks(shuffled, []float64{100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(streaks) != 1 || streaks[0].Lessons != 2 || !streaks[0].IsCurrent {
		t.Fatalf("expected chronological two-lesson current streak, got %+v", streaks)
	}
	if !shuffled[0].Timestamp.Equal(sessions[3].Timestamp) {
		t.Fatalf("input order was modified")
	}
}

func TestAccuracyStreaksEmptyLessonBreaksRun(t *testing.T) {
	start := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	sessions := lessonsWithAccuracy(start, 100, 100, 100)
	sessions[1].Length = 0
	sessions[1].Errors = 0

	streaks, err := AccuracyStreaks(sessions, []float64{95})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(streaks) != 2 {
		t.Fatalf("expected the empty lesson to split the run, got %+v", streaks)
	}
	for _, s := range streaks {
		if s.Lessons != 1 {
			t.Fatalf("expected one-lesson runs, got %+v", s)
		}
	}
}

func TestAccuracyStreaksNoQualifyingSessions(t *testing.T) {
	start := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	sessions := lessonsWithAccuracy(start, 80, 85, 90)

	streaks, err := AccuracyStreaks(sessions, []float64{100, 97})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(streaks) != 0 {
		t.Fatalf("expected no streaks, got %+v", streaks)
	}

	streaks, err = AccuracyStreaks([]model.Session{}, DefaultStreakThresholds)
	if err != nil || len(streaks) != 0 {
		t.Fatalf("expected empty result for empty history, got %+v, %v", streaks, err)
	}
}

func TestAccuracyStreaksNilInput(t *testing.T) {
	if _, err := AccuracyStreaks(nil, DefaultStreakThresholds); !errors.Is(err, ErrNilSessions) {
		t.Fatalf("expected ErrNilSessions, got %v", err)
	}
	if _, err := AccuracyStreaks([]model.Session{}, nil); !errors.Is(err, ErrNilThresholds) {
		t.Fatalf("expected ErrNilThresholds, got %v", err)
	}
}

func TestAccuracyStreaksFlagsAreExclusivePerRecord(t *testing.T) {
	start := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	sessions := lessonsWithAccuracy(start, 99, 98, 100, 96, 97, 97, 100, 92, 98, 99)

	streaks, err := AccuracyStreaks(sessions, DefaultStreakThresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tally := map[float64][2]int{}
	for _, s := range streaks {
		if !s.IsMax && !s.IsCurrent {
			t.Fatalf("record without flags: %+v", s)
		}
		c := tally[s.Threshold]
		if s.IsMax {
			c[0]++
		}
		if s.IsCurrent {
			c[1]++
		}
		tally[s.Threshold] = c
	}
	for threshold, c := range tally {
		if c[0] > 1 || c[1] > 1 {
			t.Fatalf("threshold %v: expected at most one max and one current, got %v", threshold, c)
		}
	}
}
