package stats

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/keystat/internal/model"
)

func sessionAt(ts time.Time, samples ...model.HistogramSample) model.Session {
	length := 0
	for _, s := range samples {
		length += s.HitCount + s.MissCount
	}
	return model.Session{
		Timestamp:  ts.UTC(),
		Speed:      250,
		Length:     length,
		DurationMs: 60000,
		TextType:   "code",
		Histogram:  samples,
	}
}

func sample(cp rune, hits, misses int, latency float64) model.HistogramSample {
	return model.HistogramSample{CodePoint: int(cp), HitCount: hits, MissCount: misses, TimeToType: latency}
}

func TestAnalyzeKeysL7Metrics(t *testing.T) {
	maxDate := time.Date(2026, 2, 15, 12, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionAt(maxDate.AddDate(0, 0, -1), sample('A', 1, 0, 200)),
		sessionAt(maxDate.AddDate(0, 0, -2), sample('A', 1, 0, 400)),
		sessionAt(maxDate.AddDate(0, 0, -10), sample('A', 1, 0, 1000)),
	}

	keys := AnalyzeKeys(sessions, maxDate, KeyOptions{})
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(keys))
	}
	k := keys[0]
	if k.Key != "A" {
		t.Fatalf("expected key A, got %q", k.Key)
	}
	if k.L7.Hits != 2 {
		t.Fatalf("expected 2 L7 hits, got %d", k.L7.Hits)
	}
	if k.L7Latency != 300 {
		t.Fatalf("expected L7 latency 300, got %v", k.L7Latency)
	}
	if math.Abs(k.L7CV-1.0/3.0) > 0.001 {
		t.Fatalf("expected L7 CV 0.333, got %v", k.L7CV)
	}
	if k.All.Hits != 3 {
		t.Fatalf("expected 3 hits overall, got %d", k.All.Hits)
	}
	if math.Abs(k.Latency-1600.0/3.0) > 0.001 {
		t.Fatalf("expected latency 533.33, got %v", k.Latency)
	}
	if k.P50 != 400 || k.P95 != 1000 {
		t.Fatalf("expected p50=400 p95=1000, got %v/%v", k.P50, k.P95)
	}
	if k.StallRatio != 2.5 {
		t.Fatalf("expected stall ratio 2.5, got %v", k.StallRatio)
	}
}

func TestAnalyzeKeysWindows(t *testing.T) {
	ref := time.Date(2026, 3, 10, 18, 30, 0, 0, time.Local)
	day := func(offset int) time.Time {
		return time.Date(2026, 3, 10+offset, 9, 0, 0, 0, time.Local)
	}
	sessions := []model.Session{
		sessionAt(day(0), sample('e', 10, 1, 150)),
		sessionAt(day(-1), sample('e', 10, 2, 150)),
		sessionAt(day(-2), sample('e', 10, 3, 150)),
		sessionAt(day(-5), sample('e', 10, 4, 150)),
		sessionAt(day(-7), sample('e', 10, 5, 150)),
		sessionAt(day(-9), sample('e', 10, 6, 150)),
	}

	k := AnalyzeKeys(sessions, ref, KeyOptions{})[0]
	if k.All.Hits != 60 || k.All.Misses != 21 {
		t.Fatalf("unexpected all-time counts: %+v", k.All)
	}
	if k.L7.Misses != 1+2+3+4 {
		t.Fatalf("expected L7 to exclude the seventh day back, got %d misses", k.L7.Misses)
	}
	if k.L3.Misses != 1+2+3 {
		t.Fatalf("expected L3 misses 6, got %d", k.L3.Misses)
	}
	if k.L1.Misses != 1 || k.D1.Misses != 1 {
		t.Fatalf("expected L1 and D1 to be today only, got %d/%d", k.L1.Misses, k.D1.Misses)
	}
	if k.D2.Misses != 2 || k.D3.Misses != 3 {
		t.Fatalf("unexpected day buckets: D2=%d D3=%d", k.D2.Misses, k.D3.Misses)
	}
	// Prev7 spans the seven days before today, inclusive of the seventh.
	prev7Err := float64(2+3+4+5) / float64(40+14) * 100
	wantImprovement := k.D1.ErrorRate - prev7Err
	if math.Abs(k.Improvement-wantImprovement) > 1e-9 {
		t.Fatalf("expected improvement %v, got %v", wantImprovement, k.Improvement)
	}
	if math.Abs(k.ImprovementYesterday-(k.D1.ErrorRate-k.D2.ErrorRate)) > 1e-9 {
		t.Fatalf("unexpected yesterday improvement %v", k.ImprovementYesterday)
	}
	wantImpact := float64(k.L7.Hits) * k.L7.ErrorRate / 100
	if k.L7Impact != wantImpact {
		t.Fatalf("expected impact %v, got %v", wantImpact, k.L7Impact)
	}
}

func TestAnalyzeKeysDailyWPM(t *testing.T) {
	ref := time.Date(2026, 3, 10, 20, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionAt(time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local), sample('k', 5, 0, 200)),
		sessionAt(time.Date(2026, 3, 4, 8, 0, 0, 0, time.Local), sample('k', 5, 0, 100)),
		sessionAt(time.Date(2026, 3, 3, 8, 0, 0, 0, time.Local), sample('k', 5, 0, 50)),
	}
	k := AnalyzeKeys(sessions, ref, KeyOptions{})[0]
	if len(k.DailyWPM) != 7 {
		t.Fatalf("expected 7 daily values, got %d", len(k.DailyWPM))
	}
	if math.Abs(k.DailyWPM[6]-60) > 0.001 {
		t.Fatalf("expected today's wpm 60 at the end, got %v", k.DailyWPM[6])
	}
	if math.Abs(k.DailyWPM[0]-120) > 0.001 {
		t.Fatalf("expected oldest day wpm 120 first, got %v", k.DailyWPM[0])
	}
	for i := 1; i < 6; i++ {
		if k.DailyWPM[i] != 0 {
			t.Fatalf("expected 0 for empty day %d, got %v", i, k.DailyWPM[i])
		}
	}
}

func TestAnalyzeKeysImprovementGuard(t *testing.T) {
	ref := time.Date(2026, 3, 10, 20, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionAt(time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local), sample('a', 10, 0, 200)),
		sessionAt(time.Date(2026, 3, 6, 8, 0, 0, 0, time.Local), sample('b', 10, 5, 200)),
	}
	keys := AnalyzeKeys(sessions, ref, KeyOptions{})
	for _, k := range keys {
		if k.Improvement != 0 || k.ImprovementYesterday != 0 {
			t.Fatalf("expected zero improvement for %s without both windows, got %v/%v", k.Key, k.Improvement, k.ImprovementYesterday)
		}
	}
}

func TestAnalyzeKeysNeutralDefaults(t *testing.T) {
	ref := time.Date(2026, 3, 10, 20, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionAt(time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local), sample('q', 0, 4, 0)),
	}
	k := AnalyzeKeys(sessions, ref, KeyOptions{})[0]
	if k.StallRatio != 1.0 {
		t.Fatalf("expected neutral stall ratio, got %v", k.StallRatio)
	}
	if k.Mastery != 0 || k.Latency != 0 || k.CV != 0 || k.All.WPM != 0 {
		t.Fatalf("expected zero defaults, got %+v", k)
	}
	if k.All.ErrorRate != 100 {
		t.Fatalf("expected 100%% errors, got %v", k.All.ErrorRate)
	}
}

func TestAnalyzeKeysAllWPMCap(t *testing.T) {
	ref := time.Date(2026, 3, 10, 20, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionAt(time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local), sample('f', 10, 0, 10)),
	}
	uncapped := AnalyzeKeys(sessions, ref, KeyOptions{})[0]
	if uncapped.All.WPM < 1000 {
		t.Fatalf("expected uncapped all-time wpm, got %v", uncapped.All.WPM)
	}
	capped := AnalyzeKeys(sessions, ref, KeyOptions{AllWPMCap: 100})[0]
	if capped.All.WPM != 100 {
		t.Fatalf("expected all-time wpm capped at 100, got %v", capped.All.WPM)
	}
	if capped.L7.WPM != uncapped.L7.WPM {
		t.Fatalf("cap must only apply to all-time wpm, L7 changed to %v", capped.L7.WPM)
	}
}

func TestAnalyzeKeysIsDeterministic(t *testing.T) {
	ref := time.Date(2026, 3, 10, 20, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionAt(time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local), sample('x', 3, 1, 210), sample(' ', 9, 0, 90)),
		sessionAt(time.Date(2026, 3, 8, 8, 0, 0, 0, time.Local), sample('x', 2, 0, 260), sample('(', 1, 1, 600)),
	}
	first := AnalyzeKeys(sessions, ref, KeyOptions{})
	second := AnalyzeKeys(sessions, ref, KeyOptions{})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results for identical input")
	}
	if first[0].Key != "SPC" || first[1].Key != "(" || first[2].Key != "x" {
		t.Fatalf("expected code point order, got %q %q %q", first[0].Key, first[1].Key, first[2].Key)
	}
	if sessions[0].Histogram[0].HitCount != 3 {
		t.Fatalf("input was modified")
	}
}

func TestKeyLabel(t *testing.T) {
	if got := KeyLabel(32); got != "SPC" {
		t.Fatalf("expected SPC, got %q", got)
	}
	if got := KeyLabel('{'); got != "{" {
		t.Fatalf("expected {, got %q", got)
	}
	got := KeyLabel(0x1F600)
	if got != "\U0001F600" || len(got) != 4 {
		t.Fatalf("expected full astral encoding, got %q", got)
	}
}

func TestLatestTimestamp(t *testing.T) {
	if _, ok := LatestTimestamp(nil); ok {
		t.Fatalf("expected no timestamp for empty input")
	}
	a := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(time.Hour)
	got, ok := LatestTimestamp([]model.Session{{Timestamp: b}, {Timestamp: a}})
	if !ok || !got.Equal(b) {
		t.Fatalf("expected %v, got %v", b, got)
	}
}
