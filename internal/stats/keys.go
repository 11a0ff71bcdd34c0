package stats

import (
	"sort"
	"time"

	"github.com/verte-zerg/keystat/internal/model"
)

const (
	spaceCodePoint = 32
	spaceLabel     = "SPC"
	dailyWPMDays   = 7
)

// KeyOptions tunes the per-key aggregation.
type KeyOptions struct {
	// AllWPMCap clamps the all-time WPM when positive. Zero leaves it uncapped.
	AllWPMCap float64
}

type datedSample struct {
	sample model.HistogramSample
	day    time.Time
}

// AnalyzeKeys builds one KeyPerformance per code point seen in the sessions.
// Windows are anchored on the local calendar date of latest. The result is
// ordered by code point and the input is never modified.
func AnalyzeKeys(sessions []model.Session, latest time.Time, opts KeyOptions) []model.KeyPerformance {
	ref := civilDay(latest.Local())
	groups := map[int][]datedSample{}
	for _, s := range sessions {
		day := civilDay(s.LocalTime())
		for _, h := range s.Histogram {
			groups[h.CodePoint] = append(groups[h.CodePoint], datedSample{sample: h, day: day})
		}
	}

	codePoints := make([]int, 0, len(groups))
	for cp := range groups {
		codePoints = append(codePoints, cp)
	}
	sort.Ints(codePoints)

	out := make([]model.KeyPerformance, 0, len(codePoints))
	for _, cp := range codePoints {
		out = append(out, analyzeKey(cp, groups[cp], ref, opts))
	}
	return out
}

// KeyLabel returns the display label of a code point.
func KeyLabel(codePoint int) string {
	if codePoint == spaceCodePoint {
		return spaceLabel
	}
	return string(rune(codePoint))
}

// LatestTimestamp returns the maximum session timestamp.
func LatestTimestamp(sessions []model.Session) (time.Time, bool) {
	if len(sessions) == 0 {
		return time.Time{}, false
	}
	latest := sessions[0].Timestamp
	for _, s := range sessions[1:] {
		if s.Timestamp.After(latest) {
			latest = s.Timestamp
		}
	}
	return latest, true
}

func analyzeKey(codePoint int, entries []datedSample, ref time.Time, opts KeyOptions) model.KeyPerformance {
	all := samplesWhere(entries, func(time.Time) bool { return true })
	l7 := samplesWhere(entries, after(ref.AddDate(0, 0, -7)))
	l3 := samplesWhere(entries, after(ref.AddDate(0, 0, -3)))
	l1 := samplesWhere(entries, after(ref.AddDate(0, 0, -1)))
	d1 := samplesWhere(entries, on(ref))
	d2 := samplesWhere(entries, on(ref.AddDate(0, 0, -1)))
	d3 := samplesWhere(entries, on(ref.AddDate(0, 0, -2)))
	weekStart := ref.AddDate(0, 0, -7)
	prev7 := samplesWhere(entries, func(day time.Time) bool {
		return day.Before(ref) && !day.Before(weekStart)
	})

	perf := model.KeyPerformance{
		CodePoint: codePoint,
		Key:       KeyLabel(codePoint),
		All:       window(all),
		L7:        window(l7),
		L3:        window(l3),
		L1:        window(l1),
		D1:        window(d1),
		D2:        window(d2),
		D3:        window(d3),
	}
	if opts.AllWPMCap > 0 && perf.All.WPM > opts.AllWPMCap {
		perf.All.WPM = opts.AllWPMCap
	}

	latency, allHits := MeanLatency(all)
	perf.Latency = latency
	perf.CV = CoefficientOfVariation(all, latency, allHits)
	l7Latency, l7Hits := MeanLatency(l7)
	perf.L7Latency = l7Latency
	perf.L7CV = CoefficientOfVariation(l7, l7Latency, l7Hits)

	sorted := sortedLatencies(all)
	perf.P50 = Percentile(sorted, 0.5)
	perf.P95 = Percentile(sorted, 0.95)
	perf.StallRatio = 1.0
	if perf.P50 > 0 {
		perf.StallRatio = perf.P95 / perf.P50
	}

	perf.Mastery = Mastery(latency, perf.All.ErrorRate, perf.CV, DifficultyWeight(codePoint))

	perf.DailyWPM = make([]float64, dailyWPMDays)
	for i := 0; i < dailyWPMDays; i++ {
		day := ref.AddDate(0, 0, -(dailyWPMDays - 1 - i))
		perf.DailyWPM[i] = WPM(samplesWhere(entries, on(day)))
	}

	if len(d1) > 0 && len(prev7) > 0 {
		perf.Improvement = perf.D1.ErrorRate - ErrorRate(prev7)
	}
	if len(d1) > 0 && len(d2) > 0 {
		perf.ImprovementYesterday = perf.D1.ErrorRate - perf.D2.ErrorRate
	}
	perf.L7Impact = float64(perf.L7.Hits) * perf.L7.ErrorRate / 100.0
	return perf
}

// Mastery combines latency, error rate, variability and key difficulty.
// Higher is better; keys without latency score 0.
func Mastery(latency, errorRate, cv, weight float64) float64 {
	if latency <= 0 {
		return 0
	}
	return 1000.0 / (latency * (1 + errorRate/100.0) * (1 + cv) * weight)
}

func sortedLatencies(samples []model.HistogramSample) []LatencyHits {
	out := make([]LatencyHits, len(samples))
	for i, s := range samples {
		out[i] = LatencyHits{Latency: s.TimeToType, Hits: s.HitCount}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Latency < out[j].Latency
	})
	return out
}

func samplesWhere(entries []datedSample, keep func(day time.Time) bool) []model.HistogramSample {
	var out []model.HistogramSample
	for _, e := range entries {
		if keep(e.day) {
			out = append(out, e.sample)
		}
	}
	return out
}

func after(bound time.Time) func(time.Time) bool {
	return func(day time.Time) bool { return day.After(bound) }
}

func on(target time.Time) func(time.Time) bool {
	return func(day time.Time) bool { return day.Equal(target) }
}

// civilDay strips the clock from t, keeping its calendar date in UTC so day
// arithmetic never crosses a DST change.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
