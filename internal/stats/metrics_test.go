package stats

import (
	"math"
	"testing"

	"github.com/verte-zerg/keystat/internal/model"
)

func TestErrorRate(t *testing.T) {
	if got := ErrorRate(nil); got != 0 {
		t.Fatalf("expected 0 for empty samples, got %v", got)
	}
	if got := ErrorRate([]model.HistogramSample{{CodePoint: 65}}); got != 0 {
		t.Fatalf("expected 0 without hits or misses, got %v", got)
	}
	samples := []model.HistogramSample{{CodePoint: 65, HitCount: 80, MissCount: 20, TimeToType: 200}}
	if got := ErrorRate(samples); got != 20 {
		t.Fatalf("expected 20%%, got %v", got)
	}
}

func TestWPM(t *testing.T) {
	if got := WPM([]model.HistogramSample{{CodePoint: 65, MissCount: 3, TimeToType: 200}}); got != 0 {
		t.Fatalf("expected 0 without hits, got %v", got)
	}
	samples := []model.HistogramSample{{CodePoint: 65, HitCount: 10, TimeToType: 200}}
	if got := WPM(samples); math.Abs(got-60) > 0.001 {
		t.Fatalf("expected 60 wpm, got %v", got)
	}
	fast := []model.HistogramSample{{CodePoint: 65, HitCount: 10, TimeToType: 10}}
	if got := WPM(fast); math.Abs(got-1200) > 0.1 {
		t.Fatalf("expected uncapped 1200 wpm, got %v", got)
	}
	zero := []model.HistogramSample{{CodePoint: 65, HitCount: 1, TimeToType: 0}}
	if got := WPM(zero); math.IsInf(got, 0) || math.IsNaN(got) || got <= 0 {
		t.Fatalf("expected finite positive wpm for zero latency, got %v", got)
	}
}

func TestWPMDecreasesWithLatency(t *testing.T) {
	prev := math.Inf(1)
	for _, latency := range []float64{50, 100, 150, 200, 400, 800} {
		got := WPM([]model.HistogramSample{{CodePoint: 65, HitCount: 4, TimeToType: latency}})
		if got > prev {
			t.Fatalf("wpm increased from %v to %v at latency %v", prev, got, latency)
		}
		prev = got
	}
}

func TestMeanLatencyIsHitWeighted(t *testing.T) {
	samples := []model.HistogramSample{
		{CodePoint: 65, HitCount: 3, TimeToType: 100},
		{CodePoint: 65, HitCount: 1, TimeToType: 500},
	}
	mean, hits := MeanLatency(samples)
	if hits != 4 {
		t.Fatalf("expected 4 hits, got %d", hits)
	}
	if mean != 200 {
		t.Fatalf("expected mean 200, got %v", mean)
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	samples := []model.HistogramSample{
		{CodePoint: 65, HitCount: 1, TimeToType: 100},
		{CodePoint: 65, HitCount: 1, TimeToType: 300},
	}
	if got := CoefficientOfVariation(samples, 200, 2); got != 0.5 {
		t.Fatalf("expected cv 0.5, got %v", got)
	}
	if got := CoefficientOfVariation(samples, 200, 0); got != 0 {
		t.Fatalf("expected 0 without hits, got %v", got)
	}
	if got := CoefficientOfVariation(samples, 0, 2); got != 0 {
		t.Fatalf("expected 0 with zero mean, got %v", got)
	}
}

func TestCoefficientOfVariationScaleInvariant(t *testing.T) {
	base := []model.HistogramSample{
		{CodePoint: 65, HitCount: 2, TimeToType: 120},
		{CodePoint: 65, HitCount: 5, TimeToType: 180},
		{CodePoint: 65, HitCount: 1, TimeToType: 450},
	}
	mean, hits := MeanLatency(base)
	want := CoefficientOfVariation(base, mean, hits)

	scaled := make([]model.HistogramSample, len(base))
	for i, s := range base {
		s.TimeToType *= 3.5
		scaled[i] = s
	}
	got := CoefficientOfVariation(scaled, mean*3.5, hits)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected scale-invariant cv %v, got %v", want, got)
	}
}

func TestPercentile(t *testing.T) {
	pairs := []LatencyHits{{100, 1}, {200, 1}, {300, 1}, {400, 1}}
	if got := Percentile(pairs, 0.5); got != 200 {
		t.Fatalf("expected p50 200, got %v", got)
	}
	if got := Percentile(pairs, 0.75); got != 300 {
		t.Fatalf("expected p75 300, got %v", got)
	}
	if got := Percentile(nil, 0.5); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
	if got := Percentile([]LatencyHits{{100, 0}}, 0.5); got != 0 {
		t.Fatalf("expected 0 without hits, got %v", got)
	}
	if got := Percentile(pairs, 1.5); got != 400 {
		t.Fatalf("expected last latency when no pair reaches target, got %v", got)
	}
}

func TestPercentileIsObservedAndMonotonic(t *testing.T) {
	pairs := []LatencyHits{{90, 3}, {110, 1}, {150, 7}, {320, 2}, {900, 1}}
	observed := map[float64]bool{}
	for _, p := range pairs {
		observed[p.Latency] = true
	}
	prev := 0.0
	for p := 0.0; p <= 1.0; p += 0.05 {
		got := Percentile(pairs, p)
		if !observed[got] {
			t.Fatalf("percentile %v returned unobserved latency %v", p, got)
		}
		if got < prev {
			t.Fatalf("percentile decreased at p=%v: %v < %v", p, got, prev)
		}
		prev = got
	}
}

func TestMastery(t *testing.T) {
	if got := Mastery(0, 10, 0.2, 1); got != 0 {
		t.Fatalf("expected 0 mastery without latency, got %v", got)
	}
	got := Mastery(200, 10, 0.25, 2.0)
	want := 1000.0 / (200 * 1.1 * 1.25 * 2.0)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected mastery %v, got %v", want, got)
	}
}
