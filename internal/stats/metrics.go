package stats

import (
	"math"

	"github.com/verte-zerg/keystat/internal/model"
)

// wpmEpsilon keeps the WPM division finite when the mean latency is 0.
const wpmEpsilon = 0.000001

// LatencyHits pairs an observed latency with the number of hits seen at it.
type LatencyHits struct {
	Latency float64
	Hits    int
}

// ErrorRate returns misses / (hits + misses) in percent, or 0 without observations.
func ErrorRate(samples []model.HistogramSample) float64 {
	hits, misses := counts(samples)
	if hits+misses == 0 {
		return 0
	}
	return float64(misses) / float64(hits+misses) * 100
}

// WPM converts the hit-weighted mean latency of the samples to words per minute.
func WPM(samples []model.HistogramSample) float64 {
	mean, hits := MeanLatency(samples)
	if hits == 0 {
		return 0
	}
	return 12000 / (mean + wpmEpsilon)
}

// MeanLatency returns the hit-weighted mean latency and the total hit count.
func MeanLatency(samples []model.HistogramSample) (float64, int) {
	var total float64
	hits := 0
	for _, s := range samples {
		total += s.TimeToType * float64(s.HitCount)
		hits += s.HitCount
	}
	if hits == 0 {
		return 0, 0
	}
	return total / float64(hits), hits
}

// CoefficientOfVariation returns the hit-weighted standard deviation of latency
// divided by the mean.
func CoefficientOfVariation(samples []model.HistogramSample, mean float64, totalHits int) float64 {
	if totalHits == 0 || mean == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		diff := s.TimeToType - mean
		sum += float64(s.HitCount) * diff * diff
	}
	return math.Sqrt(sum/float64(totalHits)) / mean
}

// Percentile walks pairs sorted ascending by latency and returns the latency at
// which the cumulative hit count first reaches totalHits*p.
func Percentile(sorted []LatencyHits, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	total := 0
	for _, lh := range sorted {
		total += lh.Hits
	}
	if total == 0 {
		return 0
	}
	target := float64(total) * p
	cumulative := 0
	for _, lh := range sorted {
		cumulative += lh.Hits
		if float64(cumulative) >= target {
			return lh.Latency
		}
	}
	return sorted[len(sorted)-1].Latency
}

func counts(samples []model.HistogramSample) (hits, misses int) {
	for _, s := range samples {
		hits += s.HitCount
		misses += s.MissCount
	}
	return hits, misses
}

func window(samples []model.HistogramSample) model.WindowStats {
	hits, misses := counts(samples)
	return model.WindowStats{
		Hits:      hits,
		Misses:    misses,
		ErrorRate: ErrorRate(samples),
		WPM:       WPM(samples),
	}
}
