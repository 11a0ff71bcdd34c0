package stats

import (
	"sort"

	"github.com/verte-zerg/keystat/internal/model"
)

const (
	// MinL7Hits is the sample floor for keys shown in L7-based tables.
	MinL7Hits = 10
	// ErrorFloor is the L7 error rate a key must exceed to rank by impact.
	ErrorFloor = 3.0
	// MinSignificantHits is the D1 volume a key needs to rank as improved or regressed.
	MinSignificantHits = 50

	criticalPerList = 5
	improvedCount   = 5
)

// TargetFlag marks why a key was picked as a critical target.
type TargetFlag int

const (
	FlagHesitation TargetFlag = 1 << iota
	FlagImpact
	FlagStall
	FlagSlow
)

// Has reports whether f contains flag.
func (f TargetFlag) Has(flag TargetFlag) bool {
	return f&flag != 0
}

// Target is a key selected as a critical target with the reasons it was chosen.
type Target struct {
	Key   model.KeyPerformance
	Flags TargetFlag
}

// FilterMinL7Hits keeps keys with at least minHits hits in the last seven days.
func FilterMinL7Hits(keys []model.KeyPerformance, minHits int) []model.KeyPerformance {
	var out []model.KeyPerformance
	for _, k := range keys {
		if k.L7.Hits >= minHits {
			out = append(out, k)
		}
	}
	return out
}

// FilterKeys keeps keys whose label is in labels.
func FilterKeys(keys []model.KeyPerformance, labels []string) []model.KeyPerformance {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	var out []model.KeyPerformance
	for _, k := range keys {
		if _, ok := set[k.Key]; ok {
			out = append(out, k)
		}
	}
	return out
}

// WeakestByMastery returns up to n keys with the lowest mastery. n <= 0 keeps all.
func WeakestByMastery(keys []model.KeyPerformance, n int) []model.KeyPerformance {
	out := make([]model.KeyPerformance, len(keys))
	copy(out, keys)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Mastery < out[j].Mastery
	})
	return head(out, n)
}

// TopBy returns up to n keys with the highest value of metric.
func TopBy(keys []model.KeyPerformance, n int, metric func(model.KeyPerformance) float64) []model.KeyPerformance {
	out := make([]model.KeyPerformance, len(keys))
	copy(out, keys)
	sort.SliceStable(out, func(i, j int) bool {
		return metric(out[i]) > metric(out[j])
	})
	return head(out, n)
}

// CriticalTargets unions the five worst keys by hesitation, error impact,
// stall ratio and latency, ordered by impact plus ten times the stall ratio.
func CriticalTargets(keys []model.KeyPerformance) []Target {
	if len(keys) == 0 {
		return nil
	}
	var impactPool []model.KeyPerformance
	for _, k := range keys {
		if k.L7.ErrorRate > ErrorFloor {
			impactPool = append(impactPool, k)
		}
	}
	lists := []struct {
		flag TargetFlag
		keys []model.KeyPerformance
	}{
		{FlagHesitation, TopBy(keys, criticalPerList, func(k model.KeyPerformance) float64 { return k.L7CV })},
		{FlagImpact, TopBy(impactPool, criticalPerList, func(k model.KeyPerformance) float64 { return k.L7Impact })},
		{FlagStall, TopBy(keys, criticalPerList, func(k model.KeyPerformance) float64 { return k.StallRatio })},
		{FlagSlow, TopBy(keys, criticalPerList, func(k model.KeyPerformance) float64 { return k.L7Latency })},
	}

	index := map[int]int{}
	var out []Target
	for _, l := range lists {
		for _, k := range l.keys {
			if i, ok := index[k.CodePoint]; ok {
				out[i].Flags |= l.flag
				continue
			}
			index[k.CodePoint] = len(out)
			out = append(out, Target{Key: k, Flags: l.flag})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return criticalScore(out[i].Key) > criticalScore(out[j].Key)
	})
	return out
}

func criticalScore(k model.KeyPerformance) float64 {
	return k.L7Impact + k.StallRatio*10
}

// ImprovementToday selects the delta against the previous seven days.
func ImprovementToday(k model.KeyPerformance) float64 { return k.Improvement }

// ImprovementSinceYesterday selects the delta against yesterday.
func ImprovementSinceYesterday(k model.KeyPerformance) float64 { return k.ImprovementYesterday }

// TopImproved returns the most improved and most regressed keys among those
// with enough volume today, ordered from best to worst delta.
func TopImproved(keys []model.KeyPerformance, delta func(model.KeyPerformance) float64) []model.KeyPerformance {
	var significant []model.KeyPerformance
	for _, k := range keys {
		if k.D1.Hits+k.D1.Misses > MinSignificantHits {
			significant = append(significant, k)
		}
	}
	if len(significant) == 0 {
		return nil
	}
	ascending := make([]model.KeyPerformance, len(significant))
	copy(ascending, significant)
	sort.SliceStable(ascending, func(i, j int) bool {
		return delta(ascending[i]) < delta(ascending[j])
	})
	regressed := TopBy(significant, improvedCount, delta)

	candidates := make([]model.KeyPerformance, 0, 2*improvedCount)
	candidates = append(candidates, head(ascending, improvedCount)...)
	candidates = append(candidates, regressed...)

	seen := map[int]struct{}{}
	var out []model.KeyPerformance
	for _, k := range candidates {
		if _, ok := seen[k.CodePoint]; ok {
			continue
		}
		seen[k.CodePoint] = struct{}{}
		out = append(out, k)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return delta(out[i]) < delta(out[j])
	})
	return out
}

// SortByCodePoint returns the keys ordered by code point.
func SortByCodePoint(keys []model.KeyPerformance) []model.KeyPerformance {
	out := make([]model.KeyPerformance, len(keys))
	copy(out, keys)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CodePoint < out[j].CodePoint
	})
	return out
}

func head(keys []model.KeyPerformance, n int) []model.KeyPerformance {
	if n <= 0 || n >= len(keys) {
		return keys
	}
	return keys[:n]
}
