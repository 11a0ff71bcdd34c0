package stats

import (
	"testing"

	"github.com/verte-zerg/keystat/internal/model"
)

func perf(cp rune, mutate func(*model.KeyPerformance)) model.KeyPerformance {
	k := model.KeyPerformance{CodePoint: int(cp), Key: KeyLabel(int(cp)), StallRatio: 1}
	if mutate != nil {
		mutate(&k)
	}
	return k
}

func TestFilterMinL7Hits(t *testing.T) {
	keys := []model.KeyPerformance{
		perf('a', func(k *model.KeyPerformance) { k.L7.Hits = 9 }),
		perf('b', func(k *model.KeyPerformance) { k.L7.Hits = 10 }),
	}
	got := FilterMinL7Hits(keys, MinL7Hits)
	if len(got) != 1 || got[0].Key != "b" {
		t.Fatalf("expected only b, got %+v", got)
	}
}

func TestFilterKeys(t *testing.T) {
	keys := []model.KeyPerformance{perf('a', nil), perf(' ', nil), perf('z', nil)}
	got := FilterKeys(keys, []string{"SPC", "z", "q"})
	if len(got) != 2 || got[0].Key != "SPC" || got[1].Key != "z" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
}

func TestWeakestByMastery(t *testing.T) {
	keys := []model.KeyPerformance{
		perf('a', func(k *model.KeyPerformance) { k.Mastery = 5 }),
		perf('b', func(k *model.KeyPerformance) { k.Mastery = 1 }),
		perf('c', func(k *model.KeyPerformance) { k.Mastery = 3 }),
	}
	got := WeakestByMastery(keys, 2)
	if len(got) != 2 || got[0].Key != "b" || got[1].Key != "c" {
		t.Fatalf("unexpected weakest keys: %+v", got)
	}
	if keys[0].Key != "a" {
		t.Fatalf("input was reordered")
	}
	if all := WeakestByMastery(keys, 0); len(all) != 3 {
		t.Fatalf("expected all keys with n=0, got %d", len(all))
	}
}

func TestCriticalTargetsUnionsFlags(t *testing.T) {
	keys := []model.KeyPerformance{
		perf('a', func(k *model.KeyPerformance) {
			k.L7CV = 0.9
			k.L7.ErrorRate = 10
			k.L7Impact = 20
			k.StallRatio = 4
			k.L7Latency = 500
		}),
		perf('b', func(k *model.KeyPerformance) {
			k.L7CV = 0.1
			k.L7.ErrorRate = 2
			k.L7Impact = 30
			k.L7Latency = 100
		}),
	}
	targets := CriticalTargets(keys)
	if len(targets) != 2 {
		t.Fatalf("expected both keys, got %d", len(targets))
	}
	first := targets[0]
	if first.Key.Key != "a" {
		t.Fatalf("expected a ranked first by impact plus stall, got %s", first.Key.Key)
	}
	for _, flag := range []TargetFlag{FlagHesitation, FlagImpact, FlagStall, FlagSlow} {
		if !first.Flags.Has(flag) {
			t.Fatalf("expected a to carry flag %v, got %v", flag, first.Flags)
		}
	}
	if targets[1].Flags.Has(FlagImpact) {
		t.Fatalf("b is below the error floor and must not be flagged for impact")
	}
	if CriticalTargets(nil) != nil {
		t.Fatalf("expected nil targets for no keys")
	}
}

func TestTopImproved(t *testing.T) {
	var keys []model.KeyPerformance
	for i, delta := range []float64{-8, -3, 0, 2, 9} {
		d := delta
		keys = append(keys, perf(rune('a'+i), func(k *model.KeyPerformance) {
			k.D1.Hits = 60
			k.Improvement = d
		}))
	}
	keys = append(keys, perf('z', func(k *model.KeyPerformance) {
		k.D1.Hits = 10
		k.Improvement = -50
	}))

	got := TopImproved(keys, ImprovementToday)
	if len(got) != 5 {
		t.Fatalf("expected 5 significant keys without duplicates, got %d", len(got))
	}
	if got[0].Key != "a" || got[len(got)-1].Key != "e" {
		t.Fatalf("expected best to worst ordering, got %s..%s", got[0].Key, got[len(got)-1].Key)
	}
	for _, k := range got {
		if k.Key == "z" {
			t.Fatalf("low-volume key must be excluded")
		}
	}
	if TopImproved(keys[5:], ImprovementSinceYesterday) != nil {
		t.Fatalf("expected nil without significant keys")
	}
}

func TestSortByCodePoint(t *testing.T) {
	keys := []model.KeyPerformance{perf('z', nil), perf(' ', nil), perf('a', nil)}
	got := SortByCodePoint(keys)
	if got[0].Key != "SPC" || got[1].Key != "a" || got[2].Key != "z" {
		t.Fatalf("unexpected order: %s %s %s", got[0].Key, got[1].Key, got[2].Key)
	}
}
