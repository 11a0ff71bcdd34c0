package report

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/verte-zerg/keystat/internal/model"
	"github.com/verte-zerg/keystat/internal/stats"
	"github.com/verte-zerg/keystat/internal/training"
)

const (
	topKeysCount      = 20
	targetKeysCount   = 15
	sparklineWidth    = 10
	historyWidth      = 60
	progressTableDays = 30
	fatigueBarWidth   = 10
	trendChartHeight  = 8
	trendAverageDays  = 7
)

// ErrNoSessions is returned when there is nothing to analyze.
var ErrNoSessions = errors.New("no sessions to analyze")

// Options controls what the report contains and how it looks.
type Options struct {
	ShowAll    bool
	Color      bool
	AllWPMCap  float64
	Thresholds []float64
	Keys       *training.Keys
	// Width is the total terminal width used for charts. Zero asks the terminal.
	Width int
}

// MasteryTable is a titled list of keys ranked by mastery.
type MasteryTable struct {
	Title string
	Keys  []model.KeyPerformance
	// Detail tables are printed only when all statistics are requested.
	Detail bool
}

// Data is the result of every analysis the report draws from.
type Data struct {
	Sessions []model.Session
	Latest   time.Time

	Keys     []model.KeyPerformance
	Focus    []model.KeyPerformance
	Mastery  []MasteryTable
	Targets  []model.KeyPerformance
	Critical []stats.Target

	Today    stats.Summary
	LastWeek stats.Summary
	Slope    float64
	HasSlope bool
	Gap      float64
	HasGap   bool

	Daily      []stats.DayProgress
	Hourly     []stats.HourStats
	Fatigue    []stats.FatigueBlock
	Streaks    []model.AccuracyStreak
	Milestones stats.MilestoneStats

	ImprovedWeek      []model.KeyPerformance
	ImprovedYesterday []model.KeyPerformance
}

// Build runs every analysis over sessions. Per text type key tables share the
// global reference date so their windows line up with the main table.
func Build(sessions []model.Session, opts Options) (Data, error) {
	latest, ok := stats.LatestTimestamp(sessions)
	if !ok {
		return Data{}, ErrNoSessions
	}
	keyOpts := stats.KeyOptions{AllWPMCap: opts.AllWPMCap}
	keys := stats.AnalyzeKeys(sessions, latest, keyOpts)

	thresholds := opts.Thresholds
	if thresholds == nil {
		thresholds = stats.DefaultStreakThresholds
	}
	streaks, err := stats.AccuracyStreaks(sessions, thresholds)
	if err != nil {
		return Data{}, fmt.Errorf("failed to compute accuracy streaks: %w", err)
	}

	data := Data{
		Sessions:          sessions,
		Latest:            latest,
		Keys:              keys,
		Focus:             stats.WeakestByMastery(stats.FilterKeys(keys, keysOrEmpty(opts.Keys).FocusLabels()), 0),
		Targets:           stats.FilterMinL7Hits(keys, stats.MinL7Hits),
		Today:             stats.Summarize(stats.SessionsOnDay(sessions, latest)),
		LastWeek:          stats.Summarize(stats.SessionsSince(sessions, latest.AddDate(0, 0, -7))),
		Daily:             stats.DailyProgress(sessions, progressTableDays),
		Hourly:            stats.HourlyBreakdown(sessions),
		Fatigue:           stats.FatigueBlocks(sessions),
		Streaks:           streaks,
		Milestones:        stats.Milestones(sessions),
		ImprovedWeek:      stats.TopImproved(keys, stats.ImprovementToday),
		ImprovedYesterday: stats.TopImproved(keys, stats.ImprovementSinceYesterday),
	}
	data.Critical = stats.CriticalTargets(data.Targets)
	data.Slope, data.HasSlope = stats.FatigueSlope(sessions)
	data.Gap, data.HasGap = stats.DomainGap(sessions)

	masteryGroups := []struct {
		title  string
		types  []string
		detail bool
	}{
		{"CODE MASTERY (TOP 20)", []string{"code", "natural"}, false},
		{"CODE ONLY MASTERY (TOP 20)", []string{"code"}, true},
		{"GUIDED MASTERY (TOP 20)", []string{"generated"}, true},
		{"NUMBERS MASTERY (TOP 20)", []string{"numbers"}, true},
		{"CUSTOM TEXT MASTERY (TOP 20)", []string{"natural"}, true},
	}
	for _, g := range masteryGroups {
		subset := stats.SelectByText(sessions, g.types...)
		if len(subset) == 0 {
			continue
		}
		ranked := stats.FilterMinL7Hits(stats.AnalyzeKeys(subset, latest, keyOpts), stats.MinL7Hits)
		data.Mastery = append(data.Mastery, MasteryTable{
			Title:  g.title,
			Keys:   stats.WeakestByMastery(ranked, topKeysCount),
			Detail: g.detail,
		})
	}

	slog.Debug("report: built", "sessions", len(sessions), "keys", len(keys), "latest", latest)
	return data, nil
}

// Section is one block of the report.
type Section int

const (
	SectionHeader Section = iota
	SectionFocus
	SectionMastery
	SectionTargets
	SectionDaily
	SectionTimeOfDay
	SectionFatigue
	SectionStreaks
	SectionMilestones
	SectionImproved
	SectionAllKeys
)

// AllSections lists every section in print order.
var AllSections = []Section{
	SectionHeader,
	SectionFocus,
	SectionMastery,
	SectionTargets,
	SectionDaily,
	SectionTimeOfDay,
	SectionFatigue,
	SectionStreaks,
	SectionMilestones,
	SectionImproved,
	SectionAllKeys,
}

// Render writes the full report to w.
func Render(w io.Writer, data Data, opts Options) error {
	return RenderSections(w, data, opts, AllSections...)
}

// RenderSections writes the selected sections in the order given.
func RenderSections(w io.Writer, data Data, opts Options, sections ...Section) error {
	p := &printer{w: w, st: NewStyles(w, opts.Color), opts: opts, keys: keysOrEmpty(opts.Keys)}
	for _, sec := range sections {
		switch sec {
		case SectionHeader:
			p.header(data)
		case SectionFocus:
			p.keyTable(data.Focus, "FOCUS KEYS MASTERY (SORTED BY MASTERY)")
		case SectionMastery:
			p.mastery(data.Mastery)
		case SectionTargets:
			p.targets(data)
		case SectionDaily:
			p.daily(data.Daily)
		case SectionTimeOfDay:
			p.timeOfDay(data.Hourly)
		case SectionFatigue:
			p.fatigue(data.Fatigue)
		case SectionStreaks:
			p.streaks(data.Streaks)
		case SectionMilestones:
			p.milestones(data)
		case SectionImproved:
			p.improved(data.ImprovedWeek, "TOP IMPROVED / REGRESSED KEYS (TODAY vs PREV 7 DAYS)", stats.ImprovementToday)
			p.improved(data.ImprovedYesterday, "TOP IMPROVED / REGRESSED KEYS (TODAY vs YESTERDAY)", stats.ImprovementSinceYesterday)
		case SectionAllKeys:
			if opts.ShowAll {
				p.allKeys(stats.SortByCodePoint(data.Keys))
			}
		}
	}
	if p.err != nil {
		return fmt.Errorf("failed to write report: %w", p.err)
	}
	return nil
}

func keysOrEmpty(k *training.Keys) *training.Keys {
	if k == nil {
		return training.NewKeys(nil, nil, nil)
	}
	return k
}

// printer writes lines and remembers the first write error.
type printer struct {
	w    io.Writer
	st   Styles
	opts Options
	keys *training.Keys
	err  error
}

func (p *printer) println(parts ...string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, strings.Join(parts, ""))
}

func (p *printer) lines(lines []string) {
	for _, l := range lines {
		p.println(l)
	}
}

func (p *printer) title(text string) {
	p.println(p.st.title(text))
}

func (p *printer) table(title string, headers []string, rows [][]string, right map[int]bool) {
	p.title(title)
	p.lines(p.st.boxTable(headers, rows, right))
	p.println()
}
