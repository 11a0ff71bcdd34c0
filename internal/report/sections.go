package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/keystat/internal/model"
	"github.com/verte-zerg/keystat/internal/stats"
	"github.com/verte-zerg/keystat/internal/training"
)

func (p *printer) header(data Data) {
	st := p.st
	p.println(st.Banner.Render("KEYSTAT :: TYPING ANALYSIS"))
	p.println(st.Dim.Render("latest session " + data.Latest.Local().Format("2006-01-02 15:04")))
	p.println()

	if data.HasGap {
		p.println(st.Bold.Render("DOMAIN GAP (CODE vs NATURAL):"), " ", st.signed(fmt.Sprintf("%.1f WPM", data.Gap), data.Gap))
		p.println()
	}

	if today := data.Today; today.Lessons > 0 {
		p.title("STATISTICS FOR TODAY")
		p.println(st.Bold.Render("Time:"), " ", clock(today.DurationMs))
		p.println(st.Bold.Render("Lessons:"), " ", humanize.Comma(int64(today.Lessons)))
		p.println(st.Bold.Render("Top speed:"), " ", st.wpm(today.TopWPM))
		p.println(st.Bold.Render("Average speed:"), " ", st.wpm(today.AvgWPM))
		p.println(st.Bold.Render("Top accuracy:"), " ", st.accuracy(today.TopAccuracy))
		p.println(st.Bold.Render("Average accuracy:"), " ", st.accuracy(today.AvgAccuracy))
		p.println()
	}

	if week := data.LastWeek; week.Lessons > 0 {
		p.table("LAST 7 DAYS (TRAILING AVERAGE)",
			[]string{"Sessions", "Time", "Avg Speed", "Accuracy"},
			[][]string{{st.Bold.Render(strconv.Itoa(week.Lessons)), clock(week.DurationMs), st.wpm(week.AvgWPM), st.accuracy(week.AvgAccuracy)}},
			rightAligned(2, 3))
	}

	if data.HasSlope {
		p.fatigueIndicator(data.Slope)
	}

	p.trainingSummary()

	if p.opts.ShowAll {
		for _, mode := range []LayoutMode{LayoutFinger, LayoutKeyType, LayoutStatus} {
			p.lines(st.keyboard(p.keys, mode))
		}
	}
}

func (p *printer) fatigueIndicator(slope float64) {
	st := p.st
	arrow := "↗"
	if slope < 0 {
		arrow = "↘"
	}
	text := fmt.Sprintf("%.2f WPM/lesson %s", slope, arrow)
	switch {
	case slope < stats.FatigueSlopeLimit:
		text = st.Red.Render(text)
	case slope < 0:
		text = st.Yellow.Render(text)
	default:
		text = st.Green.Render(text)
	}
	p.println(st.Bold.Render("Session Fatigue Indicator:"))
	p.println("  Slope: ", text)
	if slope < stats.FatigueSlopeLimit {
		p.println("  ", st.swatch(bgRed).Foreground(colorBlack).Bold(true).
			Render(" FATIGUE DETECTED: DIMINISHING RETURNS. STOP TRAINING. "))
	}
	p.println()
}

func (p *printer) trainingSummary() {
	st := p.st
	state := p.keys.State()
	unlocked, focus, locked := p.keys.Counts()
	p.title("TRAINING PROGRESS SUMMARY")
	p.println(st.Dim.Render(fmt.Sprintf("%d unlocked, %d in focus, %d locked", unlocked, focus, locked)))
	p.println()
	p.println(st.Bold.Render("Unlocked keys"), " ", st.Green.Render("✓"), ":")
	for _, g := range state.Unlocked {
		p.println("  ", st.Green.Render(joinKeys(g)))
	}
	p.println()
	p.println(st.Bold.Render("Focus keys"), " ", st.Yellow.Render("→"), ":")
	for _, g := range state.Focus {
		p.println("  ", st.Yellow.Render(joinKeys(g)))
	}
	for _, tier := range state.Locked {
		p.println()
		p.println(st.Bold.Render("Locked: "+tier.Label), " ", st.Red.Render("🔒"), ":")
		p.println("  ", st.Red.Render(joinKeys(tier.Keys)))
	}
	p.println()
}

func joinKeys(keys []training.KeyState) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k.Key)
	}
	return strings.Join(parts, " ")
}

func (p *printer) keyTable(keys []model.KeyPerformance, title string) {
	st := p.st
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		scale := stats.TrendScale(k.DailyWPM)
		rows = append(rows, []string{
			k.Key,
			strconv.Itoa(k.L7.Hits),
			strconv.Itoa(k.L1.Hits),
			fmt.Sprintf("%.0fms", k.L7Latency),
			st.errorRate(k.L7.ErrorRate),
			fmt.Sprintf("%.3f", k.L7CV),
			fmt.Sprintf("%.1f", k.Mastery),
			st.errorRate(k.L3.ErrorRate),
			st.errorRate(k.L1.ErrorRate),
			stats.Sparkline(k.DailyWPM, sparklineWidth, &scale),
		})
	}
	p.table(title,
		[]string{"Key", "N (L7)", "N (L1)", "Latency (L7)", "Err (L7)", "CV (L7)", "Mastery", "L3 Err", "L1 Err", "Trend (WPM)"},
		rows, rightAligned(1, 2, 3, 4, 5, 6, 7, 8))
	p.println(st.Bold.Render("Legend:"))
	p.println("  ", st.Bold.Render("Latency"), " : Average time to type the key (lower is better)")
	p.println("  ", st.Bold.Render("CV"), "      : Coefficient of Variation (lower is more consistent)")
	p.println("  ", st.Bold.Render("Mastery"), " : Composite score (Latency, Err%, CV and key difficulty)")
	p.println("  ", st.Bold.Render("Trend"), "   : Last 7 days WPM (scaled to the key's min/max)")
	p.println()
}

func (p *printer) mastery(tables []MasteryTable) {
	for _, t := range tables {
		if t.Detail && !p.opts.ShowAll {
			continue
		}
		p.keyTable(t.Keys, t.Title)
	}
}

func (p *printer) targets(data Data) {
	p.critical(data.Critical)
	if !p.opts.ShowAll {
		return
	}
	var impactPool []model.KeyPerformance
	for _, k := range data.Targets {
		if k.L7.ErrorRate > stats.ErrorFloor {
			impactPool = append(impactPool, k)
		}
	}
	p.targetKeys(stats.TopBy(data.Targets, targetKeysCount, func(k model.KeyPerformance) float64 { return k.L7CV }),
		"TARGET KEYS: HIGHEST HESITATION")
	p.targetKeys(stats.TopBy(impactPool, targetKeysCount, func(k model.KeyPerformance) float64 { return k.L7Impact }),
		"TARGET KEYS: HIGHEST ERROR IMPACT")
	p.stalls(stats.TopBy(data.Targets, targetKeysCount, func(k model.KeyPerformance) float64 { return k.StallRatio }))
	p.targetKeys(stats.TopBy(data.Targets, targetKeysCount, func(k model.KeyPerformance) float64 { return k.L7Latency }),
		"TARGET KEYS: LOWEST SPEED")
}

func (p *printer) critical(targets []stats.Target) {
	if len(targets) == 0 {
		return
	}
	st := p.st
	rows := make([][]string, 0, len(targets))
	for _, t := range targets {
		var flags []string
		if t.Flags.Has(stats.FlagHesitation) {
			flags = append(flags, "⏳ "+st.Cyan.Render("HESIT "))
		}
		if t.Flags.Has(stats.FlagImpact) {
			flags = append(flags, "💥 "+st.Red.Render("IMPACT"))
		}
		if t.Flags.Has(stats.FlagStall) {
			flags = append(flags, "🧊 "+st.Yellow.Render("STALL "))
		}
		if t.Flags.Has(stats.FlagSlow) {
			flags = append(flags, "🐌 "+st.Blue.Render("SLOW  "))
		}
		k := t.Key
		rows = append(rows, []string{
			k.Key,
			strconv.Itoa(k.L7.Hits),
			strconv.Itoa(k.L1.Hits),
			fmt.Sprintf("%.0fms", k.L7Latency),
			st.errorRate(k.L7.ErrorRate),
			fmt.Sprintf("%.2f", k.StallRatio),
			strings.Join(flags, " "),
		})
	}
	p.table(fmt.Sprintf("CRITICAL TARGETS (N >= %d)", stats.MinL7Hits),
		[]string{"Key", "N (L7)", "N (L1)", "Latency", "Err", "P95/P50", "Flags"},
		rows, rightAligned(1, 2, 3, 4, 5))
	p.println(st.Bold.Render("Legend:"))
	p.println("  ⏳ ", st.Cyan.Render("HESIT "), " : High Variance (Erratic speed)")
	p.println("  💥 ", st.Red.Render("IMPACT"), " : High Error Volume (N * Err Rate)")
	p.println("  🧊 ", st.Yellow.Render("STALL "), " : Cognitive Freeze (P95 vs P50)")
	p.println("  🐌 ", st.Blue.Render("SLOW  "), " : Low Mechanical Speed (Latency)")
	p.println()
}

func (p *printer) targetKeys(keys []model.KeyPerformance, title string) {
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{
			k.Key,
			strconv.Itoa(k.L7.Hits),
			strconv.Itoa(k.L1.Hits),
			fmt.Sprintf("%.0fms", k.L7Latency),
			p.st.errorRate(k.L7.ErrorRate),
			fmt.Sprintf("%.3f", k.L7CV),
			fmt.Sprintf("%.2f", k.L7Impact),
		})
	}
	p.table(title, []string{"Key", "N (L7)", "N (L1)", "Latency", "Error", "CV", "Impact"}, rows, rightAligned(1, 2, 3, 4, 5, 6))
}

func (p *printer) stalls(keys []model.KeyPerformance) {
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		status := "MECHANICAL"
		switch {
		case k.StallRatio > 3:
			status = p.st.Red.Render("COGNITIVE")
		case k.StallRatio > 2:
			status = p.st.Yellow.Render("HEAVY")
		}
		rows = append(rows, []string{
			k.Key,
			fmt.Sprintf("%.0fms", k.P50),
			fmt.Sprintf("%.0fms", k.P95),
			fmt.Sprintf("%.2f", k.StallRatio),
			status,
		})
	}
	p.table("TARGET KEYS: COGNITIVE STALLS", []string{"Key", "P50 (Med)", "P95", "Stall Ratio", "Status"}, rows, rightAligned(1, 2, 3))
}

func (p *printer) daily(days []stats.DayProgress) {
	if len(days) == 0 {
		return
	}
	st := p.st
	headers := []string{"DATE", "TIME", "SESS", "Avg WPM", "Max WPM", "Avg Acc", "Top Acc"}
	if p.opts.ShowAll {
		headers = append(headers, "WPM History")
	}
	rows := make([][]string, 0, len(days))
	averages := make([]float64, 0, len(days))
	for _, d := range days {
		row := []string{
			d.Date.Format("2006-01-02"),
			clock(d.DurationMs),
			strconv.Itoa(d.Lessons),
			st.wpm(d.AvgWPM),
			st.wpm(d.TopWPM),
			st.accuracy(d.AvgAccuracy),
			st.accuracy(d.TopAccuracy),
		}
		if p.opts.ShowAll {
			row = append(row, stats.Sparkline(d.Speeds, historyWidth, nil))
		}
		rows = append(rows, row)
		averages = append(averages, d.AvgWPM)
	}
	p.table("DAILY PROGRESS TABLE", headers, rows, rightAligned(1, 2, 3, 4, 5, 6))

	if len(averages) < 2 {
		return
	}
	p.title("DAILY AVERAGE WPM")
	p.lines(st.lineChart([]Series{
		{Name: "avg wpm", Values: averages},
		{Name: fmt.Sprintf("%d-day average", trendAverageDays), Values: stats.MovingAverage(averages, trendAverageDays)},
	}, chartWidth(p.opts.Width), trendChartHeight))
	p.println()
}

// chartWidth leaves room for a three digit WPM axis.
func chartWidth(total int) int {
	if total <= 0 {
		return 0
	}
	return ChartWidthFor(total, 3)
}

func (p *printer) timeOfDay(hours []stats.HourStats) {
	if len(hours) == 0 {
		return
	}
	rows := make([][]string, 0, len(hours))
	for _, h := range hours {
		rows = append(rows, []string{
			fmt.Sprintf("%02d:00", h.Hour),
			strconv.Itoa(h.Sessions),
			p.st.wpm(h.AvgWPM),
			p.st.accuracy(h.AvgAcc),
		})
	}
	p.table("TIME OF DAY ANALYSIS (Aggregated)", []string{"HOUR", "SAMPLES", "Avg WPM", "Avg Acc"}, rows, rightAligned(1, 2, 3))
}

func (p *printer) fatigue(blocks []stats.FatigueBlock) {
	if len(blocks) == 0 {
		return
	}
	rows := make([][]string, 0, len(blocks))
	for _, b := range blocks {
		rows = append(rows, []string{
			b.Label,
			strconv.Itoa(b.Sessions),
			p.st.wpm(b.AvgWPM),
			p.st.accuracy(b.AvgAcc),
			p.st.progressBar(b.AvgAcc, fatigueBarWidth),
		})
	}
	p.table("SESSION FATIGUE ANALYSIS", []string{"LESSON RANGE", "SAMPLES", "Avg WPM", "Avg Acc", "FATIGUE"}, rows, rightAligned(1, 2, 3))
}

func (p *printer) streaks(streaks []model.AccuracyStreak) {
	st := p.st
	p.title("ACCURACY STREAKS")
	for _, s := range streaks {
		label := strings.Repeat(" ", 10)
		switch {
		case s.IsCurrent:
			label = st.swatch(bgGreen).Foreground(colorBlack).Render(fmt.Sprintf(" %-7s ", "CURRENT")) + " "
		case s.IsMax:
			label = st.swatch(bgBlue).Foreground(colorBlack).Render(fmt.Sprintf(" %-7s ", "MAX")) + " "
		}
		p.println(label,
			st.Bold.Render("Threshold:"), st.accuracy(s.Threshold),
			" | ", st.Bold.Render("Lessons:"), fmt.Sprintf(" %4d", s.Lessons),
			" | ", st.Bold.Render("Chars:"), fmt.Sprintf(" %6s", humanize.Comma(int64(s.Characters))),
			" | ", st.Bold.Render("Top:"), " ", st.wpm(s.TopSpeed),
			" | ", st.Bold.Render("Start:"), " ", s.StartDate.Format("01/02/06"))
	}
	p.println()
}

func (p *printer) milestones(data Data) {
	if len(data.Sessions) == 0 {
		return
	}
	m := data.Milestones
	rows := [][]string{
		{"Total Typed", humanize.Comma(m.TotalChars), "Total characters typed"},
		{"Total Mistakes", humanize.Comma(m.TotalErrors), "Total errors made"},
		{"Total Training", fmt.Sprintf("%.1f hours", m.TotalHours), "Total time spent"},
		{"Personal Best", p.st.wpm(m.BestWPM), "Achieved on " + m.BestAt.Format("2006-01-02 15:04")},
		{"Avg Session", fmt.Sprintf("%.0f chars", m.AvgSessionLn), "Average length of one lesson"},
	}
	p.table("MILESTONES & CAREER RECORDS", []string{"METRIC", "VALUE", "DESCRIPTION"}, rows, rightAligned(1))
}

func (p *printer) improved(keys []model.KeyPerformance, title string, delta func(model.KeyPerformance) float64) {
	if len(keys) == 0 {
		return
	}
	st := p.st
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		d := delta(k)
		sign := ""
		status := "IMPROVED"
		if d > 0 {
			sign = "+"
			status = "REGRESSED"
		}
		rows = append(rows, []string{
			k.Key,
			fmt.Sprintf("%d/%d", k.D1.Hits, k.D1.Misses),
			st.errorRate(k.D1.ErrorRate),
			st.signed(fmt.Sprintf("%s%.2f%%", sign, d), d),
			st.signed(status, d),
		})
	}
	p.table(title, []string{"Key", "Today (H/M)", "Today Err", "Improvement", "Status"}, rows, rightAligned(1, 2, 3))
}

func (p *printer) allKeys(keys []model.KeyPerformance) {
	st := p.st
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{
			k.Key,
			fmt.Sprintf("%.1f", k.Mastery),
			fmt.Sprintf("%.3f", k.CV),
			st.errorRate(k.All.ErrorRate),
			fmt.Sprintf("%.1f", k.All.WPM),
			st.errorRate(k.L7.ErrorRate),
			fmt.Sprintf("%.1f", k.L7.WPM),
			st.errorRate(k.L1.ErrorRate),
			fmt.Sprintf("%.1f", k.L1.WPM),
		})
	}
	p.table("ALL KEYS PERFORMANCE",
		[]string{"Key", "Mastery", "CV", "All Err", "All WPM", "L7 Err", "L7 WPM", "L1 Err", "L1 WPM"},
		rows, rightAligned(1, 2, 3, 4, 5, 6, 7, 8))
}
