// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/keystat/internal/model"
	"github.com/verte-zerg/keystat/internal/report"
	"github.com/verte-zerg/keystat/internal/stats"
	"github.com/verte-zerg/keystat/internal/training"
)

const (
	tabOverview = iota
	tabMastery
	tabTargets
	tabProgress
	tabStreaks
	tabKeys
)

const defaultWidth = 80

var tabSections = map[int][]report.Section{
	tabOverview: {report.SectionHeader},
	tabMastery:  {report.SectionFocus, report.SectionMastery},
	tabTargets:  {report.SectionTargets},
	tabProgress: {report.SectionDaily, report.SectionTimeOfDay, report.SectionFatigue, report.SectionMilestones, report.SectionImproved},
	tabStreaks:  {report.SectionStreaks},
}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	opts   report.Options
	data   report.Data
	keys   *training.Keys
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	keyTable  table.Model

	width  int
	height int

	filterMode  bool
	filterInput textinput.Model
	filter      []string
}

// NewModel builds the viewer over an analyzed history.
func NewModel(sessions []model.Session, opts report.Options) *Model {
	m := &Model{
		opts: opts,
		keys: opts.Keys,
		tabs: []string{"Overview", "Mastery", "Targets", "Progress", "Streaks", "Keys"},
	}
	if m.keys == nil {
		m.keys = training.NewKeys(nil, nil, nil)
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.filterInput = textinput.New()
	m.filterInput.Prompt = "Keys: "
	m.filterInput.Placeholder = "; : ( )"
	m.filterInput.Cursor.SetMode(cursor.CursorBlink)
	m.keyTable = table.New(table.WithColumns(keyColumns()), table.WithHeight(1))
	m.keyTable.SetStyles(keyTableStyles())

	data, err := report.Build(sessions, opts)
	if err != nil {
		m.errMsg = err.Error()
	}
	m.data = data
	m.refreshKeyTable()
	m.renderTabContents()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "a":
			m.opts.ShowAll = !m.opts.ShowAll
			m.renderTabContents()
			return m, nil
		case "/":
			if m.activeTab == tabKeys {
				return m.startFilter()
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabKeys {
				m.keyTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabKeys {
				m.keyTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabKeys {
				m.keyTable, cmd = m.keyTable.Update(msg)
				return m, cmd
			}
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.filterMode {
		return fitLines(m.renderFilterModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.keyTable.SetWidth(m.width)
	m.keyTable.SetHeight(max(1, bodyHeight-1))
	m.filterInput.Width = max(10, m.width-lipgloss.Width(m.filterInput.Prompt)-8)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabKeys {
		m.keyTable.Focus()
	} else {
		m.keyTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return padLines(m.renderTabs(), m.width) + "\n" + padLines(m.renderSummary(), m.width)
}

func (m *Model) renderSummary() string {
	scope := "summary"
	if m.opts.ShowAll {
		scope = "all"
	}
	filter := "all keys"
	if len(m.filter) > 0 {
		filter = strings.Join(m.filter, " ")
	}
	summary := fmt.Sprintf("Sessions: %d  latest=%s  stats=%s  keys=%s",
		len(m.data.Sessions), m.data.Latest.Local().Format("2006-01-02"), scope, filter)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  All stats: a  Quit: q"
	if m.activeTab == tabKeys {
		help = "Nav: left/right  Rows: up/down  Filter keys: /  All stats: a  Quit: q"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderBody() string {
	if m.activeTab == tabKeys {
		if len(m.data.Keys) == 0 {
			return "No key statistics found."
		}
		return tableMutedStyle.Render(m.keyTable.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	opts := m.opts
	opts.Width = width
	for tab, sections := range tabSections {
		var buf bytes.Buffer
		if err := report.RenderSections(&buf, m.data, opts, sections...); err != nil {
			m.viewports[tab].SetContent(fmt.Sprintf("Failed to render stats: %v", err))
			continue
		}
		content := strings.TrimRight(buf.String(), "\n")
		if content == "" {
			content = "Nothing to show yet."
		}
		m.viewports[tab].SetContent(content)
	}
}

func keyColumns() []table.Column {
	return []table.Column{
		{Title: "Key", Width: 4},
		{Title: "Mastery", Width: 8},
		{Title: "N (L7)", Width: 7},
		{Title: "Latency", Width: 8},
		{Title: "Err (L7)", Width: 9},
		{Title: "CV (L7)", Width: 8},
		{Title: "Stall", Width: 6},
		{Title: "Trend", Width: 10},
		{Title: "Status", Width: 9},
	}
}

// keyRows lists keys weakest first, limited to labels when any are given.
func keyRows(keys []model.KeyPerformance, labels []string, state *training.Keys) []table.Row {
	if len(labels) > 0 {
		keys = stats.FilterKeys(keys, labels)
	}
	keys = stats.WeakestByMastery(keys, 0)
	rows := make([]table.Row, 0, len(keys))
	for _, k := range keys {
		scale := stats.TrendScale(k.DailyWPM)
		rows = append(rows, table.Row{
			k.Key,
			fmt.Sprintf("%.1f", k.Mastery),
			fmt.Sprintf("%d", k.L7.Hits),
			fmt.Sprintf("%.0fms", k.L7Latency),
			fmt.Sprintf("%.2f%%", k.L7.ErrorRate),
			fmt.Sprintf("%.3f", k.L7CV),
			fmt.Sprintf("%.2f", k.StallRatio),
			stats.Sparkline(k.DailyWPM, 10, &scale),
			state.StatusOf(k.Key).String(),
		})
	}
	return rows
}

func (m *Model) refreshKeyTable() {
	m.keyTable.SetRows(keyRows(m.data.Keys, m.filter, m.keys))
	m.keyTable.GotoTop()
}

func keyTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterInput.SetValue(strings.Join(m.filter, " "))
	return m, m.filterInput.Focus()
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterMode = false
		m.filterInput.Blur()
		return m, nil
	case "enter":
		m.filter = parseKeyFilter(m.filterInput.Value())
		m.filterMode = false
		m.filterInput.Blur()
		m.refreshKeyTable()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m *Model) renderFilterModal() string {
	lines := []string{
		"Filter keys (enter to apply, esc to cancel, empty clears)",
		m.filterInput.View(),
	}
	modal := modalStyle.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

// parseKeyFilter turns a key group into table labels.
func parseKeyFilter(input string) []string {
	runes := training.ParseGroup(strings.TrimSpace(input))
	seen := map[string]struct{}{}
	var out []string
	for _, r := range runes {
		label := stats.KeyLabel(int(r))
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// truncateLine cuts plain text to width terminal cells.
func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
