package statsui

import (
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/keystat/internal/model"
	"github.com/verte-zerg/keystat/internal/report"
)

func viewerSessions() []model.Session {
	ts := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	var out []model.Session
	for i := 0; i < 4; i++ {
		out = append(out, model.Session{
			Timestamp:  ts.Add(time.Duration(i) * time.Hour),
			Speed:      200 + float64(i*10),
			Errors:     1,
			Length:     100,
			DurationMs: 45000,
			TextType:   "generated",
			Histogram: []model.HistogramSample{
				{CodePoint: 'a', HitCount: 20, MissCount: 1, TimeToType: 150},
				{CodePoint: 'b', HitCount: 15, MissCount: 2, TimeToType: 260},
				{CodePoint: ';', HitCount: 11, MissCount: 4, TimeToType: 400},
			},
		})
	}
	return out
}

func newSizedModel(t *testing.T, sessions []model.Session) *Model {
	t.Helper()
	m := NewModel(sessions, report.Options{Width: 100})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewRendersTabs(t *testing.T) {
	m := newSizedModel(t, viewerSessions())
	view := m.View()
	for _, tab := range []string{"Overview", "Mastery", "Targets", "Progress", "Streaks", "Keys"} {
		if !strings.Contains(view, tab) {
			t.Fatalf("expected tab %q in view", tab)
		}
	}
	if got := len(strings.Split(view, "\n")); got != 30 {
		t.Fatalf("expected view to fill 30 lines, got %d", got)
	}
	if !strings.Contains(view, "STATISTICS FOR TODAY") {
		t.Fatalf("expected overview content")
	}
}

func TestTabNavigationWraps(t *testing.T) {
	m := newSizedModel(t, viewerSessions())
	m.Update(key("left"))
	if m.activeTab != tabKeys {
		t.Fatalf("expected wrap to the last tab, got %d", m.activeTab)
	}
	m.Update(key("l"))
	if m.activeTab != tabOverview {
		t.Fatalf("expected wrap to the first tab, got %d", m.activeTab)
	}
}

func TestToggleShowAll(t *testing.T) {
	m := newSizedModel(t, viewerSessions())
	m.Update(key("a"))
	if !m.opts.ShowAll {
		t.Fatalf("expected show-all to be enabled")
	}
	if !strings.Contains(m.View(), "stats=all") {
		t.Fatalf("expected header to report all stats after toggle")
	}
	m.Update(key("a"))
	if m.opts.ShowAll {
		t.Fatalf("expected second toggle to restore the summary")
	}
}

func TestKeyFilter(t *testing.T) {
	m := newSizedModel(t, viewerSessions())
	if got := len(m.keyTable.Rows()); got != 3 {
		t.Fatalf("expected 3 key rows, got %d", got)
	}
	m.Update(key("/"))
	if m.filterMode {
		t.Fatalf("filter must only open on the keys tab")
	}
	m.Update(key("left"))
	m.Update(key("/"))
	if !m.filterMode {
		t.Fatalf("expected filter mode on the keys tab")
	}
	m.filterInput.SetValue("")
	m.Update(key("b;"))
	m.Update(key("q"))
	if !m.filterMode {
		t.Fatalf("q must be typed into the filter, not quit")
	}
	m.Update(key("enter"))
	if m.filterMode {
		t.Fatalf("expected enter to close the filter")
	}
	if !reflect.DeepEqual(m.filter, []string{"b", ";", "q"}) {
		t.Fatalf("unexpected filter %v", m.filter)
	}
	rows := m.keyTable.Rows()
	if len(rows) != 2 || rows[0][0] != ";" {
		t.Fatalf("expected filtered rows weakest first, got %v", rows)
	}
	if status := rows[0][len(rows[0])-1]; status != "locked" {
		t.Fatalf("expected unconfigured keys to be locked, got %q", status)
	}
}

func TestLoadErrorShownInFooter(t *testing.T) {
	m := newSizedModel(t, nil)
	view := m.View()
	if !strings.Contains(view, "no sessions to analyze") || !strings.Contains(view, "Failed to load stats.") {
		t.Fatalf("expected load error in view, got:\n%s", view)
	}
}

func TestParseKeyFilter(t *testing.T) {
	if got := parseKeyFilter(" ( ) ("); !reflect.DeepEqual(got, []string{"(", ")"}) {
		t.Fatalf("unexpected labels %v", got)
	}
	if got := parseKeyFilter(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestTruncateAndFit(t *testing.T) {
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateLine("漢字漢字", 5); got != "漢..." {
		t.Fatalf("expected wide runes to count double, got %q", got)
	}
	fitted := fitLines("a\nb\nc", 3, 2)
	if fitted != "a  \nb  " {
		t.Fatalf("unexpected fit %q", fitted)
	}
}
