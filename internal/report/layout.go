package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keystat/internal/training"
)

// LayoutMode selects how keys are coloured on the keyboard view.
type LayoutMode int

const (
	LayoutFinger LayoutMode = iota
	LayoutKeyType
	LayoutStatus
)

const (
	bgRed     = "1"
	bgGreen   = "2"
	bgYellow  = "3"
	bgBlue    = "4"
	bgMagenta = "5"
	bgCyan    = "6"
	bgWhite   = "7"

	spaceBar    = "                         SPACE                         "
	spaceIndent = "            "
)

var colorBlack = lipgloss.Color("0")

var fingerColors = map[training.Finger]string{
	training.FingerPinky:      bgBlue,
	training.FingerRing:       bgYellow,
	training.FingerMiddle:     bgRed,
	training.FingerLeftIndex:  bgGreen,
	training.FingerRightIndex: bgCyan,
	training.FingerThumb:      bgMagenta,
}

var classColors = map[training.KeyClass]string{
	training.ClassLower:  bgBlue,
	training.ClassUpper:  bgCyan,
	training.ClassDigit:  bgYellow,
	training.ClassPunct:  bgRed,
	training.ClassSymbol: bgMagenta,
}

func (m LayoutMode) title() string {
	switch m {
	case LayoutFinger:
		return "VISUAL PROGRESS BY FINGER"
	case LayoutKeyType:
		return "VISUAL PROGRESS BY KEY TYPE"
	default:
		return "VISUAL PROGRESS BY STATUS (Unlocked/Focus/Locked)"
	}
}

// keyboard draws the US layout with keys coloured for mode.
func (s Styles) keyboard(keys *training.Keys, mode LayoutMode) []string {
	lines := []string{s.title(mode.title())}
	for _, row := range training.Layout {
		lines = append(lines, s.layoutRow(row.Shifted, keys, mode), s.layoutRow(row.Normal, keys, mode))
	}
	lines = append(lines, spaceIndent+s.Bold.Render(spaceBar), "")
	lines = append(lines, s.layoutLegend(mode), "")
	return lines
}

func (s Styles) layoutRow(cells []training.LayoutCell, keys *training.Keys, mode LayoutMode) string {
	var b strings.Builder
	for _, c := range cells {
		switch {
		case c.IsKey:
			b.WriteString(s.keyCap(c.Key, keys, mode))
		case strings.HasPrefix(strings.TrimSpace(c.Label), "["):
			b.WriteString(s.Bold.Render(c.Label))
		default:
			b.WriteString(c.Label)
		}
	}
	return b.String()
}

func (s Styles) keyCap(r rune, keys *training.Keys, mode LayoutMode) string {
	status := keys.Status(r)
	unlocked := status == training.StatusUnlocked || status == training.StatusFocus

	var bg string
	switch mode {
	case LayoutStatus:
		switch status {
		case training.StatusFocus:
			bg = bgYellow
		case training.StatusUnlocked:
			bg = bgGreen
		case training.StatusLocked:
			bg = bgRed
		}
	case LayoutFinger:
		bg = fingerColors[training.FingerFor(r)]
	case LayoutKeyType:
		bg = classColors[training.ClassOf(r)]
	}
	if bg == "" {
		bg = bgWhite
	}

	style := s.swatch(bg).Foreground(colorBlack)
	if mode != LayoutStatus && status == training.StatusLocked {
		style = style.Faint(true)
	}
	if unlocked {
		style = style.Bold(true)
	}
	return style.Render(" " + string(r) + " ")
}

func (s Styles) swatch(bg string) lipgloss.Style {
	return s.renderer.NewStyle().Background(lipgloss.Color(bg))
}

func (s Styles) layoutLegend(mode LayoutMode) string {
	entry := func(bg, label string) string {
		return s.swatch(bg).Render("   ") + " " + label
	}
	var parts []string
	var heading string
	switch mode {
	case LayoutFinger:
		heading = "Finger Legend:"
		for _, f := range []training.Finger{
			training.FingerPinky, training.FingerRing, training.FingerMiddle,
			training.FingerLeftIndex, training.FingerRightIndex, training.FingerThumb,
		} {
			parts = append(parts, entry(fingerColors[f], f.String()))
		}
	case LayoutKeyType:
		heading = "Type Legend:"
		for _, c := range []training.KeyClass{
			training.ClassLower, training.ClassUpper, training.ClassDigit, training.ClassPunct, training.ClassSymbol,
		} {
			parts = append(parts, entry(classColors[c], c.String()))
		}
	default:
		return s.Bold.Render("Status Legend:") + " " + strings.Join([]string{
			entry(bgGreen, "Unlocked"), entry(bgYellow, "Focus"), entry(bgRed, "Locked"),
		}, " | ")
	}
	parts = append(parts, s.Bold.Render("Unlocked:")+" Bold text")
	return s.Bold.Render(heading) + " " + strings.Join(parts, " | ")
}
