// Package report renders key and session statistics as terminal tables.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Styles holds the lipgloss styles bound to one output writer.
type Styles struct {
	renderer *lipgloss.Renderer

	Title   lipgloss.Style
	Banner  lipgloss.Style
	Header  lipgloss.Style
	Border  lipgloss.Style
	Dim     lipgloss.Style
	Bold    lipgloss.Style
	Green   lipgloss.Style
	Yellow  lipgloss.Style
	Red     lipgloss.Style
	Cyan    lipgloss.Style
	Blue    lipgloss.Style
	Magenta lipgloss.Style
	White   lipgloss.Style
}

// NewStyles builds styles for w. With color off every style renders plain text.
func NewStyles(w io.Writer, color bool) Styles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		renderer: r,
		Title:    fg("6").Bold(true),
		Banner:   fg("#C89A3A").Bold(true),
		Header:   fg("#C0C0C0").Bold(true),
		Border:   fg("#4A4A4A"),
		Dim:      fg("#8C8C8C"),
		Bold:     r.NewStyle().Bold(true),
		Green:    fg("2"),
		Yellow:   fg("3"),
		Red:      fg("1"),
		Cyan:     fg("6"),
		Blue:     fg("4"),
		Magenta:  fg("5"),
		White:    fg("7"),
	}
}

// ShouldUseColor reports whether w is a terminal that accepts colour.
// NO_COLOR always wins.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// TerminalWidth returns the width of stdout, or fallback when it is not a terminal.
func TerminalWidth(fallback int) int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

func (s Styles) title(text string) string {
	return s.Title.Render("---- " + text + " ----")
}

func (s Styles) errorRate(v float64) string {
	text := fmt.Sprintf("%.2f%%", v)
	switch {
	case v < 2:
		return s.Green.Render(text)
	case v < 5:
		return s.Yellow.Render(text)
	default:
		return s.Red.Render(text)
	}
}

func (s Styles) accuracy(v float64) string {
	text := fmt.Sprintf("%6.2f%%", v)
	switch {
	case v >= 98:
		return s.Green.Render(text)
	case v >= 95:
		return s.Yellow.Render(text)
	default:
		return s.Red.Render(text)
	}
}

func (s Styles) wpm(v float64) string {
	return s.Cyan.Render(fmt.Sprintf("⚡%6.2f", v))
}

// signed colours a delta where lower is better.
func (s Styles) signed(text string, v float64) string {
	if v <= 0 {
		return s.Green.Render(text)
	}
	return s.Red.Render(text)
}

// progressBar draws an accuracy gauge of the given width.
func (s Styles) progressBar(v float64, width int) string {
	filled := int(v / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case v >= 98:
		return s.Green.Render(bar)
	case v >= 95:
		return s.Yellow.Render(bar)
	default:
		return s.Red.Render(bar)
	}
}

func clock(ms int64) string {
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}
