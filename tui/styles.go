package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Version is shown in the TUI header and by the -version flag.
const Version = "0.1.0"

// Color palette.
var (
	colorGreen  = lipgloss.Color("#4ade80")
	colorYellow = lipgloss.Color("#facc15")
	colorRed    = lipgloss.Color("#f87171")
	colorCyan   = lipgloss.Color("#22d3ee")
	colorWhite  = lipgloss.Color("#e5e7eb")
	colorGray   = lipgloss.Color("#6b7280")
	colorDim    = lipgloss.Color("#374151")
)

func divider(w int) string {
	return lipgloss.NewStyle().Foreground(colorDim).Render(strings.Repeat("─", w))
}

func dimText(s string) string {
	return lipgloss.NewStyle().Foreground(colorGray).Render(s)
}

// truncate cuts s to at most w visible cells, appending an ellipsis.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= w {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > w-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
