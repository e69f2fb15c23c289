package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StatusStyle returns the style a task status is rendered in.
func StatusStyle(s domain.TaskStatus) lipgloss.Style {
	switch s {
	case domain.TaskReady:
		return StyleBlue
	case domain.TaskInProgress:
		return StyleYellow
	case domain.TaskCompleted:
		return StyleGreen
	default:
		return StyleDim
	}
}

// StatusPill returns a colored status indicator such as "● ready".
func StatusPill(s domain.TaskStatus) string {
	var icon string
	switch s {
	case domain.TaskPending:
		icon = "○"
	case domain.TaskReady:
		icon = "●"
	case domain.TaskInProgress:
		icon = "▶"
	case domain.TaskCompleted:
		icon = "✔"
	case domain.TaskSkipped:
		icon = "⊘"
	default:
		icon = "?"
	}
	return StatusStyle(s).Render(icon + " " + s.Label())
}

// Header renders an upper-cased section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
