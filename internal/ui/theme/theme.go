package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/explainit/internal/concept"
)

// Palette
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(12)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	Section = lipgloss.NewStyle().
		Bold(true).
		Foreground(Secondary).
		MarginTop(1)
)

// Feedback
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Partial = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Irrelevant = lipgloss.NewStyle().
			Foreground(TextDim)

	Gain = lipgloss.NewStyle().Foreground(Success)
	Loss = lipgloss.NewStyle().Foreground(Error)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)

	TreeBranch = lipgloss.NewStyle().
			Foreground(Border).
			MarginRight(1)
)

// LevelColor maps a mastery level to its badge color.
func LevelColor(l concept.MasteryLevel) color.Color {
	switch l {
	case concept.LevelExpert:
		return Primary
	case concept.LevelAdvanced:
		return Success
	case concept.LevelIntermediate:
		return Secondary
	case concept.LevelBeginner:
		return Accent
	default:
		return TextDim
	}
}

// Level styles a mastery badge.
func Level(l concept.MasteryLevel) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(LevelColor(l)).Bold(true)
}
