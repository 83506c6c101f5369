package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	Info      = lipgloss.Color("#60A5FA") // Blue
	White     = lipgloss.Color("#FFFFFF")

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Plan rows
	RowSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	Category = lipgloss.NewStyle().
			Foreground(Info)

	Destination = lipgloss.NewStyle().
			Foreground(Secondary)

	Checked   = lipgloss.NewStyle().Foreground(Secondary).SetString("[x]")
	Unchecked = lipgloss.NewStyle().Foreground(Muted).SetString("[ ]")
	Locked    = lipgloss.NewStyle().Foreground(Error).SetString("[!]")

	// Risk box
	RiskBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Warning).
		Padding(0, 1)

	RiskFactor = lipgloss.NewStyle().
			Foreground(Warning)

	// Messages
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningMsg = lipgloss.NewStyle().
			Foreground(Warning)

	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// CategoryColor picks a stable color for a category name so the same
// category always renders the same way
func CategoryColor(name string) lipgloss.Color {
	palette := []lipgloss.Color{
		lipgloss.Color("#6366F1"), // Indigo
		lipgloss.Color("#8B5CF6"), // Violet
		lipgloss.Color("#EC4899"), // Pink
		lipgloss.Color("#F97316"), // Orange
		Info,
		Secondary,
	}
	var sum int
	for _, r := range name {
		sum += int(r)
	}
	return palette[sum%len(palette)]
}
