package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Main styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Padding(1, 2).
			Align(lipgloss.Center)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2).
			MarginTop(1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	InfoStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(lipgloss.Color("#874BFD")).
			Foreground(lipgloss.Color("#AAAAAA"))

	DisabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	// Tabs
	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EE6FF8")).
			Underline(true).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)

	// Data display styles
	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA"))

	PositiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	NegativeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")).
			Bold(true)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#7D56F4"))

	LoadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	PriceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	// Input styles
	InputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3C3C3C")).
			Padding(0, 1).
			Width(32)

	FocusedInputStyle = InputStyle.Copy().
				Background(lipgloss.Color("#874BFD"))
)

func FormatCurrency(value float64) string {
	if value >= 0 {
		return PositiveStyle.Render(fmt.Sprintf("+$%.2f", value))
	}
	return NegativeStyle.Render(fmt.Sprintf("-$%.2f", -value))
}

func FormatPercentage(value float64) string {
	if value >= 0 {
		return PositiveStyle.Render(fmt.Sprintf("+%.2f%%", value))
	}
	return NegativeStyle.Render(fmt.Sprintf("%.2f%%", value))
}

func FormatPrice(value float64) string {
	if value < 1.0 {
		return PriceStyle.Render(fmt.Sprintf("$%.6f", value))
	} else if value < 10.0 {
		return PriceStyle.Render(fmt.Sprintf("$%.4f", value))
	}
	return PriceStyle.Render(fmt.Sprintf("$%.2f", value))
}

// Input renders a form field with a cursor, masking the value when secret.
func Input(label, value string, focused, secret bool) string {
	shown := value
	if secret {
		shown = strings.Repeat("*", len([]rune(value)))
	}
	style := InputStyle
	if focused {
		shown += "│"
		style = FocusedInputStyle
	}
	return fmt.Sprintf("%-18s %s", label, style.Render(shown))
}

// Tabs renders the page tabs with the active one highlighted.
func Tabs(labels []string, active int) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		if i == active {
			parts[i] = ActiveTabStyle.Render(l)
		} else {
			parts[i] = TabStyle.Render(l)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
