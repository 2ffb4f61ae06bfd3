package cmd

import "github.com/charmbracelet/lipgloss"

// Define styles using lipgloss
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	priceStyle = cellStyle.
			Foreground(lipgloss.Color("32")).
			Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)

	urlStyle = cellStyle.
			Foreground(lipgloss.Color("33"))

	borderColor = lipgloss.Color("240")
)

// sourceStyle colours a retailer name with its badge colour.
func sourceStyle(color string) lipgloss.Style {
	return cellStyle.Foreground(lipgloss.Color(color))
}
