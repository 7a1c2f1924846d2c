package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StatusColor returns the style used for a deal status.
func StatusColor(status domain.DealStatus) lipgloss.Style {
	switch status {
	case domain.DealOpen:
		return StyleBlue
	case domain.DealWon:
		return StyleGreen
	case domain.DealLost:
		return StyleRed
	default:
		return StyleDim
	}
}

// StatusPill returns a colored status indicator such as "● Open".
func StatusPill(status domain.DealStatus) string {
	switch status {
	case domain.DealOpen:
		return StyleBlue.Render("○ Open")
	case domain.DealWon:
		return StyleGreen.Render("✔ Won")
	case domain.DealLost:
		return StyleRed.Render("✖ Lost")
	case domain.DealArchived:
		return StyleDim.Render("▪ Archived")
	default:
		return StyleDim.Render(string(status))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
