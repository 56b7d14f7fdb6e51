package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mcdev12/racewall/go/internal/display/projector"
)

// Catppuccin Mocha
const (
	colorRosewater lipgloss.Color = "#f5e0dc"
	colorPeach     lipgloss.Color = "#fab387"
	colorYellow    lipgloss.Color = "#f9e2af"
	colorGreen     lipgloss.Color = "#a6e3a1"
	colorTeal      lipgloss.Color = "#94e2d5"
	colorBlue      lipgloss.Color = "#89b4fa"
	colorLavender  lipgloss.Color = "#b4befe"
	colorRed       lipgloss.Color = "#f38ba8"
	colorMauve     lipgloss.Color = "#cba6f7"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorBase     lipgloss.Color = "#1e1e2e"
)

// tierColors are the badge colors for each rank tier: gold, silver, bronze, rest
var tierColors = map[projector.Tier]lipgloss.Color{
	projector.TierTop1:  colorYellow,
	projector.TierTop2:  colorRosewater,
	projector.TierTop3:  colorPeach,
	projector.TierOther: colorSurface1,
}

type theme struct {
	title       lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	muted       lipgloss.Style
	text        lipgloss.Style
	timer       lipgloss.Style
	running     lipgloss.Style
	paused      lipgloss.Style
	barFilled   lipgloss.Style
	barEmpty    lipgloss.Style
	reached     lipgloss.Style
	unreached   lipgloss.Style
	banner      lipgloss.Style
	message     lipgloss.Style
	statusOK    lipgloss.Style
	statusWarn  lipgloss.Style
	statusError lipgloss.Style
}

func newTheme() theme {
	return theme{
		title:       lipgloss.NewStyle().Bold(true).Foreground(colorMauve),
		panel:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSurface1).Padding(0, 1),
		panelTitle:  lipgloss.NewStyle().Bold(true).Foreground(colorLavender),
		muted:       lipgloss.NewStyle().Foreground(colorOverlay0),
		text:        lipgloss.NewStyle().Foreground(colorText),
		timer:       lipgloss.NewStyle().Bold(true).Foreground(colorText),
		running:     lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
		paused:      lipgloss.NewStyle().Bold(true).Foreground(colorYellow),
		barFilled:   lipgloss.NewStyle().Foreground(colorTeal),
		barEmpty:    lipgloss.NewStyle().Foreground(colorSurface0),
		reached:     lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
		unreached:   lipgloss.NewStyle().Foreground(colorOverlay0),
		banner:      lipgloss.NewStyle().Bold(true).Foreground(colorBase).Background(colorGreen).Padding(0, 2),
		message:     lipgloss.NewStyle().Bold(true).Foreground(colorBlue),
		statusOK:    lipgloss.NewStyle().Foreground(colorGreen),
		statusWarn:  lipgloss.NewStyle().Foreground(colorYellow),
		statusError: lipgloss.NewStyle().Foreground(colorRed),
	}
}

func (t theme) badge(tier projector.Tier) lipgloss.Style {
	fg := colorBase
	if tier == projector.TierOther {
		fg = colorSubtext0
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(fg).
		Background(tierColors[tier]).
		Width(4).
		Align(lipgloss.Center)
}
