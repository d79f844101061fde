package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette groups the styles applied to report output.
type Palette struct {
	Heading lipgloss.Style
	Rule    lipgloss.Style
	Subject lipgloss.Style
	Label   lipgloss.Style
}

// NewPalette binds report styles to the provided writer. With color disabled the
// styles render plain text regardless of terminal capabilities.
func NewPalette(writer io.Writer, colorEnabled bool) Palette {
	renderer := lipgloss.NewRenderer(writer)
	if colorEnabled {
		renderer.SetColorProfile(termenv.TrueColor)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}

	return Palette{
		Heading: renderer.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Rule:    renderer.NewStyle().Foreground(lipgloss.Color("245")),
		Subject: renderer.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
		Label:   renderer.NewStyle().Foreground(lipgloss.Color("245")),
	}
}
