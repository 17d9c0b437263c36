package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// QueryStatus is the state of the most recent query.
type QueryStatus int

const (
	QueryStatusIdle QueryStatus = iota
	QueryStatusInFlight
	QueryStatusSuccess
	QueryStatusError
)

func (s QueryStatus) String() string {
	switch s {
	case QueryStatusInFlight:
		return "running"
	case QueryStatusSuccess:
		return "ok"
	case QueryStatusError:
		return "error"
	default:
		return "idle"
	}
}

const statusGlyph = "●"

// Color cycle for in-flight animation: blue → purple → orange → yellow → back
var inFlightColors = []lipgloss.Color{
	"12", "33", "57", "93", "129", "208", "214", "220",
	"214", "208", "129", "93", "57", "33",
}

// statusTickMsg advances the in-flight animation.
type statusTickMsg struct{}

// statusIndicator renders a dot whose color tracks the query status.
type statusIndicator struct {
	status     QueryStatus
	frameIndex int
}

func (i statusIndicator) tick() tea.Cmd {
	return tea.Tick(time.Second/8, func(time.Time) tea.Msg {
		return statusTickMsg{}
	})
}

func (i *statusIndicator) setStatus(status QueryStatus) {
	i.status = status
	i.frameIndex = 0
}

// advance moves the animation one frame and reports whether it should keep
// ticking.
func (i *statusIndicator) advance() bool {
	if i.status != QueryStatusInFlight {
		return false
	}
	i.frameIndex = (i.frameIndex + 1) % len(inFlightColors)
	return true
}

func (i statusIndicator) View() string {
	switch i.status {
	case QueryStatusInFlight:
		return lipgloss.NewStyle().Foreground(inFlightColors[i.frameIndex]).Render(statusGlyph)
	case QueryStatusSuccess:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(statusGlyph)
	case QueryStatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(statusGlyph)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(statusGlyph)
	}
}
