package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/wheelibin/dusk/internal/models"
	"github.com/wheelibin/dusk/internal/nightlight"
)

const headerBackgroundColor = "#1e7ba0"

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("229")).
	Background(lipgloss.Color(headerBackgroundColor)).
	Padding(0, 1)

var labelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("245")).
	Width(22)

var warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

// RenderStatus formats a snapshot for the terminal
func RenderStatus(s nightlight.Snapshot) string {
	rows := [][2]string{
		{"Enabled", yesNo(s.Enabled)},
		{"Running", yesNo(s.Running)},
		{"Inhibited", inhibited(s)},
		{"Mode", string(s.Mode)},
		{"Current temperature", kelvin(s.CurrentTemperature)},
		{"Target temperature", kelvin(s.TargetTemperature)},
		{"Daylight", yesNo(s.Daylight)},
		{"Previous transition", transition(s.Previous)},
		{"Scheduled transition", transition(s.Scheduled)},
		{"Phase", s.Phase.String()},
	}
	if s.Previewing {
		rows = append(rows, [2]string{"Preview", warnStyle.Render("active")})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, labelStyle.Render(row[0])+row[1])
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("dusk"),
		baseStyle.Render(strings.Join(lines, "\n")),
	) + "\n"
}

// RenderDevices formats the device journal for the terminal
func RenderDevices(devices []models.DeviceStatus) string {
	if len(devices) == 0 {
		return "no outputs\n"
	}

	lines := make([]string, 0, len(devices))
	for _, d := range devices {
		line := fmt.Sprintf("%-24s %-8s", d.Name, kelvin(d.LastTemperature))
		if d.LastCommitTime != nil {
			line += " " + d.LastCommitTime.Local().Format("15:04:05")
		}
		if d.ConsecutiveFailures > 0 {
			line += " " + warnStyle.Render(fmt.Sprintf("%d failures: %s", d.ConsecutiveFailures, d.LastError))
		}
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("outputs"),
		baseStyle.Render(strings.Join(lines, "\n")),
	) + "\n"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func kelvin(k int) string {
	if k == 0 {
		return "-"
	}
	return fmt.Sprintf("%dK", k)
}

func inhibited(s nightlight.Snapshot) string {
	if !s.Inhibited {
		return "no"
	}
	return warnStyle.Render(fmt.Sprintf("yes (%d)", s.InhibitCount))
}

func transition(t nightlight.Transition) string {
	if t.Start.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s for %s", t.Start.Local().Format("Mon 15:04"), t.Duration.Round(time.Minute))
}
