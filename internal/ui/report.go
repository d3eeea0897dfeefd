package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// ReportRow is one line of the end-of-run report.
type ReportRow struct {
	Tone   Tone
	ID     uint64
	Name   string
	Detail string
}

// Report is the end-of-run summary printed by the sync command.
type Report struct {
	Title  string
	Rows   []ReportRow
	Footer string
}

var reportStyles = struct {
	Title  lipgloss.Style
	Box    lipgloss.Style
	ID     lipgloss.Style
	Footer lipgloss.Style
}{
	Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Box:    lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
	ID:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Footer: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
}

// Render lays the report out as a bordered box. Without colours the box is
// replaced by plain indented lines so piped output stays grep-friendly.
func (r Report) Render() string {
	idWidth := 0
	for _, row := range r.Rows {
		if w := len(fmt.Sprint(row.ID)); w > idWidth {
			idWidth = w
		}
	}

	lines := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		id := fmt.Sprintf("%*d", idWidth, row.ID)
		line := fmt.Sprintf("%s %s  %s", row.Tone.Symbol(), id, row.Name)
		if IsColorEnabled() {
			line = fmt.Sprintf("%s %s  %s", row.Tone.Symbol(), reportStyles.ID.Render(id), row.Name)
		}
		if row.Detail != "" {
			line += " " + Dim("("+row.Detail+")")
		}
		lines = append(lines, line)
	}

	if !IsColorEnabled() {
		var sb strings.Builder
		sb.WriteString(r.Title + "\n")
		for _, l := range lines {
			sb.WriteString("  " + l + "\n")
		}
		if r.Footer != "" {
			sb.WriteString(r.Footer + "\n")
		}
		return sb.String()
	}

	body := r.Title
	if len(lines) > 0 {
		body = lipgloss.JoinVertical(lipgloss.Left, reportStyles.Title.Render(r.Title), strings.Join(lines, "\n"))
	}
	out := reportStyles.Box.Render(body)
	if r.Footer != "" {
		out = lipgloss.JoinVertical(lipgloss.Left, out, reportStyles.Footer.Render(r.Footer))
	}
	return out + "\n"
}

// Bytes formats a byte count for humans, e.g. "4.2 MB".
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
