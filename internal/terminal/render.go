package terminal

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"plaguedoc/pkg/robottask"
)

// Styles.
var (
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("22"))
)

const cursorGlyph = "█"

// Render draws the buffer for a panel width cells wide. A cursor trails the
// free text while typing is true.
func Render(b *Buffer, width int, typing bool) string {
	var sb strings.Builder

	text := b.Text()
	if text != "" || typing {
		lines := strings.Split(text, "\n")
		if typing {
			lines[len(lines)-1] += cursorGlyph
		}
		for i, l := range lines {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(textStyle.Render(l))
		}
	}

	for _, sec := range b.Sections() {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		renderSection(&sb, sec, width)
	}
	return sb.String()
}

func renderSection(sb *strings.Builder, sec Section, width int) {
	sb.WriteString(titleStyle.Render(sec.Title))
	sb.WriteString("\n")

	switch sec.Outcome {
	case robottask.Success:
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(borderStyle).
			Headers(sec.Table.Headers...).
			Rows(sec.Table.Rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		if width > 0 {
			t = t.Width(width)
		}
		sb.WriteString(t.String())
		sb.WriteString("\n")
	case robottask.EmptyDataError:
		sb.WriteString(emptyStyle.Render(sec.Message))
		sb.WriteString("\n")
	default:
		sb.WriteString(errorStyle.Render(sec.Message))
		sb.WriteString("\n")
	}
}
