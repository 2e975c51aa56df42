package rain

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Surface is the drawable the field paints onto. Coordinates are in surface
// units; field cell (i, y) covers the block starting at (i*cellSize, y*cellSize).
type Surface interface {
	Size() (width, height int)
	// Fade composites a background fill of the given opacity over the whole
	// surface.
	Fade(alpha float64)
	DrawGlyph(x, y int, glyph rune, alpha float64, head bool)
}

// Cell is one character position of a Grid.
type Cell struct {
	Glyph rune
	Level float64
	Head  bool
}

// Cells dimmer than this are cleared by Fade.
const minLevel = 0.04

// Grid is a terminal-cell Surface.
type Grid struct {
	width, height int
	cells         []Cell
}

// NewGrid allocates a blank width×height grid.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{width: width, height: height, cells: make([]Cell, width*height)}
}

func (g *Grid) Size() (width, height int) { return g.width, g.height }

func (g *Grid) Fade(alpha float64) {
	keep := 1 - alpha
	for i := range g.cells {
		c := &g.cells[i]
		if c.Glyph == 0 {
			continue
		}
		c.Level *= keep
		c.Head = false
		if c.Level < minLevel {
			*c = Cell{}
		}
	}
}

func (g *Grid) DrawGlyph(x, y int, glyph rune, alpha float64, head bool) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return
	}
	c := &g.cells[y*g.width+x]
	c.Glyph = glyph
	c.Level = alpha + (1-alpha)*c.Level
	c.Head = head
}

// Cell returns the cell at (x, y); out-of-bounds positions are blank.
func (g *Grid) Cell(x, y int) Cell {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return Cell{}
	}
	return g.cells[y*g.width+x]
}

var (
	headStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff00"))
	trailStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#003300")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#005500")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#008800")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#00aa00")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#00dd00")),
	}
)

// styleIndex buckets a cell: -1 blank, len(trailStyles) head, else a trail
// shade.
func styleIndex(c Cell) int {
	if c.Glyph == 0 {
		return -1
	}
	if c.Head {
		return len(trailStyles)
	}
	i := int(c.Level * float64(len(trailStyles)))
	if i >= len(trailStyles) {
		i = len(trailStyles) - 1
	}
	return i
}

func renderRun(b *strings.Builder, style int, run []rune) {
	switch {
	case style < 0:
		b.WriteString(string(run))
	case style == len(trailStyles):
		b.WriteString(headStyle.Render(string(run)))
	default:
		b.WriteString(trailStyles[style].Render(string(run)))
	}
}

// Line renders columns [from, to) of row as styled text. Positions outside
// the grid render as spaces, so the result is always to-from cells wide.
func (g *Grid) Line(row, from, to int) string {
	if to <= from {
		return ""
	}
	var b strings.Builder
	run := make([]rune, 0, to-from)
	cur := -2
	for x := from; x < to; x++ {
		c := g.Cell(x, row)
		idx := styleIndex(c)
		if idx != cur && len(run) > 0 {
			renderRun(&b, cur, run)
			run = run[:0]
		}
		cur = idx
		if c.Glyph == 0 {
			run = append(run, ' ')
		} else {
			run = append(run, c.Glyph)
		}
	}
	if len(run) > 0 {
		renderRun(&b, cur, run)
	}
	return b.String()
}

// String renders the whole grid.
func (g *Grid) String() string {
	lines := make([]string, g.height)
	for y := range lines {
		lines[y] = g.Line(y, 0, g.width)
	}
	return strings.Join(lines, "\n")
}
