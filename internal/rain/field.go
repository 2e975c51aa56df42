// Package rain implements the animated background: a field of falling glyph
// columns painted onto a fading cell surface once per frame.
package rain

import (
	"math"
	"math/rand/v2"
)

// Column is one vertical lane of the field. Head is a fractional row
// coordinate; trailing glyphs are re-randomized every frame and not stored.
type Column struct {
	Index int
	Head  float64
}

// Params tunes the per-frame dynamics. CellSize is the edge of one field cell
// in surface units: the field has floor(width/CellSize) columns and each drawn
// glyph fills a CellSize×CellSize block.
type Params struct {
	CellSize       int
	ChainLength    int
	Advance        float64
	ResetThreshold float64
	Fade           float64
	Glyphs         []rune
}

// DefaultParams returns the stock animation settings.
func DefaultParams() Params {
	return Params{
		CellSize:       1,
		ChainLength:    10,
		Advance:        0.3,
		ResetThreshold: 0.975,
		Fade:           0.05,
		Glyphs:         []rune("01"),
	}
}

// Field holds one head position per rendering column. Its length always
// matches the viewport width it was initialized with; a resize replaces the
// whole Field.
type Field struct {
	columns  []Column
	width    int
	height   int
	cellSize int
}

// Initialize creates a Field with floor(viewportWidth/cellSize) columns, every
// head starting at row 1.
func Initialize(viewportWidth, viewportHeight, cellSize int) *Field {
	if cellSize < 1 {
		cellSize = 1
	}
	n := 0
	if viewportWidth > 0 {
		n = viewportWidth / cellSize
	}
	cols := make([]Column, n)
	for i := range cols {
		cols[i] = Column{Index: i, Head: 1}
	}
	return &Field{
		columns:  cols,
		width:    viewportWidth,
		height:   viewportHeight,
		cellSize: cellSize,
	}
}

// Len returns the number of columns.
func (f *Field) Len() int { return len(f.columns) }

// Columns returns a copy of the current columns.
func (f *Field) Columns() []Column {
	out := make([]Column, len(f.columns))
	copy(out, f.columns)
	return out
}

// Size returns the viewport the field was initialized for.
func (f *Field) Size() (width, height int) { return f.width, f.height }

// Advance runs one animation tick: fade the surface, paint every column's
// chain, maybe reset columns past the bottom edge, then move every head down
// by p.Advance. The step is frame-count based, not time based.
func (f *Field) Advance(s Surface, p Params, rng *rand.Rand) {
	s.Fade(p.Fade)

	_, surfaceHeight := s.Size()
	for i := range f.columns {
		h := int(math.Floor(f.columns[i].Head))
		for j := 0; j < p.ChainLength; j++ {
			y := h - j
			if y < 0 {
				continue
			}
			glyph := p.Glyphs[rng.IntN(len(p.Glyphs))]
			alpha := 1 - float64(j)/float64(p.ChainLength)
			f.drawCell(s, i, y, glyph, alpha, j == 0)
		}

		if h*f.cellSize > surfaceHeight && rng.Float64() > p.ResetThreshold {
			f.columns[i].Head = 0
		}
		f.columns[i].Head += p.Advance
	}
}

// drawCell paints field cell (col, row) as a cellSize×cellSize block of
// surface units, so columns tile the surface without gaps.
func (f *Field) drawCell(s Surface, col, row int, glyph rune, alpha float64, head bool) {
	x0, y0 := col*f.cellSize, row*f.cellSize
	for dy := 0; dy < f.cellSize; dy++ {
		for dx := 0; dx < f.cellSize; dx++ {
			s.DrawGlyph(x0+dx, y0+dy, glyph, alpha, head)
		}
	}
}
