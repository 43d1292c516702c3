package bmfont

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/sdftext/typeset"
)

// Options control cursor layout against a precomputed font.
type Options struct {
	// FontSize scales the font's em square to world units. Zero or
	// negative selects 1.
	FontSize float32

	// LineHeight overrides the font's line height in world units when
	// positive.
	LineHeight float32

	// LetterSpacing is extra world-unit advance added after every glyph.
	LetterSpacing float32

	TextAlign typeset.Align
	AnchorX   typeset.Anchor
	AnchorY   typeset.Anchor
}

// Layout is the result of laying out one string. All slices are parallel,
// one entry (or four floats) per emitted glyph.
type Layout struct {
	// Runes are the emitted characters.
	Runes []rune

	// Clusters are the emitted characters' rune offsets in the source
	// text.
	Clusters []int

	// Indices are the glyphs' ordinal atlas indices within the font.
	Indices []uint16

	// Positions are baseline pen positions in world units.
	Positions []mgl32.Vec2

	// Quads hold four floats per glyph: the world-space rectangle
	// [minX, minY, maxX, maxY] the glyph's plane bounds occupy.
	Quads []float32

	// UVRects hold four floats per glyph: the glyph's texel rectangle
	// [left, bottom, right, top] in the font's atlas texture.
	UVRects []float32

	// BlockBounds is the whole text block [minX, minY, maxX, maxY] in
	// world units after anchoring.
	BlockBounds [4]float32

	LineCount int

	// MissingGlyphs counts runes the font does not cover. They advance
	// the cursor but are never emitted.
	MissingGlyphs int

	// Ascender, Descender and LineHeight are in world units. Descender
	// is negative, matching the descriptor convention.
	Ascender   float32
	Descender  float32
	LineHeight float32
}

// LayoutText walks text with a cursor against f's advances. Newlines
// reset the cursor X and step one line down. Spaces and carriage returns
// advance without emitting a glyph. Runes the font does not cover are
// skipped silently but still advance the cursor so surrounding glyphs
// keep their spacing.
func LayoutText(f *Font, text string, opts Options) *Layout {
	scale := opts.FontSize
	if scale <= 0 {
		scale = 1
	}
	m := f.Metrics()
	lineHeight := m.LineHeight * scale
	if opts.LineHeight > 0 {
		lineHeight = opts.LineHeight
	}

	lay := &Layout{
		LineCount:  1,
		Ascender:   m.Ascender * scale,
		Descender:  m.Descender * scale,
		LineHeight: lineHeight,
	}

	// Cursor pass. lineStarts marks each line's first emitted glyph so
	// the alignment pass can shift whole lines.
	cursorX := float32(0)
	cursorY := float32(0)
	var prev rune
	hasPrev := false
	lineStarts := []int{0}
	lineWidths := []float32{0}
	lineWidth := func() float32 {
		w := cursorX
		if w > 0 {
			w -= opts.LetterSpacing
		}
		return w
	}

	cluster := -1
	for _, r := range text {
		cluster++
		switch r {
		case '\n':
			lineWidths[len(lineWidths)-1] = lineWidth()
			lineStarts = append(lineStarts, len(lay.Runes))
			lineWidths = append(lineWidths, 0)
			lay.LineCount++
			cursorX = 0
			cursorY -= lineHeight
			hasPrev = false
			continue
		case '\r':
			continue
		}

		if hasPrev {
			cursorX += f.Kerning(prev, r) * scale
		}
		prev, hasPrev = r, true

		g, ok := f.Glyph(r)
		if !ok || r == ' ' {
			if !ok && r != ' ' {
				lay.MissingGlyphs++
			}
			adv, _ := f.advanceFor(r)
			cursorX += adv*scale + opts.LetterSpacing
			continue
		}

		lay.Runes = append(lay.Runes, r)
		lay.Clusters = append(lay.Clusters, cluster)
		lay.Indices = append(lay.Indices, g.Index)
		lay.Positions = append(lay.Positions, mgl32.Vec2{cursorX, cursorY})
		lay.Quads = append(lay.Quads,
			cursorX+g.Plane[0]*scale,
			cursorY+g.Plane[1]*scale,
			cursorX+g.Plane[2]*scale,
			cursorY+g.Plane[3]*scale,
		)
		lay.UVRects = append(lay.UVRects, g.Atlas[0], g.Atlas[1], g.Atlas[2], g.Atlas[3])
		cursorX += g.Advance*scale + opts.LetterSpacing
	}
	lineWidths[len(lineWidths)-1] = lineWidth()

	// Alignment shifts each line within the block width.
	blockWidth := float32(0)
	for _, w := range lineWidths {
		if w > blockWidth {
			blockWidth = w
		}
	}
	factor := opts.TextAlign.Factor()
	if factor != 0 {
		for li, start := range lineStarts {
			end := len(lay.Runes)
			if li+1 < len(lineStarts) {
				end = lineStarts[li+1]
			}
			shift := (blockWidth - lineWidths[li]) * factor
			for i := start; i < end; i++ {
				lay.Positions[i][0] += shift
				lay.Quads[i*4] += shift
				lay.Quads[i*4+2] += shift
			}
		}
	}

	// Anchor translation puts the anchor point at the origin.
	top := lay.Ascender
	bottom := -float32(lay.LineCount-1)*lineHeight + lay.Descender
	dx := -typeset.AnchorPointX(opts.AnchorX, 0, blockWidth)
	dy := -typeset.AnchorPointY(opts.AnchorY, top, bottom)
	if dx != 0 || dy != 0 {
		for i := range lay.Positions {
			lay.Positions[i][0] += dx
			lay.Positions[i][1] += dy
			lay.Quads[i*4] += dx
			lay.Quads[i*4+1] += dy
			lay.Quads[i*4+2] += dx
			lay.Quads[i*4+3] += dy
		}
	}
	lay.BlockBounds = [4]float32{dx, bottom + dy, blockWidth + dx, top + dy}
	return lay
}
