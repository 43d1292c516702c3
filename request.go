package sdftext

import "github.com/gogpu/sdftext/typeset"

// ColorRange assigns a color to a half-open range of characters.
type ColorRange struct {
	// Start and End are rune offsets into the request text, [Start, End).
	Start, End int

	// Color is packed RGBA, 0xRRGGBBAA.
	Color uint32
}

// Request describes one string to typeset and rasterize.
//
// The zero value of every optional field selects a sensible default, so
// Request{Text: "hi"} is a complete request against the builder's default
// font.
type Request struct {
	// Text is the string to render.
	Text string

	// Font is the path of a vector font file (TTF or OTF). Empty selects
	// the builder's default font.
	Font string

	// PrecomputedFont is the path of a precomputed distance field font
	// descriptor. When set, the vector pipeline is bypassed entirely: no
	// shaping, no rasterization, layout straight from the descriptor.
	PrecomputedFont string

	// FontSize is the em size in world units. Zero selects 0.1.
	FontSize float32

	// LineHeight overrides the font's line height in world units when
	// positive.
	LineHeight float32

	// LetterSpacing is extra advance after every glyph, world units.
	LetterSpacing float32

	// MaxWidth wraps lines at the given world-unit width when positive.
	// Ignored by precomputed fonts.
	MaxWidth float32

	TextAlign typeset.Align
	AnchorX   typeset.Anchor
	AnchorY   typeset.Anchor
	Direction typeset.Direction

	// GlyphSize overrides the builder's distance field cell size for
	// this request. Must be a power of two when set.
	GlyphSize int

	// ColorRanges colors character ranges. Characters outside every
	// range keep the renderer's base color.
	ColorRanges []ColorRange
}

// colorFor resolves the color for the character at rune offset cluster.
// Later ranges win on overlap.
func colorFor(ranges []ColorRange, cluster int) (uint32, bool) {
	color := uint32(0)
	found := false
	for _, cr := range ranges {
		if cluster >= cr.Start && cluster < cr.End {
			color = cr.Color
			found = true
		}
	}
	return color, found
}
