package bmfont

import (
	"encoding/json"
	"fmt"
	"os"
)

// descriptor mirrors the msdf-atlas-gen JSON layout.

type descriptorRect struct {
	Left   float32 `json:"left"`
	Top    float32 `json:"top"`
	Right  float32 `json:"right"`
	Bottom float32 `json:"bottom"`
}

type descriptorGlyph struct {
	Unicode     int32          `json:"unicode"`
	Advance     float32        `json:"advance"`
	PlaneBounds descriptorRect `json:"planeBounds"`
	AtlasBounds descriptorRect `json:"atlasBounds"`
}

type descriptorAtlas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type descriptorMetrics struct {
	EmSize             float32 `json:"emSize"`
	LineHeight         float32 `json:"lineHeight"`
	Ascender           float32 `json:"ascender"`
	Descender          float32 `json:"descender"`
	UnderlineY         float32 `json:"underlineY"`
	UnderlineThickness float32 `json:"underlineThickness"`
}

type descriptorKerning struct {
	Unicode1 int32   `json:"unicode1"`
	Unicode2 int32   `json:"unicode2"`
	Advance  float32 `json:"advance"`
}

type descriptor struct {
	Atlas   descriptorAtlas     `json:"atlas"`
	Metrics descriptorMetrics   `json:"metrics"`
	Glyphs  []descriptorGlyph   `json:"glyphs"`
	Kerning []descriptorKerning `json:"kerning"`
}

// Glyph is one renderable glyph of a precomputed font. All plane values
// are em-relative; atlas bounds are pixels in the atlas texture.
type Glyph struct {
	Rune rune

	// Index is the glyph's ordinal position in the descriptor, used as
	// its atlas slot index.
	Index uint16

	// Advance is the horizontal pen advance in em units.
	Advance float32

	// Plane is the glyph quad relative to the baseline pen position, in
	// em units [left, bottom, right, top].
	Plane [4]float32

	// Atlas is the glyph's texel rectangle [left, bottom, right, top].
	Atlas [4]float32
}

// Metrics are the font-wide vertical metrics in em units.
type Metrics struct {
	EmSize     float32
	LineHeight float32
	Ascender   float32
	Descender  float32
}

// Font is a parsed precomputed distance field font. Fonts are immutable
// after parsing and safe for concurrent use.
type Font struct {
	glyphs  map[rune]*Glyph
	kerning map[[2]rune]float32
	metrics Metrics

	atlasWidth  int
	atlasHeight int
}

// Parse decodes an msdf-atlas-gen JSON descriptor.
func Parse(data []byte) (*Font, error) {
	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("bmfont: decoding descriptor: %w", err)
	}
	if len(d.Glyphs) == 0 {
		return nil, fmt.Errorf("bmfont: descriptor has no glyphs")
	}
	if d.Metrics.LineHeight <= 0 {
		return nil, fmt.Errorf("bmfont: descriptor line height %g is not positive", d.Metrics.LineHeight)
	}

	f := &Font{
		glyphs:      make(map[rune]*Glyph, len(d.Glyphs)),
		kerning:     make(map[[2]rune]float32, len(d.Kerning)),
		atlasWidth:  d.Atlas.Width,
		atlasHeight: d.Atlas.Height,
		metrics: Metrics{
			EmSize:     d.Metrics.EmSize,
			LineHeight: d.Metrics.LineHeight,
			Ascender:   d.Metrics.Ascender,
			Descender:  d.Metrics.Descender,
		},
	}
	for i, g := range d.Glyphs {
		r := rune(g.Unicode)
		f.glyphs[r] = &Glyph{
			Rune:    r,
			Index:   uint16(i),
			Advance: g.Advance,
			Plane:   [4]float32{g.PlaneBounds.Left, g.PlaneBounds.Bottom, g.PlaneBounds.Right, g.PlaneBounds.Top},
			Atlas:   [4]float32{g.AtlasBounds.Left, g.AtlasBounds.Bottom, g.AtlasBounds.Right, g.AtlasBounds.Top},
		}
	}
	for _, k := range d.Kerning {
		f.kerning[[2]rune{rune(k.Unicode1), rune(k.Unicode2)}] = k.Advance
	}
	return f, nil
}

// Load reads and parses a descriptor file.
func Load(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bmfont: reading descriptor %q: %w", path, err)
	}
	return Parse(data)
}

// Glyph looks up the glyph for r. The second return is false when the
// font does not cover r.
func (f *Font) Glyph(r rune) (*Glyph, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

// Kerning returns the kerning adjustment between two runes in em units,
// zero when the pair is unlisted.
func (f *Font) Kerning(a, b rune) float32 {
	return f.kerning[[2]rune{a, b}]
}

// Metrics returns the font-wide metrics.
func (f *Font) Metrics() Metrics {
	return f.metrics
}

// GlyphCount returns the number of glyphs in the descriptor.
func (f *Font) GlyphCount() int {
	return len(f.glyphs)
}

// AtlasSize returns the atlas texture dimensions in pixels.
func (f *Font) AtlasSize() (width, height int) {
	return f.atlasWidth, f.atlasHeight
}

// fallbackAdvance is the pen advance used when a glyph is missing and no
// space glyph exists to borrow from.
const fallbackAdvance = 0.5

// advanceFor returns the advance for r, falling back to the space
// glyph's advance (or a constant) when r is not covered.
func (f *Font) advanceFor(r rune) (float32, bool) {
	if g, ok := f.glyphs[r]; ok {
		return g.Advance, true
	}
	if sp, ok := f.glyphs[' ']; ok {
		return sp.Advance, false
	}
	return fallbackAdvance, false
}
