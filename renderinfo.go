package sdftext

import (
	"time"

	"github.com/gogpu/sdftext/atlas"
	"github.com/gogpu/sdftext/raster"
)

// Timings breaks down where a render request spent its time.
type Timings struct {
	Typeset time.Duration
	Raster  time.Duration
	Total   time.Duration
}

// RenderInfo is the immutable result of one render request. All slice
// accessors return copies; callers can hand a RenderInfo to any number of
// consumers without coordination.
type RenderInfo struct {
	texture      atlas.Texture
	glyphSize    int
	glyphBounds  []float32
	atlasIndices []uint32
	glyphColors  []uint32
	blockBounds  [4]float32
	ascender     float32
	descender    float32
	lineHeight   float32
	capHeight    float32
	xHeight      float32
	lineCount    int
	newGlyphs    int
	failures     []raster.GlyphFailure
	timings      Timings
}

// Texture describes the atlas backing this text run. For precomputed
// fonts the format and generation describe the descriptor's own texture.
func (ri *RenderInfo) Texture() atlas.Texture {
	return ri.texture
}

// GlyphSize returns the distance field cell edge used by the request.
func (ri *RenderInfo) GlyphSize() int {
	return ri.glyphSize
}

// GlyphBounds returns four floats per glyph: the world-space quad
// [minX, minY, maxX, maxY] each glyph occupies.
func (ri *RenderInfo) GlyphBounds() []float32 {
	out := make([]float32, len(ri.glyphBounds))
	copy(out, ri.glyphBounds)
	return out
}

// AtlasIndices returns one atlas slot index per glyph.
func (ri *RenderInfo) AtlasIndices() []uint32 {
	out := make([]uint32, len(ri.atlasIndices))
	copy(out, ri.atlasIndices)
	return out
}

// GlyphColors returns one packed RGBA color per glyph, or nil when the
// request carried no color ranges. Glyphs outside every range hold zero.
func (ri *RenderInfo) GlyphColors() []uint32 {
	if ri.glyphColors == nil {
		return nil
	}
	out := make([]uint32, len(ri.glyphColors))
	copy(out, ri.glyphColors)
	return out
}

// GlyphCount returns the number of rendered glyphs.
func (ri *RenderInfo) GlyphCount() int {
	return len(ri.atlasIndices)
}

// BlockBounds returns the text block rectangle [minX, minY, maxX, maxY]
// in world units.
func (ri *RenderInfo) BlockBounds() [4]float32 {
	return ri.blockBounds
}

// Ascender returns the font ascent in world units.
func (ri *RenderInfo) Ascender() float32 { return ri.ascender }

// Descender returns the font descent in world units. Vector fonts report
// it as a positive distance below the baseline; precomputed descriptors
// keep their negative convention.
func (ri *RenderInfo) Descender() float32 { return ri.descender }

// LineHeight returns the baseline-to-baseline distance in world units.
func (ri *RenderInfo) LineHeight() float32 { return ri.lineHeight }

// CapHeight returns the capital letter height in world units, zero when
// the font does not report it.
func (ri *RenderInfo) CapHeight() float32 { return ri.capHeight }

// XHeight returns the lowercase x height in world units, zero when the
// font does not report it.
func (ri *RenderInfo) XHeight() float32 { return ri.xHeight }

// LineCount returns the number of laid-out lines.
func (ri *RenderInfo) LineCount() int { return ri.lineCount }

// NewGlyphs returns how many glyphs this request added to the atlas.
// Zero means the request was served entirely from resident glyphs.
func (ri *RenderInfo) NewGlyphs() int { return ri.newGlyphs }

// Failures returns the glyphs whose distance fields could not be
// produced. The render itself still succeeded; failed glyphs render
// blank.
func (ri *RenderInfo) Failures() []raster.GlyphFailure {
	out := make([]raster.GlyphFailure, len(ri.failures))
	copy(out, ri.failures)
	return out
}

// Timings returns the request's duration breakdown.
func (ri *RenderInfo) Timings() Timings {
	return ri.timings
}
