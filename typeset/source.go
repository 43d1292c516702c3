package typeset

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"sync"

	gotextfont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// ErrEmptyFontData is returned when a Source is created from no data.
var ErrEmptyFontData = errors.New("typeset: empty font data")

// Source is a loaded vector font. It keeps two parsed views of the same
// data: a go-text font for shaping (thread-safe, cached per source) and an
// sfnt font for outline extraction and metrics.
//
// Source is heavyweight and should be shared; it is safe for concurrent
// use.
type Source struct {
	data  []byte
	key   uint64
	upem  float32
	shape *gotextfont.Font
	sfnt  *opentype.Font

	// mu guards the sfnt buffer and the outline cache. Glyph outlines
	// are immutable once extracted, so the cache only ever grows.
	mu       sync.Mutex
	buf      sfnt.Buffer
	outlines map[uint16]*Outline
}

// NewSource parses font data (TTF or OTF). The data slice is retained;
// callers must not mutate it afterwards.
func NewSource(data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}

	shaped, err := gotextfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("typeset: parsing font for shaping: %w", err)
	}
	outlined, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("typeset: parsing font for outlines: %w", err)
	}

	h := fnv.New64a()
	h.Write(data)

	return &Source{
		data:     data,
		key:      h.Sum64(),
		upem:     float32(outlined.UnitsPerEm()),
		shape:    shaped.Font,
		sfnt:     outlined,
		outlines: make(map[uint16]*Outline),
	}, nil
}

// LoadSource reads and parses a font file.
func LoadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("typeset: reading font %q: %w", path, err)
	}
	return NewSource(data)
}

// Key returns a stable identifier for this font, derived from the font
// data. It doubles as the atlas font key.
func (s *Source) Key() uint64 {
	return s.key
}

// UnitsPerEm returns the font's design grid resolution.
func (s *Source) UnitsPerEm() float32 {
	return s.upem
}

// ShapingFont returns the go-text font view. The returned *font.Font is
// read-only and safe for concurrent use.
func (s *Source) ShapingFont() *gotextfont.Font {
	return s.shape
}

// Metrics returns font metrics scaled to the given world-unit font size.
func (s *Source) Metrics(fontSize float32) Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Query at ppem == upem so values come back in font units.
	ppem := fixed.I(int(s.upem))
	m, err := s.sfnt.Metrics(&s.buf, ppem, xfont.HintingNone)
	if err != nil {
		return Metrics{}
	}

	scale := fontSize / s.upem
	ascent := fixedToFloat(m.Ascent) * scale
	descent := fixedToFloat(m.Descent) * scale
	gap := fixedToFloat(m.Height-m.Ascent-m.Descent) * scale
	if gap < 0 {
		gap = 0
	}
	return Metrics{
		Ascent:     ascent,
		Descent:    descent,
		LineGap:    gap,
		CapHeight:  fixedToFloat(m.CapHeight) * scale,
		XHeight:    fixedToFloat(m.XHeight) * scale,
		LineHeight: ascent + descent + gap,
	}
}

// Outline returns the outline for a glyph in font units, extracting and
// caching it on first use. Outlines are immutable; the same pointer is
// returned for repeated calls.
func (s *Source) Outline(gid uint16) (*Outline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.outlines[gid]; ok {
		return o, nil
	}
	o, err := s.extractOutline(gid)
	if err != nil {
		return nil, err
	}
	s.outlines[gid] = o
	return o, nil
}

// extractOutline loads the glyph path at ppem == upem so coordinates are
// font units, then flips Y so the outline is Y-up. Called with mu held.
func (s *Source) extractOutline(gid uint16) (*Outline, error) {
	ppem := fixed.I(int(s.upem))

	segments, err := s.sfnt.LoadGlyph(&s.buf, sfnt.GlyphIndex(gid), ppem, nil)
	if err != nil {
		return nil, fmt.Errorf("typeset: loading glyph %d: %w", gid, err)
	}

	outline := &Outline{
		GlyphID: gid,
		Advance: s.glyphAdvance(gid, ppem),
	}
	if len(segments) == 0 {
		// No path (space and friends); advance still matters.
		return outline, nil
	}

	minX, minY := float32(1e10), float32(1e10)
	maxX, maxY := float32(-1e10), float32(-1e10)
	track := func(p OutlinePoint) {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	outline.Segments = make([]OutlineSegment, 0, len(segments))
	for _, seg := range segments {
		out := OutlineSegment{}
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			out.Op = OutlineOpMoveTo
			out.Points[0] = fixedPointUp(seg.Args[0])
			track(out.Points[0])
		case sfnt.SegmentOpLineTo:
			out.Op = OutlineOpLineTo
			out.Points[0] = fixedPointUp(seg.Args[0])
			track(out.Points[0])
		case sfnt.SegmentOpQuadTo:
			out.Op = OutlineOpQuadTo
			out.Points[0] = fixedPointUp(seg.Args[0])
			out.Points[1] = fixedPointUp(seg.Args[1])
			track(out.Points[0])
			track(out.Points[1])
		case sfnt.SegmentOpCubeTo:
			out.Op = OutlineOpCubicTo
			out.Points[0] = fixedPointUp(seg.Args[0])
			out.Points[1] = fixedPointUp(seg.Args[1])
			out.Points[2] = fixedPointUp(seg.Args[2])
			track(out.Points[0])
			track(out.Points[1])
			track(out.Points[2])
		}
		outline.Segments = append(outline.Segments, out)
	}
	outline.Bounds = [4]float32{minX, minY, maxX, maxY}
	return outline, nil
}

// glyphAdvance returns the advance width in font units. Called with mu held.
func (s *Source) glyphAdvance(gid uint16, ppem fixed.Int26_6) float32 {
	advance, err := s.sfnt.GlyphAdvance(&s.buf, sfnt.GlyphIndex(gid), ppem, xfont.HintingNone)
	if err != nil {
		return 0
	}
	return fixedToFloat(advance)
}

// GlyphIndex returns the glyph id for a rune, or 0 (.notdef) if absent.
func (s *Source) GlyphIndex(r rune) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.sfnt.GlyphIndex(&s.buf, r)
	if err != nil {
		return 0
	}
	return uint16(idx)
}

// fixedPointUp converts a fixed-point point to font units, flipping Y so
// the outline is Y-up.
func fixedPointUp(p fixed.Point26_6) OutlinePoint {
	return OutlinePoint{
		X: float32(p.X) / 64.0,
		Y: -float32(p.Y) / 64.0,
	}
}

// fixedToFloat converts a fixed.Int26_6 value to float32.
func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64.0
}
