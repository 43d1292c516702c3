package typeset

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"
)

// Options control one typesetting pass.
type Options struct {
	// FontSize is the em size in world units.
	FontSize float32

	// LineHeight is the baseline-to-baseline distance in world units.
	// Zero selects the font's normal line height.
	LineHeight float32

	// LetterSpacing is extra advance added after each glyph, in world
	// units.
	LetterSpacing float32

	// MaxWidth wraps lines that would exceed this world-unit width.
	// Zero disables wrapping.
	MaxWidth float32

	// TextAlign aligns lines within the block.
	TextAlign Align

	// AnchorX and AnchorY position the block relative to the origin.
	AnchorX Anchor
	AnchorY Anchor

	// Direction is the base paragraph direction.
	Direction Direction
}

// Layout is the output contract of a Typesetter: ordered glyphs with pen
// positions, outline paths, metrics and block bounds. Whitespace advances
// the pen but emits no glyph.
type Layout struct {
	// GlyphIDs are the font glyph indices, in visual order.
	GlyphIDs []uint16

	// Clusters are the rune indices in the source text, parallel to
	// GlyphIDs.
	Clusters []int

	// Positions are world-unit pen positions (baseline origin per
	// glyph), parallel to GlyphIDs.
	Positions []mgl32.Vec2

	// Outlines are the glyph outline paths in font units, parallel to
	// GlyphIDs.
	Outlines []*Outline

	// FontKey identifies the font all glyphs came from.
	FontKey uint64

	// Scale converts font units to world units (fontSize / unitsPerEm).
	Scale float32

	// Metrics are the font metrics in world units, with LineHeight
	// reflecting any override from Options.
	Metrics Metrics

	// BlockBounds is [minX, minY, maxX, maxY] of the laid-out block in
	// world units, after alignment and anchoring.
	BlockBounds [4]float32

	// LineCount is the number of laid-out lines.
	LineCount int

	// MissingGlyphs counts characters the font does not cover. They
	// advance the pen but are never emitted.
	MissingGlyphs int
}

// Typesetter converts text into a Layout.
type Typesetter interface {
	Typeset(ctx context.Context, text string, src *Source, opts Options) (*Layout, error)
}

// GoTextTypesetter shapes text with go-text/typesetting's HarfBuzz
// implementation, splitting paragraphs into bidi runs first.
//
// GoTextTypesetter is safe for concurrent use: the thread-safe *font.Font
// lives on the Source, a lightweight font.Face is created per call, and
// HarfbuzzShaper instances are pooled because they are not concurrent-safe.
type GoTextTypesetter struct {
	shaperPool sync.Pool
}

// NewGoTextTypesetter creates a typesetter.
func NewGoTextTypesetter() *GoTextTypesetter {
	return &GoTextTypesetter{
		shaperPool: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
	}
}

// shapedGlyph is one glyph with font-unit positioning, pre-layout.
type shapedGlyph struct {
	gid      uint16
	cluster  int
	xOffset  float32
	yOffset  float32
	advance  float32
	isBreak  bool // whitespace: advances the pen, emits no glyph
	canBreak bool // line break opportunity after this glyph
	missing  bool // shaped to .notdef, the font has no coverage
}

// Typeset implements Typesetter.
func (ts *GoTextTypesetter) Typeset(_ context.Context, text string, src *Source, opts Options) (*Layout, error) {
	if opts.FontSize <= 0 {
		opts.FontSize = 1
	}
	scale := opts.FontSize / src.UnitsPerEm()

	metrics := src.Metrics(opts.FontSize)
	if opts.LineHeight > 0 {
		metrics.LineHeight = opts.LineHeight
	}
	lineHeightFU := metrics.LineHeight / scale
	letterSpacingFU := opts.LetterSpacing / scale

	// Normalize line endings so the paragraph splitter only sees '\n'.
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	runes := []rune(text)

	// Shape each paragraph and wrap it into lines of shaped glyphs.
	var lines [][]shapedGlyph
	start := 0
	for i := 0; i <= len(runes); i++ {
		if i < len(runes) && runes[i] != '\n' {
			continue
		}
		glyphs := ts.shapeParagraph(runes, start, i, src, opts.Direction)
		budget := float32(0)
		if opts.MaxWidth > 0 {
			budget = opts.MaxWidth / scale
		}
		lines = append(lines, wrapGlyphs(glyphs, budget, letterSpacingFU)...)
		start = i + 1
	}

	return ts.position(lines, src, scale, metrics, lineHeightFU, letterSpacingFU, opts)
}

// shapeParagraph splits runes[start:end] into bidi runs and shapes each
// run, returning glyphs in visual order with font-unit advances.
func (ts *GoTextTypesetter) shapeParagraph(runes []rune, start, end int, src *Source, baseDir Direction) []shapedGlyph {
	if start >= end {
		return nil
	}

	shaper := ts.shaperPool.Get().(*shaping.HarfbuzzShaper)
	defer ts.shaperPool.Put(shaper)

	var out []shapedGlyph
	for _, run := range bidiRuns(runes, start, end, baseDir) {
		input := shaping.Input{
			Text:      runes,
			RunStart:  run.start,
			RunEnd:    run.end,
			Direction: run.dir,
			Face:      font.NewFace(src.ShapingFont()),
			Size:      fixed.I(int(src.UnitsPerEm())),
			Script:    detectScript(runes[run.start:run.end]),
			Language:  language.NewLanguage("en"),
		}
		output := shaper.Shape(input)

		for _, g := range output.Glyphs {
			cluster := g.TextIndex()
			r := rune(' ')
			if cluster >= 0 && cluster < len(runes) {
				r = runes[cluster]
			}
			ws := unicode.IsSpace(r)
			// Uncovered characters shape to .notdef (glyph 0). They keep
			// their advance so surrounding glyphs hold position, but are
			// never emitted.
			out = append(out, shapedGlyph{
				gid:      uint16(g.GlyphID),
				cluster:  cluster,
				xOffset:  fixedToFloat(g.XOffset),
				yOffset:  fixedToFloat(g.YOffset),
				advance:  fixedToFloat(g.Advance),
				isBreak:  ws || g.GlyphID == 0,
				canBreak: ws,
				missing:  !ws && g.GlyphID == 0,
			})
		}
	}
	return out
}

// wrapGlyphs splits one paragraph's glyphs into lines using greedy
// word wrapping. budget and letterSpacing are in font units; a zero
// budget disables wrapping.
func wrapGlyphs(glyphs []shapedGlyph, budget, letterSpacing float32) [][]shapedGlyph {
	if len(glyphs) == 0 {
		// An empty paragraph still occupies a line.
		return [][]shapedGlyph{nil}
	}
	if budget <= 0 {
		return [][]shapedGlyph{glyphs}
	}

	var lines [][]shapedGlyph
	lineStart := 0
	lastBreak := -1
	width := float32(0)

	for i := 0; i < len(glyphs); i++ {
		g := glyphs[i]
		width += g.advance + letterSpacing
		if g.canBreak {
			lastBreak = i
		}
		if width > budget && lastBreak >= lineStart && i > lineStart {
			// Break after the last whitespace; the break glyph itself
			// is swallowed at the line end.
			lines = append(lines, glyphs[lineStart:lastBreak])
			lineStart = lastBreak + 1
			i = lastBreak
			lastBreak = -1
			width = 0
		}
	}
	if lineStart <= len(glyphs) {
		lines = append(lines, glyphs[lineStart:])
	}
	return lines
}

// position lays lines onto baselines, applies alignment and anchoring and
// resolves outlines, producing the final Layout in world units.
func (ts *GoTextTypesetter) position(lines [][]shapedGlyph, src *Source, scale float32, metrics Metrics, lineHeightFU, letterSpacingFU float32, opts Options) (*Layout, error) {
	lay := &Layout{
		FontKey:   src.Key(),
		Scale:     scale,
		Metrics:   metrics,
		LineCount: len(lines),
	}

	// First pass: pen positions in font units, per line.
	type placed struct {
		g   shapedGlyph
		pos mgl32.Vec2
	}
	lineGlyphs := make([][]placed, len(lines))
	lineWidths := make([]float32, len(lines))
	maxWidth := float32(0)

	for li, line := range lines {
		penX := float32(0)
		penY := -float32(li) * lineHeightFU
		for _, g := range line {
			if g.missing {
				lay.MissingGlyphs++
			}
			if !g.isBreak {
				lineGlyphs[li] = append(lineGlyphs[li], placed{
					g:   g,
					pos: mgl32.Vec2{penX + g.xOffset, penY + g.yOffset},
				})
			}
			penX += g.advance + letterSpacingFU
		}
		if penX > 0 {
			penX -= letterSpacingFU
		}
		lineWidths[li] = penX
		if penX > maxWidth {
			maxWidth = penX
		}
	}

	// Alignment shifts lines within the block width.
	factor := opts.TextAlign.Factor()
	for li := range lineGlyphs {
		shift := (maxWidth - lineWidths[li]) * factor
		for i := range lineGlyphs[li] {
			lineGlyphs[li][i].pos[0] += shift
		}
	}

	// Block bounds in world units, before anchoring.
	top := metrics.Ascent
	bottom := -(float32(len(lines)-1)*metrics.LineHeight + metrics.Descent)
	left := float32(0)
	right := maxWidth * scale

	// Anchor translation puts the anchor point at the origin.
	dx := -AnchorPointX(opts.AnchorX, left, right)
	dy := -AnchorPointY(opts.AnchorY, top, bottom)

	for _, line := range lineGlyphs {
		for _, p := range line {
			outline, err := src.Outline(p.g.gid)
			if err != nil {
				return nil, err
			}
			lay.GlyphIDs = append(lay.GlyphIDs, p.g.gid)
			lay.Clusters = append(lay.Clusters, p.g.cluster)
			lay.Positions = append(lay.Positions, mgl32.Vec2{
				p.pos.X()*scale + dx,
				p.pos.Y()*scale + dy,
			})
			lay.Outlines = append(lay.Outlines, outline)
		}
	}
	lay.BlockBounds = [4]float32{left + dx, bottom + dy, right + dx, top + dy}
	return lay, nil
}

// AnchorPointX resolves the X anchor within [left, right].
func AnchorPointX(an Anchor, left, right float32) float32 {
	switch an.Mode {
	case AnchorCenter:
		return (left + right) / 2
	case AnchorMax:
		return right
	case AnchorOffset:
		return left + an.Value
	default:
		return left
	}
}

// AnchorPointY resolves the Y anchor between the top and bottom edges
// (Y up: top > bottom). Numeric offsets measure downward from the top.
func AnchorPointY(an Anchor, top, bottom float32) float32 {
	switch an.Mode {
	case AnchorCenter:
		return (top + bottom) / 2
	case AnchorMax:
		return bottom
	case AnchorOffset:
		return top - an.Value
	default:
		return top
	}
}

// bidiRun is a maximal run of uniform direction within a paragraph.
type bidiRun struct {
	start, end int // rune indices into the full text
	dir        di.Direction
}

// bidiRuns splits runes[start:end] into visual-order direction runs using
// the Unicode bidi algorithm.
func bidiRuns(runes []rune, start, end int, baseDir Direction) []bidiRun {
	para := string(runes[start:end])

	defaultDir := bidi.Neutral
	if baseDir == DirectionRTL {
		defaultDir = bidi.RightToLeft
	}

	var p bidi.Paragraph
	if _, err := p.SetString(para, bidi.DefaultDirection(defaultDir)); err != nil {
		return []bidiRun{{start: start, end: end, dir: mapDirection(baseDir)}}
	}
	ordering, err := p.Order()
	if err != nil {
		return []bidiRun{{start: start, end: end, dir: mapDirection(baseDir)}}
	}

	runs := make([]bidiRun, 0, ordering.NumRuns())
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		// run.Pos() returns rune indices (start, end inclusive).
		rs, re := run.Pos()
		dir := di.DirectionLTR
		if run.Direction() == bidi.RightToLeft {
			dir = di.DirectionRTL
		}
		runs = append(runs, bidiRun{start: start + rs, end: start + re + 1, dir: dir})
	}
	return runs
}

// mapDirection converts a base Direction to go-text's di.Direction.
func mapDirection(d Direction) di.Direction {
	if d == DirectionRTL {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// detectScript inspects the runes and returns the script of the first
// non-space character. For mixed-script runs this is a heuristic; the
// bidi split already separates the common cases.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
