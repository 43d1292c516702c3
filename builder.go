package sdftext

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/sdftext/atlas"
	"github.com/gogpu/sdftext/bmfont"
	"github.com/gogpu/sdftext/raster"
	"github.com/gogpu/sdftext/task"
	"github.com/gogpu/sdftext/typeset"
)

// Builder turns render requests into RenderInfo values. It owns the atlas
// registry, the task runner, the typesetter and the font caches, and picks
// the layout strategy per request: requests naming a precomputed font are
// laid out straight from the descriptor, everything else goes through
// shaping and rasterization.
//
// Builder is safe for concurrent use. Its configuration is mutable until
// the first render request and frozen afterwards.
type Builder struct {
	mu  sync.Mutex // guards cfg before freeze
	cfg Config

	frozen   atomic.Bool
	initOnce sync.Once
	initErr  error

	rasterizer raster.Rasterizer

	registry    *atlas.Registry
	runner      task.Runner
	dispatcher  *raster.Dispatcher
	typesetter  typeset.Typesetter
	typesetTask *task.Task

	bitmapFonts *bmfont.Cache

	sourcesMu sync.Mutex
	sources   map[string]*sourceEntry
}

// sourceEntry caches one vector font parse, success or failure.
type sourceEntry struct {
	once sync.Once
	src  *typeset.Source
	err  error
}

// typesetJob is the input for the typeset task.
type typesetJob struct {
	text string
	src  *typeset.Source
	opts typeset.Options
}

// NewBuilder creates a builder. rz produces distance field bitmaps for
// the vector pipeline; it may be nil when only precomputed fonts are used.
func NewBuilder(cfg Config, rz raster.Rasterizer) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Builder{
		cfg:         cfg,
		rasterizer:  rz,
		bitmapFonts: bmfont.NewCache(),
		sources:     make(map[string]*sourceEntry),
	}, nil
}

// Config returns the builder's current configuration.
func (b *Builder) Config() Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// mutate applies fn to the configuration, unless the builder already
// served a request. Late mutations are logged and ignored.
func (b *Builder) mutate(field string, fn func(*Config)) {
	if b.frozen.Load() {
		Logger().Warn("sdftext: configuration change ignored, builder already rendered",
			"field", field)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen.Load() {
		Logger().Warn("sdftext: configuration change ignored, builder already rendered",
			"field", field)
		return
	}
	fn(&b.cfg)
}

// SetDefaultFont sets the font used by requests that name none.
func (b *Builder) SetDefaultFont(path string) {
	b.mutate("DefaultFont", func(c *Config) { c.DefaultFont = path })
}

// SetGlyphSize sets the default distance field cell size.
func (b *Builder) SetGlyphSize(size int) {
	b.mutate("GlyphSize", func(c *Config) { c.GlyphSize = size })
}

// SetTextureWidth sets the atlas texture width.
func (b *Builder) SetTextureWidth(width int) {
	b.mutate("TextureWidth", func(c *Config) { c.TextureWidth = width })
}

// SetMarginFraction sets the distance field margin fraction.
func (b *Builder) SetMarginFraction(f float32) {
	b.mutate("MarginFraction", func(c *Config) { c.MarginFraction = f })
}

// SetThreaded selects the threaded task runner.
func (b *Builder) SetThreaded(threaded bool) {
	b.mutate("Threaded", func(c *Config) { c.Threaded = threaded })
}

// SetWorkers sets the threaded runner's worker count.
func (b *Builder) SetWorkers(n int) {
	b.mutate("Workers", func(c *Config) { c.Workers = n })
}

// freeze locks the configuration and builds the pipeline exactly once.
func (b *Builder) freeze() error {
	b.initOnce.Do(func() {
		b.mu.Lock()
		b.frozen.Store(true)
		cfg := b.cfg
		b.mu.Unlock()

		if err := cfg.Validate(); err != nil {
			b.initErr = err
			return
		}

		b.registry, b.initErr = atlas.NewRegistry(atlas.Config{
			TextureWidth:    cfg.TextureWidth,
			InitialCapacity: 256,
			MarginFraction:  cfg.MarginFraction,
		})
		if b.initErr != nil {
			return
		}

		if cfg.Threaded {
			b.runner = task.NewThreadedRunner(cfg.Workers)
		} else {
			b.runner = task.NewInlineRunner()
		}
		b.dispatcher = raster.NewDispatcher(b.rasterizer, b.runner)

		b.typesetter = typeset.NewGoTextTypesetter()
		b.typesetTask = task.Define("typeset", nil, func([]any) (any, error) {
			return task.WorkFunc(func(ctx context.Context, input any) (any, error) {
				job := input.(typesetJob)
				return b.typesetter.Typeset(ctx, job.text, job.src, job.opts)
			}), nil
		})

		Logger().Debug("sdftext: builder frozen",
			"glyphSize", cfg.GlyphSize,
			"textureWidth", cfg.TextureWidth,
			"threaded", cfg.Threaded)
	})
	return b.initErr
}

// Render serves one request synchronously.
func (b *Builder) Render(ctx context.Context, req Request) (*RenderInfo, error) {
	if err := b.freeze(); err != nil {
		return nil, err
	}
	start := time.Now()

	var (
		info *RenderInfo
		err  error
	)
	if req.PrecomputedFont != "" {
		info, err = b.renderBitmap(req)
	} else {
		info, err = b.renderVector(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	info.timings.Total = time.Since(start)
	return info, nil
}

// Result carries an asynchronous render outcome.
type Result struct {
	Info *RenderInfo
	Err  error
}

// RenderAsync serves one request on a separate goroutine. The returned
// channel delivers exactly one Result and is then closed.
func (b *Builder) RenderAsync(ctx context.Context, req Request) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		info, err := b.Render(ctx, req)
		out <- Result{Info: info, Err: err}
	}()
	return out
}

// Close releases the task runner. The builder must not be used afterwards.
func (b *Builder) Close() error {
	if b.runner != nil {
		return b.runner.Close()
	}
	return nil
}

// AtlasInfos reports the state of every atlas the builder created.
func (b *Builder) AtlasInfos() []atlas.Info {
	if b.registry == nil {
		return nil
	}
	return b.registry.Infos()
}

// MemoryUsage returns the total atlas pixel memory in bytes.
func (b *Builder) MemoryUsage() int64 {
	if b.registry == nil {
		return 0
	}
	return b.registry.MemoryUsage()
}

// source returns the parsed vector font for a path, loading it at most
// once. Failures are cached; a font that failed to parse keeps failing
// without touching the filesystem again.
func (b *Builder) source(path string) (*typeset.Source, error) {
	b.sourcesMu.Lock()
	e, ok := b.sources[path]
	if !ok {
		e = &sourceEntry{}
		b.sources[path] = e
	}
	b.sourcesMu.Unlock()

	e.once.Do(func() {
		e.src, e.err = typeset.LoadSource(path)
		if e.err != nil {
			Logger().Warn("sdftext: font load failed", "path", path, "error", e.err)
		}
	})
	if e.err != nil {
		return nil, buildError(KindAssetLoad, "load font", e.err)
	}
	return e.src, nil
}

// renderVector typesets through the task runner, rasterizes missing
// glyphs into the atlas and assembles the RenderInfo.
func (b *Builder) renderVector(ctx context.Context, req Request) (*RenderInfo, error) {
	fontPath := req.Font
	if fontPath == "" {
		fontPath = b.Config().DefaultFont
	}
	if fontPath == "" {
		return nil, buildError(KindAssetLoad, "load font",
			fmt.Errorf("request names no font and no default font is configured"))
	}
	src, err := b.source(fontPath)
	if err != nil {
		return nil, err
	}

	fontSize := req.FontSize
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}

	typesetStart := time.Now()
	fut := b.runner.Invoke(ctx, b.typesetTask, typesetJob{
		text: req.Text,
		src:  src,
		opts: typeset.Options{
			FontSize:      fontSize,
			LineHeight:    req.LineHeight,
			LetterSpacing: req.LetterSpacing,
			MaxWidth:      req.MaxWidth,
			TextAlign:     req.TextAlign,
			AnchorX:       req.AnchorX,
			AnchorY:       req.AnchorY,
			Direction:     req.Direction,
		},
	})
	v, err := fut.Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("sdftext: typesetting: %w", err)
	}
	layout := v.(*typeset.Layout)
	typesetDur := time.Since(typesetStart)

	glyphSize := req.GlyphSize
	if glyphSize <= 0 {
		glyphSize = b.Config().GlyphSize
	}
	a, err := b.registry.Ensure(glyphSize)
	if err != nil {
		return nil, buildError(KindConfig, "ensure atlas", err)
	}

	// Glyphs without ink (spaces are already gone, but some fonts map
	// visible characters to empty outlines) reserve no atlas slot.
	var (
		reqs     []raster.GlyphRequest
		clusters []int
	)
	for i, outline := range layout.Outlines {
		if outline.IsEmpty() {
			continue
		}
		reqs = append(reqs, raster.GlyphRequest{
			FontKey: layout.FontKey,
			GlyphID: layout.GlyphIDs[i],
			Outline: outline,
			Bounds:  outline.Bounds,
			Pos:     layout.Positions[i],
		})
		clusters = append(clusters, layout.Clusters[i])
	}

	rasterStart := time.Now()
	commit, err := b.dispatcher.Process(ctx, a, reqs, layout.Scale)
	if err != nil {
		return nil, err
	}
	rasterDur := time.Since(rasterStart)
	if n := len(commit.Failures); n > 0 {
		for i := range commit.Failures {
			f := &commit.Failures[i]
			f.Err = buildError(KindRasterFailure, "rasterize glyph", f.Err)
		}
		Logger().Warn("sdftext: glyph rasterization failures",
			"kind", KindRasterFailure.String(), "count", n)
	}
	if n := layout.MissingGlyphs; n > 0 {
		Logger().Debug("sdftext: characters without glyph coverage skipped",
			"kind", KindMissingGlyph.String(), "count", n)
	}

	info := &RenderInfo{
		texture:      a.Texture(),
		glyphSize:    glyphSize,
		glyphBounds:  commit.GlyphBounds,
		atlasIndices: commit.AtlasIndices,
		blockBounds:  layout.BlockBounds,
		ascender:     layout.Metrics.Ascent,
		descender:    layout.Metrics.Descent,
		lineHeight:   layout.Metrics.LineHeight,
		capHeight:    layout.Metrics.CapHeight,
		xHeight:      layout.Metrics.XHeight,
		lineCount:    layout.LineCount,
		newGlyphs:    commit.NewGlyphs,
		failures:     commit.Failures,
		timings:      Timings{Typeset: typesetDur, Raster: rasterDur},
	}
	if len(req.ColorRanges) > 0 {
		info.glyphColors = resolveColors(req.ColorRanges, clusters)
	}
	return info, nil
}

// renderBitmap lays out against a precomputed font descriptor. No
// shaping, no rasterization, no atlas mutation.
func (b *Builder) renderBitmap(req Request) (*RenderInfo, error) {
	f, err := b.bitmapFonts.Load(req.PrecomputedFont)
	if err != nil {
		return nil, buildError(KindAssetLoad, "load precomputed font", err)
	}

	fontSize := req.FontSize
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}

	typesetStart := time.Now()
	lay := bmfont.LayoutText(f, req.Text, bmfont.Options{
		FontSize:      fontSize,
		LineHeight:    req.LineHeight,
		LetterSpacing: req.LetterSpacing,
		TextAlign:     req.TextAlign,
		AnchorX:       req.AnchorX,
		AnchorY:       req.AnchorY,
	})
	typesetDur := time.Since(typesetStart)
	if n := lay.MissingGlyphs; n > 0 {
		Logger().Debug("sdftext: characters without glyph coverage skipped",
			"kind", KindMissingGlyph.String(), "count", n)
	}

	indices := make([]uint32, len(lay.Indices))
	for i, idx := range lay.Indices {
		indices[i] = uint32(idx)
	}
	w, h := f.AtlasSize()

	info := &RenderInfo{
		texture: atlas.Texture{
			Width:  w,
			Height: h,
			Format: gputypes.TextureFormatRGBA8Unorm,
		},
		glyphBounds:  lay.Quads,
		atlasIndices: indices,
		blockBounds:  lay.BlockBounds,
		ascender:     lay.Ascender,
		descender:    lay.Descender,
		lineHeight:   lay.LineHeight,
		lineCount:    lay.LineCount,
		timings:      Timings{Typeset: typesetDur},
	}
	if len(req.ColorRanges) > 0 {
		info.glyphColors = resolveColors(req.ColorRanges, lay.Clusters)
	}
	return info, nil
}

// resolveColors maps per-character color ranges onto emitted glyphs.
func resolveColors(ranges []ColorRange, clusters []int) []uint32 {
	colors := make([]uint32, len(clusters))
	for i, cluster := range clusters {
		if c, ok := colorFor(ranges, cluster); ok {
			colors[i] = c
		}
	}
	return colors
}
