package atlas

import (
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// ChannelCount is the number of glyphs packed into one texel block,
// one per RGBA channel.
const ChannelCount = 4

// bytesPerTexel is the byte size of one RGBA texel.
const bytesPerTexel = 4

// Config holds atlas sizing parameters. All atlases created from one
// Registry share the same Config, so every atlas in a process agrees on
// texture width and margin assumptions.
type Config struct {
	// TextureWidth is the fixed atlas texture width in texels.
	// Must be a power of two and a multiple of every glyph size used.
	// Default: 2048
	TextureWidth int

	// InitialCapacity is the glyph count an empty atlas is sized for.
	// Default: 256
	InitialCapacity int

	// MarginFraction controls the empty border baked around each glyph's
	// view box, as a fraction of the glyph cell size.
	// Default: 1/16
	MarginFraction float32
}

// DefaultConfig returns the default atlas configuration.
func DefaultConfig() Config {
	return Config{
		TextureWidth:    2048,
		InitialCapacity: 256,
		MarginFraction:  1.0 / 16.0,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TextureWidth < 64 {
		return &ConfigError{Field: "TextureWidth", Reason: "must be at least 64"}
	}
	if c.TextureWidth > 16384 {
		return &ConfigError{Field: "TextureWidth", Reason: "must be at most 16384"}
	}
	if c.TextureWidth&(c.TextureWidth-1) != 0 {
		return &ConfigError{Field: "TextureWidth", Reason: "must be power of 2"}
	}
	if c.InitialCapacity < 1 {
		return &ConfigError{Field: "InitialCapacity", Reason: "must be at least 1"}
	}
	if c.MarginFraction < 0 || c.MarginFraction >= 1 {
		return &ConfigError{Field: "MarginFraction", Reason: "must be in [0, 1)"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}

// SlotKey uniquely identifies a glyph within an atlas.
type SlotKey struct {
	// FontKey identifies the font (hash of the font data).
	FontKey uint64

	// GlyphID is the glyph index within the font.
	GlyphID uint16
}

// Slot is the reserved identity and bounds record for one unique
// (font, glyph) pairing. Created once, immutable thereafter.
type Slot struct {
	// Outline is the opaque glyph outline path handed to the rasterizer.
	Outline any

	// Index is the glyph's position in the atlas. Indices are assigned
	// monotonically and never reused.
	Index uint32

	// ViewBox is the glyph path bounds expanded by the SDF margin, in
	// font units relative to the glyph origin. It addresses both the
	// raster write target and render-time quad bounds.
	ViewBox [4]float32
}

// Texture describes the atlas pixel buffer for upload consumers.
// Generation increments whenever the backing buffer is reallocated, so
// uploaders can detect that a full re-upload is required.
type Texture struct {
	Width      int
	Height     int
	Format     gputypes.TextureFormat
	Generation uint64
}

// Atlas is a growable channel-packed glyph store for one SDF glyph size.
//
// Atlas is safe for concurrent use.
type Atlas struct {
	glyphSize      int
	textureWidth   int
	marginFraction float32

	mu         sync.Mutex
	pixels     []byte
	height     int
	glyphCount uint32
	index      map[SlotKey]*Slot
	dirty      bool
	generation uint64

	// Statistics (atomic for lock-free reads)
	hits   atomic.Uint64
	misses atomic.Uint64
}

// newAtlas creates an atlas sized for cfg.InitialCapacity glyphs.
func newAtlas(glyphSize int, cfg Config) *Atlas {
	a := &Atlas{
		glyphSize:      glyphSize,
		textureWidth:   cfg.TextureWidth,
		marginFraction: cfg.MarginFraction,
		index:          make(map[SlotKey]*Slot, cfg.InitialCapacity),
	}
	rows := ceilDiv(cfg.InitialCapacity, a.glyphsPerRow())
	a.height = nextPowerOfTwo(rows * glyphSize)
	a.pixels = make([]byte, a.textureWidth*a.height*bytesPerTexel)
	return a
}

// GlyphSize returns the SDF cell size this atlas serves.
func (a *Atlas) GlyphSize() int {
	return a.glyphSize
}

// TextureWidth returns the fixed texture width in texels.
func (a *Atlas) TextureWidth() int {
	return a.textureWidth
}

// glyphsPerRow returns how many glyphs fit in one row of texel blocks,
// ChannelCount glyphs per block.
func (a *Atlas) glyphsPerRow() int {
	return (a.textureWidth / a.glyphSize) * ChannelCount
}

// GlyphsPerRow returns how many glyphs one atlas row holds.
func (a *Atlas) GlyphsPerRow() int {
	return a.glyphsPerRow()
}

// GlyphCount returns the number of reserved slots.
func (a *Atlas) GlyphCount() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.glyphCount
}

// Height returns the current texture height in texels.
func (a *Atlas) Height() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.height
}

// Lookup returns the slot for a key if it has been reserved.
func (a *Atlas) Lookup(key SlotKey) (*Slot, bool) {
	a.mu.Lock()
	slot, ok := a.index[key]
	a.mu.Unlock()
	if ok {
		a.hits.Add(1)
	} else {
		a.misses.Add(1)
	}
	return slot, ok
}

// ReserveSlot returns the slot for the (font, glyph) pair, creating it if
// absent. The returned bool reports whether the slot is new and therefore
// needs rasterization. pathBounds is the raw outline bounding box in font
// units; the stored view box is pathBounds expanded by the SDF margin.
func (a *Atlas) ReserveSlot(key SlotKey, outline any, pathBounds [4]float32) (*Slot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if slot, ok := a.index[key]; ok {
		a.hits.Add(1)
		return slot, false
	}
	a.misses.Add(1)

	slot := &Slot{
		Outline: outline,
		Index:   a.glyphCount,
		ViewBox: a.viewBox(pathBounds),
	}
	a.glyphCount++
	a.index[key] = slot
	return slot, true
}

// viewBox expands pathBounds by a margin proportional to the glyph's size
// relative to the SDF cell, keeping the SDF falloff distance consistent
// across glyphs of different extents.
func (a *Atlas) viewBox(pathBounds [4]float32) [4]float32 {
	w := pathBounds[2] - pathBounds[0]
	h := pathBounds[3] - pathBounds[1]
	longest := w
	if h > longest {
		longest = h
	}
	gs := float32(a.glyphSize)
	margin := longest / gs * (a.marginFraction*gs + 0.5)
	return [4]float32{
		pathBounds[0] - margin,
		pathBounds[1] - margin,
		pathBounds[2] + margin,
		pathBounds[3] + margin,
	}
}

// GrowToFit enlarges the pixel buffer so every reserved slot has a cell.
// It is called once per build request, after all of that request's slots
// are reserved and before any raster write proceeds. Prior rows are
// preserved byte for byte; only the buffer length changes. Returns true
// if the buffer was reallocated.
func (a *Atlas) GrowToFit() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	neededRows := ceilDiv(int(a.glyphCount), a.glyphsPerRow())
	neededHeight := nextPowerOfTwo(neededRows * a.glyphSize)
	if neededHeight <= a.height {
		return false
	}

	grown := make([]byte, a.textureWidth*neededHeight*bytesPerTexel)
	copy(grown, a.pixels)
	a.pixels = grown
	a.height = neededHeight
	a.generation++
	// The whole texture must be re-uploaded after a realloc.
	a.dirty = true
	return true
}

// Address returns the texel position and channel for an atlas index.
// This is the single packing contract shared by raster writes and
// render-time UV lookups.
func (a *Atlas) Address(index uint32) (x, y, channel int) {
	squareIndex := int(index) / ChannelCount
	blocksPerRow := a.textureWidth / a.glyphSize
	x = (squareIndex % blocksPerRow) * a.glyphSize
	y = (squareIndex / blocksPerRow) * a.glyphSize
	channel = int(index) % ChannelCount
	return
}

// WriteGlyph copies a glyphSize×glyphSize single-channel bitmap into the
// channel-packed cell for the given atlas index. It does not mark the
// atlas dirty; the dispatcher does that once per batch.
func (a *Atlas) WriteGlyph(index uint32, bitmap []byte) error {
	if len(bitmap) != a.glyphSize*a.glyphSize {
		return fmt.Errorf("atlas: bitmap is %d bytes, want %d", len(bitmap), a.glyphSize*a.glyphSize)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if index >= a.glyphCount {
		return fmt.Errorf("atlas: index %d out of range (count %d)", index, a.glyphCount)
	}
	x, y, channel := a.Address(index)
	if y+a.glyphSize > a.height {
		return fmt.Errorf("atlas: cell for index %d exceeds height %d; GrowToFit not run", index, a.height)
	}

	for row := 0; row < a.glyphSize; row++ {
		srcOff := row * a.glyphSize
		dstOff := ((y+row)*a.textureWidth+x)*bytesPerTexel + channel
		for col := 0; col < a.glyphSize; col++ {
			a.pixels[dstOff+col*bytesPerTexel] = bitmap[srcOff+col]
		}
	}
	return nil
}

// MarkDirty marks the texture as needing GPU upload.
func (a *Atlas) MarkDirty() {
	a.mu.Lock()
	a.dirty = true
	a.mu.Unlock()
}

// TakeDirty reports whether the texture needs upload and clears the flag.
func (a *Atlas) TakeDirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	d := a.dirty
	a.dirty = false
	return d
}

// IsDirty reports whether the texture needs upload.
func (a *Atlas) IsDirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

// Texture returns the current texture description.
func (a *Atlas) Texture() Texture {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Texture{
		Width:      a.textureWidth,
		Height:     a.height,
		Format:     gputypes.TextureFormatRGBA8Unorm,
		Generation: a.generation,
	}
}

// Pixels returns the backing RGBA buffer. The slice is replaced wholesale
// on growth; callers must re-fetch it after a generation change and must
// not write through it.
func (a *Atlas) Pixels() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pixels
}

// Stats returns cache statistics for this atlas.
func (a *Atlas) Stats() (hits, misses uint64) {
	return a.hits.Load(), a.misses.Load()
}

// MemoryUsage returns the pixel buffer size in bytes.
func (a *Atlas) MemoryUsage() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int64(len(a.pixels))
}

// ceilDiv returns ceil(a / b) for positive integers.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// nextPowerOfTwo returns the smallest power of two >= n.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
