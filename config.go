package sdftext

import "fmt"

// Default configuration values.
const (
	DefaultGlyphSize      = 64
	DefaultTextureWidth   = 2048
	DefaultMarginFraction = 1.0 / 16.0
	DefaultFontSize       = 0.1
)

// Config controls a Builder. A Builder's configuration is mutable until
// its first render request and frozen afterwards; late mutations are
// logged and ignored.
type Config struct {
	// DefaultFont is the font file used when a request names none.
	DefaultFont string

	// GlyphSize is the default distance field cell edge in pixels. Must
	// be a power of two. Requests may override it per call.
	GlyphSize int

	// TextureWidth is the fixed atlas width in pixels. Must be a power
	// of two.
	TextureWidth int

	// MarginFraction is the fraction of the glyph cell added as distance
	// field margin around each glyph's path bounds.
	MarginFraction float32

	// Threaded selects the threaded task runner. The zero value runs all
	// work inline on the calling goroutine. Execution mode is explicit
	// configuration, never probed from the environment.
	Threaded bool

	// Workers is the threaded runner's worker count. Zero or negative
	// selects one worker per CPU. Ignored when Threaded is false.
	Workers int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		GlyphSize:      DefaultGlyphSize,
		TextureWidth:   DefaultTextureWidth,
		MarginFraction: DefaultMarginFraction,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.GlyphSize < 8 || c.GlyphSize&(c.GlyphSize-1) != 0 {
		return buildError(KindConfig, "validate",
			fmt.Errorf("glyph size %d must be a power of two >= 8", c.GlyphSize))
	}
	if c.TextureWidth < c.GlyphSize || c.TextureWidth&(c.TextureWidth-1) != 0 {
		return buildError(KindConfig, "validate",
			fmt.Errorf("texture width %d must be a power of two >= glyph size %d", c.TextureWidth, c.GlyphSize))
	}
	if c.MarginFraction < 0 || c.MarginFraction >= 1 {
		return buildError(KindConfig, "validate",
			fmt.Errorf("margin fraction %g must be in [0, 1)", c.MarginFraction))
	}
	return nil
}
