package sdftext

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should validate: %v", err)
	}
	if cfg.GlyphSize != 64 {
		t.Errorf("GlyphSize = %d, want 64", cfg.GlyphSize)
	}
	if cfg.TextureWidth != 2048 {
		t.Errorf("TextureWidth = %d, want 2048", cfg.TextureWidth)
	}
	if cfg.Threaded {
		t.Error("default execution mode should be inline")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"glyph size not power of two", func(c *Config) { c.GlyphSize = 48 }, false},
		{"glyph size too small", func(c *Config) { c.GlyphSize = 4 }, false},
		{"texture width below glyph size", func(c *Config) { c.TextureWidth = 32 }, false},
		{"texture width not power of two", func(c *Config) { c.TextureWidth = 1000 }, false},
		{"negative margin", func(c *Config) { c.MarginFraction = -0.1 }, false},
		{"margin of one", func(c *Config) { c.MarginFraction = 1 }, false},
		{"small glyph size", func(c *Config) { c.GlyphSize = 8 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				var be *BuildError
				if !errors.As(err, &be) {
					t.Fatalf("error type %T, want *BuildError", err)
				}
				if be.Kind != KindConfig {
					t.Errorf("kind = %v, want %v", be.Kind, KindConfig)
				}
			}
		})
	}
}

func TestBuildErrorKindString(t *testing.T) {
	tests := []struct {
		kind BuildErrorKind
		want string
	}{
		{KindAssetLoad, "asset load"},
		{KindMissingGlyph, "missing glyph"},
		{KindRasterFailure, "raster failure"},
		{KindConfig, "config"},
		{BuildErrorKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestBuildErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := buildError(KindAssetLoad, "load font", inner)
	if !errors.Is(err, inner) {
		t.Error("BuildError should unwrap to the inner error")
	}
	if err.Error() == "" {
		t.Error("Error() should not be empty")
	}
}
