// Package atlas implements a growable, channel-packed glyph atlas store.
//
// One Atlas exists per distinct SDF glyph size. Each atlas owns an RGBA
// pixel buffer where four single-channel glyph bitmaps share one texel
// block, one per color channel, quadrupling atlas density. Glyph slots are
// content-addressed by (font key, glyph id): a glyph is rasterized at most
// once per process, slot indices grow monotonically and are never reused,
// and there is no eviction.
//
// The buffer grows by power-of-two height steps. Growth preserves prior
// rows byte for byte (the texture width never changes, so a plain buffer
// copy keeps every pre-growth (x, y) offset intact) and marks the whole
// texture dirty for a single GPU re-upload.
//
// All mutation of an Atlas (slot reservation, growth, pixel writes) is
// serialized by a per-atlas mutex, so concurrent build requests touching
// the same glyph size cannot corrupt the shared buffer.
package atlas
