// Package bmfont lays out text against precomputed multi-channel distance
// field fonts.
//
// A precomputed font ships as a JSON descriptor in the msdf-atlas-gen
// layout (glyph plane/atlas bounds, font metrics, kerning pairs) next to
// its atlas texture. Nothing is rasterized at runtime; layout is a cursor
// walk over the descriptor's advances. The Cache loads each descriptor at
// most once per process, caching failures as well as successes.
package bmfont
