// Package raster turns typeset glyphs into committed atlas pixels.
//
// The Dispatcher deduplicates glyphs against an atlas, batches distance
// field generation for the glyphs the atlas has not seen, and commits the
// resulting bitmaps at their packed channel addresses. The actual distance
// field computation is delegated to a Rasterizer collaborator; this package
// only orchestrates reservation, growth, dispatch and commit.
package raster
