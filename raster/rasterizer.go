package raster

// Rasterizer produces a single-channel distance field bitmap for one glyph.
//
// The outline value is opaque to this package; it is whatever the layout
// stage attached to the glyph request. viewBox is the glyph-space rectangle
// [minX, minY, maxX, maxY] the bitmap must cover, and size is the edge
// length of the square output in pixels. Implementations must return
// exactly size*size bytes.
//
// Implementations are called from worker goroutines and must be safe for
// concurrent use.
type Rasterizer interface {
	Rasterize(outline any, viewBox [4]float32, size int) ([]byte, error)
}

// RasterizerFunc adapts a function to the Rasterizer interface.
type RasterizerFunc func(outline any, viewBox [4]float32, size int) ([]byte, error)

// Rasterize implements Rasterizer.
func (f RasterizerFunc) Rasterize(outline any, viewBox [4]float32, size int) ([]byte, error) {
	return f(outline, viewBox, size)
}
