// Package sdftext builds GPU-ready distance field text runs.
//
// # Overview
//
// sdftext typesets strings and manages a growable channel-packed glyph
// atlas of signed distance fields. It produces RenderInfo values that a
// renderer can turn into textured quads; uploading the atlas and drawing
// the quads is out of scope.
//
// Two layout strategies converge on the same result type. Vector fonts go
// through shaping (go-text/typesetting), outline extraction and on-demand
// distance field rasterization into a shared atlas. Precomputed fonts
// (msdf-atlas-gen descriptors) skip all of that and lay out straight from
// the descriptor's advances and atlas rectangles.
//
// # Quick Start
//
//	import "github.com/gogpu/sdftext"
//
//	builder, err := sdftext.NewBuilder(sdftext.DefaultConfig(), rasterizer)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer builder.Close()
//
//	info, err := builder.Render(ctx, sdftext.Request{
//		Text: "Hello, world",
//		Font: "fonts/Roboto-Regular.ttf",
//	})
//
// The rasterizer is any implementation of raster.Rasterizer; it receives
// glyph outlines and returns single-channel distance field bitmaps.
//
// # Configuration
//
// A Builder's configuration is mutable until its first render request and
// frozen afterwards. Late mutations are logged through the package logger
// and ignored, so a renderer's atlas dimensions can never change under it.
//
// # Concurrency
//
// All Builder methods are safe for concurrent use. Typesetting and
// rasterization run through a task runner; Config.Threaded selects worker
// goroutines, the default runs everything inline on the calling
// goroutine. Results are always delivered the same way, so callers cannot
// observe the difference except in timing.
package sdftext
