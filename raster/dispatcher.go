package raster

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/sdftext/atlas"
	"github.com/gogpu/sdftext/task"
)

// GlyphRequest describes one positioned glyph to render through an atlas.
type GlyphRequest struct {
	// FontKey identifies the source font within the atlas.
	FontKey uint64

	// GlyphID is the glyph index within that font.
	GlyphID uint16

	// Outline is the opaque value handed to the Rasterizer when the glyph
	// is not yet in the atlas.
	Outline any

	// Bounds is the glyph's path bounding box [minX, minY, maxX, maxY] in
	// font units, used to derive the atlas view box on first reservation.
	Bounds [4]float32

	// Pos is the glyph's pen position in world units.
	Pos mgl32.Vec2
}

// GlyphFailure records one glyph whose rasterization failed. Failures are
// collected, never propagated; sibling glyphs in the same batch commit
// normally.
type GlyphFailure struct {
	GlyphID    uint16
	AtlasIndex uint32
	Err        error
}

// Commit is the result of processing one batch of glyph requests.
type Commit struct {
	// GlyphBounds holds four floats per glyph: the world-space quad
	// [minX, minY, maxX, maxY] covering the glyph's view box at its pen
	// position.
	GlyphBounds []float32

	// AtlasIndices holds one packed atlas slot index per glyph.
	AtlasIndices []uint32

	// NewGlyphs is the number of glyphs that were not already resident.
	NewGlyphs int

	// Failures lists glyphs whose bitmaps could not be produced. Their
	// atlas slots stay reserved but blank.
	Failures []GlyphFailure

	// Generation is the atlas texture generation after any growth, so
	// callers can detect that the backing allocation changed.
	Generation uint64
}

// rasterJob is the input handed to the rasterize task per new glyph.
type rasterJob struct {
	outline any
	viewBox [4]float32
	size    int
}

// Dispatcher routes glyph batches through an atlas: reserve, grow once,
// rasterize what is new, commit, mark dirty once.
type Dispatcher struct {
	runner task.Runner
	tsk    *task.Task
}

// NewDispatcher builds a dispatcher that runs rz through runner. The
// rasterize work is modeled as a task so both execution modes share the
// one-time initialization contract.
func NewDispatcher(rz Rasterizer, runner task.Runner) *Dispatcher {
	tsk := task.Define("rasterize-glyph", nil, func([]any) (any, error) {
		if rz == nil {
			return nil, fmt.Errorf("raster: dispatcher has no rasterizer")
		}
		return task.WorkFunc(func(_ context.Context, input any) (any, error) {
			job := input.(rasterJob)
			bitmap, err := rz.Rasterize(job.outline, job.viewBox, job.size)
			if err != nil {
				return nil, err
			}
			if len(bitmap) != job.size*job.size {
				return nil, fmt.Errorf("raster: bitmap is %d bytes, want %d", len(bitmap), job.size*job.size)
			}
			return bitmap, nil
		}), nil
	})
	return &Dispatcher{runner: runner, tsk: tsk}
}

// pending tracks one dispatched rasterization until its future resolves.
type pending struct {
	reqIndex int
	slot     *atlas.Slot
	fut      *task.Future
}

// Process runs one batch of glyph requests against a. Every request gets a
// slot reservation first, the atlas grows at most once, then bitmaps are
// produced only for slots reserved by this batch. scale converts view box
// units to world units for the returned quad bounds.
//
// Rasterization failures do not abort the batch; they are returned in
// Commit.Failures and the affected slots keep their indices.
func (d *Dispatcher) Process(ctx context.Context, a *atlas.Atlas, reqs []GlyphRequest, scale float32) (*Commit, error) {
	commit := &Commit{
		GlyphBounds:  make([]float32, 0, len(reqs)*4),
		AtlasIndices: make([]uint32, 0, len(reqs)),
	}

	// Phase 1: reserve every slot so the growth pass sees the full batch.
	slots := make([]*atlas.Slot, len(reqs))
	fresh := make([]bool, len(reqs))
	for i, req := range reqs {
		slot, isNew := a.ReserveSlot(atlas.SlotKey{FontKey: req.FontKey, GlyphID: req.GlyphID}, req.Outline, req.Bounds)
		slots[i] = slot
		fresh[i] = isNew
		if isNew {
			commit.NewGlyphs++
		}
	}
	a.GrowToFit()

	// Phase 2: dispatch rasterization for this batch's new slots only.
	size := a.GlyphSize()
	var inflight []pending
	for i, slot := range slots {
		if !fresh[i] {
			continue
		}
		fut := d.runner.Invoke(ctx, d.tsk, rasterJob{
			outline: slot.Outline,
			viewBox: slot.ViewBox,
			size:    size,
		})
		inflight = append(inflight, pending{reqIndex: i, slot: slot, fut: fut})
	}

	// Phase 3: join and commit. Each failure is isolated to its glyph.
	wrote := false
	for _, p := range inflight {
		v, err := p.fut.Await(ctx)
		if err == nil {
			err = a.WriteGlyph(p.slot.Index, v.([]byte))
		}
		if err != nil {
			commit.Failures = append(commit.Failures, GlyphFailure{
				GlyphID:    reqs[p.reqIndex].GlyphID,
				AtlasIndex: p.slot.Index,
				Err:        err,
			})
			continue
		}
		wrote = true
	}
	if wrote {
		a.MarkDirty()
	}

	// Phase 4: quad bounds and indices for every glyph, resident or new.
	for i, slot := range slots {
		pos := reqs[i].Pos
		vb := slot.ViewBox
		commit.GlyphBounds = append(commit.GlyphBounds,
			pos.X()+vb[0]*scale,
			pos.Y()+vb[1]*scale,
			pos.X()+vb[2]*scale,
			pos.Y()+vb[3]*scale,
		)
		commit.AtlasIndices = append(commit.AtlasIndices, slot.Index)
	}
	commit.Generation = a.Texture().Generation
	return commit, nil
}
