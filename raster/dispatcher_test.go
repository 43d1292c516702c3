package raster

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/sdftext/atlas"
	"github.com/gogpu/sdftext/task"
)

func testAtlas(t *testing.T, glyphSize int) *atlas.Atlas {
	t.Helper()
	reg, err := atlas.NewRegistry(atlas.Config{
		TextureWidth:    256,
		InitialCapacity: 16,
		MarginFraction:  1.0 / 16.0,
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	a, err := reg.Ensure(glyphSize)
	if err != nil {
		t.Fatalf("Ensure(%d): %v", glyphSize, err)
	}
	return a
}

// countingRasterizer fills bitmaps with a constant and counts calls.
type countingRasterizer struct {
	calls atomic.Int64
	fill  byte
}

func (c *countingRasterizer) Rasterize(_ any, _ [4]float32, size int) ([]byte, error) {
	c.calls.Add(1)
	b := make([]byte, size*size)
	for i := range b {
		b[i] = c.fill
	}
	return b, nil
}

func requests(n int) []GlyphRequest {
	reqs := make([]GlyphRequest, n)
	for i := range reqs {
		reqs[i] = GlyphRequest{
			FontKey: 1,
			GlyphID: uint16(i + 1),
			Bounds:  [4]float32{0, 0, 20, 28},
			Pos:     mgl32.Vec2{float32(i) * 10, 0},
		}
	}
	return reqs
}

func TestDispatcher_CommitShape(t *testing.T) {
	a := testAtlas(t, 32)
	rz := &countingRasterizer{fill: 0xFF}
	d := NewDispatcher(rz, task.NewInlineRunner())

	reqs := requests(3)
	commit, err := d.Process(context.Background(), a, reqs, 1)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if commit.NewGlyphs != 3 {
		t.Errorf("NewGlyphs = %d, want 3", commit.NewGlyphs)
	}
	if len(commit.AtlasIndices) != 3 {
		t.Fatalf("AtlasIndices = %d entries, want 3", len(commit.AtlasIndices))
	}
	if len(commit.GlyphBounds) != 12 {
		t.Fatalf("GlyphBounds = %d floats, want 12", len(commit.GlyphBounds))
	}
	if len(commit.Failures) != 0 {
		t.Errorf("Failures = %v, want none", commit.Failures)
	}
	if got := rz.calls.Load(); got != 3 {
		t.Errorf("rasterizer calls = %d, want 3", got)
	}
}

func TestDispatcher_SecondBatchRasterizesNothing(t *testing.T) {
	a := testAtlas(t, 32)
	rz := &countingRasterizer{fill: 0xFF}
	d := NewDispatcher(rz, task.NewInlineRunner())

	reqs := requests(3)
	first, err := d.Process(context.Background(), a, reqs, 1)
	if err != nil {
		t.Fatalf("first Process: %v", err)
	}
	second, err := d.Process(context.Background(), a, reqs, 1)
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}

	if second.NewGlyphs != 0 {
		t.Errorf("second NewGlyphs = %d, want 0", second.NewGlyphs)
	}
	if got := rz.calls.Load(); got != 3 {
		t.Errorf("rasterizer calls after repeat = %d, want 3", got)
	}
	for i := range first.AtlasIndices {
		if first.AtlasIndices[i] != second.AtlasIndices[i] {
			t.Errorf("index %d changed across batches: %d != %d", i, first.AtlasIndices[i], second.AtlasIndices[i])
		}
	}
}

func TestDispatcher_QuadBounds(t *testing.T) {
	a := testAtlas(t, 32)
	d := NewDispatcher(&countingRasterizer{}, task.NewInlineRunner())

	req := GlyphRequest{
		FontKey: 1,
		GlyphID: 7,
		Bounds:  [4]float32{0, 0, 20, 28},
		Pos:     mgl32.Vec2{100, 50},
	}
	scale := float32(0.5)
	commit, err := d.Process(context.Background(), a, []GlyphRequest{req}, scale)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	slot, ok := a.Lookup(atlas.SlotKey{FontKey: 1, GlyphID: 7})
	if !ok {
		t.Fatal("slot should exist after Process")
	}
	want := [4]float32{
		100 + slot.ViewBox[0]*scale,
		50 + slot.ViewBox[1]*scale,
		100 + slot.ViewBox[2]*scale,
		50 + slot.ViewBox[3]*scale,
	}
	for i := 0; i < 4; i++ {
		if math.Abs(float64(commit.GlyphBounds[i]-want[i])) > 1e-5 {
			t.Errorf("GlyphBounds[%d] = %f, want %f", i, commit.GlyphBounds[i], want[i])
		}
	}
}

func TestDispatcher_PartialFailureIsolated(t *testing.T) {
	a := testAtlas(t, 32)
	boom := errors.New("bad curve")
	rz := RasterizerFunc(func(outline any, _ [4]float32, size int) ([]byte, error) {
		if outline == "fail" {
			return nil, boom
		}
		return make([]byte, size*size), nil
	})
	d := NewDispatcher(rz, task.NewInlineRunner())

	reqs := []GlyphRequest{
		{FontKey: 1, GlyphID: 1, Bounds: [4]float32{0, 0, 10, 10}},
		{FontKey: 1, GlyphID: 2, Outline: "fail", Bounds: [4]float32{0, 0, 10, 10}},
		{FontKey: 1, GlyphID: 3, Bounds: [4]float32{0, 0, 10, 10}},
	}
	commit, err := d.Process(context.Background(), a, reqs, 1)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(commit.Failures) != 1 {
		t.Fatalf("Failures = %d, want 1", len(commit.Failures))
	}
	f := commit.Failures[0]
	if f.GlyphID != 2 {
		t.Errorf("failed GlyphID = %d, want 2", f.GlyphID)
	}
	if !errors.Is(f.Err, boom) {
		t.Errorf("failure err = %v, want wrapped %v", f.Err, boom)
	}
	// Siblings still committed: all three glyphs have indices and bounds.
	if len(commit.AtlasIndices) != 3 || len(commit.GlyphBounds) != 12 {
		t.Errorf("commit incomplete: %d indices, %d bounds", len(commit.AtlasIndices), len(commit.GlyphBounds))
	}
	// The failed slot stays reserved so a later batch reuses its index.
	if _, ok := a.Lookup(atlas.SlotKey{FontKey: 1, GlyphID: 2}); !ok {
		t.Error("failed glyph should keep its reservation")
	}
}

func TestDispatcher_WrongBitmapSizeIsFailure(t *testing.T) {
	a := testAtlas(t, 32)
	rz := RasterizerFunc(func(any, [4]float32, int) ([]byte, error) {
		return make([]byte, 7), nil
	})
	d := NewDispatcher(rz, task.NewInlineRunner())

	commit, err := d.Process(context.Background(), a, requests(1), 1)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(commit.Failures) != 1 {
		t.Fatalf("Failures = %d, want 1", len(commit.Failures))
	}
}

func TestDispatcher_DirtyMarkedOncePerBatch(t *testing.T) {
	a := testAtlas(t, 32)
	d := NewDispatcher(&countingRasterizer{fill: 1}, task.NewInlineRunner())

	if _, err := d.Process(context.Background(), a, requests(4), 1); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !a.TakeDirty() {
		t.Error("atlas should be dirty after a batch with new glyphs")
	}
	if a.TakeDirty() {
		t.Error("dirty flag should clear after TakeDirty")
	}

	// A batch with nothing new leaves the atlas clean.
	if _, err := d.Process(context.Background(), a, requests(4), 1); err != nil {
		t.Fatalf("repeat Process: %v", err)
	}
	if a.IsDirty() {
		t.Error("repeat batch should not dirty the atlas")
	}
}

func TestDispatcher_AllFailuresLeaveAtlasClean(t *testing.T) {
	a := testAtlas(t, 32)
	rz := RasterizerFunc(func(any, [4]float32, int) ([]byte, error) {
		return nil, errors.New("nope")
	})
	d := NewDispatcher(rz, task.NewInlineRunner())

	commit, err := d.Process(context.Background(), a, requests(2), 1)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(commit.Failures) != 2 {
		t.Errorf("Failures = %d, want 2", len(commit.Failures))
	}
	if a.IsDirty() {
		t.Error("atlas should stay clean when nothing committed")
	}
}

func TestDispatcher_ThreadedRunner(t *testing.T) {
	a := testAtlas(t, 32)
	rz := &countingRasterizer{fill: 0x80}
	runner := task.NewThreadedRunner(4)
	defer runner.Close()
	d := NewDispatcher(rz, runner)

	commit, err := d.Process(context.Background(), a, requests(12), 1)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if commit.NewGlyphs != 12 {
		t.Errorf("NewGlyphs = %d, want 12", commit.NewGlyphs)
	}
	if len(commit.Failures) != 0 {
		t.Errorf("Failures = %v, want none", commit.Failures)
	}
	if got := rz.calls.Load(); got != 12 {
		t.Errorf("rasterizer calls = %d, want 12", got)
	}

	// Committed pixels actually landed in the atlas.
	x, y, _ := a.Address(commit.AtlasIndices[0])
	if x < 0 || y < 0 {
		t.Errorf("Address returned (%d, %d)", x, y)
	}
}

func TestDispatcher_GenerationTracksGrowth(t *testing.T) {
	a := testAtlas(t, 32)
	d := NewDispatcher(&countingRasterizer{}, task.NewInlineRunner())

	before := a.Texture().Generation
	// 16 initial capacity at glyphSize 32, width 256: force growth.
	commit, err := d.Process(context.Background(), a, requests(100), 1)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if commit.Generation <= before {
		t.Errorf("Generation = %d, want > %d after growth", commit.Generation, before)
	}
}
