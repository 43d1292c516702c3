package atlas

import (
	"sync"
	"testing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TextureWidth = 256
	cfg.InitialCapacity = 16
	return cfg
}

func mustAtlas(t *testing.T, cfg Config, glyphSize int) *Atlas {
	t.Helper()
	r, err := NewRegistry(cfg)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	a, err := r.Ensure(glyphSize)
	if err != nil {
		t.Fatalf("Ensure(%d): %v", glyphSize, err)
	}
	return a
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TextureWidth != 2048 {
		t.Errorf("TextureWidth = %d, want 2048", cfg.TextureWidth)
	}
	if cfg.InitialCapacity != 256 {
		t.Errorf("InitialCapacity = %d, want 256", cfg.InitialCapacity)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"width too small", func(c *Config) { c.TextureWidth = 32 }, true},
		{"width too large", func(c *Config) { c.TextureWidth = 32768 }, true},
		{"width not pow2", func(c *Config) { c.TextureWidth = 1000 }, true},
		{"capacity zero", func(c *Config) { c.InitialCapacity = 0 }, true},
		{"margin negative", func(c *Config) { c.MarginFraction = -0.1 }, true},
		{"margin too large", func(c *Config) { c.MarginFraction = 1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestAtlas_GlyphsPerRow(t *testing.T) {
	cfg := DefaultConfig()
	a := mustAtlas(t, cfg, 64)
	// (2048/64)*4 channels = 128 glyphs per row.
	if got := a.GlyphsPerRow(); got != 128 {
		t.Errorf("GlyphsPerRow = %d, want 128", got)
	}
}

func TestAtlas_ReserveSlot_Dedup(t *testing.T) {
	a := mustAtlas(t, testConfig(), 32)

	key := SlotKey{FontKey: 7, GlyphID: 42}
	bounds := [4]float32{0, 0, 10, 20}

	slot, isNew := a.ReserveSlot(key, "path", bounds)
	if !isNew {
		t.Fatal("first ReserveSlot should report new")
	}
	if slot.Index != 0 {
		t.Errorf("first slot index = %d, want 0", slot.Index)
	}

	again, isNew := a.ReserveSlot(key, "path", bounds)
	if isNew {
		t.Error("second ReserveSlot should not report new")
	}
	if again != slot {
		t.Error("second ReserveSlot should return the same slot")
	}
	if a.GlyphCount() != 1 {
		t.Errorf("GlyphCount = %d, want 1", a.GlyphCount())
	}
}

func TestAtlas_ReserveSlot_MonotoneIndices(t *testing.T) {
	a := mustAtlas(t, testConfig(), 32)

	var last uint32
	for i := 0; i < 100; i++ {
		slot, isNew := a.ReserveSlot(SlotKey{FontKey: 1, GlyphID: uint16(i)}, nil, [4]float32{0, 0, 1, 1})
		if !isNew {
			t.Fatalf("glyph %d should be new", i)
		}
		if i > 0 && slot.Index != last+1 {
			t.Fatalf("index %d after %d, want strictly increasing by 1", slot.Index, last)
		}
		last = slot.Index
	}
}

func TestAtlas_ViewBoxMargin(t *testing.T) {
	cfg := testConfig()
	cfg.MarginFraction = 1.0 / 16.0
	a := mustAtlas(t, cfg, 32)

	bounds := [4]float32{0, 0, 64, 32}
	slot, _ := a.ReserveSlot(SlotKey{FontKey: 1, GlyphID: 1}, nil, bounds)

	// margin = max(w,h)/glyphSize * (marginFraction*glyphSize + 0.5)
	//        = 64/32 * (2 + 0.5) = 5
	want := [4]float32{-5, -5, 69, 37}
	if slot.ViewBox != want {
		t.Errorf("ViewBox = %v, want %v", slot.ViewBox, want)
	}
}

func TestAtlas_Address_PackingContract(t *testing.T) {
	cfg := DefaultConfig()
	a := mustAtlas(t, cfg, 64)

	// First four glyphs share the first texel block, one per channel.
	for i := uint32(0); i < 4; i++ {
		x, y, ch := a.Address(i)
		if x != 0 || y != 0 || ch != int(i) {
			t.Errorf("Address(%d) = (%d, %d, %d), want (0, 0, %d)", i, x, y, ch, i)
		}
	}

	// Glyph 4 starts the second block.
	x, y, ch := a.Address(4)
	if x != 64 || y != 0 || ch != 0 {
		t.Errorf("Address(4) = (%d, %d, %d), want (64, 0, 0)", x, y, ch)
	}

	// Glyph 128 wraps to the second row of blocks.
	x, y, ch = a.Address(128)
	if x != 0 || y != 64 || ch != 0 {
		t.Errorf("Address(128) = (%d, %d, %d), want (0, 64, 0)", x, y, ch)
	}
}

func TestAtlas_Address_InRange(t *testing.T) {
	cfg := testConfig()
	a := mustAtlas(t, cfg, 32)

	const n = 500
	for i := 0; i < n; i++ {
		a.ReserveSlot(SlotKey{FontKey: 2, GlyphID: uint16(i)}, nil, [4]float32{0, 0, 1, 1})
	}
	a.GrowToFit()

	height := a.Height()
	for i := uint32(0); i < n; i++ {
		x, y, ch := a.Address(i)
		if x < 0 || x >= a.TextureWidth() {
			t.Fatalf("Address(%d): x = %d out of [0, %d)", i, x, a.TextureWidth())
		}
		if y < 0 || y+a.GlyphSize() > height {
			t.Fatalf("Address(%d): y = %d leaves cell outside height %d", i, y, height)
		}
		if ch < 0 || ch >= ChannelCount {
			t.Fatalf("Address(%d): channel = %d out of [0, %d)", i, ch, ChannelCount)
		}
	}
}

func TestAtlas_GrowToFit_ExactlyOneGrowth(t *testing.T) {
	// glyphSize=64, width=2048 => 128 glyphs per row. 130 glyphs need
	// ceil(130/128)=2 rows, forcing exactly one height growth from an
	// initial one-row capacity.
	cfg := DefaultConfig()
	cfg.InitialCapacity = 128
	a := mustAtlas(t, cfg, 64)

	if a.Height() != 64 {
		t.Fatalf("initial height = %d, want 64", a.Height())
	}

	for i := 0; i < 130; i++ {
		a.ReserveSlot(SlotKey{FontKey: 3, GlyphID: uint16(i)}, nil, [4]float32{0, 0, 1, 1})
	}

	if !a.GrowToFit() {
		t.Fatal("GrowToFit should grow for 130 glyphs")
	}
	if a.Height() != 128 {
		t.Errorf("height after growth = %d, want 128", a.Height())
	}
	if a.GrowToFit() {
		t.Error("second GrowToFit should be a no-op")
	}
	if got := a.Texture().Generation; got != 1 {
		t.Errorf("generation = %d, want 1 after single growth", got)
	}
}

func TestAtlas_GrowPreservesBytes(t *testing.T) {
	cfg := testConfig()
	cfg.InitialCapacity = 16
	a := mustAtlas(t, cfg, 32)

	// Fill the first cells with a recognizable pattern.
	bitmap := make([]byte, 32*32)
	for i := range bitmap {
		bitmap[i] = byte(i % 251)
	}
	for i := 0; i < 8; i++ {
		a.ReserveSlot(SlotKey{FontKey: 4, GlyphID: uint16(i)}, nil, [4]float32{0, 0, 1, 1})
	}
	for i := uint32(0); i < 8; i++ {
		if err := a.WriteGlyph(i, bitmap); err != nil {
			t.Fatalf("WriteGlyph(%d): %v", i, err)
		}
	}

	before := make([]byte, len(a.Pixels()))
	copy(before, a.Pixels())
	heightBefore := a.Height()

	// Reserve enough glyphs to force growth.
	perRow := a.GlyphsPerRow()
	rowsBefore := heightBefore / a.GlyphSize()
	for i := 8; i < perRow*rowsBefore+1; i++ {
		a.ReserveSlot(SlotKey{FontKey: 4, GlyphID: uint16(i)}, nil, [4]float32{0, 0, 1, 1})
	}
	if !a.GrowToFit() {
		t.Fatal("expected growth")
	}
	if a.Height() <= heightBefore {
		t.Fatalf("height = %d, want > %d", a.Height(), heightBefore)
	}

	after := a.Pixels()
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("byte %d changed across growth: %d != %d", i, after[i], before[i])
		}
	}
}

func TestAtlas_WriteGlyph_ChannelPacking(t *testing.T) {
	a := mustAtlas(t, testConfig(), 32)

	for i := 0; i < 4; i++ {
		a.ReserveSlot(SlotKey{FontKey: 5, GlyphID: uint16(i)}, nil, [4]float32{0, 0, 1, 1})
	}

	bitmap := make([]byte, 32*32)
	for i := range bitmap {
		bitmap[i] = 0xAB
	}
	if err := a.WriteGlyph(2, bitmap); err != nil {
		t.Fatalf("WriteGlyph: %v", err)
	}

	// Index 2 lands in the first texel block, channel 2 (blue).
	px := a.Pixels()
	if px[2] != 0xAB {
		t.Errorf("channel 2 of texel (0,0) = %#x, want 0xAB", px[2])
	}
	for _, ch := range []int{0, 1, 3} {
		if px[ch] != 0 {
			t.Errorf("channel %d of texel (0,0) = %#x, want 0 (untouched)", ch, px[ch])
		}
	}
}

func TestAtlas_WriteGlyph_Validation(t *testing.T) {
	a := mustAtlas(t, testConfig(), 32)
	a.ReserveSlot(SlotKey{FontKey: 6, GlyphID: 1}, nil, [4]float32{0, 0, 1, 1})

	if err := a.WriteGlyph(0, make([]byte, 16)); err == nil {
		t.Error("WriteGlyph with wrong bitmap size should fail")
	}
	if err := a.WriteGlyph(99, make([]byte, 32*32)); err == nil {
		t.Error("WriteGlyph with unreserved index should fail")
	}
}

func TestAtlas_DirtyLifecycle(t *testing.T) {
	a := mustAtlas(t, testConfig(), 32)

	if a.IsDirty() {
		t.Error("fresh atlas should not be dirty")
	}
	a.MarkDirty()
	if !a.IsDirty() {
		t.Error("MarkDirty should set the flag")
	}
	if !a.TakeDirty() {
		t.Error("TakeDirty should report dirty")
	}
	if a.IsDirty() {
		t.Error("TakeDirty should clear the flag")
	}
}

func TestAtlas_ConcurrentReserve(t *testing.T) {
	a := mustAtlas(t, testConfig(), 32)

	var wg sync.WaitGroup
	const goroutines = 8
	const perG = 64

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				// Half the keys collide across goroutines.
				id := uint16(i)
				if g%2 == 0 {
					id += perG
				}
				a.ReserveSlot(SlotKey{FontKey: 9, GlyphID: id}, nil, [4]float32{0, 0, 1, 1})
			}
			a.GrowToFit()
		}(g)
	}
	wg.Wait()

	// 128 distinct keys total; indices must be a dense 0..127 range.
	if got := a.GlyphCount(); got != 2*perG {
		t.Fatalf("GlyphCount = %d, want %d", got, 2*perG)
	}
	seen := make(map[uint32]bool)
	for i := 0; i < 2*perG; i++ {
		id := uint16(i)
		slot, ok := a.Lookup(SlotKey{FontKey: 9, GlyphID: id})
		if !ok {
			t.Fatalf("glyph %d missing", id)
		}
		if seen[slot.Index] {
			t.Fatalf("index %d assigned twice", slot.Index)
		}
		seen[slot.Index] = true
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {64, 64}, {65, 128}, {130, 256},
	}
	for _, tt := range tests {
		if got := nextPowerOfTwo(tt.in); got != tt.want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
