package atlas

import (
	"sort"
	"sync"
)

// Registry owns one Atlas per distinct SDF glyph size. It replaces the
// implicit module-level atlas map of classic SDF text stacks with an
// explicit value that is passed to every collaborator, so tests can use a
// fresh registry and no state leaks between them.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	cfg     Config
	atlases map[int]*Atlas
}

// NewRegistry creates a registry with the given configuration.
func NewRegistry(cfg Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Registry{
		cfg:     cfg,
		atlases: make(map[int]*Atlas),
	}, nil
}

// NewRegistryDefault creates a registry with the default configuration.
func NewRegistryDefault() *Registry {
	r, _ := NewRegistry(DefaultConfig())
	return r
}

// Ensure returns the atlas for a glyph size, creating it if absent.
// The glyph size must be a power of two no larger than the texture width.
func (r *Registry) Ensure(glyphSize int) (*Atlas, error) {
	if glyphSize < 8 || glyphSize&(glyphSize-1) != 0 {
		return nil, &ConfigError{Field: "GlyphSize", Reason: "must be a power of 2, at least 8"}
	}
	if glyphSize > r.cfg.TextureWidth {
		return nil, &ConfigError{Field: "GlyphSize", Reason: "must be at most TextureWidth"}
	}

	r.mu.RLock()
	a, ok := r.atlases[glyphSize]
	r.mu.RUnlock()
	if ok {
		return a, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock.
	if a, ok := r.atlases[glyphSize]; ok {
		return a, nil
	}
	a = newAtlas(glyphSize, r.cfg)
	r.atlases[glyphSize] = a
	return a, nil
}

// Lookup returns the atlas for a glyph size without creating one.
func (r *Registry) Lookup(glyphSize int) (*Atlas, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.atlases[glyphSize]
	return a, ok
}

// Sizes returns the glyph sizes with an atlas, in ascending order.
func (r *Registry) Sizes() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sizes := make([]int, 0, len(r.atlases))
	for s := range r.atlases {
		sizes = append(sizes, s)
	}
	sort.Ints(sizes)
	return sizes
}

// Config returns the registry configuration.
func (r *Registry) Config() Config {
	return r.cfg
}

// Info describes one atlas for introspection.
type Info struct {
	GlyphSize   int
	GlyphCount  uint32
	Height      int
	Dirty       bool
	MemoryBytes int64
}

// Infos returns information about all atlases, ordered by glyph size.
func (r *Registry) Infos() []Info {
	sizes := r.Sizes()
	infos := make([]Info, 0, len(sizes))
	for _, s := range sizes {
		a, ok := r.Lookup(s)
		if !ok {
			continue
		}
		infos = append(infos, Info{
			GlyphSize:   s,
			GlyphCount:  a.GlyphCount(),
			Height:      a.Height(),
			Dirty:       a.IsDirty(),
			MemoryBytes: a.MemoryUsage(),
		})
	}
	return infos
}

// MemoryUsage returns the total pixel memory across all atlases in bytes.
func (r *Registry) MemoryUsage() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, a := range r.atlases {
		total += a.MemoryUsage()
	}
	return total
}
