package sdftext

import "fmt"

// BuildErrorKind classifies failures of a render request.
type BuildErrorKind int

const (
	// KindAssetLoad marks a font file or descriptor that could not be
	// loaded or parsed. Fatal for the request.
	KindAssetLoad BuildErrorKind = iota

	// KindMissingGlyph marks a character the font does not cover. Never
	// surfaced as an error; requests skip the glyph silently. The kind
	// exists so diagnostics can still name the condition.
	KindMissingGlyph

	// KindRasterFailure marks a glyph whose distance field could not be
	// produced. Collected per glyph, never fatal for the request.
	KindRasterFailure

	// KindConfig marks an invalid configuration value.
	KindConfig
)

// String returns the kind's name.
func (k BuildErrorKind) String() string {
	switch k {
	case KindAssetLoad:
		return "asset load"
	case KindMissingGlyph:
		return "missing glyph"
	case KindRasterFailure:
		return "raster failure"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// BuildError is a classified failure from a render request.
type BuildError struct {
	Kind BuildErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sdftext: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("sdftext: %s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// buildError wraps err with a kind and operation name.
func buildError(kind BuildErrorKind, op string, err error) *BuildError {
	return &BuildError{Kind: kind, Op: op, Err: err}
}
