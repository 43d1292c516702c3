package typeset

// OutlinePoint is a point in a glyph outline, in font units with Y up.
type OutlinePoint struct {
	X, Y float32
}

// OutlineOp is the type of path operation.
type OutlineOp uint8

const (
	// OutlineOpMoveTo moves to a new point without drawing.
	OutlineOpMoveTo OutlineOp = iota

	// OutlineOpLineTo draws a line to the target point.
	OutlineOpLineTo

	// OutlineOpQuadTo draws a quadratic bezier curve.
	OutlineOpQuadTo

	// OutlineOpCubicTo draws a cubic bezier curve.
	OutlineOpCubicTo
)

// String returns a string representation of the operation.
func (op OutlineOp) String() string {
	switch op {
	case OutlineOpMoveTo:
		return "MoveTo"
	case OutlineOpLineTo:
		return "LineTo"
	case OutlineOpQuadTo:
		return "QuadTo"
	case OutlineOpCubicTo:
		return "CubicTo"
	default:
		return unknownStr
	}
}

// OutlineSegment is one segment of a glyph outline.
type OutlineSegment struct {
	// Op is the segment operation type.
	Op OutlineOp

	// Points contains the control and end points for this segment.
	// - MoveTo: Points[0] is the target point
	// - LineTo: Points[0] is the target point
	// - QuadTo: Points[0] is control, Points[1] is target
	// - CubicTo: Points[0], Points[1] are controls, Points[2] is target
	Points [3]OutlinePoint
}

// Outline is the vector path of one glyph, in font units relative to the
// glyph origin on the baseline, Y up. Outlines are created once per
// unique (font, glyph) pair and never mutated.
type Outline struct {
	// Segments is the list of path segments that make up the outline.
	Segments []OutlineSegment

	// Bounds is the tight bounding box [minX, minY, maxX, maxY].
	Bounds [4]float32

	// Advance is the horizontal advance width.
	Advance float32

	// GlyphID is the glyph index this outline represents.
	GlyphID uint16
}

// IsEmpty reports whether the outline has no segments (e.g. a space).
func (o *Outline) IsEmpty() bool {
	return o == nil || len(o.Segments) == 0
}
