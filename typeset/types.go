package typeset

// unknownStr is the string returned for unknown enum values.
const unknownStr = "Unknown"

// Direction specifies the base text direction.
type Direction int

const (
	// DirectionLTR is left-to-right text (English, French, etc.)
	DirectionLTR Direction = iota
	// DirectionRTL is right-to-left text (Arabic, Hebrew)
	DirectionRTL
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionLTR:
		return "LTR"
	case DirectionRTL:
		return "RTL"
	default:
		return unknownStr
	}
}

// Align specifies horizontal line alignment within the text block.
type Align int

const (
	// AlignLeft aligns lines to the left edge of the block.
	AlignLeft Align = iota
	// AlignCenter centers lines within the block.
	AlignCenter
	// AlignRight aligns lines to the right edge of the block.
	AlignRight
)

// String returns the string representation of the alignment.
func (a Align) String() string {
	switch a {
	case AlignLeft:
		return "Left"
	case AlignCenter:
		return "Center"
	case AlignRight:
		return "Right"
	default:
		return unknownStr
	}
}

// Factor returns the alignment as a fraction of leftover line space.
func (a Align) Factor() float32 {
	switch a {
	case AlignCenter:
		return 0.5
	case AlignRight:
		return 1
	default:
		return 0
	}
}

// AnchorMode selects how an anchor coordinate is resolved against the
// text block bounds.
type AnchorMode int

const (
	// AnchorMin anchors at the block's left (X) or top (Y) edge.
	AnchorMin AnchorMode = iota
	// AnchorCenter anchors at the block's center.
	AnchorCenter
	// AnchorMax anchors at the block's right (X) or bottom (Y) edge.
	AnchorMax
	// AnchorOffset anchors at a fixed world-unit offset from the block's
	// left (X) or top (Y) edge.
	AnchorOffset
)

// Anchor positions the rendered block relative to its local origin.
// The anchor point ends up at (0, 0) after layout.
type Anchor struct {
	Mode AnchorMode

	// Value is the world-unit offset used when Mode is AnchorOffset.
	Value float32
}

// Named anchor values for the common cases.
var (
	AnchorLeft   = Anchor{Mode: AnchorMin}
	AnchorTop    = Anchor{Mode: AnchorMin}
	AnchorMiddle = Anchor{Mode: AnchorCenter}
	AnchorRight  = Anchor{Mode: AnchorMax}
	AnchorBottom = Anchor{Mode: AnchorMax}
)

// AnchorAt returns a numeric anchor at a world-unit offset from the
// block's left or top edge.
func AnchorAt(v float32) Anchor {
	return Anchor{Mode: AnchorOffset, Value: v}
}

// Metrics holds font metrics scaled to world units.
type Metrics struct {
	// Ascent is the distance from the baseline to the top of the font
	// (positive).
	Ascent float32

	// Descent is the distance from the baseline to the bottom of the
	// font (positive, below baseline).
	Descent float32

	// LineGap is the recommended extra gap between lines.
	LineGap float32

	// CapHeight is the height of uppercase letters.
	CapHeight float32

	// XHeight is the height of lowercase letters.
	XHeight float32

	// LineHeight is the baseline-to-baseline distance in use. It equals
	// Ascent + Descent + LineGap unless overridden by layout options.
	LineHeight float32
}
