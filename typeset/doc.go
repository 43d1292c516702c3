// Package typeset converts a string and a vector font into ordered glyph
// ids, pen positions and outline paths ready for SDF atlas dispatch.
//
// Shaping (kerning, ligatures, bidi reordering, complex scripts) is
// delegated to go-text/typesetting's HarfBuzz implementation; outline
// extraction uses golang.org/x/image/font/sfnt. Both views are parsed once
// per font and cached on the Source.
//
// All outline coordinates are in font units with the Y axis pointing up,
// relative to each glyph's origin on the baseline. Pen positions and block
// bounds are in world units (font units scaled by fontSize/unitsPerEm).
package typeset
