// Command sdftext lays out text against a precomputed distance field font
// descriptor and prints the layout as JSON. It is a quick way to inspect
// glyph placement, atlas indices and block bounds without a renderer.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gogpu/sdftext"
	"github.com/gogpu/sdftext/typeset"
)

func main() {
	os.Exit(run())
}

// layoutOutput is the JSON shape printed per invocation.
type layoutOutput struct {
	Text         string     `json:"text"`
	GlyphCount   int        `json:"glyphCount"`
	LineCount    int        `json:"lineCount"`
	BlockBounds  [4]float32 `json:"blockBounds"`
	Ascender     float32    `json:"ascender"`
	Descender    float32    `json:"descender"`
	LineHeight   float32    `json:"lineHeight"`
	GlyphBounds  []float32  `json:"glyphBounds"`
	AtlasIndices []uint32   `json:"atlasIndices"`
	TextureW     int        `json:"textureWidth"`
	TextureH     int        `json:"textureHeight"`
}

func run() int {
	var (
		fontPath      string
		fontSize      float32
		lineHeight    float32
		letterSpacing float32
		align         string
		anchorX       string
		anchorY       string
		verbose       bool
	)

	pflag.StringVarP(&fontPath, "font", "f", "", "Path to an msdf-atlas-gen JSON font descriptor (required)")
	pflag.Float32VarP(&fontSize, "size", "s", 1, "Font size in world units")
	pflag.Float32Var(&lineHeight, "line-height", 0, "Line height override in world units (0=font default)")
	pflag.Float32Var(&letterSpacing, "letter-spacing", 0, "Extra advance per glyph in world units")
	pflag.StringVar(&align, "align", "left", "Text alignment: left, center, right")
	pflag.StringVar(&anchorX, "anchor-x", "left", "Horizontal anchor: left, center, right")
	pflag.StringVar(&anchorY, "anchor-y", "top", "Vertical anchor: top, middle, bottom")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to stderr")
	pflag.Parse()

	if verbose {
		sdftext.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	args := pflag.Args()
	if fontPath == "" || len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sdftext --font descriptor.json [flags] \"text to lay out\"")
		pflag.PrintDefaults()
		return 1
	}
	text := strings.Join(args, " ")

	textAlign, err := parseAlign(align)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	ax, err := parseAnchor(anchorX, typeset.AnchorLeft, typeset.AnchorRight)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	ay, err := parseAnchor(anchorY, typeset.AnchorTop, typeset.AnchorBottom)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	builder, err := sdftext.NewBuilder(sdftext.DefaultConfig(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer builder.Close()

	info, err := builder.Render(context.Background(), sdftext.Request{
		Text:            text,
		PrecomputedFont: fontPath,
		FontSize:        fontSize,
		LineHeight:      lineHeight,
		LetterSpacing:   letterSpacing,
		TextAlign:       textAlign,
		AnchorX:         ax,
		AnchorY:         ay,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	tex := info.Texture()
	out := layoutOutput{
		Text:         text,
		GlyphCount:   info.GlyphCount(),
		LineCount:    info.LineCount(),
		BlockBounds:  info.BlockBounds(),
		Ascender:     info.Ascender(),
		Descender:    info.Descender(),
		LineHeight:   info.LineHeight(),
		GlyphBounds:  info.GlyphBounds(),
		AtlasIndices: info.AtlasIndices(),
		TextureW:     tex.Width,
		TextureH:     tex.Height,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func parseAlign(s string) (typeset.Align, error) {
	switch s {
	case "left":
		return typeset.AlignLeft, nil
	case "center":
		return typeset.AlignCenter, nil
	case "right":
		return typeset.AlignRight, nil
	default:
		return typeset.AlignLeft, fmt.Errorf("unknown alignment %q", s)
	}
}

func parseAnchor(s string, min, max typeset.Anchor) (typeset.Anchor, error) {
	switch s {
	case "left", "top":
		return min, nil
	case "center", "middle":
		return typeset.AnchorMiddle, nil
	case "right", "bottom":
		return max, nil
	default:
		return min, fmt.Errorf("unknown anchor %q", s)
	}
}
