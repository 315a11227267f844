package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R float32 `json:"r" yaml:"r"`
	G float32 `json:"g" yaml:"g"`
	B float32 `json:"b" yaml:"b"`
	A float32 `json:"a" yaml:"a"`
}

// RGB returns an opaque color.
func RGB(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// Fixed colors used as resolution defaults.
var (
	White = RGB(1, 1, 1)
	Black = RGB(0, 0, 0)
	// DarkGray is the default slide background, a dark charcoal around RGB(50, 50, 56).
	DarkGray = RGB(0.196, 0.196, 0.22)
)

// RGBA8 returns the color as 8-bit channels.
func (c Color) RGBA8() (r, g, b, a uint8) {
	conv := func(v float32) uint8 {
		return uint8(math.Round(float64(clamp01(v)) * 255))
	}
	return conv(c.R), conv(c.G), conv(c.B), conv(c.A)
}

// Hex returns the color as "#rrggbb", or "#rrggbbaa" when not opaque.
func (c Color) Hex() string {
	r, g, b, a := c.RGBA8()
	if a == 255 {
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, a)
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// TextPosition is where the text block sits on the slide.
type TextPosition int

const (
	PositionCenter TextPosition = iota
	PositionTop
	PositionBottom
	PositionLeft
	PositionRight
	PositionTopLeft
	PositionTopRight
	PositionBottomLeft
	PositionBottomRight
)

var positionNames = [...]string{
	PositionCenter:      "center",
	PositionTop:         "top",
	PositionBottom:      "bottom",
	PositionLeft:        "left",
	PositionRight:       "right",
	PositionTopLeft:     "top-left",
	PositionTopRight:    "top-right",
	PositionBottomLeft:  "bottom-left",
	PositionBottomRight: "bottom-right",
}

func (p TextPosition) String() string {
	if p < 0 || int(p) >= len(positionNames) {
		return fmt.Sprintf("TextPosition(%d)", int(p))
	}
	return positionNames[p]
}

// MarshalText implements encoding.TextMarshaler.
func (p TextPosition) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Alignment is a position along one axis of the slide.
type Alignment int

const (
	AlignStart Alignment = iota
	AlignMiddle
	AlignEnd
)

func (a Alignment) String() string {
	switch a {
	case AlignStart:
		return "start"
	case AlignMiddle:
		return "middle"
	case AlignEnd:
		return "end"
	}
	return fmt.Sprintf("Alignment(%d)", int(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a Alignment) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Anchor splits the position into its horizontal and vertical alignment,
// the way a flexbox-style layout places the text block.
func (p TextPosition) Anchor() (horizontal, vertical Alignment) {
	switch p {
	case PositionCenter:
		return AlignMiddle, AlignMiddle
	case PositionTop:
		return AlignMiddle, AlignStart
	case PositionBottom:
		return AlignMiddle, AlignEnd
	case PositionLeft:
		return AlignStart, AlignMiddle
	case PositionRight:
		return AlignEnd, AlignMiddle
	case PositionTopLeft:
		return AlignStart, AlignStart
	case PositionTopRight:
		return AlignEnd, AlignStart
	case PositionBottomLeft:
		return AlignStart, AlignEnd
	case PositionBottomRight:
		return AlignEnd, AlignEnd
	}
	panic(fmt.Sprintf("models: unknown text position %d", int(p)))
}

// TextAlign is the alignment of lines within the text block.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

func (a TextAlign) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	}
	return fmt.Sprintf("TextAlign(%d)", int(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a TextAlign) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// BackgroundScale controls how a background image covers the slide.
type BackgroundScale int

const (
	ScaleFit      BackgroundScale = iota // contain, may letterbox
	ScaleFill                            // cover, may crop
	ScaleStretch                         // exact canvas, may distort
	ScaleUnscaled                        // native size, centered
)

func (s BackgroundScale) String() string {
	switch s {
	case ScaleFit:
		return "fit"
	case ScaleFill:
		return "fill"
	case ScaleStretch:
		return "stretch"
	case ScaleUnscaled:
		return "unscaled"
	}
	return fmt.Sprintf("BackgroundScale(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s BackgroundScale) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FontWeight of a text span.
type FontWeight int

const (
	WeightNormal FontWeight = iota
	WeightBold
)

func (w FontWeight) String() string {
	switch w {
	case WeightNormal:
		return "normal"
	case WeightBold:
		return "bold"
	}
	return fmt.Sprintf("FontWeight(%d)", int(w))
}

// MarshalText implements encoding.TextMarshaler.
func (w FontWeight) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// FontStyle of a text span.
type FontStyle int

const (
	StyleNormal FontStyle = iota
	StyleItalic
)

func (s FontStyle) String() string {
	switch s {
	case StyleNormal:
		return "normal"
	case StyleItalic:
		return "italic"
	}
	return fmt.Sprintf("FontStyle(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s FontStyle) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TextDecoration holds line decorations of a span.
type TextDecoration struct {
	Underline     bool `json:"underline" yaml:"underline"`
	Strikethrough bool `json:"strikethrough" yaml:"strikethrough"`
}

// Background is a closed union: SolidColor or ImageBackground.
// Consumers switch on the concrete type.
type Background interface {
	isBackground()
}

// SolidColor fills the slide with one color.
type SolidColor struct {
	Color Color
}

// ImageBackground draws an image file, relative to the presentation directory.
type ImageBackground struct {
	Path  string
	Scale BackgroundScale
}

func (SolidColor) isBackground()      {}
func (ImageBackground) isBackground() {}

type backgroundDoc struct {
	Kind  string           `json:"kind" yaml:"kind"`
	Color *Color           `json:"color,omitempty" yaml:"color,omitempty"`
	Path  string           `json:"path,omitempty" yaml:"path,omitempty"`
	Scale *BackgroundScale `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// MarshalJSON encodes the background with a "kind" discriminator.
func (b SolidColor) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.doc())
}

// MarshalYAML encodes the background with a "kind" discriminator.
func (b SolidColor) MarshalYAML() (any, error) {
	return b.doc(), nil
}

func (b SolidColor) doc() backgroundDoc {
	c := b.Color
	return backgroundDoc{Kind: "color", Color: &c}
}

// MarshalJSON encodes the background with a "kind" discriminator.
func (b ImageBackground) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.doc())
}

// MarshalYAML encodes the background with a "kind" discriminator.
func (b ImageBackground) MarshalYAML() (any, error) {
	return b.doc(), nil
}

func (b ImageBackground) doc() backgroundDoc {
	scale := b.Scale
	return backgroundDoc{Kind: "image", Path: b.Path, Scale: &scale}
}

// TextSpan is a fully resolved run of text.
type TextSpan struct {
	Text       string         `json:"text" yaml:"text"`
	FontSize   float32        `json:"font_size" yaml:"font_size"`
	Weight     FontWeight     `json:"weight" yaml:"weight"`
	Style      FontStyle      `json:"style" yaml:"style"`
	Decoration TextDecoration `json:"decoration" yaml:"decoration"`
	Color      Color          `json:"color" yaml:"color"`
}

// ResolvedSlide is a slide ready for any rendering backend.
type ResolvedSlide struct {
	Background   Background   `json:"background" yaml:"background"`
	TextSpans    []TextSpan   `json:"text_spans" yaml:"text_spans"`
	TextPosition TextPosition `json:"text_position" yaml:"text_position"`
	TextAlign    TextAlign    `json:"text_align" yaml:"text_align"`
	BaseFontSize float32      `json:"base_font_size" yaml:"base_font_size"`
	Command      string       `json:"command,omitempty" yaml:"command,omitempty"`
}

// ResolvedDeck is the artifact handed to rendering backends.
type ResolvedDeck struct {
	Slides          []ResolvedSlide `json:"slides" yaml:"slides"`
	PresentationDir string          `json:"presentation_dir" yaml:"presentation_dir"`
}
