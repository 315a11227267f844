// Package options resolves slide options against deck-wide defaults.
//
// Every lookup walks the slide options first, then the global options, and
// stops at the first option of its category. Options that match no category
// are ignored.
package options

import (
	"strings"

	"github.com/starford/pinpoint/internal/models"
)

const (
	textAlignPrefix = "text-align="
	commandPrefix   = "command="
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

// first returns the first non-nil lookup result over slide then global options.
func first[T any](slide, global models.SlideOptions, match func(string) (T, bool)) (T, bool) {
	for _, list := range [2]models.SlideOptions{slide, global} {
		for _, opt := range list {
			if v, ok := match(opt); ok {
				return v, true
			}
		}
	}
	var zero T
	return zero, false
}

// IsImageFile reports whether opt names a supported background image.
func IsImageFile(opt string) bool {
	lower := strings.ToLower(opt)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// BackgroundImage returns the first image option.
func BackgroundImage(slide, global models.SlideOptions) (string, bool) {
	return first(slide, global, func(opt string) (string, bool) {
		return opt, IsImageFile(opt)
	})
}

// BackgroundColor returns the first named-color option.
func BackgroundColor(slide, global models.SlideOptions) (models.Color, bool) {
	return first(slide, global, models.ParseColor)
}

// BackgroundScale returns the background scaling mode, ScaleFit by default.
func BackgroundScale(slide, global models.SlideOptions) models.BackgroundScale {
	scale, _ := first(slide, global, func(opt string) (models.BackgroundScale, bool) {
		switch opt {
		case "fit":
			return models.ScaleFit, true
		case "fill":
			return models.ScaleFill, true
		case "stretch":
			return models.ScaleStretch, true
		case "unscaled":
			return models.ScaleUnscaled, true
		}
		return 0, false
	})
	return scale
}

var positions = map[string]models.TextPosition{
	"center":       models.PositionCenter,
	"top":          models.PositionTop,
	"bottom":       models.PositionBottom,
	"left":         models.PositionLeft,
	"right":        models.PositionRight,
	"top-left":     models.PositionTopLeft,
	"top-right":    models.PositionTopRight,
	"bottom-left":  models.PositionBottomLeft,
	"bottom-right": models.PositionBottomRight,
}

// TextPosition returns the text block position, PositionCenter by default.
func TextPosition(slide, global models.SlideOptions) models.TextPosition {
	pos, _ := first(slide, global, func(opt string) (models.TextPosition, bool) {
		p, ok := positions[opt]
		return p, ok
	})
	return pos
}

// TextAlign returns the line alignment, AlignLeft by default.
// An unrecognised "text-align=" value still ends the search and yields AlignLeft.
func TextAlign(slide, global models.SlideOptions) models.TextAlign {
	align, _ := first(slide, global, func(opt string) (models.TextAlign, bool) {
		value, ok := strings.CutPrefix(opt, textAlignPrefix)
		if !ok {
			return 0, false
		}
		switch value {
		case "center":
			return models.AlignCenter, true
		case "right":
			return models.AlignRight, true
		}
		return models.AlignLeft, true
	})
	return align
}

// NoMarkup reports whether markup parsing is disabled ("no-markup").
// A "markup" option re-enables it; the first of the two wins.
func NoMarkup(slide, global models.SlideOptions) bool {
	disabled, _ := first(slide, global, func(opt string) (bool, bool) {
		switch opt {
		case "no-markup":
			return true, true
		case "markup":
			return false, true
		}
		return false, false
	})
	return disabled
}

// Command returns the shell command attached with "command=...".
// Executing it is up to the caller.
func Command(slide, global models.SlideOptions) (string, bool) {
	return first(slide, global, func(opt string) (string, bool) {
		return strings.CutPrefix(opt, commandPrefix)
	})
}
