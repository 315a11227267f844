package layout

import "github.com/starford/pinpoint/internal/models"

// Rect is an axis-aligned rectangle with a top-left origin.
type Rect struct {
	X, Y, W, H float32
}

// PlaceBackground computes where a background image of imgW x imgH lands on
// the canvas for the given scale mode. The result is centered on the canvas
// and may extend past its edges (ScaleFill, ScaleUnscaled).
func PlaceBackground(imgW, imgH float32, cfg Config, scale models.BackgroundScale) Rect {
	full := Rect{W: cfg.Width, H: cfg.Height}
	if imgW <= 0 || imgH <= 0 || cfg.Width <= 0 || cfg.Height <= 0 {
		return full
	}

	imageAspect := imgW / imgH
	canvasAspect := cfg.Width / cfg.Height

	var w, h float32
	switch scale {
	case models.ScaleFit:
		if imageAspect > canvasAspect {
			w, h = cfg.Width, cfg.Width/imageAspect
		} else {
			w, h = cfg.Height*imageAspect, cfg.Height
		}
	case models.ScaleFill:
		if imageAspect < canvasAspect {
			w, h = cfg.Width, cfg.Width/imageAspect
		} else {
			w, h = cfg.Height*imageAspect, cfg.Height
		}
	case models.ScaleStretch:
		return full
	case models.ScaleUnscaled:
		w, h = imgW, imgH
	default:
		return full
	}
	return Rect{X: (cfg.Width - w) / 2, Y: (cfg.Height - h) / 2, W: w, H: h}
}
