package layout

import (
	"testing"

	"github.com/starford/pinpoint/internal/models"
)

func TestPlaceBackground(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		name       string
		imgW, imgH float32
		scale      models.BackgroundScale
		want       Rect
	}{
		{"fit wide", 200, 100, models.ScaleFit, Rect{X: 0, Y: 128, W: 1024, H: 512}},
		{"fit tall", 100, 200, models.ScaleFit, Rect{X: 320, Y: 0, W: 384, H: 768}},
		{"fill wide", 200, 100, models.ScaleFill, Rect{X: -256, Y: 0, W: 1536, H: 768}},
		{"fill tall", 100, 200, models.ScaleFill, Rect{X: 0, Y: -640, W: 1024, H: 2048}},
		{"stretch", 10, 10, models.ScaleStretch, Rect{W: 1024, H: 768}},
		{"unscaled", 100, 50, models.ScaleUnscaled, Rect{X: 462, Y: 359, W: 100, H: 50}},
		{"empty image", 0, 0, models.ScaleFit, Rect{W: 1024, H: 768}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PlaceBackground(tc.imgW, tc.imgH, cfg, tc.scale); got != tc.want {
				t.Errorf("PlaceBackground = %+v, want %+v", got, tc.want)
			}
		})
	}
}
