package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pinpoint/internal/layout"
	"github.com/starford/pinpoint/internal/markup"
	"github.com/starford/pinpoint/internal/models"
)

const (
	maxBodyBytes   = 10 << 20
	maxSourceBytes = 4 << 20
	maxUploadBytes = 50 << 20
	maxCanvasSide  = 16384
)

// DeckResponse is the currently loaded, resolved deck.
type DeckResponse struct {
	models.ResolvedDeck `yaml:",inline"`

	Checksum string        `json:"checksum" yaml:"checksum" validate:"required"`
	Canvas   layout.Config `json:"canvas" yaml:"canvas" validate:"required"`
	LoadedAt time.Time     `json:"loaded_at" yaml:"loaded_at"`
}

// SourceResponse is the parsed, unresolved deck.
type SourceResponse struct {
	Checksum  string           `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	Deck      models.SlideDeck `json:"deck" yaml:"deck" validate:"required"`
	Remainder string           `json:"remainder,omitempty" yaml:"remainder,omitempty"`
}

// CommandResponse carries the command= option of one slide.
type CommandResponse struct {
	Slide   int    `json:"slide" example:"3"`
	Command string `json:"command" example:"make demo" validate:"required"`
}

// CanvasRequest is the request body for PUT /canvas.
type CanvasRequest struct {
	Width  float32 `json:"width" example:"1920" validate:"required"`
	Height float32 `json:"height" example:"1080" validate:"required"`
}

// Validate implements validation.Validatable.
func (r *CanvasRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Width, validation.Required, validation.Min(float32(1)), validation.Max(float32(maxCanvasSide))),
		validation.Field(&r.Height, validation.Required, validation.Min(float32(1)), validation.Max(float32(maxCanvasSide))),
	)
}

// ParseRequest is the request body for POST /parse.
type ParseRequest struct {
	Source string `json:"source" example:"[center]\n--\nHello"`
}

// Validate implements validation.Validatable.
func (r *ParseRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Source, validation.Length(0, maxSourceBytes)),
	)
}

// ResolveRequest is the request body for POST /resolve. A zero width or
// height falls back to the server canvas.
type ResolveRequest struct {
	Source string  `json:"source" example:"[center]\n-- [black]\nHello"`
	Width  float32 `json:"width,omitempty" example:"1024"`
	Height float32 `json:"height,omitempty" example:"768"`
}

// Validate implements validation.Validatable.
func (r *ResolveRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Source, validation.Length(0, maxSourceBytes)),
		validation.Field(&r.Width, validation.Min(float32(0)), validation.Max(float32(maxCanvasSide))),
		validation.Field(&r.Height, validation.Min(float32(0)), validation.Max(float32(maxCanvasSide))),
	)
}

// Canvas returns the requested canvas, filling gaps from def.
func (r *ResolveRequest) Canvas(def layout.Config) layout.Config {
	c := def
	if r.Width > 0 {
		c.Width = r.Width
	}
	if r.Height > 0 {
		c.Height = r.Height
	}
	return c
}

// MarkupRequest is the request body for POST /markup.
type MarkupRequest struct {
	Text string `json:"text" example:"<b>Bold</b> and <sup>up</sup>"`
}

// Validate implements validation.Validatable.
func (r *MarkupRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.Length(0, maxSourceBytes)),
	)
}

// MarkupResponse lists the styled runs of a markup string.
type MarkupResponse struct {
	Runs      []markup.Run `json:"runs" validate:"required"`
	PlainText string       `json:"plain_text"`
}

// AssetListResponse lists the image assets of the presentation directory.
type AssetListResponse struct {
	Assets []models.FileMeta `json:"assets" validate:"required"`
}

// AssetUploadResponse is returned after a successful asset upload.
type AssetUploadResponse struct {
	Path string `json:"path" example:"img/title.png" validate:"required"`
	Size int64  `json:"size" example:"12345" validate:"required"`
	URL  string `json:"url" example:"/assets/img/title.png" validate:"required"`
}
