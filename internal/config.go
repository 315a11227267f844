package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pinpoint/internal/layout"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Deck    DeckConfig        `yaml:"deck"`
	Canvas  CanvasConfig      `yaml:"canvas"`
	Resolve ResolveConfig     `yaml:"resolve"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Deck.Validate(); err != nil {
		return err
	}
	if err := c.Canvas.Validate(); err != nil {
		return err
	}
	if err := c.Resolve.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DeckConfig points at the deck file. Its directory is the presentation
// directory that background image paths are relative to.
type DeckConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the deck configuration.
func (c *DeckConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// Dir returns the presentation directory.
func (c *DeckConfig) Dir() string {
	return filepath.Dir(c.Path)
}

// File returns the deck file name relative to Dir.
func (c *DeckConfig) File() string {
	return filepath.Base(c.Path)
}

// CanvasConfig is the virtual canvas slides are fitted to.
type CanvasConfig struct {
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// Validate validates the canvas configuration.
func (c *CanvasConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(float32(1))),
		validation.Field(&c.Height, validation.Required, validation.Min(float32(1))),
	)
}

// Layout converts the canvas to a layout.Config.
func (c *CanvasConfig) Layout() layout.Config {
	return layout.Config{Width: c.Width, Height: c.Height}
}

// ResolveConfig tunes deck resolution.
//
// Workers is the number of goroutines resolving slides; 0 or 1 resolves
// sequentially.
type ResolveConfig struct {
	Workers int `yaml:"workers"`
}

// Validate validates the resolve configuration.
func (c *ResolveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0), validation.Max(256)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	canvas := layout.DefaultConfig()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Deck: DeckConfig{
			Path: "./slides.pin",
		},
		Canvas: CanvasConfig{
			Width:  canvas.Width,
			Height: canvas.Height,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
