package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	deckPath  string
	logOutput io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithDeckPath overrides the deck file from the configuration.
func WithDeckPath(path string) Option {
	return func(a *application) {
		a.deckPath = path
	}
}

// WithLogOutput sends logs to w instead of stdout.
// The MCP server needs this: stdout is its transport.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}
