package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/starford/pinpoint/internal"
	"github.com/starford/pinpoint/internal/layout"
	"github.com/starford/pinpoint/internal/markup"
	"github.com/starford/pinpoint/internal/options"
	"github.com/starford/pinpoint/internal/parser"
	"github.com/starford/pinpoint/internal/storage"
	pkgconfig "github.com/starford/pinpoint/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// appOptions builds the run options shared by serve and mcp.
func appOptions(cmd *cli.Command) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts := []internal.Option{
		internal.WithConfig(cfg),
	}
	if deck := cmd.Args().First(); deck != "" {
		opts = append(opts, internal.WithDeckPath(deck))
	}
	return opts, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := appOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := appOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

// readDeck opens the directory of path as the presentation directory and
// reads the deck from it.
func readDeck(path string) (*storage.FS, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("deck path is required")
	}
	store, err := storage.NewFS(filepath.Dir(path))
	if err != nil {
		return nil, "", err
	}
	data, err := store.Read(filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	return store, string(data), nil
}

func resolve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	deckPath := cmd.Args().First()
	store, src, err := readDeck(deckPath)
	if err != nil {
		return err
	}

	canvas := cfg.Canvas.Layout()
	if w := cmd.Float("width"); w > 0 {
		canvas.Width = float32(w)
	}
	if h := cmd.Float("height"); h > 0 {
		canvas.Height = float32(h)
	}

	start := time.Now()
	resolved, err := layout.ResolveDeckParallel(ctx, parser.Parse(src), store.Root(), canvas, cfg.Resolve.Workers)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch format := cmd.String("format"); format {
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(resolved)
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		err = enc.Encode(resolved)
		if err == nil {
			err = enc.Close()
		}
	default:
		return cli.Exit(fmt.Sprintf("unknown format %q (json or yaml)", format), 2)
	}
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if output := cmd.String("output"); output != "" {
		out, err := storage.NewFS(filepath.Dir(output))
		if err != nil {
			return err
		}
		if err := out.Write(filepath.Base(output), buf.Bytes()); err != nil {
			return err
		}
	} else if _, err := io.Copy(os.Stdout, &buf); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "resolved %d slides from %s (%s) at %gx%g in %s\n",
		len(resolved.Slides), deckPath, humanize.Bytes(uint64(len(src))),
		canvas.Width, canvas.Height, time.Since(start).Round(time.Microsecond))
	return nil
}

func parse(_ context.Context, cmd *cli.Command) error {
	_, src, err := readDeck(cmd.Args().First())
	if err != nil {
		return err
	}
	deck, rest := parser.ParseDetailed(src)
	if rest != "" {
		slog.Warn("unparsed text at end of deck", slog.Int("bytes", len(rest)))
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(deck)
}

func markupRuns(_ context.Context, cmd *cli.Command) error {
	runs := markup.Parse(cmd.Args().First())
	if runs == nil {
		runs = []markup.Run{}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(runs)
}

func command(_ context.Context, cmd *cli.Command) error {
	_, src, err := readDeck(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(cmd.Args().Get(1))
	if err != nil || n < 1 {
		return cli.Exit("slide number must be a positive integer", 2)
	}
	deck := parser.Parse(src)
	if n > len(deck.Slides) {
		return cli.Exit(fmt.Sprintf("deck has %d slides", len(deck.Slides)), 1)
	}
	c, ok := options.Command(deck.Slides[n-1].Options, deck.GlobalOptions)
	if !ok {
		return cli.Exit("", 1)
	}
	fmt.Println(c)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "pinpoint",
		Usage:     "Parse and resolve plain-text slide decks for rendering backends",
		ArgsUsage: "[deck]",
		Action:    serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "serve",
				Usage:     "Load the deck, watch it and serve the HTTP API",
				ArgsUsage: "[deck]",
				Action:    serve,
			},
			{
				Name:      "resolve",
				Usage:     "Resolve a deck and print it",
				ArgsUsage: "<deck>",
				Action:    resolve,
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "width", Usage: "Canvas width (default from config)"},
					&cli.FloatFlag{Name: "height", Usage: "Canvas height (default from config)"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json or yaml"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write to file instead of stdout"},
				},
			},
			{
				Name:      "parse",
				Usage:     "Print the parsed deck without resolving it",
				ArgsUsage: "<deck>",
				Action:    parse,
			},
			{
				Name:      "markup",
				Usage:     "Print the styled runs of marked-up text",
				ArgsUsage: "<text>",
				Action:    markupRuns,
			},
			{
				Name:      "command",
				Usage:     "Print the command= option of a slide (1-based)",
				ArgsUsage: "<deck> <slide>",
				Action:    command,
			},
			{
				Name:      "mcp",
				Usage:     "Serve deck tools over MCP on stdin/stdout",
				ArgsUsage: "[deck]",
				Action:    serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
