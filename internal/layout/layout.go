// Package layout resolves parsed slides into backend-independent ResolvedSlides.
//
// Resolution is pure: the same deck, directory and canvas always produce
// equal results, and no state is kept between calls. A consumer that changes
// canvas size (a resized window) simply resolves again.
package layout

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/starford/pinpoint/internal/markup"
	"github.com/starford/pinpoint/internal/models"
	"github.com/starford/pinpoint/internal/options"
)

// Font-fit constants shared by every rendering backend.
const (
	widthShare      = 0.9
	heightShare     = 0.8
	charWidthRatio  = 0.6
	lineHeightRatio = 1.2
	minFontSize     = 30.0
	maxFontSize     = 120.0
	emptyFontSize   = 60.0
)

// DefaultFontSize is the size of no-markup text and of empty slides.
const DefaultFontSize float32 = emptyFontSize

// Config is the target canvas, in pixels.
type Config struct {
	Width  float32 `json:"width" yaml:"width"`
	Height float32 `json:"height" yaml:"height"`
}

// DefaultConfig is the reference 1024x768 window used by the exporter.
func DefaultConfig() Config {
	return Config{Width: 1024, Height: 768}
}

// BaseFontSize estimates a font size that lets text fill the canvas.
// It assumes a fixed character width and line height rather than measuring
// glyphs, so every backend computes the same value.
func BaseFontSize(text string, cfg Config) float32 {
	charCount := utf8.RuneCountInString(text)
	if charCount == 0 {
		return emptyFontSize
	}
	availableWidth := cfg.Width * widthShare
	availableHeight := cfg.Height * heightShare
	lineCount := max(1, countLines(text))

	charsPerLine := max(float32(charCount)/float32(lineCount), 1)
	widthBased := availableWidth / (charsPerLine * charWidthRatio)
	heightBased := availableHeight / (float32(lineCount) * lineHeightRatio)
	return min(max(min(widthBased, heightBased), minFontSize), maxFontSize)
}

// countLines counts lines the way a line iterator does: a trailing newline
// does not start another line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// ResolveDeck resolves every slide in order.
func ResolveDeck(deck models.SlideDeck, presentationDir string, cfg Config) models.ResolvedDeck {
	slides := make([]models.ResolvedSlide, len(deck.Slides))
	for i, s := range deck.Slides {
		slides[i] = ResolveSlide(s, deck.GlobalOptions, cfg)
	}
	return models.ResolvedDeck{Slides: slides, PresentationDir: presentationDir}
}

// ResolveDeckParallel is ResolveDeck spread over up to workers goroutines.
// The result is identical to ResolveDeck. It only fails when ctx is done.
func ResolveDeckParallel(ctx context.Context, deck models.SlideDeck, presentationDir string, cfg Config, workers int) (models.ResolvedDeck, error) {
	if err := ctx.Err(); err != nil {
		return models.ResolvedDeck{}, err
	}
	if workers <= 1 {
		return ResolveDeck(deck, presentationDir, cfg), nil
	}

	slides := make([]models.ResolvedSlide, len(deck.Slides))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range deck.Slides {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			slides[i] = ResolveSlide(deck.Slides[i], deck.GlobalOptions, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.ResolvedDeck{}, err
	}
	return models.ResolvedDeck{Slides: slides, PresentationDir: presentationDir}, nil
}

// ResolveSlide resolves one slide against the deck's global options.
func ResolveSlide(slide models.Slide, global models.SlideOptions, cfg Config) models.ResolvedSlide {
	out := models.ResolvedSlide{
		Background:   resolveBackground(slide.Options, global),
		TextPosition: options.TextPosition(slide.Options, global),
		TextAlign:    options.TextAlign(slide.Options, global),
	}
	if cmd, ok := options.Command(slide.Options, global); ok {
		out.Command = cmd
	}

	if options.NoMarkup(slide.Options, global) {
		out.BaseFontSize = DefaultFontSize
		out.TextSpans = []models.TextSpan{plainSpan(slide.Content)}
		return out
	}

	runs := markup.Parse(slide.Content)
	base := BaseFontSize(markup.PlainText(runs), cfg)
	out.BaseFontSize = base
	out.TextSpans = make([]models.TextSpan, len(runs))
	for i, r := range runs {
		out.TextSpans[i] = toSpan(r, base)
	}
	return out
}

func resolveBackground(slide, global models.SlideOptions) models.Background {
	if path, ok := options.BackgroundImage(slide, global); ok {
		return models.ImageBackground{Path: path, Scale: options.BackgroundScale(slide, global)}
	}
	if c, ok := options.BackgroundColor(slide, global); ok {
		return models.SolidColor{Color: c}
	}
	return models.SolidColor{Color: models.DarkGray}
}

func plainSpan(text string) models.TextSpan {
	return models.TextSpan{
		Text:     text,
		FontSize: DefaultFontSize,
		Weight:   models.WeightNormal,
		Style:    models.StyleNormal,
		Color:    models.White,
	}
}

func toSpan(r markup.Run, base float32) models.TextSpan {
	span := models.TextSpan{
		Text:     r.Text,
		FontSize: r.Style.Size(base),
		Weight:   models.WeightNormal,
		Style:    models.StyleNormal,
		Decoration: models.TextDecoration{
			Underline:     r.Style.Underline,
			Strikethrough: r.Style.Strikethrough,
		},
		Color: models.White,
	}
	if r.Style.Bold {
		span.Weight = models.WeightBold
	}
	if r.Style.Italic {
		span.Style = models.StyleItalic
	}
	if r.Style.Color != nil {
		span.Color = *r.Style.Color
	}
	return span
}
