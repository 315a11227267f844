package layout

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/pinpoint/internal/models"
	"github.com/starford/pinpoint/internal/parser"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func TestBaseFontSize_Bounds(t *testing.T) {
	cfg := DefaultConfig()
	if got := BaseFontSize("", cfg); got != 60 {
		t.Errorf("empty = %v, want 60", got)
	}
	if got := BaseFontSize("A", cfg); got != 120 {
		t.Errorf("single char = %v, want 120", got)
	}
	if got := BaseFontSize(strings.Repeat("long ", 200), cfg); got != 30 {
		t.Errorf("long line = %v, want 30", got)
	}
}

func TestBaseFontSize_Fitted(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		text string
		want float32
	}{
		// width bound: 921.6 / (20 * 0.6)
		{strings.Repeat("x", 20), 76.8},
		// height bound: 614.4 / (10 * 1.2)
		{"a\nb\nc\nd\ne\nf\ng\nh\ni\nj", 51.2},
	}
	for _, tc := range cases {
		if got := BaseFontSize(tc.text, cfg); !near(got, tc.want) {
			t.Errorf("BaseFontSize(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestBaseFontSize_Canvas(t *testing.T) {
	small := Config{Width: 400, Height: 300}
	// 360 / (20 * 0.6) = 30
	if got := BaseFontSize(strings.Repeat("x", 20), small); !near(got, 30) {
		t.Errorf("small canvas = %v, want 30", got)
	}
}

func TestCountLines(t *testing.T) {
	cases := map[string]int{
		"":       0,
		"a":      1,
		"a\n":    1,
		"a\nb":   2,
		"\n":     1,
		"\n\n":   2,
		"a\r\nb": 2,
	}
	for in, want := range cases {
		if got := countLines(in); got != want {
			t.Errorf("countLines(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestResolveDeck_EndToEnd(t *testing.T) {
	deck := parser.Parse("[center]\n-- [black]\nHello")
	got := ResolveDeck(deck, "/talks", DefaultConfig())

	if got.PresentationDir != "/talks" {
		t.Errorf("dir = %q", got.PresentationDir)
	}
	if len(got.Slides) != 1 {
		t.Fatalf("slides = %d, want 1", len(got.Slides))
	}
	s := got.Slides[0]
	if s.Background != (models.SolidColor{Color: models.Black}) {
		t.Errorf("background = %#v, want black", s.Background)
	}
	if s.TextPosition != models.PositionCenter {
		t.Errorf("position = %s", s.TextPosition)
	}
	if s.TextAlign != models.AlignLeft {
		t.Errorf("align = %s", s.TextAlign)
	}
	want := models.TextSpan{Text: "Hello", FontSize: 120, Color: models.White}
	if len(s.TextSpans) != 1 || s.TextSpans[0] != want {
		t.Errorf("spans = %+v, want [%+v]", s.TextSpans, want)
	}
	if s.BaseFontSize != 120 {
		t.Errorf("base = %v", s.BaseFontSize)
	}
}

func TestResolveSlide_Background(t *testing.T) {
	cases := []struct {
		name          string
		slide, global models.SlideOptions
		want          models.Background
	}{
		{"default", nil, nil, models.SolidColor{Color: models.DarkGray}},
		{"slide color", models.SlideOptions{"red"}, models.SlideOptions{"blue"}, models.SolidColor{Color: models.RGB(1, 0, 0)}},
		{"global color", nil, models.SlideOptions{"blue"}, models.SolidColor{Color: models.RGB(0, 0, 1)}},
		{"image default scale", models.SlideOptions{"bg.png"}, nil, models.ImageBackground{Path: "bg.png", Scale: models.ScaleFit}},
		{"image with scale", models.SlideOptions{"fill", "bg.png"}, nil, models.ImageBackground{Path: "bg.png", Scale: models.ScaleFill}},
		{"global image beats slide color", models.SlideOptions{"black"}, models.SlideOptions{"deck.JPG", "stretch"},
			models.ImageBackground{Path: "deck.JPG", Scale: models.ScaleStretch}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveSlide(models.Slide{Options: tc.slide}, tc.global, DefaultConfig())
			if got.Background != tc.want {
				t.Errorf("background = %#v, want %#v", got.Background, tc.want)
			}
		})
	}
}

func TestResolveSlide_NoMarkup(t *testing.T) {
	slide := models.Slide{Content: "<b>raw</b> text"}
	got := ResolveSlide(slide, models.SlideOptions{"no-markup"}, DefaultConfig())
	if len(got.TextSpans) != 1 {
		t.Fatalf("spans = %d, want 1", len(got.TextSpans))
	}
	span := got.TextSpans[0]
	if span.Text != "<b>raw</b> text" || span.FontSize != 60 || span.Weight != models.WeightNormal || span.Color != models.White {
		t.Errorf("span = %+v", span)
	}
}

func TestResolveSlide_RunStyles(t *testing.T) {
	slide := models.Slide{Content: `<b><i>x</i></b><u><s>y</s></u><span font="20" color="yellow">z</span><sup>w</sup>`}
	got := ResolveSlide(slide, nil, DefaultConfig())
	if len(got.TextSpans) != 4 {
		t.Fatalf("spans = %d, want 4", len(got.TextSpans))
	}
	x, y, z, w := got.TextSpans[0], got.TextSpans[1], got.TextSpans[2], got.TextSpans[3]
	if x.Weight != models.WeightBold || x.Style != models.StyleItalic || x.FontSize != 120 {
		t.Errorf("x = %+v", x)
	}
	if !y.Decoration.Underline || !y.Decoration.Strikethrough || y.Weight != models.WeightNormal {
		t.Errorf("y = %+v", y)
	}
	if z.FontSize != 20 || z.Color != models.RGB(1, 1, 0) {
		t.Errorf("z = %+v", z)
	}
	if !near(w.FontSize, 84) {
		t.Errorf("w font size = %v, want 84", w.FontSize)
	}
}

func TestResolveSlide_FitIgnoresTags(t *testing.T) {
	text := strings.Repeat("x", 40)
	got := ResolveSlide(models.Slide{Content: "<b>" + text + "</b>"}, nil, DefaultConfig())
	// 921.6 / (40 * 0.6), tags not counted
	if !near(got.BaseFontSize, 38.4) {
		t.Errorf("base = %v, want 38.4", got.BaseFontSize)
	}
}

func TestResolveSlide_PositionAlignCommand(t *testing.T) {
	got := ResolveSlide(
		models.Slide{Options: models.SlideOptions{"bottom", "command=make demo"}},
		models.SlideOptions{"top", "text-align=right"},
		DefaultConfig(),
	)
	if got.TextPosition != models.PositionBottom {
		t.Errorf("position = %s", got.TextPosition)
	}
	if got.TextAlign != models.AlignRight {
		t.Errorf("align = %s", got.TextAlign)
	}
	if got.Command != "make demo" {
		t.Errorf("command = %q", got.Command)
	}
	if len(got.TextSpans) != 0 {
		t.Errorf("spans = %+v, want none for empty content", got.TextSpans)
	}
	if got.BaseFontSize != 60 {
		t.Errorf("base = %v, want 60", got.BaseFontSize)
	}
}

func sampleDeck(n int) models.SlideDeck {
	var b strings.Builder
	b.WriteString("[bottom]\n[bg.jpg]\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "-- [text-align=center]\nSlide <b>%d</b>\n%s\n", i, strings.Repeat("word ", i))
	}
	return parser.Parse(b.String())
}

func TestResolveDeck_Deterministic(t *testing.T) {
	deck := sampleDeck(12)
	a := ResolveDeck(deck, ".", DefaultConfig())
	b := ResolveDeck(deck, ".", DefaultConfig())
	if !reflect.DeepEqual(a, b) {
		t.Error("resolving twice produced different results")
	}
	if len(a.Slides) != 12 {
		t.Fatalf("slides = %d, want 12", len(a.Slides))
	}
	for i, s := range a.Slides {
		if !strings.HasPrefix(s.TextSpans[1].Text, fmt.Sprint(i)) {
			t.Errorf("slide %d out of order: %q", i, s.TextSpans[1].Text)
		}
	}
}

func TestResolveDeckParallel_MatchesSequential(t *testing.T) {
	deck := sampleDeck(50)
	want := ResolveDeck(deck, "dir", DefaultConfig())
	for _, workers := range []int{0, 1, 4, 64} {
		got, err := ResolveDeckParallel(context.Background(), deck, "dir", DefaultConfig(), workers)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("workers=%d: parallel result differs from sequential", workers)
		}
	}
}

func TestResolveDeckParallel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ResolveDeckParallel(ctx, sampleDeck(5), ".", DefaultConfig(), 4); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestResolveDeck_ResizeChangesFit(t *testing.T) {
	deck := parser.Parse("--\n" + strings.Repeat("x", 20))
	big := ResolveDeck(deck, ".", DefaultConfig())
	small := ResolveDeck(deck, ".", Config{Width: 400, Height: 300})
	if big.Slides[0].BaseFontSize <= small.Slides[0].BaseFontSize {
		t.Errorf("big = %v, small = %v", big.Slides[0].BaseFontSize, small.Slides[0].BaseFontSize)
	}
}
