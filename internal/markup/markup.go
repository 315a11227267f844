// Package markup parses the inline run markup used in slide text:
// <b> <i> <u> <s> <sup> <sub> and <span font="N" color="name">.
//
// Closing tags are positional: any "</...>" pops the innermost open tag,
// whatever its name. Unknown tags push an unchanged style so that their
// closing tag still balances.
package markup

import (
	"errors"
	"strconv"
	"strings"

	"github.com/starford/pinpoint/internal/models"
)

// scriptScale is the size multiplier applied by <sup> and <sub>.
const scriptScale = 0.7

// ParsedStyle is the style of a run before font-size resolution.
type ParsedStyle struct {
	FontSize      *float32      `json:"font_size,omitempty"`
	FontSizeMult  float32       `json:"font_size_mult"`
	Bold          bool          `json:"bold"`
	Italic        bool          `json:"italic"`
	Underline     bool          `json:"underline"`
	Strikethrough bool          `json:"strikethrough"`
	Color         *models.Color `json:"color,omitempty"`
}

// DefaultStyle returns the style of unmarked text.
func DefaultStyle() ParsedStyle {
	return ParsedStyle{FontSizeMult: 1}
}

// Run is a piece of text sharing one style.
type Run struct {
	Text  string      `json:"text"`
	Style ParsedStyle `json:"style"`
}

// Parse splits text into styled runs. Run boundaries fall exactly on tags;
// empty runs are never produced.
func Parse(text string) []Run {
	var (
		runs    []Run
		pending strings.Builder
		stack   = []ParsedStyle{DefaultStyle()}
	)

	flush := func() {
		if pending.Len() == 0 {
			return
		}
		runs = append(runs, Run{Text: pending.String(), Style: stack[len(stack)-1]})
		pending.Reset()
	}

	rest := text
	for len(rest) > 0 {
		i := strings.IndexByte(rest, '<')
		if i < 0 {
			pending.WriteString(rest)
			break
		}
		pending.WriteString(rest[:i])
		flush()

		var tag string
		rest = rest[i+1:]
		if j := strings.IndexByte(rest, '>'); j >= 0 {
			tag, rest = rest[:j], rest[j+1:]
		} else {
			tag, rest = rest, ""
		}

		if strings.HasPrefix(tag, "/") {
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		stack = append(stack, applyTag(stack[len(stack)-1], tag))
	}
	flush()

	return runs
}

// applyTag returns a copy of style modified by an opening tag.
func applyTag(style ParsedStyle, tag string) ParsedStyle {
	switch {
	case tag == "b":
		style.Bold = true
	case tag == "i":
		style.Italic = true
	case tag == "u":
		style.Underline = true
	case tag == "s":
		style.Strikethrough = true
	case tag == "sup", tag == "sub":
		style.FontSizeMult *= scriptScale
	case strings.HasPrefix(tag, "span"):
		applySpan(&style, tag)
	}
	return style
}

// applySpan reads the first font= attribute and the first color= attribute
// (foreground= when there is no color=). A font size that does not parse is
// ignored. A quoted color name that is not known clears the color.
func applySpan(style *ParsedStyle, tag string) {
	if v, ok := attribute(tag, "font="); ok {
		if size, ok := parseSize(v); ok {
			style.FontSize = &size
		}
	}

	key := "color="
	i := strings.Index(tag, key)
	if i < 0 {
		key = "foreground="
		i = strings.Index(tag, key)
	}
	if i < 0 {
		return
	}
	if v, ok := quoted(tag[i+len(key):]); ok {
		if c, known := models.ParseColor(v); known {
			style.Color = &c
		} else {
			style.Color = nil
		}
	}
}

// parseSize parses a decimal font size. Hex literals are rejected and
// out-of-range values saturate to infinity.
func parseSize(v string) (float32, bool) {
	digits := strings.TrimLeft(v, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, false
	}
	size, err := strconv.ParseFloat(v, 32)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return float32(size), true
}

// attribute finds the first occurrence of key in tag and returns the value
// between the quote that follows it and the next matching quote.
func attribute(tag, key string) (string, bool) {
	i := strings.Index(tag, key)
	if i < 0 {
		return "", false
	}
	return quoted(tag[i+len(key):])
}

// quoted extracts a leading '...' or "..." value, ignoring surrounding space.
func quoted(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	q := s[0]
	if q != '"' && q != '\'' {
		return "", false
	}
	end := strings.IndexByte(s[1:], q)
	if end < 0 {
		return "", false
	}
	return s[1 : 1+end], true
}

// PlainText concatenates the text of all runs.
func PlainText(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Size returns the run's final font size given the fitted base size.
func (s ParsedStyle) Size(base float32) float32 {
	size := base
	if s.FontSize != nil {
		size = *s.FontSize
	}
	return size * s.FontSizeMult
}
