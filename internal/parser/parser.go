// Package parser turns deck source text into a SlideDeck.
//
// The grammar is line oriented and total: every input produces a deck.
//
//	deck     = settings slide*
//	settings = (wsc option)* wsc
//	slide    = header content
//	header   = "-"+ option* wsc
//	option   = ws* "[" (any char except "]")* "]"
//	content  = (text up to the next "\n-", which consumes the "\n") | rest of input
//	wsc      = (whitespace | "#" comment newline)*
//
// Text that cannot start a slide (anything not beginning with "-" once the
// settings region is consumed) ends the deck. Parse drops it; ParseDetailed
// returns it.
package parser

import (
	"strings"

	"github.com/starford/pinpoint/internal/models"
)

// Parse parses deck source. It never fails.
func Parse(src string) models.SlideDeck {
	deck, _ := ParseDetailed(src)
	return deck
}

// ParseDetailed parses deck source and also returns the input left unparsed.
func ParseDetailed(src string) (models.SlideDeck, string) {
	global, rest := settings(src)
	slides, rest := slides(rest)
	return models.SlideDeck{
		GlobalOptions: global,
		Slides:        slides,
	}, rest
}

// isSpace reports whether c is one of the whitespace bytes the grammar skips.
func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func skipSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}

// option matches one "[token]", optionally preceded by whitespace.
// An unclosed bracket is not an option; the input is returned untouched.
func option(s string) (string, string, bool) {
	t := skipSpace(s)
	if !strings.HasPrefix(t, "[") {
		return "", s, false
	}
	end := strings.IndexByte(t[1:], ']')
	if end < 0 {
		return "", s, false
	}
	return t[1 : 1+end], t[end+2:], true
}

// comment matches "#" up to and including the end of line.
// A comment with no line ending after it does not match.
func comment(s string) (string, bool) {
	if !strings.HasPrefix(s, "#") {
		return s, false
	}
	end := strings.IndexAny(s, "\r\n")
	if end < 0 {
		return s, false
	}
	switch {
	case s[end] == '\n':
		return s[end+1:], true
	case strings.HasPrefix(s[end:], "\r\n"):
		return s[end+2:], true
	}
	// A bare "\r" is not a line ending.
	return s, false
}

// whitespaceOrComment skips any mix of whitespace and comment lines.
func whitespaceOrComment(s string) string {
	for {
		if len(s) > 0 && isSpace(s[0]) {
			s = skipSpace(s)
			continue
		}
		rest, ok := comment(s)
		if !ok {
			return s
		}
		s = rest
	}
}

// options collects consecutive options, each may be preceded by whitespace
// (and, with skipComments, by comment lines).
func options(s string, skipComments bool) (models.SlideOptions, string) {
	out := models.SlideOptions{}
	for {
		candidate := s
		if skipComments {
			candidate = whitespaceOrComment(candidate)
		}
		opt, rest, ok := option(candidate)
		if !ok {
			return out, s
		}
		out = append(out, opt)
		s = rest
	}
}

// settings reads the global options that precede the first slide.
func settings(s string) (models.SlideOptions, string) {
	opts, rest := options(s, true)
	return opts, whitespaceOrComment(rest)
}

// header reads a slide header: a hyphen run, its options, and everything
// blank or commented that follows it.
func header(s string) (models.SlideOptions, string, bool) {
	n := 0
	for n < len(s) && s[n] == '-' {
		n++
	}
	if n == 0 {
		return nil, s, false
	}
	opts, rest := options(s[n:], false)
	return opts, whitespaceOrComment(rest), true
}

// content reads slide text up to the next line starting with "-".
// The newline before that line is consumed but not returned.
func content(s string) (string, string) {
	if i := strings.Index(s, "\n-"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func slide(s string) (models.Slide, string, bool) {
	opts, rest, ok := header(s)
	if !ok {
		return models.Slide{}, s, false
	}
	body, rest := content(rest)
	return models.Slide{Options: opts, Content: body}, rest, true
}

func slides(s string) ([]models.Slide, string) {
	out := []models.Slide{}
	for {
		sl, rest, ok := slide(s)
		if !ok {
			return out, s
		}
		out = append(out, sl)
		s = rest
	}
}
