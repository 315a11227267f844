package models

import "strings"

var namedColors = map[string]Color{
	"red":    RGB(1, 0, 0),
	"orange": RGB(1, 0.5, 0),
	"yellow": RGB(1, 1, 0),
	"green":  RGB(0, 1, 0),
	"blue":   RGB(0, 0, 1),
	"purple": RGB(0.5, 0, 0.5),
	"white":  RGB(1, 1, 1),
	"black":  RGB(0, 0, 0),
}

// ParseColor looks up a named color, ignoring case.
// Unknown names report false.
func ParseColor(name string) (Color, bool) {
	c, ok := namedColors[strings.ToLower(name)]
	return c, ok
}
