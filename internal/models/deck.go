// Package models defines the domain types for Pinpoint.
package models

import "time"

// SlideOptions is an ordered list of raw option tokens. Order matters:
// the first option matching a category wins during resolution.
type SlideOptions []string

// Slide is one parsed slide: its header options and the raw text below the header.
type Slide struct {
	Options SlideOptions `json:"options" yaml:"options"`
	Content string       `json:"content" yaml:"content"`
}

// SlideDeck is a whole parsed presentation document.
type SlideDeck struct {
	GlobalOptions SlideOptions `json:"global_options" yaml:"global_options"`
	Slides        []Slide      `json:"slides" yaml:"slides"`
}

// FileMeta is a lightweight description of a file in the presentation directory.
type FileMeta struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
