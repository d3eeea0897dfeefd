// Package ui provides terminal output helpers for beiwagen: the tones used
// to mark resources in messages and the end-of-run report.
package ui

import (
	"github.com/fatih/color"
)

// Dim renders secondary information such as report details.
var Dim = color.New(color.Faint).SprintFunc()

// Tone is how a resource line is marked: its symbol and colour.
type Tone int

const (
	// ToneChanged marks a resource that was downloaded or updated.
	ToneChanged Tone = iota
	// ToneRemoved marks a deleted resource.
	ToneRemoved
	// ToneKept marks a resource left as it is.
	ToneKept
	// ToneFailed marks a resource whose transfer or removal failed.
	ToneFailed
)

type toneStyle struct {
	symbol string
	paint  func(a ...any) string
}

var toneStyles = map[Tone]toneStyle{
	ToneChanged: {"✓", color.New(color.FgGreen).SprintFunc()},
	ToneRemoved: {"⚠", color.New(color.FgYellow).SprintFunc()},
	ToneKept:    {"-", Dim},
	ToneFailed:  {"✗", color.New(color.FgRed).SprintFunc()},
}

// Symbol returns the coloured symbol of the tone.
func (t Tone) Symbol() string {
	s, ok := toneStyles[t]
	if !ok {
		s = toneStyles[ToneKept]
	}
	return s.paint(s.symbol)
}

// Message prefixes msg with the tone's symbol.
func (t Tone) Message(msg string) string {
	if msg == "" {
		return t.Symbol()
	}
	return t.Symbol() + " " + msg
}

// DisableColors turns colour output off, for --no-color and piped output.
func DisableColors() {
	color.NoColor = true
}

// EnableColors turns colour output back on.
func EnableColors() {
	color.NoColor = false
}

// IsColorEnabled reports whether colour output is on.
func IsColorEnabled() bool {
	return !color.NoColor
}
