package formatter

import "github.com/prism-log/prism/core"

const (
	escPrefix = "\x1b["
	escSuffix = "m"
	escReset  = "\x1b[0m"
)

// Palette associates an ANSI SGR parameter string with each severity level
// for a single template field. Codes are given without the surrounding
// escape, i.e. the "32;1" in "\x1b[32;1m". An empty code means no color
// at that level.
type Palette struct {
	codes *core.LevelContainer[string]
}

// NewPalette creates a Palette from a container of SGR parameter strings.
func NewPalette(codes *core.LevelContainer[string]) *Palette {
	return &Palette{codes: codes}
}

// Code returns the raw SGR parameter string for the given level.
func (p *Palette) Code(level core.Level) string {
	return p.codes.Get(level)
}

// Enter returns the escape sequence opening the color for level, or ""
// when no code is configured.
func (p *Palette) Enter(level core.Level) string {
	code := p.codes.Get(level)
	if code == "" {
		return ""
	}
	return escPrefix + code + escSuffix
}

// Exit returns the reset sequence closing the color for level, or "" when
// no code is configured.
func (p *Palette) Exit(level core.Level) string {
	if p.codes.Get(level) == "" {
		return ""
	}
	return escReset
}
