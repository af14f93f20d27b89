package formatter

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prism-log/prism/core"
)

// DefaultDateFormat is the time layout applied to time-valued fields when
// Config.DateFormat is empty.
const DefaultDateFormat = "2006-01-02 15:04:05"

// Config holds Formatter configuration. Formats is required; everything
// else has a usable zero value.
type Config struct {
	// Formats holds the bracket-style template for each severity level.
	Formats *core.LevelContainer[string]
	// BackupFormats are used instead of Formats when the output stream
	// does not support color. When nil, Formats are rendered uncolored.
	BackupFormats *core.LevelContainer[string]
	// DateFormat is the Go time layout for time-valued fields such as
	// {asctime} (empty for DefaultDateFormat).
	DateFormat string
	// Defaults supplies static substitution values for fields that are
	// neither built-in record attributes nor present on the record.
	Defaults map[string]interface{}
	// Palettes maps field names to their per-level color codes.
	Palettes map[string]*Palette
	// ForceANSI emits color codes regardless of stream support.
	ForceANSI bool
}

// Formatter renders log records into colorized strings. It is immutable
// after New (apart from the one-shot SetColorSupport) and safe for
// concurrent Format calls.
type Formatter struct {
	formats    *core.LevelContainer[string]
	backups    *core.LevelContainer[string]
	dateFormat string
	defaults   map[string]interface{}
	palettes   map[string]*Palette
	forceANSI  bool
	color      colorSupport

	// cache maps template text to its parsed token sequence. Populated
	// entirely in New; read-only afterwards.
	cache map[string][]token
}

type colorSupport int8

const (
	colorUnknown colorSupport = iota
	colorOff
	colorOn
)

var allLevels = [core.NumLevels]core.Level{
	core.DebugLevel,
	core.InfoLevel,
	core.WarningLevel,
	core.ErrorLevel,
	core.CriticalLevel,
}

// start anchors the {relativeCreated} field, mirroring the usual
// "milliseconds since logging was initialized" semantics.
var start = time.Now()

// New validates the configuration and parses every template eagerly, so
// that all configuration errors (malformed templates, unmatched regions,
// unknown fields, missing region palettes) surface here rather than on
// the log path.
func New(cfg Config) (*Formatter, error) {
	if cfg.Formats == nil {
		return nil, fmt.Errorf("formatter: Formats is required")
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = DefaultDateFormat
	}

	f := &Formatter{
		formats:    cfg.Formats,
		backups:    cfg.BackupFormats,
		dateFormat: cfg.DateFormat,
		defaults:   maps.Clone(cfg.Defaults),
		palettes:   maps.Clone(cfg.Palettes),
		forceANSI:  cfg.ForceANSI,
		cache:      make(map[string][]token),
	}
	if f.backups == nil {
		f.backups = cfg.Formats
	}

	for _, c := range []*core.LevelContainer[string]{f.formats, f.backups} {
		for _, tmpl := range templatesOf(c) {
			if err := f.compile(tmpl); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

// templatesOf returns the distinct template strings a container can yield.
func templatesOf(c *core.LevelContainer[string]) []string {
	seen := make(map[string]struct{}, core.NumLevels+1)
	var out []string
	for _, level := range allLevels {
		tmpl := c.Get(level)
		if _, ok := seen[tmpl]; ok {
			continue
		}
		seen[tmpl] = struct{}{}
		out = append(out, tmpl)
	}
	return out
}

// compile parses a template into the cache and checks that every field it
// references can be resolved and that every region has a palette.
func (f *Formatter) compile(tmpl string) error {
	if tmpl == "" {
		return fmt.Errorf("%w: empty format string", ErrInvalidTemplate)
	}
	if _, ok := f.cache[tmpl]; ok {
		return nil
	}
	tokens, err := parseTemplate(tmpl)
	if err != nil {
		return fmt.Errorf("template %q: %w", tmpl, err)
	}
	for _, t := range tokens {
		switch t.kind {
		case fieldToken:
			if _, ok := builtinFields[t.name]; ok {
				continue
			}
			if _, ok := f.defaults[t.name]; ok {
				continue
			}
			return fmt.Errorf("template %q: %w: %q has no default", tmpl, ErrUnresolvedField, t.name)
		case enterToken:
			if f.palettes[t.name] == nil {
				return fmt.Errorf("template %q: %w: %q", tmpl, ErrMissingPalette, t.name)
			}
		}
	}
	f.cache[tmpl] = tokens
	return nil
}

// SetColorSupport records whether the output stream understands ANSI
// escapes. The setup helpers in the logger package call this during
// handler construction; call it manually (before the first Format) when
// driving the Formatter directly. Unless ForceANSI is set, Format fails
// until the support state is known.
func (f *Formatter) SetColorSupport(supported bool) {
	if supported {
		f.color = colorOn
	} else {
		f.color = colorOff
	}
}

// ColorSupportKnown reports whether SetColorSupport has been called.
func (f *Formatter) ColorSupportKnown() bool {
	return f.color != colorUnknown
}

// colorized decides whether this render emits escapes.
func (f *Formatter) colorized() (bool, error) {
	if f.forceANSI {
		return true, nil
	}
	switch f.color {
	case colorOn:
		return true, nil
	case colorOff:
		return false, nil
	default:
		return false, ErrColorSupportUnset
	}
}

// Format renders the record using the template for its level. Each
// palette-registered field is wrapped in its level's escape codes; an
// {enter}...{exit} region is wrapped once, in the palette of its first
// field. Format does not mutate the Formatter or the record.
func (f *Formatter) Format(rec *core.Record) (string, error) {
	colorized, err := f.colorized()
	if err != nil {
		return "", err
	}

	fmts := f.formats
	if !colorized {
		fmts = f.backups
	}
	tokens := f.cache[fmts.Get(rec.Level)]

	buf := getBuffer()
	defer putBuffer(buf)

	level := rec.Level
	var region *Palette
	inRegion := false
	for _, t := range tokens {
		switch t.kind {
		case literalToken:
			buf.WriteString(t.text)
		case enterToken:
			inRegion = true
			if colorized {
				region = f.palettes[t.name]
				buf.WriteString(region.Enter(level))
			}
		case exitToken:
			inRegion = false
			if colorized {
				buf.WriteString(region.Exit(level))
				region = nil
			}
		case fieldToken:
			text, err := f.renderField(rec, t)
			if err != nil {
				return "", err
			}
			if colorized && !inRegion && !t.bare {
				if pal := f.palettes[t.name]; pal != nil {
					buf.WriteString(pal.Enter(level))
					buf.WriteString(text)
					buf.WriteString(pal.Exit(level))
					continue
				}
			}
			buf.WriteString(text)
		}
	}

	return buf.String(), nil
}

// renderField resolves and renders a single field token.
func (f *Formatter) renderField(rec *core.Record, t token) (string, error) {
	v, ok := f.resolve(rec, t.name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnresolvedField, t.name)
	}
	text, err := renderValue(v, t.conv, t.sp, f.dateFormat)
	if err != nil {
		return "", fmt.Errorf("field %q: %w", t.name, err)
	}
	return text, nil
}

// builtinFields are the record attributes resolvable in any template
// without a Defaults entry. enter and exit are reserved markers, not
// fields, and are deliberately absent.
var builtinFields = map[string]struct{}{
	"name":            {},
	"message":         {},
	"levelname":       {},
	"levelno":         {},
	"asctime":         {},
	"created":         {},
	"msecs":           {},
	"relativeCreated": {},
	"pathname":        {},
	"filename":        {},
	"module":          {},
	"lineno":          {},
	"funcName":        {},
	"process":         {},
	"processName":     {},
}

// resolve looks a field up, preferring record attributes over extras over
// the formatter's static defaults.
func (f *Formatter) resolve(rec *core.Record, name string) (interface{}, bool) {
	switch name {
	case "name":
		return rec.Name, true
	case "message":
		return rec.Message, true
	case "levelname":
		return rec.Level.String(), true
	case "levelno":
		return int(rec.Level), true
	case "asctime":
		return rec.Time, true
	case "created":
		return float64(rec.Time.UnixNano()) / 1e9, true
	case "msecs":
		return float64(rec.Time.Nanosecond()) / 1e6, true
	case "relativeCreated":
		return float64(rec.Time.Sub(start)) / float64(time.Millisecond), true
	case "pathname":
		return rec.Caller.File, true
	case "filename":
		return rec.Caller.ShortFile, true
	case "module":
		return strings.TrimSuffix(rec.Caller.ShortFile, filepath.Ext(rec.Caller.ShortFile)), true
	case "lineno":
		return rec.Caller.Line, true
	case "funcName":
		return rec.Caller.Function, true
	case "process":
		return os.Getpid(), true
	case "processName":
		return filepath.Base(os.Args[0]), true
	}
	for _, fld := range rec.Fields {
		if fld.Key == name {
			return fld.Value(), true
		}
	}
	v, ok := f.defaults[name]
	return v, ok
}

// bufferPool is a pool of bytes.Buffer to reduce allocations
var bufferPool = &sync.Pool{
	New: func() interface{} {
		b := new(bytes.Buffer)
		b.Grow(256)
		return b
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 64*1024 { // Don't keep very large buffers
		return
	}
	bufferPool.Put(buf)
}
