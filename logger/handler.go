package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prism-log/prism/core"
	"github.com/prism-log/prism/formatter"
)

// HandlerConfig holds Handler configuration. All fields have usable zero
// values: writes go to os.Stderr through the default formatter at
// InfoLevel.
type HandlerConfig struct {
	// Writer receives the rendered lines (default os.Stderr).
	Writer io.Writer
	// Formatter renders records (default DefaultFormatter()).
	Formatter *formatter.Formatter
	// Level is the minimum severity handled.
	Level core.Level
	// Name is rendered by the {name} template field.
	Name string
	// IncludeCaller resolves caller information so that templates can
	// reference {filename}, {lineno}, {funcName}, {pathname} and
	// {module}. Off by default: resolving frames costs a runtime lookup
	// per record.
	IncludeCaller bool
}

// Handler is a slog.Handler that renders records through a colorizing
// Formatter and writes one line per record to a single writer. It is the
// glue between slog's dispatch and the formatter layer; filtering,
// record construction and fan-out all stay with slog.
type Handler struct {
	fmtr          *formatter.Formatter
	level         core.Level
	name          string
	includeCaller bool
	attrs         []core.Field
	group         string

	mu *sync.Mutex
	w  io.Writer
}

// NewHandler creates a Handler, filling config defaults and determining
// the writer's color support unless the formatter already knows it. On
// Windows the writer is wrapped so that ANSI escapes reach the console.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	if cfg.Formatter == nil {
		cfg.Formatter = DefaultFormatter()
	}
	w := detectColorSupport(cfg.Writer, cfg.Formatter)
	return &Handler{
		fmtr:          cfg.Formatter,
		level:         cfg.Level,
		name:          cfg.Name,
		includeCaller: cfg.IncludeCaller,
		mu:            &sync.Mutex{},
		w:             w,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return core.FromSlog(level) >= h.level
}

// Handle converts the slog.Record to a core.Record, renders it, and
// writes the line. Formatting errors are returned to slog rather than
// swallowed; slog's own policy decides what happens to them.
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	rec := core.GetRecord()
	defer core.PutRecord(rec)

	rec.Time = record.Time
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	rec.Level = core.FromSlog(record.Level)
	rec.Name = h.name
	rec.Message = record.Message
	if h.includeCaller {
		rec.Caller = core.CallerFromPC(record.PC)
	}

	if len(h.attrs) > 0 {
		rec.Fields = append(rec.Fields, h.attrs...)
	}
	record.Attrs(func(a slog.Attr) bool {
		rec.Fields = appendAttr(rec.Fields, h.group, a)
		return true
	})

	line, err := h.fmtr.Format(rec)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = io.WriteString(h.w, line+"\n")
	return err
}

// WithAttrs returns a new Handler with additional attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	newAttrs := make([]core.Field, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		newAttrs = appendAttr(newAttrs, h.group, a)
	}
	nh := *h
	nh.attrs = newAttrs
	return &nh
}

// WithGroup returns a new Handler with the given group name. Grouped
// attribute keys are dot-prefixed (g.a); template field names are plain
// identifiers, so only ungrouped attrs are addressable from templates.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if h.group != "" {
		nh.group = h.group + "." + name
	} else {
		nh.group = name
	}
	return &nh
}

// appendAttr converts a slog.Attr and appends the resulting fields.
// Group attrs are flattened: every member is converted under a
// dot-prefixed key, and a group with an empty key inlines its members.
func appendAttr(fields []core.Field, group string, a slog.Attr) []core.Field {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() != slog.KindGroup {
		return append(fields, attrToField(group, a))
	}
	prefix := group
	if a.Key != "" {
		if group != "" {
			prefix = group + "." + a.Key
		} else {
			prefix = a.Key
		}
	}
	for _, m := range a.Value.Group() {
		fields = appendAttr(fields, prefix, m)
	}
	return fields
}

// attrToField converts a non-group slog.Attr to a core.Field, prepending
// the group prefix if present.
func attrToField(group string, a slog.Attr) core.Field {
	key := a.Key
	if group != "" {
		key = group + "." + a.Key
	}

	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindString:
		return core.Field{Key: key, Type: core.StringType, Str: a.Value.String()}
	case slog.KindInt64:
		return core.Field{Key: key, Type: core.Int64Type, Int64: a.Value.Int64()}
	case slog.KindUint64:
		return core.Field{Key: key, Type: core.Int64Type, Int64: int64(a.Value.Uint64())}
	case slog.KindFloat64:
		return core.Field{Key: key, Type: core.Float64Type, Float64: a.Value.Float64()}
	case slog.KindBool:
		val := int64(0)
		if a.Value.Bool() {
			val = 1
		}
		return core.Field{Key: key, Type: core.BoolType, Int64: val}
	case slog.KindTime:
		return core.Field{Key: key, Type: core.TimeType, Int64: a.Value.Time().UnixNano()}
	case slog.KindDuration:
		return core.Field{Key: key, Type: core.DurationType, Int64: int64(a.Value.Duration())}
	default:
		return core.Field{Key: key, Type: core.AnyType, Any: a.Value.Any()}
	}
}
