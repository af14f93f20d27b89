// Package formatter renders log records into colorized strings from
// bracket-style templates.
//
// A template mixes literal text with {field} references, optionally
// carrying a conversion and a format spec ({name!r:>10}). Doubled braces
// escape literal braces. Each referenced field resolves against the
// record's built-in attributes, then its extra attributes, then the
// Formatter's static defaults. Fields whose name starts with an
// underscore render without color; the underscore is stripped before
// lookup. The reserved {enter} and {exit} markers delimit a region that
// is wrapped in a single pair of escape codes, taken from the palette of
// the first field inside the region.
//
// Templates and palettes vary by severity level through
// core.LevelContainer, so a single Formatter can render ERROR records
// with a different layout and color set than INFO records.
//
// All templates are parsed and validated in New, and the parsed token
// sequences are cached per template string, so the per-record cost is
// one token walk over a pooled bytes.Buffer. A Formatter is immutable
// after construction (SetColorSupport is the one setup-time exception)
// and safe for concurrent Format calls. Buffers larger than 64 KiB are
// not returned to the pool to prevent a single large log line from
// permanently inflating memory usage.
package formatter
