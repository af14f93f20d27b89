// Package core defines the shared types used across prism.
//
// It provides the Level type (DEBUG through CRITICAL, matching the five
// severities templates and palettes are keyed by), the generic
// LevelContainer that backs per-level template and color selection, and
// the Record type that represents a single log event handed to the
// formatter by the dispatching subsystem.
//
// Record objects are pooled via sync.Pool to keep the render path
// allocation-free. Callers get a Record with GetRecord and must return
// it with PutRecord once the formatter has consumed it. The pool
// pre-allocates the Fields slice with capacity 8, which covers most
// log calls without triggering a slice growth.
//
// Field encodes attribute values into fixed-size numeric fields (Int64,
// Float64) wherever possible so that common types like int, bool, and
// time.Time never escape to the heap. The Any field exists as a
// fallback for arbitrary types but will cause an allocation.
package core
