package core

// LevelContainer holds an optional value for each severity level plus a
// mandatory default used as the fallback for levels with no explicit entry.
// Lookup is total: Get never fails.
//
// Containers are configured with chained With* calls and must not be
// modified once handed to a Formatter:
//
//	codes := core.NewLevelContainer("32;1").
//	    WithWarning("33;1").
//	    WithError("31;1")
type LevelContainer[T any] struct {
	values [NumLevels]T
	isSet  [NumLevels]bool
	def    T
}

// NewLevelContainer creates a container with the given default value.
func NewLevelContainer[T any](def T) *LevelContainer[T] {
	return &LevelContainer[T]{def: def}
}

// WithDebug sets the value for DebugLevel
func (c *LevelContainer[T]) WithDebug(v T) *LevelContainer[T] { return c.with(DebugLevel, v) }

// WithInfo sets the value for InfoLevel
func (c *LevelContainer[T]) WithInfo(v T) *LevelContainer[T] { return c.with(InfoLevel, v) }

// WithWarning sets the value for WarningLevel
func (c *LevelContainer[T]) WithWarning(v T) *LevelContainer[T] { return c.with(WarningLevel, v) }

// WithError sets the value for ErrorLevel
func (c *LevelContainer[T]) WithError(v T) *LevelContainer[T] { return c.with(ErrorLevel, v) }

// WithCritical sets the value for CriticalLevel
func (c *LevelContainer[T]) WithCritical(v T) *LevelContainer[T] { return c.with(CriticalLevel, v) }

func (c *LevelContainer[T]) with(level Level, v T) *LevelContainer[T] {
	c.values[level] = v
	c.isSet[level] = true
	return c
}

// Get returns the value for the given level, falling back to the default
// when the level has no explicit entry or is out of range.
func (c *LevelContainer[T]) Get(level Level) T {
	if level.Valid() && c.isSet[level] {
		return c.values[level]
	}
	return c.def
}

// Default returns the container's fallback value.
func (c *LevelContainer[T]) Default() T {
	return c.def
}

// IsSet reports whether the given level has an explicit entry.
func (c *LevelContainer[T]) IsSet(level Level) bool {
	return level.Valid() && c.isSet[level]
}
