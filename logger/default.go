package logger

import (
	"github.com/prism-log/prism/core"
	"github.com/prism-log/prism/formatter"
)

// DefaultFormatter builds the formatter used when none is supplied:
// dim timestamps, a per-level color on the level name, magenta logger
// names, and a bracketed plain-text layout for streams without color.
func DefaultFormatter() *formatter.Formatter {
	f, err := formatter.New(formatter.Config{
		Formats: core.NewLevelContainer(
			"{asctime} {levelname:<8} {name} {message}",
		),
		BackupFormats: core.NewLevelContainer(
			"[{asctime}] [{levelname:<8}] {name}: {message}",
		),
		DateFormat: "2006-01-02 15:04:05",
		Palettes: map[string]*formatter.Palette{
			"asctime": formatter.NewPalette(core.NewLevelContainer("30;1")),
			"levelname": formatter.NewPalette(core.NewLevelContainer("").
				WithDebug("32;1").
				WithInfo("34;1").
				WithWarning("33;1").
				WithError("31;1").
				WithCritical("41")),
			"name": formatter.NewPalette(core.NewLevelContainer("35")),
		},
	})
	if err != nil {
		// The configuration above is static and valid; reaching this is
		// a bug in the formatter itself.
		panic("logger: default formatter: " + err.Error())
	}
	return f
}
