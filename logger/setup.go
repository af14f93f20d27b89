package logger

import (
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/prism-log/prism/core"
	"github.com/prism-log/prism/formatter"
)

// detectColorSupport determines whether w understands ANSI escapes and
// records the answer on the formatter, unless the caller already settled
// it via SetColorSupport or ForceANSI. Returns the writer to use: on
// Windows a terminal writer is wrapped so escapes are interpreted.
func detectColorSupport(w io.Writer, f *formatter.Formatter) io.Writer {
	file, isFile := w.(*os.File)
	tty := isFile && (isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd()))

	if !f.ColorSupportKnown() {
		f.SetColorSupport(tty)
	}
	if tty && runtime.GOOS == "windows" {
		return colorable.NewColorable(file)
	}
	return w
}

// SetupNew creates a new colorized logger under the given name with the
// given minimum severity, writing to stderr. A nil f uses the default
// formatter.
func SetupNew(name string, level core.Level, f *formatter.Formatter) *slog.Logger {
	return slog.New(NewHandler(HandlerConfig{
		Formatter: f,
		Level:     level,
		Name:      name,
	}))
}

// SetupDefault builds the same handler as SetupNew and installs it as
// the process-default slog logger, so that plain slog.Info etc. come out
// colorized.
func SetupDefault(name string, level core.Level, f *formatter.Formatter) *slog.Logger {
	l := SetupNew(name, level, f)
	slog.SetDefault(l)
	return l
}
