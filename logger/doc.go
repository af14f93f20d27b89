// Package logger attaches prism's colorized formatting to log/slog.
// Most users only need this package.
//
// Handler implements slog.Handler: slog keeps record construction,
// level filtering, and dispatch; the handler converts each record,
// renders it through a formatter.Formatter, and writes one line under a
// mutex. Templates and palettes are configured on the Formatter itself.
//
// The setup helpers mirror the two common entry points: SetupNew returns
// a named colorized logger, SetupDefault additionally installs it as the
// slog default. Both detect whether the target stream is a terminal
// (and wrap it on Windows so escapes are interpreted); streams without
// color support get the formatter's backup templates with no escapes:
//
//	log := logger.SetupNew("worker", core.DebugLevel, nil)
//	log.Info("ready", "port", 8080)
//
// For custom wiring, build a Handler directly:
//
//	h := logger.NewHandler(logger.HandlerConfig{
//	    Writer:    os.Stdout,
//	    Formatter: myFormatter,
//	    Level:     core.InfoLevel,
//	    Name:      "api",
//	})
//	log := slog.New(h)
package logger
