package formatter

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prism-log/prism/core"
)

func testRecord(level core.Level) *core.Record {
	return &core.Record{
		Time:    time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		Level:   level,
		Name:    "app",
		Message: "hi",
	}
}

func mustNew(t *testing.T, cfg Config) *Formatter {
	t.Helper()
	f, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func TestFormatter_FieldWrapping(t *testing.T) {
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{levelname:<8} {message}"),
		Palettes: map[string]*Palette{
			"levelname": NewPalette(core.NewLevelContainer("34;1")),
		},
	})
	f.SetColorSupport(true)

	out, err := f.Format(testRecord(core.InfoLevel))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "\x1b[34;1mINFO    \x1b[0m hi"
	if out != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}
}

func TestFormatter_UnderscoreSuppression(t *testing.T) {
	palettes := map[string]*Palette{
		"asctime": NewPalette(core.NewLevelContainer("30;1")),
	}
	plain := mustNew(t, Config{
		Formats:  core.NewLevelContainer("{_asctime}"),
		Palettes: palettes,
	})
	plain.SetColorSupport(true)
	colored := mustNew(t, Config{
		Formats:  core.NewLevelContainer("{asctime}"),
		Palettes: palettes,
	})
	colored.SetColorSupport(true)

	rec := testRecord(core.InfoLevel)
	got, err := plain.Format(rec)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(got, "\x1b[") {
		t.Errorf("suppressed field emitted an escape: %q", got)
	}

	wrapped, err := colored.Format(rec)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	stripped := strings.NewReplacer("\x1b[30;1m", "", "\x1b[0m", "").Replace(wrapped)
	if got != stripped {
		t.Errorf("suppressed output %q != colored output minus escapes %q", got, stripped)
	}
}

func TestFormatter_RegionColoring(t *testing.T) {
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{enter}A {asctime} B{exit}"),
		Palettes: map[string]*Palette{
			"asctime": NewPalette(core.NewLevelContainer("30;1")),
		},
	})
	f.SetColorSupport(true)

	out, err := f.Format(testRecord(core.InfoLevel))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "\x1b[30;1mA 2026-01-15 12:00:00 B\x1b[0m"
	if out != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}
	if strings.Count(out, "\x1b[") != 2 {
		t.Errorf("expected exactly one wrap, got %q", out)
	}
}

func TestFormatter_RegionIgnoresFieldPalettes(t *testing.T) {
	// Fields after the first inside a region render uncolored even when
	// they have their own palette.
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{enter}{name} {message}{exit}"),
		Palettes: map[string]*Palette{
			"name":    NewPalette(core.NewLevelContainer("35")),
			"message": NewPalette(core.NewLevelContainer("31")),
		},
	})
	f.SetColorSupport(true)

	out, err := f.Format(testRecord(core.InfoLevel))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "\x1b[35mapp hi\x1b[0m"
	if out != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}
}

func TestFormatter_RegionSecondFieldNeedsNoPalette(t *testing.T) {
	// Only the first field of a region selects its palette; later fields
	// render inside the span without one.
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{enter}{name} {message}{exit}"),
		Palettes: map[string]*Palette{
			"name": NewPalette(core.NewLevelContainer("35")),
		},
	})
	f.SetColorSupport(true)

	out, err := f.Format(testRecord(core.InfoLevel))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if out != "\x1b[35mapp hi\x1b[0m" {
		t.Errorf("Format() = %q", out)
	}
}

func TestFormatter_PerLevelTemplates(t *testing.T) {
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{message}").
			WithError("ERR: {message}"),
	})
	f.SetColorSupport(true)

	out, _ := f.Format(testRecord(core.InfoLevel))
	if out != "hi" {
		t.Errorf("info output = %q, want %q", out, "hi")
	}
	out, _ = f.Format(testRecord(core.ErrorLevel))
	if out != "ERR: hi" {
		t.Errorf("error output = %q, want %q", out, "ERR: hi")
	}
}

func TestFormatter_PerLevelPalette(t *testing.T) {
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{levelname}"),
		Palettes: map[string]*Palette{
			"levelname": NewPalette(core.NewLevelContainer("32;1").WithWarning("33;1")),
		},
	})
	f.SetColorSupport(true)

	out, _ := f.Format(testRecord(core.InfoLevel))
	if out != "\x1b[32;1mINFO\x1b[0m" {
		t.Errorf("info output = %q", out)
	}
	out, _ = f.Format(testRecord(core.WarningLevel))
	if out != "\x1b[33;1mWARNING\x1b[0m" {
		t.Errorf("warning output = %q", out)
	}
}

func TestFormatter_DefaultsAndExtras(t *testing.T) {
	f := mustNew(t, Config{
		Formats:  core.NewLevelContainer("{message} {request_id}"),
		Defaults: map[string]interface{}{"request_id": "-"},
	})
	f.SetColorSupport(false)

	rec := testRecord(core.InfoLevel)
	out, err := f.Format(rec)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if out != "hi -" {
		t.Errorf("defaults output = %q, want %q", out, "hi -")
	}

	// A record attribute with the same key takes precedence.
	rec.Fields = append(rec.Fields, core.Field{Key: "request_id", Type: core.StringType, Str: "abc123"})
	out, err = f.Format(rec)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if out != "hi abc123" {
		t.Errorf("extras output = %q, want %q", out, "hi abc123")
	}
}

func TestFormatter_BackupFormats(t *testing.T) {
	f := mustNew(t, Config{
		Formats:       core.NewLevelContainer("{levelname} {message}"),
		BackupFormats: core.NewLevelContainer("[{levelname}] {message}"),
		Palettes: map[string]*Palette{
			"levelname": NewPalette(core.NewLevelContainer("34;1")),
		},
	})

	f.SetColorSupport(false)
	out, err := f.Format(testRecord(core.InfoLevel))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if out != "[INFO] hi" {
		t.Errorf("backup output = %q, want %q", out, "[INFO] hi")
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("backup output contains escapes: %q", out)
	}
}

func TestFormatter_NoBackupRendersUncolored(t *testing.T) {
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{levelname} {message}"),
		Palettes: map[string]*Palette{
			"levelname": NewPalette(core.NewLevelContainer("34;1")),
		},
	})
	f.SetColorSupport(false)

	out, err := f.Format(testRecord(core.InfoLevel))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if out != "INFO hi" {
		t.Errorf("uncolored output = %q, want %q", out, "INFO hi")
	}
}

func TestFormatter_ForceANSI(t *testing.T) {
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{levelname}"),
		Palettes: map[string]*Palette{
			"levelname": NewPalette(core.NewLevelContainer("34;1")),
		},
		ForceANSI: true,
	})
	// No SetColorSupport call: ForceANSI makes the decision.
	out, err := f.Format(testRecord(core.InfoLevel))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if out != "\x1b[34;1mINFO\x1b[0m" {
		t.Errorf("Format() = %q", out)
	}
}

func TestFormatter_ColorSupportUnset(t *testing.T) {
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{message}"),
	})
	if _, err := f.Format(testRecord(core.InfoLevel)); !errors.Is(err, ErrColorSupportUnset) {
		t.Errorf("Format() error = %v, want ErrColorSupportUnset", err)
	}
}

func TestFormatter_EscapedBraces(t *testing.T) {
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{{{message}}}"),
	})
	f.SetColorSupport(false)

	out, err := f.Format(testRecord(core.InfoLevel))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if out != "{hi}" {
		t.Errorf("Format() = %q, want %q", out, "{hi}")
	}
}

func TestFormatter_EmptyCodeEmitsNoEscape(t *testing.T) {
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{levelname}"),
		Palettes: map[string]*Palette{
			"levelname": NewPalette(core.NewLevelContainer("").WithError("31;1")),
		},
	})
	f.SetColorSupport(true)

	out, _ := f.Format(testRecord(core.InfoLevel))
	if out != "INFO" {
		t.Errorf("empty-code output = %q, want %q", out, "INFO")
	}
	out, _ = f.Format(testRecord(core.ErrorLevel))
	if out != "\x1b[31;1mERROR\x1b[0m" {
		t.Errorf("error output = %q", out)
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			"unknown field",
			Config{Formats: core.NewLevelContainer("{unknown}")},
			ErrUnresolvedField,
		},
		{
			"unmatched enter",
			Config{Formats: core.NewLevelContainer("{enter}{message}")},
			ErrUnmatchedRegion,
		},
		{
			"region field without palette",
			Config{Formats: core.NewLevelContainer("{enter}{message}{exit}")},
			ErrMissingPalette,
		},
		{
			"malformed template",
			Config{Formats: core.NewLevelContainer("{message")},
			ErrInvalidTemplate,
		},
		{
			"empty template for a level",
			Config{Formats: core.NewLevelContainer("")},
			ErrInvalidTemplate,
		},
		{
			"bad backup template",
			Config{
				Formats:       core.NewLevelContainer("{message}"),
				BackupFormats: core.NewLevelContainer("{unknown}"),
			},
			ErrUnresolvedField,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := New(Config{}); err == nil {
		t.Error("New() with no Formats expected error")
	}
}

func TestFormatter_BuiltinFields(t *testing.T) {
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{name}|{levelno}|{filename}|{lineno}|{funcName}|{module}"),
	})
	f.SetColorSupport(false)

	rec := testRecord(core.WarningLevel)
	rec.Caller = core.CallerInfo{
		File:      "/src/app/server.go",
		ShortFile: "server.go",
		Line:      42,
		Function:  "app.serve",
		Defined:   true,
	}
	out, err := f.Format(rec)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "app|2|server.go|42|app.serve|server"
	if out != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}
}

func TestFormatter_ParseCacheIdempotent(t *testing.T) {
	cfg := Config{
		Formats: core.NewLevelContainer("{asctime} {levelname:<8} {message}"),
		Palettes: map[string]*Palette{
			"levelname": NewPalette(core.NewLevelContainer("34;1")),
		},
	}
	a := mustNew(t, cfg)
	a.SetColorSupport(true)
	b := mustNew(t, cfg)
	b.SetColorSupport(true)

	rec := testRecord(core.InfoLevel)
	outA, errA := a.Format(rec)
	outB, errB := b.Format(rec)
	if errA != nil || errB != nil {
		t.Fatalf("Format() errors = %v, %v", errA, errB)
	}
	if outA != outB {
		t.Errorf("outputs differ: %q vs %q", outA, outB)
	}
	// Repeated renders through the same cache are stable too.
	outA2, _ := a.Format(rec)
	if outA != outA2 {
		t.Errorf("repeat render differs: %q vs %q", outA, outA2)
	}
}

func TestFormatter_ConcurrentFormat(t *testing.T) {
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{levelname:<8} {message}"),
		Palettes: map[string]*Palette{
			"levelname": NewPalette(core.NewLevelContainer("34;1")),
		},
	})
	f.SetColorSupport(true)

	want, err := f.Format(testRecord(core.InfoLevel))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				out, err := f.Format(testRecord(core.InfoLevel))
				if err != nil || out != want {
					t.Errorf("concurrent Format() = %q, %v", out, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestFormatter_DoesNotMutateRecord(t *testing.T) {
	f := mustNew(t, Config{
		Formats: core.NewLevelContainer("{message}"),
	})
	f.SetColorSupport(false)

	rec := testRecord(core.InfoLevel)
	if _, err := f.Format(rec); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if rec.Message != "hi" || rec.Name != "app" || len(rec.Fields) != 0 {
		t.Errorf("record mutated: %+v", rec)
	}
}
