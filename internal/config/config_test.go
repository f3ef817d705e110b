package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gompdf/htmlslice/pkg/api"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Document.ContentWidth != 550 {
		t.Errorf("ContentWidth = %v, want 550", cfg.Document.ContentWidth)
	}
	if cfg.Browser.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Browser.Timeout)
	}
	if cfg.Selectors.Root != "#content" {
		t.Errorf("Root = %q, want #content", cfg.Selectors.Root)
	}

	// defaults agree with the converter's own
	got := cfg.Options(nil)
	want := api.DefaultOptions()
	if got.ContentWidth != want.ContentWidth || got.Gap != want.Gap ||
		got.HeaderEveryPage != want.HeaderEveryPage || got.FooterEveryPage != want.FooterEveryPage ||
		got.PaginableClass != want.PaginableClass || got.RichTextClass != want.RichTextClass ||
		got.TableRowClass != want.TableRowClass || got.PageSlotClass != want.PageSlotClass ||
		got.CountSlotClass != want.CountSlotClass || got.OutputMode != want.OutputMode ||
		got.ImageFormat != want.ImageFormat || got.JPEGQuality != want.JPEGQuality ||
		got.Timeout != want.Timeout || got.ViewportWidth != want.ViewportWidth || got.DeviceScale != want.DeviceScale {
		t.Errorf("Options() = %+v\nwant %+v", got, want)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("default options invalid: %v", err)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
document:
  content_width: 500
  x: 40
  y: 30
  header_every_page: false
  markers:
    table_row: row
    atomic_tags: [img, figure]
  images:
    format: png
  metainformation:
    title: Monthly report
selectors:
  header: "#header"
  footer: "#footer"
output:
  mode: datauri
browser:
  timeout: 5s
  no_sandbox: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	o := cfg.Options(zap.NewNop())
	if o.ContentWidth != 500 {
		t.Errorf("ContentWidth = %v, want 500", o.ContentWidth)
	}
	if o.X == nil || *o.X != 40 {
		t.Errorf("X = %v, want 40", o.X)
	}
	if o.Y == nil || *o.Y != 30 {
		t.Errorf("Y = %v, want 30", o.Y)
	}
	if o.HeaderEveryPage || !o.FooterEveryPage {
		t.Errorf("HeaderEveryPage = %v, FooterEveryPage = %v", o.HeaderEveryPage, o.FooterEveryPage)
	}
	// untouched fields keep template values
	if o.PaginableClass != "divide-inside" || o.TableRowClass != "row" {
		t.Errorf("markers = %q, %q", o.PaginableClass, o.TableRowClass)
	}
	if len(o.AtomicTags) != 2 || o.AtomicTags[1] != "figure" {
		t.Errorf("AtomicTags = %v", o.AtomicTags)
	}
	if o.ImageFormat != api.ImagePNG || o.OutputMode != api.OutputDataURI {
		t.Errorf("ImageFormat = %q, OutputMode = %q", o.ImageFormat, o.OutputMode)
	}
	if o.Title != "Monthly report" || o.Timeout != 5*time.Second || !o.NoSandbox {
		t.Errorf("Options() = %+v", o)
	}

	in := cfg.Input()
	if in.Root != "#content" || in.Header != "#header" || in.Footer != "#footer" {
		t.Errorf("Input() = %+v", in)
	}
}

func TestLoadConfiguration_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "version: 1\ndocument:\n  page_size: A3\n"},
		{"wrong version", "version: 2\n"},
		{"too wide", "version: 1\ndocument:\n  content_width: 600\n"},
		{"bad mode", "version: 1\noutput:\n  mode: print\n"},
		{"bad format", "version: 1\ndocument:\n  images:\n    format: gif\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
		{"no root", "version: 1\nselectors:\n  root: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfiguration(path); err == nil {
				t.Error("LoadConfiguration() error = nil, want error")
			}
		})
	}

	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfiguration(missing) error = nil, want error")
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	for _, want := range []string{"content_width: 550", "#content", "timeout: 30s"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Dump() missing %q:\n%s", want, data)
		}
	}

	// dumped configuration loads back
	path := filepath.Join(t.TempDir(), "dump.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfiguration(path); err != nil {
		t.Errorf("LoadConfiguration(dump) error = %v", err)
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !strings.Contains(string(data), "version: 1") {
		t.Errorf("Prepare() = %s", data)
	}
}

func TestLoggingPrepare(t *testing.T) {
	path := filepath.Join(t.TempDir(), "htmlslice.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "debug", Destination: path, Mode: "overwrite"},
	}
	log, closeLog, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("band computed", zap.Int("page", 2))
	if err := log.Sync(); err != nil {
		t.Logf("Sync() error = %v", err)
	}
	if err := closeLog(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "band computed") || !strings.Contains(string(data), AppName) {
		t.Errorf("log file = %q", data)
	}

	conf.FileLogger.Destination = filepath.Join(t.TempDir(), "missing", "dir", "x.log")
	if _, _, err := conf.Prepare(); err == nil {
		t.Error("Prepare() with unreachable destination error = nil")
	}
}
