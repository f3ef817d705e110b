package res

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"
)

func createTestPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestLoadLocal(t *testing.T) {
	dir := t.TempDir()
	pngData := createTestPNG(t)
	writeFile(t, dir, "logo.png", pngData)
	// no extension: detected from content
	writeFile(t, dir, "blob", pngData)
	writeFile(t, dir, "page.html", []byte("<html><body>hi</body></html>"))
	writeFile(t, dir, "icon.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`))
	manifest := writeFile(t, dir, "manifest.yaml", []byte("elements: {}\n"))

	l := NewLoader(manifest, zaptest.NewLogger(t))
	ctx := context.Background()

	tests := []struct {
		url      string
		wantType ResourceType
		wantMime string
	}{
		{"logo.png", ResourceTypeImage, "image/png"},
		{"blob", ResourceTypeImage, "image/png"},
		{"page.html", ResourceTypeHTML, "text/html"},
		{"icon.svg", ResourceTypeImage, "image/svg+xml"},
		{"manifest.yaml", ResourceTypeData, "application/yaml"},
		{"file://" + filepath.Join(dir, "logo.png"), ResourceTypeImage, "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			res, err := l.Load(ctx, tt.url)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if res.Type != tt.wantType || res.MimeType != tt.wantMime {
				t.Errorf("Load() = %v/%q, want %v/%q", res.Type, res.MimeType, tt.wantType, tt.wantMime)
			}
		})
	}
}

func TestLoadTyped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.html", []byte("<p>x</p>"))
	l := NewLoader(dir, zaptest.NewLogger(t))
	ctx := context.Background()

	if _, err := l.LoadImage(ctx, "page.html"); !errors.Is(err, ErrWrongType) {
		t.Errorf("LoadImage(html) error = %v, want ErrWrongType", err)
	}
	if _, err := l.LoadHTML(ctx, "page.html"); err != nil {
		t.Errorf("LoadHTML() error = %v", err)
	}
	if _, err := l.LoadData(ctx, "page.html"); !errors.Is(err, ErrWrongType) {
		t.Errorf("LoadData(html) error = %v, want ErrWrongType", err)
	}
	if _, err := l.Load(ctx, "missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLoadSearchPaths(t *testing.T) {
	assets := t.TempDir()
	writeFile(t, assets, "logo.png", createTestPNG(t))

	l := NewLoader(t.TempDir(), zaptest.NewLogger(t))
	l.AddSearchPath(assets)

	res, err := l.LoadImage(context.Background(), "img/logo.png")
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if res.URL != filepath.Join(assets, "logo.png") {
		t.Errorf("URL = %q, want search path hit", res.URL)
	}
}

func TestLoadDataURL(t *testing.T) {
	pngData := createTestPNG(t)
	l := NewLoader("", zaptest.NewLogger(t))
	ctx := context.Background()

	tests := []struct {
		name     string
		url      string
		wantMime string
		wantData []byte
	}{
		{"base64 png", "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData), "image/png", pngData},
		{"sniffed", "data:;base64," + base64.StdEncoding.EncodeToString(pngData), "image/png", pngData},
		{"escaped text", "data:text/html,%3Cp%3Ehi%3C%2Fp%3E", "text/html", []byte("<p>hi</p>")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := l.Load(ctx, tt.url)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if res.MimeType != tt.wantMime {
				t.Errorf("MimeType = %q, want %q", res.MimeType, tt.wantMime)
			}
			if !bytes.Equal(res.Data, tt.wantData) {
				t.Errorf("Data = %q, want %q", res.Data, tt.wantData)
			}
		})
	}

	if _, err := l.Load(ctx, "data:image/png;base64"); err == nil {
		t.Error("Load(data URL without comma) error = nil")
	}
	if _, err := l.Load(ctx, "data:image/png;base64,***"); err == nil {
		t.Error("Load(bad base64) error = nil")
	}
}

func TestLoadRemote(t *testing.T) {
	pngData := createTestPNG(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/img/logo":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(pngData)
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<p>remote</p>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewLoader(srv.URL+"/docs/index.html", zaptest.NewLogger(t))
	ctx := context.Background()

	img, err := l.LoadImage(ctx, "/img/logo")
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if img.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want sniffed image/png", img.MimeType)
	}

	page, err := l.LoadHTML(ctx, "../page")
	if err != nil {
		t.Fatalf("LoadHTML() error = %v", err)
	}
	if page.GetString() != "<p>remote</p>" {
		t.Errorf("GetString() = %q", page.GetString())
	}

	if _, err := l.Load(ctx, srv.URL+"/nothing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(404) error = %v, want ErrNotFound", err)
	}

	before := hits.Load()
	if _, err := l.LoadImage(ctx, "/img/logo"); err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if hits.Load() != before {
		t.Errorf("cached resource fetched again")
	}
}

func TestLoadRemoteHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader("", zaptest.NewLogger(t))
	if _, err := l.Load(ctx, srv.URL); !errors.Is(err, context.Canceled) {
		t.Errorf("Load(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"remote root-relative", "https://example.com/docs/index.html", "/img/logo", "https://example.com/img/logo"},
		{"remote relative", "https://example.com/docs/index.html", "img/logo.png", "https://example.com/docs/img/logo.png"},
		{"remote parent", "https://example.com/docs/index.html", "../page", "https://example.com/page"},
		{"absolute remote ref", "https://example.com/docs/", "http://other.org/a.png", "http://other.org/a.png"},
		{"local absolute", filepath.Join(dir, "manifest.yaml"), "/srv/img/logo.png", "/srv/img/logo.png"},
		{"local relative", filepath.Join(dir, "manifest.yaml"), "img/logo.png", filepath.Join(dir, "img", "logo.png")},
		{"local dir base", dir, "logo.png", filepath.Join(dir, "logo.png")},
		{"file scheme", "https://example.com/", "file:///tmp/logo.png", "/tmp/logo.png"},
		{"no base", "", "logo.png", "logo.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLoader(tt.base, nil).Resolve(tt.ref)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}
