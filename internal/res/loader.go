package res

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a resource cannot be located.
	ErrNotFound = errors.New("resource not found")
	// ErrWrongType is returned when a resource is not of the requested type.
	ErrWrongType = errors.New("unexpected resource type")
)

// ResourceType represents the type of resource
type ResourceType int

const (
	// ResourceTypeUnknown is an unknown resource type
	ResourceTypeUnknown ResourceType = iota
	// ResourceTypeImage is an image resource
	ResourceTypeImage
	// ResourceTypeHTML is an HTML document
	ResourceTypeHTML
	// ResourceTypeData is a YAML or JSON document
	ResourceTypeData
	// ResourceTypeOther is any other resource
	ResourceTypeOther
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeImage:
		return "image"
	case ResourceTypeHTML:
		return "html"
	case ResourceTypeData:
		return "data"
	case ResourceTypeOther:
		return "other"
	default:
		return "unknown"
	}
}

// Resource represents a loaded resource
type Resource struct {
	URL      string
	Type     ResourceType
	Data     []byte
	MimeType string
}

// Loader handles loading resources
type Loader struct {
	// Base URL or file path for resolving relative URLs
	BaseURL string

	// Resource cache
	cache     map[string]*Resource
	cacheLock sync.RWMutex

	// Resource search paths
	searchPaths []string

	// HTTP client for remote resources
	client *http.Client

	log *zap.Logger
}

// NewLoader creates a new resource loader
func NewLoader(baseURL string, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		BaseURL:     baseURL,
		cache:       make(map[string]*Resource),
		searchPaths: []string{},
		client:      &http.Client{},
		log:         log,
	}
}

// SetHTTPClient replaces the client used for remote resources.
func (l *Loader) SetHTTPClient(c *http.Client) {
	l.client = c
}

// AddSearchPath adds a directory to search for local resources
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// Load loads a resource from a URL, data URL or file path
func (l *Loader) Load(ctx context.Context, urlStr string) (*Resource, error) {
	// Check if the resource is already cached
	l.cacheLock.RLock()
	if res, ok := l.cache[urlStr]; ok {
		l.cacheLock.RUnlock()
		return res, nil
	}
	l.cacheLock.RUnlock()

	var (
		res *Resource
		err error
	)
	if IsDataURL(urlStr) {
		res, err = parseDataURL(urlStr)
	} else {
		var resolved string
		resolved, err = l.Resolve(urlStr)
		if err != nil {
			return nil, err
		}
		if isRemote(resolved) {
			res, err = l.loadRemote(ctx, resolved)
		} else {
			res, err = l.loadLocal(resolved)
		}
	}
	if err != nil {
		return nil, err
	}

	l.log.Debug("Resource loaded",
		zap.String("url", shorten(res.URL)),
		zap.String("mime", res.MimeType),
		zap.Stringer("type", res.Type),
		zap.Int("size", len(res.Data)))

	l.cacheLock.Lock()
	l.cache[urlStr] = res
	l.cacheLock.Unlock()

	return res, nil
}

// IsDataURL reports whether s is an RFC 2397 data URL.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// IsRemote reports whether s is an http(s) URL.
func IsRemote(s string) bool {
	return isRemote(s)
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// parseDataURL parses a data URL (RFC 2397) and returns a Resource.
// Examples:
//
//	data:image/png;base64,<base64>
//	data:text/plain,Hello%20World
func parseDataURL(u string) (*Resource, error) {
	s := strings.TrimPrefix(u, "data:")
	// Split metadata and data
	meta, dataPart, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URL")
	}

	mime := ""
	isBase64 := false
	// meta can be like: image/png;base64 or text/plain;charset=utf-8
	comps := strings.Split(meta, ";")
	if comps[0] != "" {
		mime = comps[0]
	}
	for _, c := range comps[1:] {
		if strings.EqualFold(strings.TrimSpace(c), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		var err error
		data, err = base64.StdEncoding.DecodeString(dataPart)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data URL: %w", err)
		}
	} else {
		// The non-base64 form is URL-escaped
		if d, derr := url.PathUnescape(dataPart); derr == nil {
			data = []byte(d)
		} else {
			data = []byte(dataPart)
		}
	}

	r := &Resource{URL: u, Data: data, MimeType: sniffMimeType(mime, "", data)}
	r.Type = determineResourceType(r.MimeType, "")
	return r, nil
}

// Resolve resolves a URL relative to the base URL
func (l *Loader) Resolve(urlStr string) (string, error) {
	if isRemote(urlStr) || IsDataURL(urlStr) {
		return urlStr, nil
	}

	if p, ok := strings.CutPrefix(urlStr, "file://"); ok {
		return p, nil
	}

	if !isRemote(l.BaseURL) {
		if filepath.IsAbs(urlStr) {
			return urlStr, nil
		}
		if l.BaseURL == "" {
			return urlStr, nil
		}
		baseDir := l.BaseURL
		if fi, err := os.Stat(l.BaseURL); err != nil || !fi.IsDir() {
			baseDir = filepath.Dir(l.BaseURL)
		}
		return filepath.Join(baseDir, urlStr), nil
	}

	baseURL, err := url.Parse(l.BaseURL)
	if err != nil {
		return "", err
	}

	relURL, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	return baseURL.ResolveReference(relURL).String(), nil
}

// loadRemote loads a resource from a remote URL
func (l *Loader) loadRemote(ctx context.Context, urlStr string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, urlStr)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", urlStr, err)
	}

	mime, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	res := &Resource{
		URL:      urlStr,
		Data:     data,
		MimeType: sniffMimeType(strings.TrimSpace(mime), urlStr, data),
	}
	res.Type = determineResourceType(res.MimeType, urlStr)

	return res, nil
}

// loadLocal loads a resource from a local file
func (l *Loader) loadLocal(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l.loadFromSearchPaths(path)
		}
		return nil, err
	}
	return newLocalResource(path, data), nil
}

// loadFromSearchPaths tries to load a resource from the search paths
func (l *Loader) loadFromSearchPaths(filename string) (*Resource, error) {
	baseFilename := filepath.Base(filename)

	for _, searchPath := range l.searchPaths {
		path := filepath.Join(searchPath, baseFilename)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return newLocalResource(path, data), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
}

func newLocalResource(path string, data []byte) *Resource {
	res := &Resource{
		URL:      path,
		Data:     data,
		MimeType: sniffMimeType("", path, data),
	}
	res.Type = determineResourceType(res.MimeType, path)
	return res
}

// sniffMimeType picks the declared mime type when it is specific, otherwise
// the one detected from content, otherwise the one implied by the extension.
func sniffMimeType(declared, path string, data []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if m := determineMimeType(path); m != "application/octet-stream" {
		return m
	}
	if looksLikeSVG(data) {
		return "image/svg+xml"
	}
	if declared != "" {
		return declared
	}
	return "application/octet-stream"
}

func looksLikeSVG(data []byte) bool {
	head := data[:min(len(data), 512)]
	return bytes.Contains(head, []byte("<svg"))
}

// determineMimeType determines the MIME type of a file
func determineMimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	case ".html", ".htm":
		return "text/html"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// determineResourceType determines the type of a resource
func determineResourceType(mimeType, path string) ResourceType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return ResourceTypeImage
	case mimeType == "text/html":
		return ResourceTypeHTML
	case mimeType == "application/yaml", mimeType == "application/json", mimeType == "text/yaml":
		return ResourceTypeData
	}

	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".tiff", ".tif", ".bmp":
		return ResourceTypeImage
	case ".html", ".htm":
		return ResourceTypeHTML
	case ".yaml", ".yml", ".json":
		return ResourceTypeData
	}

	return ResourceTypeOther
}

func (l *Loader) loadTyped(ctx context.Context, urlStr string, want ResourceType) (*Resource, error) {
	res, err := l.Load(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	if res.Type != want {
		return nil, fmt.Errorf("%w: %s is %s, not %s", ErrWrongType, shorten(urlStr), res.Type, want)
	}
	return res, nil
}

// LoadImage loads an image resource
func (l *Loader) LoadImage(ctx context.Context, urlStr string) (*Resource, error) {
	return l.loadTyped(ctx, urlStr, ResourceTypeImage)
}

// LoadHTML loads an HTML resource
func (l *Loader) LoadHTML(ctx context.Context, urlStr string) (*Resource, error) {
	return l.loadTyped(ctx, urlStr, ResourceTypeHTML)
}

// LoadData loads a YAML or JSON resource. Content without a recognizable
// type is accepted as well.
func (l *Loader) LoadData(ctx context.Context, urlStr string) (*Resource, error) {
	res, err := l.Load(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeData && res.Type != ResourceTypeOther {
		return nil, fmt.Errorf("%w: %s is %s, not %s", ErrWrongType, shorten(urlStr), res.Type, ResourceTypeData)
	}
	return res, nil
}

// GetReader returns a reader for a resource
func (r *Resource) GetReader() *bytes.Reader {
	return bytes.NewReader(r.Data)
}

// GetString returns the resource data as a string
func (r *Resource) GetString() string {
	return string(r.Data)
}

// shorten keeps data URLs out of log lines and messages.
func shorten(s string) string {
	if IsDataURL(s) && len(s) > 48 {
		return s[:48] + "..."
	}
	return s
}
