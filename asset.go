package folio

import (
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// AssetCollector manages the collection, deduplication, versioning,
// and serving of assets registered by the site or by components.
type AssetCollector interface {
	// AddAsset appends content to the asset with the given name.
	// The type of the asset (e.g., "css", "js") is determined from the name's extension.
	// Adding the exact same content twice is a no-op.
	AddAsset(name string, content []byte) error

	// AssetPath returns the versioned, serveable path for an asset by name.
	// Example: "site.css" might return "/assets/css/site.a1b2c3d4e5f60718.css".
	// If the asset doesn't exist, it returns an empty string.
	AssetPath(name string) string

	// ServeAsset writes the asset content if the request path matches a known asset path.
	// It reports whether the request was handled.
	ServeAsset(w http.ResponseWriter, r *http.Request) (handled bool, err error)
}

// --- AssetRegistry ---

// AssetRegistry holds multiple AssetCollector implementations, routing calls
// based on asset type derived from file extensions.
type AssetRegistry struct {
	logger     *slog.Logger
	collectors map[string]AssetCollector // Keyed by file extension (e.g., ".css", ".js")
	mu         sync.RWMutex
	basePath   string // Prefix for served assets, always with leading and trailing slash
}

var _ AssetCollector = (*AssetRegistry)(nil)

// NewAssetRegistry creates a new AssetRegistry serving assets under basePath.
func NewAssetRegistry(basePath string, logger *slog.Logger) *AssetRegistry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	bp := strings.Trim(basePath, "/")
	if bp != "" {
		bp = "/" + bp + "/"
	} else {
		bp = "/"
	}

	return &AssetRegistry{
		logger:     logger,
		collectors: make(map[string]AssetCollector),
		basePath:   bp,
	}
}

// RegisterCollector associates an AssetCollector with a specific file extension.
func (r *AssetRegistry) RegisterCollector(ext string, collector AssetCollector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.collectors[ext] = collector
	r.logger.Debug("Registered asset collector", "extension", ext)
}

// AddAsset routes the asset to the appropriate collector based on its extension.
func (r *AssetRegistry) AddAsset(name string, content []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext := filepath.Ext(name)
	collector, ok := r.collectors[ext]
	if !ok {
		return fmt.Errorf("no asset collector registered for type %s (asset: %s)", ext, name)
	}
	return collector.AddAsset(name, content)
}

// AssetPath finds the appropriate collector and returns the asset's path under basePath.
func (r *AssetRegistry) AssetPath(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	collector, ok := r.collectors[filepath.Ext(name)]
	if !ok {
		return ""
	}

	relativePath := collector.AssetPath(name)
	if relativePath == "" {
		return ""
	}

	return r.basePath + strings.TrimPrefix(relativePath, "/")
}

// ServeAsset strips basePath from the request and offers it to each collector.
func (r *AssetRegistry) ServeAsset(w http.ResponseWriter, req *http.Request) (bool, error) {
	if !strings.HasPrefix(req.URL.Path, r.basePath) {
		return false, nil
	}

	r.mu.RLock()
	collectorsSnapshot := maps.Clone(r.collectors) // Avoid holding lock during I/O
	r.mu.RUnlock()

	sub := req
	if r.basePath != "/" {
		sub = req.Clone(req.Context())
		sub.URL.Path = "/" + strings.TrimPrefix(req.URL.Path, r.basePath)
		sub.URL.RawPath = ""
	}

	for ext, collector := range collectorsSnapshot {
		handled, err := collector.ServeAsset(w, sub)
		if err != nil {
			r.logger.ErrorContext(req.Context(), "Error serving asset", "path", req.URL.Path, "extension", ext, "error", err)
			return true, fmt.Errorf("serve asset %s: %w", req.URL.Path, err)
		}
		if handled {
			return true, nil
		}
	}

	return false, nil
}

// --- baseAssetCollector (shared by JS/CSS) ---

// assetInfo holds the state for a single logical asset bundle (e.g., site.css).
type assetInfo struct {
	content     strings.Builder
	versionHash uint64 // FNV-1a hash of the content
	servePath   string // e.g. "/css/site.abcdef0123456789.css"
}

// baseAssetCollector deduplicates content chunks by hash and versions each named
// bundle by the hash of its full content.
type baseAssetCollector struct {
	mu sync.RWMutex

	assets map[string]*assetInfo // Key: logical asset name (e.g., "site.css")

	// addedChunks tracks hashes of content chunks already added to any bundle.
	addedChunks map[uint64]struct{}

	servePrefix string // e.g. "/css"
	contentType string

	// servePathToName maps both the versioned and the plain serve path to the asset name.
	servePathToName map[string]string
}

func newBaseAssetCollector(servePrefix, contentType string) *baseAssetCollector {
	if !strings.HasPrefix(servePrefix, "/") {
		servePrefix = "/" + servePrefix
	}

	return &baseAssetCollector{
		assets:          make(map[string]*assetInfo),
		addedChunks:     make(map[uint64]struct{}),
		servePrefix:     servePrefix,
		contentType:     contentType,
		servePathToName: make(map[string]string),
	}
}

func hash64(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

// AddAsset appends a chunk to the named bundle unless the same chunk was added before,
// then recomputes the bundle version.
func (c *baseAssetCollector) AddAsset(name string, content []byte) error {
	chunkHash := hash64(content)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.addedChunks[chunkHash]; exists {
		return nil
	}
	c.addedChunks[chunkHash] = struct{}{}

	ai, ok := c.assets[name]
	if !ok {
		ai = &assetInfo{}
		c.assets[name] = ai
	}

	if ai.content.Len() > 0 {
		ai.content.WriteByte('\n')
	}
	ai.content.Write(content)
	ai.versionHash = hash64([]byte(ai.content.String()))

	ext := filepath.Ext(name)
	baseName := strings.TrimSuffix(filepath.Base(name), ext)
	versionHex := fmt.Sprintf("%016x", ai.versionHash)
	newServePath := fmt.Sprintf("%s/%s.%s%s", strings.TrimSuffix(c.servePrefix, "/"), baseName, versionHex, ext)

	if ai.servePath != "" && ai.servePath != newServePath {
		delete(c.servePathToName, ai.servePath)
	}
	c.servePathToName[newServePath] = name
	c.servePathToName[c.servePrefix+"/"+name] = name
	ai.servePath = newServePath

	return nil
}

// AssetPath returns the current versioned path of a named asset.
func (c *baseAssetCollector) AssetPath(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if ai, ok := c.assets[name]; ok {
		return ai.servePath
	}
	return ""
}

// ServeAsset serves GET and HEAD requests for versioned or plain asset paths.
func (c *baseAssetCollector) ServeAsset(w http.ResponseWriter, r *http.Request) (bool, error) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false, nil
	}

	c.mu.RLock()
	name, found := c.servePathToName[r.URL.Path]
	var content string
	var versionHash uint64
	if found {
		ai := c.assets[name]
		content = ai.content.String()
		versionHash = ai.versionHash
	}
	c.mu.RUnlock()

	if !found {
		return false, nil
	}

	versionHex := fmt.Sprintf("%x", versionHash)
	w.Header().Set("Content-Type", c.contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", `"`+versionHex+`"`)

	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, versionHex) {
		w.WriteHeader(http.StatusNotModified)
		return true, nil
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return true, nil
	}

	if _, err := io.WriteString(w, content); err != nil {
		return true, fmt.Errorf("write asset content %s: %w", r.URL.Path, err)
	}
	return true, nil
}

// --- StylesheetAssetCollector ---

type StylesheetAssetCollector struct {
	*baseAssetCollector
}

// NewStylesheetAssetCollector creates a collector for CSS assets served under /css.
func NewStylesheetAssetCollector() *StylesheetAssetCollector {
	return &StylesheetAssetCollector{
		baseAssetCollector: newBaseAssetCollector("css", "text/css; charset=utf-8"),
	}
}

// --- JavascriptAssetCollector ---

type JavascriptAssetCollector struct {
	*baseAssetCollector
}

// NewJavascriptAssetCollector creates a collector for JavaScript assets served under /js.
func NewJavascriptAssetCollector() *JavascriptAssetCollector {
	return &JavascriptAssetCollector{
		baseAssetCollector: newBaseAssetCollector("js", "application/javascript; charset=utf-8"),
	}
}

// AssetNode builds the <link> or <script> element referencing a named asset.
// It returns nil when the asset has not been added.
func AssetNode(assets AssetCollector, name string) (*html.Node, error) {
	assetPath := assets.AssetPath(name)
	if assetPath == "" {
		return nil, nil
	}

	switch ext := path.Ext(assetPath); ext {
	case ".css":
		return El("link", Attr("rel", "stylesheet"), Attr("href", assetPath)), nil
	case ".js":
		return El("script", Attr("src", assetPath), Attr("defer", "")), nil
	default:
		return nil, fmt.Errorf("asset %s: only '.css' or '.js' can be linked, got '%s'", name, ext)
	}
}
