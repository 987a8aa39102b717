package folio

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/beevik/etree"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapEntry is one page listed in the sitemap. Path is an escaped URL path.
type SitemapEntry struct {
	Path    string
	LastMod time.Time
}

// WriteSitemap writes an XML sitemap with every entry resolved against baseURL.
func WriteSitemap(w io.Writer, baseURL string, entries []SitemapEntry) error {
	base, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("parse base URL: %w", err)
	}
	if !base.IsAbs() {
		return fmt.Errorf("base URL %q is not absolute", baseURL)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	urlset := doc.CreateElement("urlset")
	urlset.CreateAttr("xmlns", sitemapNS)

	for _, e := range entries {
		u := urlset.CreateElement("url")
		u.CreateElement("loc").SetText(base.JoinPath(e.Path).String())
		if !e.LastMod.IsZero() {
			u.CreateElement("lastmod").SetText(e.LastMod.UTC().Format(time.DateOnly))
		}
	}

	doc.Indent(2)

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	return nil
}

// SitemapHandler serves the sitemap built from entries on every request.
func SitemapHandler(baseURL string, entries func() []SitemapEntry, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := WriteSitemap(&buf, baseURL, entries()); err != nil {
			if logger != nil {
				logger.ErrorContext(r.Context(), "Build sitemap", "error", err)
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		_, _ = buf.WriteTo(w)
	})
}
