// Package site assembles the portfolio: the route table, the layout with its
// navigation bar, the page components and their assets.
package site

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dpotapov/go-folio"
	"github.com/dpotapov/go-folio/catalog"
)

//go:embed static/site.css
var siteCSS []byte

//go:embed static/live.js
var liveJS []byte

const (
	siteStylesheet = "site.css"
	liveScript     = "live.js"
)

// AssetsPath is the URL prefix assets are served under.
const AssetsPath = "/assets"

// Options configures New.
type Options struct {
	// Title is the site title, shown in the navigation bar and page titles.
	Title string

	// SpacerHeight is the CSS height of the spacer below the navigation bar.
	SpacerHeight string

	// Nav lists the navigation links.
	Nav []NavItem

	// Catalog provides the projects. It is required.
	Catalog *catalog.Catalog

	// Live adds the client script that navigates over a websocket.
	Live bool

	Metrics *folio.Metrics
	Logger  *slog.Logger
}

// Site is an assembled portfolio.
type Site struct {
	Handler *folio.Handler
	Router  *folio.Router
	Assets  *folio.AssetRegistry

	catalog *catalog.Catalog
}

// New wires the catalog, assets, motion presets, route table and layout into a Handler.
func New(opts Options) (*Site, error) {
	if opts.Catalog == nil {
		return nil, errors.New("site: catalog is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	assets := folio.NewAssetRegistry(AssetsPath, logger)
	assets.RegisterCollector("css", folio.NewStylesheetAssetCollector())
	assets.RegisterCollector("js", folio.NewJavascriptAssetCollector())

	if err := assets.AddAsset(siteStylesheet, siteCSS); err != nil {
		return nil, fmt.Errorf("add site stylesheet: %w", err)
	}

	var scripts []string
	if opts.Live {
		if err := assets.AddAsset(liveScript, liveJS); err != nil {
			return nil, fmt.Errorf("add live script: %w", err)
		}
		scripts = append(scripts, liveScript)
	}

	motion, err := folio.NewMotion(assets)
	if err != nil {
		return nil, err
	}

	router, err := folio.NewRouter(
		folio.Route{Pattern: "/", Page: &HomePage{Catalog: opts.Catalog, Motion: motion, Title: opts.Title}},
		folio.Route{Pattern: ProjectPattern, Page: &ProjectPage{Catalog: opts.Catalog, Motion: motion}},
	)
	if err != nil {
		return nil, err
	}

	layout := &folio.Layout{
		Title:        opts.Title,
		Nav:          &NavBar{Brand: opts.Title, Items: opts.Nav},
		SpacerHeight: opts.SpacerHeight,
		Assets:       assets,
		Stylesheets:  []string{siteStylesheet, folio.MotionStylesheet},
		Scripts:      scripts,
	}

	h := &folio.Handler{
		Router:           router,
		Layout:           layout,
		NotFound:         NotFoundPage{},
		OnErrorComponent: ErrorPage{Logger: logger},
		Assets:           assets,
		Changes:          opts.Catalog,
		Metrics:          opts.Metrics,
		Logger:           logger,
	}

	return &Site{
		Handler: h,
		Router:  router,
		Assets:  assets,
		catalog: opts.Catalog,
	}, nil
}

// SitemapEntries lists the home page and every project page.
func (s *Site) SitemapEntries() []folio.SitemapEntry {
	entries := []folio.SitemapEntry{{Path: "/"}}
	for _, p := range s.catalog.List() {
		href, err := folio.BuildPath(ProjectPattern, folio.Params{"slug": p.Slug})
		if err != nil {
			continue
		}
		entries = append(entries, folio.SitemapEntry{Path: href, LastMod: p.Updated})
	}
	return entries
}
