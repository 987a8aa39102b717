package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dpotapov/go-folio"
	"github.com/dpotapov/go-folio/catalog"
	"github.com/dpotapov/go-folio/site"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table in resolution order",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := loadSite(cmd)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PATTERN\tPAGE")
		for _, r := range st.Router.Routes() {
			fmt.Fprintf(tw, "%s\t%T\n", r.Pattern, r.Page)
		}
		return tw.Flush()
	},
}

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Write the XML sitemap to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, err := loadSite(cmd)
		if err != nil {
			return err
		}
		return folio.WriteSitemap(cmd.OutOrStdout(), cfg.BaseURL, st.SitemapEntries())
	},
}

func init() {
	for _, c := range []*cobra.Command{routesCmd, sitemapCmd} {
		c.Flags().String("content-dir", "content", "directory with project YAML files")
	}
	sitemapCmd.Flags().String("base-url", "http://localhost:8080", "public URL of the site")
}

// loadSite builds the site from the configured content directory.
func loadSite(cmd *cobra.Command) (*config, *site.Site, error) {
	cfg, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	cat, err := catalog.Load(os.DirFS(cfg.ContentDir))
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	st, err := site.New(site.Options{
		Title:        cfg.Title,
		SpacerHeight: cfg.SpacerHeight,
		Nav:          cfg.Nav,
		Catalog:      cat,
		Logger:       logger,
	})
	return cfg, st, err
}
