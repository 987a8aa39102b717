package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dpotapov/go-folio"
	"github.com/dpotapov/go-folio/catalog"
	"github.com/dpotapov/go-folio/site"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", ":8080", "listen address")
	f.String("content-dir", "content", "directory with project YAML files")
	f.String("base-url", "http://localhost:8080", "public URL used in the sitemap")
	f.Bool("watch", false, "reload projects when files change")
	f.Bool("live", true, "navigate over a websocket without reloading the layout")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(os.DirFS(cfg.ContentDir))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("Loaded catalog", "dir", cfg.ContentDir, "projects", cat.Len())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := folio.NewMetrics(reg)
	if err != nil {
		return err
	}

	st, err := site.New(site.Options{
		Title:        cfg.Title,
		SpacerHeight: cfg.SpacerHeight,
		Nav:          cfg.Nav,
		Catalog:      cat,
		Live:         cfg.Live,
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	if cfg.Watch {
		w, err := catalog.NewWatcher(cfg.ContentDir, cat, logger)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := w.Stop(); err != nil {
				logger.Warn("Stop content watcher", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(st, reg, cfg.BaseURL, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter mounts the operational endpoints next to the site handler.
func newRouter(st *site.Site, gatherer prometheus.Gatherer, baseURL string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Handle("/sitemap.xml", folio.SitemapHandler(baseURL, st.SitemapEntries, logger))
	r.Handle("/*", st.Handler)

	return r
}

// requestLogger logs every request once it completes.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				"method", r.Method,
				"url", r.URL.Redacted(),
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
