package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ahmath-musharraf/StudioRoutes/internal/config"
	"github.com/ahmath-musharraf/StudioRoutes/internal/observability"
)

var (
	templatesDir = "templates"
	publicDir    = "public"
	// devMode reparses templates on every request; set from STUDIO_WEB_DEV.
	devMode   bool
	tmplCache *template.Template
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "web: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags override the environment.
	var addr, tmplPath, pubPath, contentPath string
	flag.StringVar(&addr, "addr", cfg.Server.Addr, "HTTP listen address")
	flag.StringVar(&tmplPath, "templates", cfg.Site.TemplatesDir, "templates directory")
	flag.StringVar(&pubPath, "public", cfg.Site.PublicDir, "public assets directory")
	flag.StringVar(&contentPath, "content", cfg.Site.ContentDir, "content bundle directory")
	flag.Parse()
	cfg.Server.Addr = addr
	cfg.Site.TemplatesDir = tmplPath
	cfg.Site.PublicDir = pubPath
	cfg.Site.ContentDir = contentPath

	templatesDir = cfg.Site.TemplatesDir
	publicDir = cfg.Site.PublicDir
	devMode = cfg.Server.Dev

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if !devMode {
		tc, err := parseTemplates()
		if err != nil {
			return fmt.Errorf("parse templates: %w", err)
		}
		tmplCache = tc
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, closeApp, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeApp(); err != nil {
			logger.Warn("close app", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("web listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Bool("dev", devMode),
			zap.String("env", cfg.Env),
			zap.Bool("concept_enabled", cfg.Concept.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.probeThumbnails(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
