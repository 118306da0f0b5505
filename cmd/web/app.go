package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ahmath-musharraf/StudioRoutes/internal/concept"
	"github.com/ahmath-musharraf/StudioRoutes/internal/config"
	"github.com/ahmath-musharraf/StudioRoutes/internal/content"
	"github.com/ahmath-musharraf/StudioRoutes/internal/forms"
	"github.com/ahmath-musharraf/StudioRoutes/internal/handlers"
	"github.com/ahmath-musharraf/StudioRoutes/internal/inquiry"
	mw "github.com/ahmath-musharraf/StudioRoutes/internal/middleware"
	"github.com/ahmath-musharraf/StudioRoutes/internal/observability"
	"github.com/ahmath-musharraf/StudioRoutes/internal/ratelimit"
	"github.com/ahmath-musharraf/StudioRoutes/internal/thumbnail"
)

// contentTTL bounds how stale the content bundle can be outside dev mode.
const contentTTL = time.Minute

// app holds the wired dependencies shared by the handlers.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	content   *content.Store
	concept   concept.Generator
	gate      *concept.Gate
	limiter   ratelimit.Limiter
	inquiry   *inquiry.Dispatcher
	prober    *thumbnail.Prober
	sessions  *mw.Sessions
	analytics handlers.Analytics
}

// newApp wires the services from cfg. The returned close func releases external clients.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, func() error, error) {
	ttl := contentTTL
	if cfg.Server.Dev {
		ttl = 0
	}
	store := content.NewStore(cfg.Site.ContentDir, ttl, logger.Named("content"))
	if _, err := store.Site(); err != nil {
		return nil, nil, fmt.Errorf("load content: %w", err)
	}

	var model concept.TextModel
	if cfg.Concept.Enabled() {
		gm, err := concept.NewGeminiModel(ctx, concept.GeminiConfig{
			APIKey:  cfg.Concept.APIKey,
			Model:   cfg.Concept.Model,
			BaseURL: cfg.Concept.BaseURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init concept model: %w", err)
		}
		model = gm
		logger.Info("concept planner enabled", zap.String("model", gm.Model()))
	} else {
		logger.Warn("GEMINI_API_KEY not set; concept planner will report a configuration error")
	}

	limiter, closeLimiter, err := ratelimit.New(ctx, ratelimit.Options{
		RedisURL: cfg.RateLimit.RedisURL,
		Limit:    cfg.RateLimit.ConceptRequests,
		Window:   cfg.RateLimit.ConceptWindow,
		Logger:   logger.Named("ratelimit"),
	})
	if err != nil {
		return nil, nil, err
	}

	var fetch thumbnail.FetchFunc
	if cfg.Media.ProbeThumbnails {
		fetch = thumbnail.HeadFetcher(nil)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		content: store,
		concept: concept.NewService(model,
			concept.WithTimeout(cfg.Concept.Timeout),
			concept.WithLogger(logger.Named("concept")),
		),
		gate:    concept.NewGate(),
		limiter: limiter,
		inquiry: inquiry.NewDispatcher(cfg.Inquiry.WhatsAppNumber, logger.Named("inquiry")),
		prober:  thumbnail.NewProber(fetch, logger.Named("thumbnail")),
		sessions: mw.NewSessions(mw.SessionOptions{
			SigningKey: cfg.Session.SigningKey,
			Secure:     cfg.Production(),
			Logger:     logger.Named("session"),
		}),
		analytics: handlers.AnalyticsFrom(cfg.Analytics),
	}
	return a, closeLimiter, nil
}

// probeThumbnails resolves showcase thumbnails once so the first render skips dead tiers.
func (a *app) probeThumbnails(ctx context.Context) error {
	site, err := a.content.Site()
	if err != nil {
		return nil
	}
	start := time.Now()
	if err := a.prober.Run(ctx, site.AllMedia()); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn("thumbnail probe failed", zap.Error(err))
		return nil
	}
	a.logger.Debug("thumbnail probe finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(observability.TraceMiddleware)
	r.Use(mw.HTMX)
	r.Use(a.sessions.Session)
	r.Use(mw.Logger(a.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	// Static assets under /assets/
	assets := http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(publicDir, "assets"), devMode))
	r.Handle("/assets/*", assets)

	r.Get("/media/{id}/thumbnail", a.thumbnailHandler)

	r.Group(func(r chi.Router) {
		r.Use(a.sessions.CSRF)
		r.Use(chimw.Compress(5))
		r.Get("/", a.homeHandler)
		r.With(ratelimit.Middleware(a.limiter, ratelimit.ClientIP, http.HandlerFunc(a.conceptLimited), a.logger)).
			Post("/concept", a.conceptHandler)
		r.Post("/contact", a.inquiryHandler(forms.KindContact))
		r.Post("/booking", a.inquiryHandler(forms.KindBooking))
	})
	return r
}
