package thumbnail

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultProbeTimeout     = 4 * time.Second
	defaultProbeConcurrency = 4
)

// FetchFunc attempts to load url and returns an error when the image is unusable.
type FetchFunc func(ctx context.Context, url string) error

// Probe walks the chain for m, calling fetch once per tier until a tier loads or the
// chain is exhausted. It never calls fetch after reaching Exhausted.
func Probe(ctx context.Context, m Media, fetch FetchFunc) State {
	s := Start(m)
	for s.Kind == Attempted {
		u, ok := Resolve(m, s)
		if !ok {
			return State{Kind: Exhausted}
		}
		if err := fetch(ctx, u); err == nil {
			return s
		}
		if ctx.Err() != nil {
			// Cancelled mid-walk: keep the tier reached so far; the browser retries from there.
			return s
		}
		s = Next(m, s)
	}
	return s
}

// HeadFetcher returns a FetchFunc that issues HEAD requests and accepts any 2xx image response.
func HeadFetcher(client *http.Client) FetchFunc {
	if client == nil {
		client = &http.Client{Timeout: defaultProbeTimeout}
	}
	return func(ctx context.Context, url string) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("thumbnail: %s status %d", url, resp.StatusCode)
		}
		return nil
	}
}

// Prober resolves thumbnails ahead of the first render and remembers the result.
// Items never probed report their Start state.
type Prober struct {
	fetch       FetchFunc
	concurrency int
	logger      *zap.Logger

	mu     sync.RWMutex
	states map[string]State
}

// NewProber constructs a Prober. A nil fetch disables probing.
func NewProber(fetch FetchFunc, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		fetch:       fetch,
		concurrency: defaultProbeConcurrency,
		logger:      logger,
		states:      map[string]State{},
	}
}

// Run probes every item concurrently and records the resulting states.
func (p *Prober) Run(ctx context.Context, items []Media) error {
	if p == nil || p.fetch == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, m := range items {
		g.Go(func() error {
			s := Probe(gctx, m, p.fetch)
			p.mu.Lock()
			p.states[m.ID] = s
			p.mu.Unlock()
			p.logger.Debug("thumbnail probed",
				zap.String("media_id", m.ID),
				zap.String("platform", string(m.Platform)),
				zap.Stringer("state", s.Kind),
				zap.Int("tier", s.Tier),
			)
			return nil
		})
	}
	return g.Wait()
}

// State returns the recorded state for m, or its Start state.
func (p *Prober) State(m Media) State {
	if p == nil {
		return Start(m)
	}
	p.mu.RLock()
	s, ok := p.states[m.ID]
	p.mu.RUnlock()
	if !ok {
		return Start(m)
	}
	return s
}
