// Package ratelimit throttles expensive endpoints per client using fixed windows.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory is an in-process fixed-window limiter.
type Memory struct {
	limit  int
	window time.Duration
	clock  func() time.Time
	mu     sync.Mutex
	store  map[string]entry
}

type entry struct {
	count int
	reset time.Time
}

// NewMemory returns nil when limit or window is not positive; a nil *Memory allows everything.
func NewMemory(limit int, window time.Duration, clock func() time.Time) *Memory {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &Memory{
		limit:  limit,
		window: window,
		clock:  clock,
		store:  make(map[string]entry),
	}
}

// Allow counts one hit for key.
func (l *Memory) Allow(_ context.Context, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	key = normalizeKey(key)
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.store[key]
	if !ok || now.After(e.reset) {
		l.store[key] = entry{count: 1, reset: now.Add(l.window)}
		l.pruneExpiredLocked(now)
		return true, nil
	}
	if e.count >= l.limit {
		return false, nil
	}
	e.count++
	l.store[key] = e
	return true, nil
}

func (l *Memory) pruneExpiredLocked(now time.Time) {
	for key, e := range l.store {
		if now.After(e.reset) {
			delete(l.store, key)
		}
	}
}

// Redis shares the window across instances with INCR + EXPIRE.
type Redis struct {
	rdb    goredis.UniversalClient
	limit  int
	window time.Duration
	prefix string
}

// NewRedis wraps an existing client.
func NewRedis(rdb goredis.UniversalClient, limit int, window time.Duration) *Redis {
	return &Redis{rdb: rdb, limit: limit, window: window, prefix: "studio:ratelimit:"}
}

// Allow counts one hit for key in the current window.
func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rdb == nil || l.limit <= 0 {
		return true, nil
	}
	k := l.prefix + normalizeKey(key)
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit: redis: %w", err)
	}
	return incr.Val() <= int64(l.limit), nil
}

// Options selects and sizes the limiter.
type Options struct {
	RedisURL string
	Limit    int
	Window   time.Duration
	Logger   *zap.Logger
}

// New returns a Redis-backed limiter when RedisURL is set and reachable, otherwise an
// in-memory one. The returned close func releases the Redis client.
func New(ctx context.Context, opts Options) (Limiter, func() error, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := func() error { return nil }
	if opts.Limit <= 0 || opts.Window <= 0 {
		return NewMemory(0, 0, nil), noop, nil
	}
	if strings.TrimSpace(opts.RedisURL) == "" {
		return NewMemory(opts.Limit, opts.Window, nil), noop, nil
	}

	ropts, err := goredis.ParseURL(opts.RedisURL)
	if err != nil {
		return nil, noop, fmt.Errorf("ratelimit: parse redis url: %w", err)
	}
	ropts.DialTimeout = 5 * time.Second
	rdb := goredis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		logger.Warn("redis unavailable, using in-memory rate limiter", zap.Error(err))
		return NewMemory(opts.Limit, opts.Window, nil), noop, nil
	}
	logger.Info("redis rate limiter ready", zap.String("addr", ropts.Addr))
	return NewRedis(rdb, opts.Limit, opts.Window), rdb.Close, nil
}

// KeyFunc derives the limiter key from a request.
type KeyFunc func(*http.Request) string

// ClientIP keys by the remote host. When the peer is a loopback or private
// address (a fronting proxy), the right-most X-Forwarded-For hop is used instead:
// the proxy appends it, earlier hops are client supplied.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !trustedPeer(host) {
		return host
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if ip := strings.TrimSpace(hops[len(hops)-1]); ip != "" {
			return ip
		}
	}
	return host
}

func trustedPeer(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
}

// Middleware rejects requests over the limit with limited. Limiter errors fail open.
func Middleware(l Limiter, key KeyFunc, limited http.Handler, logger *zap.Logger) func(http.Handler) http.Handler {
	if key == nil {
		key = ClientIP
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if limited == nil {
		limited = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), key(r))
			if err != nil {
				logger.Warn("rate limiter error", zap.Error(err))
				ok = true
			}
			if !ok {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "anonymous"
	}
	return key
}
