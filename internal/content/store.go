package content

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store caches the loaded bundle. A non-positive TTL reloads on every call, which
// is what dev mode wants.
type Store struct {
	dir    string
	ttl    time.Duration
	static bool
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	site    *Site
	expires time.Time
}

// NewStore returns a store reading from dir.
func NewStore(dir string, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, ttl: ttl, logger: logger, now: time.Now}
}

// NewStaticStore serves a pre-built site forever.
func NewStaticStore(site *Site) *Store {
	return &Store{site: site, static: true, logger: zap.NewNop(), now: time.Now}
}

// Site returns the cached bundle, reloading once it expires. When a reload fails
// the previous bundle keeps being served.
func (s *Store) Site() (*Site, error) {
	if s.static {
		return s.site, nil
	}
	now := s.now()
	s.mu.RLock()
	site, fresh := s.site, s.site != nil && now.Before(s.expires)
	s.mu.RUnlock()
	if fresh {
		return site, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.site != nil && now.Before(s.expires) {
		return s.site, nil
	}
	loaded, err := Load(s.dir)
	if err != nil {
		if s.site != nil {
			s.logger.Warn("content reload failed, serving previous bundle", zap.Error(err))
			return s.site, nil
		}
		return nil, err
	}
	s.site = loaded
	s.expires = now.Add(s.ttl)
	return loaded, nil
}
