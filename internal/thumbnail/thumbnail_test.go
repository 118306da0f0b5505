package thumbnail

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBroken = errors.New("broken image")

func TestYouTubeChainFallsBackThenExhausts(t *testing.T) {
	m := Media{ID: "3", Platform: PlatformYouTube, Ref: "ysz5S6P_cNY"}

	s := Start(m)
	u, ok := Resolve(m, s)
	require.True(t, ok)
	assert.Equal(t, "https://img.youtube.com/vi/ysz5S6P_cNY/maxresdefault.jpg", u)

	s = Next(m, s)
	assert.Equal(t, State{Kind: Attempted, Tier: 1}, s)
	u, ok = Resolve(m, s)
	require.True(t, ok)
	assert.Equal(t, "https://img.youtube.com/vi/ysz5S6P_cNY/hqdefault.jpg", u)

	s = Next(m, s)
	assert.Equal(t, Exhausted, s.Kind)
	_, ok = Resolve(m, s)
	assert.False(t, ok)

	assert.Equal(t, s, Next(m, s), "exhausted is absorbing")
}

func TestProbeStopsAfterChainWithoutThirdFetch(t *testing.T) {
	m := Media{ID: "4", Platform: PlatformYouTube, Ref: "LXb3EKWsInQ"}
	var calls []string
	s := Probe(context.Background(), m, func(_ context.Context, u string) error {
		calls = append(calls, u)
		return errBroken
	})
	assert.Equal(t, Exhausted, s.Kind)
	assert.Len(t, calls, 2)
}

func TestProbeStopsAtFirstSuccess(t *testing.T) {
	m := Media{ID: "4", Platform: PlatformYouTube, Ref: "abc"}
	calls := 0
	s := Probe(context.Background(), m, func(_ context.Context, u string) error {
		calls++
		if calls == 1 {
			return errBroken
		}
		return nil
	})
	assert.Equal(t, State{Kind: Attempted, Tier: 1}, s)
	assert.Equal(t, 2, calls)
}

func TestInstagramSingleStep(t *testing.T) {
	m := Media{ID: "102", Platform: PlatformInstagram, Ref: "DOxsFmKjRKM"}
	u, ok := Resolve(m, Start(m))
	require.True(t, ok)
	assert.Equal(t, "https://www.instagram.com/p/DOxsFmKjRKM/media/?size=l", u)
	assert.Equal(t, Exhausted, Next(m, Start(m)).Kind)
}

func TestExplicitThumbnailWins(t *testing.T) {
	m := Media{ID: "2", Platform: PlatformFacebook, Ref: "https://www.facebook.com/share/v/1HFvERAT5m/", Thumbnail: "https://images.example/thumb.jpg"}
	u, ok := Resolve(m, Start(m))
	require.True(t, ok)
	assert.Equal(t, "https://images.example/thumb.jpg", u)
	assert.Equal(t, Exhausted, Next(m, Start(m)).Kind)
}

func TestFacebookWithoutThumbnailIsPlaceholder(t *testing.T) {
	m := Media{ID: "1", Platform: PlatformFacebook, Ref: "https://www.facebook.com/share/p/1Acx3Hp3tG/"}
	assert.Equal(t, Exhausted, Start(m).Kind)
}

func TestUnsupportedPlatformNeverFetches(t *testing.T) {
	m := Media{ID: "x", Platform: Platform("vimeo"), Ref: "123", Thumbnail: "https://example.com/t.jpg"}
	assert.Equal(t, Exhausted, Start(m).Kind)
	calls := 0
	s := Probe(context.Background(), m, func(context.Context, string) error {
		calls++
		return nil
	})
	assert.Equal(t, Exhausted, s.Kind)
	assert.Zero(t, calls)
	assert.Empty(t, EmbedURL(m))
}

func TestAtAttemptIsMonotonic(t *testing.T) {
	m := Media{ID: "3", Platform: PlatformYouTube, Ref: "id"}
	prev := -1
	for n := 0; n < 5; n++ {
		s := AtAttempt(m, n)
		rank := s.Tier
		if s.Kind == Exhausted {
			rank = len(Chain(m))
		}
		assert.GreaterOrEqual(t, rank, prev)
		prev = rank
	}
	assert.Equal(t, Exhausted, AtAttempt(m, 2).Kind)
	assert.Equal(t, Start(m), AtAttempt(m, -3))
}

func TestEmbedURLs(t *testing.T) {
	assert.Equal(t,
		"https://www.youtube.com/embed/abc?autoplay=1&rel=0&modestbranding=1&playsinline=1",
		EmbedURL(Media{Platform: PlatformYouTube, Ref: "abc"}))
	assert.Equal(t,
		"https://www.instagram.com/reel/DOi5lgmj8GO/embed/",
		EmbedURL(Media{Platform: PlatformInstagram, Ref: "DOi5lgmj8GO"}))
	assert.Equal(t,
		"https://www.facebook.com/plugins/video.php?href=https%3A%2F%2Fwww.facebook.com%2Fshare%2Fv%2F1%2F&show_text=false&t=0&autoplay=1",
		EmbedURL(Media{Platform: PlatformFacebook, Ref: "https://www.facebook.com/share/v/1/"}))
	assert.True(t, Vertical(Media{Platform: PlatformInstagram}))
}

func TestProberRecordsStates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/ok.jpg" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	good := Media{ID: "good", Platform: PlatformImage, Thumbnail: srv.URL + "/ok.jpg"}
	bad := Media{ID: "bad", Platform: PlatformImage, Thumbnail: srv.URL + "/missing.jpg"}
	unseen := Media{ID: "unseen", Platform: PlatformYouTube, Ref: "zzz"}

	p := NewProber(HeadFetcher(srv.Client()), nil)
	require.NoError(t, p.Run(context.Background(), []Media{good, bad}))

	assert.Equal(t, State{Kind: Attempted, Tier: 0}, p.State(good))
	assert.Equal(t, Exhausted, p.State(bad).Kind)
	assert.Equal(t, Start(unseen), p.State(unseen))
}

func TestNilProberFallsBackToStart(t *testing.T) {
	var p *Prober
	m := Media{ID: "3", Platform: PlatformYouTube, Ref: "id"}
	assert.Equal(t, Start(m), p.State(m))
	assert.NoError(t, p.Run(context.Background(), []Media{m}))
}
