package handlers

import (
	"github.com/ahmath-musharraf/StudioRoutes/internal/thumbnail"
)

// ThumbnailStates reports the start state of a media thumbnail, typically from a
// start-up probe.
type ThumbnailStates interface {
	State(m thumbnail.Media) thumbnail.State
}

// Thumb is the template view of one thumbnail slot. When Exhausted the template
// renders the placeholder and never requests another candidate.
type Thumb struct {
	MediaID   string
	URL       string
	Attempt   int
	Exhausted bool
	// FallbackURL replaces the image once the chain is exhausted; empty means the
	// brand placeholder.
	FallbackURL string
	Alt         string
}

// NextHref is the fragment URL requested when URL fails to load.
func (t Thumb) NextHref() string {
	return "/media/" + t.MediaID + "/thumbnail?attempt=" + itoa(t.Attempt+1)
}

// ThumbFor resolves the slot for m in state s.
func ThumbFor(m thumbnail.Media, s thumbnail.State, fallback, alt string) Thumb {
	t := Thumb{MediaID: m.ID, FallbackURL: fallback, Alt: alt}
	u, ok := thumbnail.Resolve(m, s)
	if !ok {
		t.Exhausted = true
		return t
	}
	t.URL = u
	t.Attempt = s.Tier
	return t
}

// ThumbAt resolves the slot after attempt reported failures.
func ThumbAt(m thumbnail.Media, attempt int, fallback, alt string) Thumb {
	s := thumbnail.AtAttempt(m, attempt)
	t := ThumbFor(m, s, fallback, alt)
	if !t.Exhausted {
		t.Attempt = attempt
	}
	return t
}

func startState(states ThumbnailStates, m thumbnail.Media) thumbnail.State {
	if states == nil {
		return thumbnail.Start(m)
	}
	return states.State(m)
}
