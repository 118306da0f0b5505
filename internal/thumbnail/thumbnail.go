package thumbnail

import (
	"fmt"
	"net/url"
	"strings"
)

// Platform is the hosting service a media item lives on.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	// PlatformImage is a plain hosted image such as a portfolio photo.
	PlatformImage Platform = "image"
)

// Supported reports whether the platform has a known embed and thumbnail scheme.
func (p Platform) Supported() bool {
	switch p {
	case PlatformYouTube, PlatformFacebook, PlatformInstagram, PlatformImage:
		return true
	}
	return false
}

// Media references a video or post by its platform identifier.
// Ref is a YouTube video id, an Instagram shortcode or a Facebook share URL.
type Media struct {
	ID        string
	Platform  Platform
	Ref       string
	Thumbnail string
}

// Kind tags the resolution state of a media thumbnail.
type Kind int

const (
	Unattempted Kind = iota
	Attempted
	Exhausted
)

func (k Kind) String() string {
	switch k {
	case Unattempted:
		return "unattempted"
	case Attempted:
		return "attempted"
	case Exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// State is the thumbnail state of one media item. Tier is meaningful only when Kind is Attempted.
type State struct {
	Kind Kind
	Tier int
}

// Chain returns the ordered candidate URLs for m. An empty chain means the item
// renders the placeholder without any fetch.
func Chain(m Media) []string {
	if !m.Platform.Supported() {
		return nil
	}
	if t := strings.TrimSpace(m.Thumbnail); t != "" {
		return []string{t}
	}
	ref := strings.TrimSpace(m.Ref)
	if ref == "" {
		return nil
	}
	switch m.Platform {
	case PlatformYouTube:
		id := url.PathEscape(ref)
		return []string{
			"https://img.youtube.com/vi/" + id + "/maxresdefault.jpg",
			"https://img.youtube.com/vi/" + id + "/hqdefault.jpg",
		}
	case PlatformInstagram:
		return []string{"https://www.instagram.com/p/" + url.PathEscape(ref) + "/media/?size=l"}
	default:
		return nil
	}
}

// Start returns the state used on first render: the first tier, or exhausted when
// the chain is empty.
func Start(m Media) State {
	if len(Chain(m)) == 0 {
		return State{Kind: Exhausted}
	}
	return State{Kind: Attempted, Tier: 0}
}

// Resolve returns the URL to load for s. ok is false once the chain is exhausted.
func Resolve(m Media, s State) (string, bool) {
	if s.Kind == Unattempted {
		s = Start(m)
	}
	if s.Kind != Attempted {
		return "", false
	}
	chain := Chain(m)
	if s.Tier < 0 || s.Tier >= len(chain) {
		return "", false
	}
	return chain[s.Tier], true
}

// Next is the load-failure transition. Tiers only move forward and Exhausted is absorbing.
func Next(m Media, s State) State {
	switch s.Kind {
	case Exhausted:
		return s
	case Unattempted:
		s = Start(m)
		if s.Kind == Exhausted {
			return s
		}
	}
	next := s.Tier + 1
	if next >= len(Chain(m)) {
		return State{Kind: Exhausted}
	}
	return State{Kind: Attempted, Tier: next}
}

// AtAttempt reconstructs the state after n reported failures from the first render.
// Negative n is treated as zero.
func AtAttempt(m Media, n int) State {
	s := Start(m)
	for i := 0; i < n && s.Kind != Exhausted; i++ {
		s = Next(m, s)
	}
	return s
}

// EmbedURL builds the player URL for m, or "" for unsupported platforms.
func EmbedURL(m Media) string {
	ref := strings.TrimSpace(m.Ref)
	if ref == "" {
		return ""
	}
	switch m.Platform {
	case PlatformYouTube:
		return "https://www.youtube.com/embed/" + url.PathEscape(ref) + "?autoplay=1&rel=0&modestbranding=1&playsinline=1"
	case PlatformFacebook:
		return "https://www.facebook.com/plugins/video.php?href=" + url.QueryEscape(ref) + "&show_text=false&t=0&autoplay=1"
	case PlatformInstagram:
		return "https://www.instagram.com/reel/" + url.PathEscape(ref) + "/embed/"
	default:
		return ""
	}
}

// Vertical reports whether the player uses a portrait aspect ratio.
func Vertical(m Media) bool {
	return m.Platform == PlatformInstagram
}
