package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ahmath-musharraf/StudioRoutes/internal/carousel"
	"github.com/ahmath-musharraf/StudioRoutes/internal/content"
	"github.com/ahmath-musharraf/StudioRoutes/internal/forms"
)

// HomeState is the UI state the home page carries in its query string so every
// interactive section also works without JavaScript.
type HomeState struct {
	VideoID         string
	Playing         bool
	PortfolioFilter string
	InstaFilter     string
	Testimonial     int
	Split           int
	Tab             forms.Kind
}

// ParseHomeState reads the state from q, clamping indices against site.
func ParseHomeState(q url.Values, site *content.Site) HomeState {
	st := HomeState{
		VideoID:         strings.TrimSpace(q.Get("video")),
		Playing:         q.Get("play") == "1",
		PortfolioFilter: content.AllCategories,
		InstaFilter:     content.AllCategories,
		Split:           carousel.ParseSplit(q.Get("split")),
		Tab:             forms.KindContact,
	}
	if site != nil {
		if _, ok := site.Video(st.VideoID); !ok {
			st.VideoID = ""
			st.Playing = false
		}
		if v := q.Get("portfolio"); contains(site.PortfolioFilters(), v) {
			st.PortfolioFilter = v
		}
		if v := q.Get("insta"); contains(site.InstagramFilters(), v) {
			st.InstaFilter = v
		}
		st.Testimonial = carousel.ParseIndex(q.Get("testimonial"), len(site.Testimonials))
	}
	if forms.Kind(q.Get("tab")) == forms.KindBooking {
		st.Tab = forms.KindBooking
	}
	return st
}

// With returns a copy of st changed by fn.
func (st HomeState) With(fn func(*HomeState)) HomeState {
	fn(&st)
	return st
}

// Href encodes the non-default parts of st followed by the section anchor.
func (st HomeState) Href(anchor string) string {
	q := url.Values{}
	if st.VideoID != "" {
		q.Set("video", st.VideoID)
	}
	if st.Playing {
		q.Set("play", "1")
	}
	if st.PortfolioFilter != "" && st.PortfolioFilter != content.AllCategories {
		q.Set("portfolio", st.PortfolioFilter)
	}
	if st.InstaFilter != "" && st.InstaFilter != content.AllCategories {
		q.Set("insta", st.InstaFilter)
	}
	if st.Testimonial != 0 {
		q.Set("testimonial", strconv.Itoa(st.Testimonial))
	}
	if st.Split != carousel.DefaultSplit {
		q.Set("split", strconv.Itoa(st.Split))
	}
	if st.Tab == forms.KindBooking {
		q.Set("tab", string(forms.KindBooking))
	}
	href := "/"
	if enc := q.Encode(); enc != "" {
		href += "?" + enc
	}
	if anchor != "" {
		href += "#" + anchor
	}
	return href
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
