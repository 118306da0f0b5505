package handlers

import (
	"fmt"
	"strconv"

	"github.com/ahmath-musharraf/StudioRoutes/internal/carousel"
	"github.com/ahmath-musharraf/StudioRoutes/internal/concept"
	"github.com/ahmath-musharraf/StudioRoutes/internal/content"
	"github.com/ahmath-musharraf/StudioRoutes/internal/forms"
	"github.com/ahmath-musharraf/StudioRoutes/internal/thumbnail"
)

// HomeData is the view model for the home page.
type HomeData struct {
	State        HomeState
	Hero         HeroView
	Services     SectionView[content.Service]
	Process      SectionView[StepView]
	Founder      content.Section
	Planner      PlannerView
	Showcase     ShowcaseView
	Portfolio    PortfolioView
	Instagram    InstagramView
	Edit         BeforeAfterView
	Testimonials TestimonialsView
	Contact      ContactView
}

type HeroView struct {
	content.Hero
	IntervalMs int64
}

type SectionView[T any] struct {
	Section content.Section
	Items   []T
}

type StepView struct {
	Number string
	content.Step
}

type PlannerView struct {
	Section   content.Section
	Options   []content.Option
	Selected  string
	Notes     string
	Plan      *concept.Plan
	Error     string
	CSRFToken string
}

type ShowcaseView struct {
	Active   VideoView
	Playing  bool
	EmbedURL string
	Vertical bool
	PlayHref string
	Items    []VideoView
}

type VideoView struct {
	content.Video
	Thumb  Thumb
	Active bool
	Href   string
}

type FilterView struct {
	Label  string
	Href   string
	Active bool
}

type TileView struct {
	ID        string
	Title     string
	Category  string
	Width     string
	Tall      bool
	Likes     string
	Permalink string
	Thumb     Thumb
}

type PortfolioView struct {
	Filters []FilterView
	Items   []TileView
}

type InstagramView struct {
	Handle     string
	ProfileURL string
	Filters    []FilterView
	Posts      []TileView
}

type BeforeAfterView struct {
	Section content.Section
	content.BeforeAfter
	Split int
}

type TestimonialsView struct {
	Current    content.Testimonial
	Index      int
	Count      int
	PrevHref   string
	NextHref   string
	Dots       []FilterView
	IntervalMs int64
}

type ContactView struct {
	Section      content.Section
	Contact      content.Contact
	Tab          forms.Kind
	ContactHref  string
	BookingHref  string
	ContactForm  forms.FieldSet
	BookingForm  forms.FieldSet
	Services     []string
	SessionTypes []string
	CSRFToken    string

	// Set after a successful dispatch.
	Notice         string
	DispatchURL    string
	DismissAfterMs int64
}

// Form returns the field set of the active tab.
func (c ContactView) Form() forms.FieldSet {
	if c.Tab == forms.KindBooking {
		return c.BookingForm
	}
	return c.ContactForm
}

// BuildHomeData constructs the landing page view model for st.
func BuildHomeData(site *content.Site, st HomeState, states ThumbnailStates) HomeData {
	return HomeData{
		State: st,
		Hero: HeroView{
			Hero:       site.Hero,
			IntervalMs: carousel.HeroInterval.Milliseconds(),
		},
		Services: SectionView[content.Service]{
			Section: site.Section("services"),
			Items:   site.Services,
		},
		Process: SectionView[StepView]{
			Items: buildSteps(site.Process),
		},
		Founder:      site.Section("founder"),
		Planner:      BuildPlannerView(site),
		Showcase:     buildShowcase(site, st, states),
		Portfolio:    buildPortfolio(site, st, states),
		Instagram:    buildInstagram(site, st, states),
		Edit:         BeforeAfterView{Section: site.Section("edit"), BeforeAfter: site.BeforeAfter, Split: st.Split},
		Testimonials: buildTestimonials(site, st),
		Contact:      BuildContactView(site, st, forms.Defaults(forms.KindContact), forms.Defaults(forms.KindBooking)),
	}
}

// BuildPlannerView returns the empty planner with the first option selected.
func BuildPlannerView(site *content.Site) PlannerView {
	v := PlannerView{
		Section: site.Section("planner"),
		Options: site.Planner.Options,
	}
	if len(v.Options) > 0 {
		v.Selected = v.Options[0].Value
	}
	return v
}

// WithToken stamps the CSRF token into the views that render forms.
func (h *HomeData) WithToken(token string) {
	h.Planner.CSRFToken = token
	h.Contact.CSRFToken = token
}

// BuildContactView renders the contact block around the given form states.
func BuildContactView(site *content.Site, st HomeState, contact, booking forms.FieldSet) ContactView {
	return ContactView{
		Section:      site.Section("contact"),
		Contact:      site.Contact,
		Tab:          st.Tab,
		ContactHref:  st.With(func(s *HomeState) { s.Tab = forms.KindContact }).Href("contact"),
		BookingHref:  st.With(func(s *HomeState) { s.Tab = forms.KindBooking }).Href("contact"),
		ContactForm:  contact,
		BookingForm:  booking,
		Services:     site.Forms.Services,
		SessionTypes: site.Forms.SessionTypes,
	}
}

func buildSteps(steps []content.Step) []StepView {
	out := make([]StepView, 0, len(steps))
	for i, s := range steps {
		out = append(out, StepView{Number: fmt.Sprintf("%02d", i+1), Step: s})
	}
	return out
}

func buildShowcase(site *content.Site, st HomeState, states ThumbnailStates) ShowcaseView {
	var view ShowcaseView
	if len(site.Videos) == 0 {
		return view
	}
	active := site.Videos[0]
	if v, ok := site.Video(st.VideoID); ok {
		active = v
	}
	for _, v := range site.Videos {
		m := v.Media()
		vv := VideoView{
			Video:  v,
			Thumb:  ThumbFor(m, startState(states, m), "", v.Title),
			Active: v.ID == active.ID,
			Href: st.With(func(s *HomeState) {
				s.VideoID = v.ID
				s.Playing = false
			}).Href("portfolio"),
		}
		view.Items = append(view.Items, vv)
		if vv.Active {
			view.Active = vv
		}
	}
	m := active.Media()
	view.Playing = st.Playing
	view.EmbedURL = thumbnail.EmbedURL(m)
	view.Vertical = thumbnail.Vertical(m)
	view.PlayHref = st.With(func(s *HomeState) {
		s.VideoID = active.ID
		s.Playing = true
	}).Href("portfolio")
	if view.EmbedURL == "" {
		view.Playing = false
	}
	return view
}

func buildPortfolio(site *content.Site, st HomeState, states ThumbnailStates) PortfolioView {
	var view PortfolioView
	for _, f := range site.PortfolioFilters() {
		view.Filters = append(view.Filters, FilterView{
			Label:  f,
			Href:   st.With(func(s *HomeState) { s.PortfolioFilter = f }).Href("portfolio"),
			Active: f == st.PortfolioFilter,
		})
	}
	for _, it := range site.PortfolioItems(st.PortfolioFilter) {
		m := it.Media()
		view.Items = append(view.Items, TileView{
			ID:       it.ID,
			Title:    it.Title,
			Category: it.Category,
			Width:    it.Width,
			Tall:     it.Tall,
			Thumb:    ThumbFor(m, startState(states, m), site.Portfolio.FallbackImage, it.Title),
		})
	}
	return view
}

func buildInstagram(site *content.Site, st HomeState, states ThumbnailStates) InstagramView {
	view := InstagramView{Handle: site.Instagram.Handle}
	for _, l := range site.Socials {
		if l.Name == "Instagram" {
			view.ProfileURL = l.URL
		}
	}
	for _, f := range site.InstagramFilters() {
		view.Filters = append(view.Filters, FilterView{
			Label:  f,
			Href:   st.With(func(s *HomeState) { s.InstaFilter = f }).Href("instagram"),
			Active: f == st.InstaFilter,
		})
	}
	for _, p := range site.InstagramPosts(st.InstaFilter) {
		m := p.Media()
		view.Posts = append(view.Posts, TileView{
			ID:        p.ID,
			Category:  p.Category,
			Likes:     p.Likes,
			Permalink: p.Permalink,
			Thumb:     ThumbFor(m, startState(states, m), site.Portfolio.FallbackImage, "Instagram post showing "+p.Category),
		})
	}
	return view
}

func buildTestimonials(site *content.Site, st HomeState) TestimonialsView {
	n := len(site.Testimonials)
	view := TestimonialsView{Count: n, IntervalMs: carousel.TestimonialInterval.Milliseconds()}
	if n == 0 {
		return view
	}
	i := carousel.Clamp(st.Testimonial, n)
	view.Index = i
	view.Current = site.Testimonials[i]
	at := func(j int) string {
		return st.With(func(s *HomeState) { s.Testimonial = j }).Href("testimonials")
	}
	view.PrevHref = at(carousel.Prev(i, n))
	view.NextHref = at(carousel.Next(i, n))
	for j := 0; j < n; j++ {
		view.Dots = append(view.Dots, FilterView{Label: strconv.Itoa(j + 1), Href: at(j), Active: j == i})
	}
	return view
}

func itoa(i int) string { return strconv.Itoa(i) }
