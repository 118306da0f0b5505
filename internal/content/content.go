// Package content loads the site copy, media catalogue and markdown sections
// that the home page renders.
package content

import (
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ahmath-musharraf/StudioRoutes/internal/thumbnail"
)

const (
	siteFile    = "site.yaml"
	sectionsDir = "sections"

	// AllCategories is the filter value that shows every item.
	AllCategories = "All"
)

// ErrInvalid is returned when the bundle parses but is inconsistent.
var ErrInvalid = errors.New("content: invalid site bundle")

// Site is the full content bundle.
type Site struct {
	Brand        Brand         `yaml:"brand"`
	SEO          SEO           `yaml:"seo"`
	Contact      Contact       `yaml:"contact"`
	Socials      []Link        `yaml:"socials"`
	Hero         Hero          `yaml:"hero"`
	Services     []Service     `yaml:"services"`
	Process      []Step        `yaml:"process"`
	Videos       []Video       `yaml:"videos"`
	Portfolio    Portfolio     `yaml:"portfolio"`
	Instagram    Instagram     `yaml:"instagram"`
	Testimonials []Testimonial `yaml:"testimonials"`
	BeforeAfter  BeforeAfter   `yaml:"before_after"`
	Planner      Planner       `yaml:"planner"`
	Forms        FormOptions   `yaml:"forms"`

	Sections map[string]Section `yaml:"-"`
}

type Brand struct {
	Name    string `yaml:"name"`
	Tagline string `yaml:"tagline"`
	Logo    string `yaml:"logo"`
	Credit  Link   `yaml:"credit"`
}

type SEO struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	OGImage     string   `yaml:"og_image"`
	Keywords    []string `yaml:"keywords"`
}

type Contact struct {
	Phone     string `yaml:"phone"`
	PhoneHref string `yaml:"phone_href"`
	Email     string `yaml:"email"`
	Location  string `yaml:"location"`
	WhatsApp  string `yaml:"whatsapp"`
}

type Link struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type Hero struct {
	Eyebrow   string      `yaml:"eyebrow"`
	Title     string      `yaml:"title"`
	Highlight string      `yaml:"highlight"`
	Subtitle  string      `yaml:"subtitle"`
	Images    []HeroImage `yaml:"images"`
}

type HeroImage struct {
	URL   string `yaml:"url"`
	Alt   string `yaml:"alt"`
	Style string `yaml:"style"`
}

type Service struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type Step struct {
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	Description string `yaml:"description"`
}

// Video is a showcase entry hosted on one of the supported platforms.
type Video struct {
	ID        string             `yaml:"id"`
	Platform  thumbnail.Platform `yaml:"platform"`
	Ref       string             `yaml:"ref"`
	Title     string             `yaml:"title"`
	Category  string             `yaml:"category"`
	Duration  string             `yaml:"duration"`
	Thumbnail string             `yaml:"thumbnail"`
}

// Media returns the thumbnail resolver view of v.
func (v Video) Media() thumbnail.Media {
	return thumbnail.Media{ID: v.ID, Platform: v.Platform, Ref: v.Ref, Thumbnail: v.Thumbnail}
}

type Portfolio struct {
	Categories    []string        `yaml:"categories"`
	FallbackImage string          `yaml:"fallback_image"`
	Items         []PortfolioItem `yaml:"items"`
}

type PortfolioItem struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	Image    string `yaml:"image"`
	Width    string `yaml:"width"`
	Tall     bool   `yaml:"tall"`
}

// Media returns the thumbnail resolver view of p.
func (p PortfolioItem) Media() thumbnail.Media {
	return thumbnail.Media{ID: p.ID, Platform: thumbnail.PlatformImage, Thumbnail: p.Image}
}

type Instagram struct {
	Handle string          `yaml:"handle"`
	Posts  []InstagramPost `yaml:"posts"`
}

type InstagramPost struct {
	ID        string `yaml:"id"`
	Category  string `yaml:"category"`
	Ref       string `yaml:"ref"`
	Image     string `yaml:"image"`
	Likes     string `yaml:"likes"`
	Permalink string `yaml:"permalink"`
}

// Media returns the thumbnail resolver view of p.
func (p InstagramPost) Media() thumbnail.Media {
	return thumbnail.Media{ID: p.ID, Platform: thumbnail.PlatformInstagram, Ref: p.Ref, Thumbnail: p.Image}
}

type Testimonial struct {
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
	Image string `yaml:"image"`
	Quote string `yaml:"quote"`
}

type BeforeAfter struct {
	Before      string `yaml:"before"`
	BeforeLabel string `yaml:"before_label"`
	After       string `yaml:"after"`
	AfterLabel  string `yaml:"after_label"`
}

type Planner struct {
	Options []Option `yaml:"options"`
}

type Option struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type FormOptions struct {
	Services     []string `yaml:"services"`
	SessionTypes []string `yaml:"session_types"`
}

// Section is a markdown block rendered to sanitised HTML.
type Section struct {
	Slug    string
	Title   string
	Eyebrow string
	Meta    map[string]string
	HTML    template.HTML
}

// Load reads site.yaml and sections/*.md from dir.
func Load(dir string) (*Site, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "content"
	}
	raw, err := os.ReadFile(filepath.Join(dir, siteFile))
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", siteFile, err)
	}
	var site Site
	if err := yaml.Unmarshal(raw, &site); err != nil {
		return nil, fmt.Errorf("content: parse %s: %w", siteFile, err)
	}
	site.Sections, err = loadSections(filepath.Join(dir, sectionsDir))
	if err != nil {
		return nil, err
	}
	if err := site.validate(); err != nil {
		return nil, err
	}
	return &site, nil
}

func (s *Site) validate() error {
	var problems []string
	if strings.TrimSpace(s.Brand.Name) == "" {
		problems = append(problems, "brand.name is required")
	}
	seen := map[string]string{}
	claim := func(kind, id string) {
		if strings.TrimSpace(id) == "" {
			problems = append(problems, kind+" without id")
			return
		}
		if prev, dup := seen[id]; dup {
			problems = append(problems, fmt.Sprintf("%s id %q already used by a %s", kind, id, prev))
			return
		}
		seen[id] = kind
	}
	for _, v := range s.Videos {
		claim("video", v.ID)
		if !v.Platform.Supported() {
			problems = append(problems, fmt.Sprintf("video %q has unsupported platform %q", v.ID, v.Platform))
		}
	}
	for _, p := range s.Portfolio.Items {
		claim("portfolio item", p.ID)
	}
	for _, p := range s.Instagram.Posts {
		claim("instagram post", p.ID)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Section returns the named markdown section or an empty one.
func (s *Site) Section(slug string) Section {
	if s == nil {
		return Section{}
	}
	return s.Sections[slug]
}

// Video returns the video with id.
func (s *Site) Video(id string) (Video, bool) {
	for _, v := range s.Videos {
		if v.ID == id {
			return v, true
		}
	}
	return Video{}, false
}

// Media finds any catalogue entry by id.
func (s *Site) Media(id string) (thumbnail.Media, bool) {
	for _, m := range s.AllMedia() {
		if m.ID == id {
			return m, true
		}
	}
	return thumbnail.Media{}, false
}

// AllMedia lists every item that shows a thumbnail.
func (s *Site) AllMedia() []thumbnail.Media {
	out := make([]thumbnail.Media, 0, len(s.Videos)+len(s.Portfolio.Items)+len(s.Instagram.Posts))
	for _, v := range s.Videos {
		out = append(out, v.Media())
	}
	for _, p := range s.Portfolio.Items {
		out = append(out, p.Media())
	}
	for _, p := range s.Instagram.Posts {
		out = append(out, p.Media())
	}
	return out
}

// PortfolioFilters returns "All" followed by the configured categories.
func (s *Site) PortfolioFilters() []string {
	return append([]string{AllCategories}, s.Portfolio.Categories...)
}

// PortfolioItems returns the items in category, or all of them.
func (s *Site) PortfolioItems(category string) []PortfolioItem {
	if category == "" || category == AllCategories {
		return s.Portfolio.Items
	}
	var out []PortfolioItem
	for _, it := range s.Portfolio.Items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// InstagramFilters returns "All" followed by the distinct post categories in order of appearance.
func (s *Site) InstagramFilters() []string {
	out := []string{AllCategories}
	seen := map[string]bool{}
	for _, p := range s.Instagram.Posts {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

// InstagramPosts returns the posts in category, or all of them.
func (s *Site) InstagramPosts(category string) []InstagramPost {
	if category == "" || category == AllCategories {
		return s.Instagram.Posts
	}
	var out []InstagramPost
	for _, p := range s.Instagram.Posts {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// SectionSlugs lists loaded sections, sorted.
func (s *Site) SectionSlugs() []string {
	out := make([]string, 0, len(s.Sections))
	for k := range s.Sections {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
