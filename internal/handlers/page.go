package handlers

import (
	"strings"
	"time"

	"github.com/ahmath-musharraf/StudioRoutes/internal/content"
	"github.com/ahmath-musharraf/StudioRoutes/internal/nav"
	"github.com/ahmath-musharraf/StudioRoutes/internal/seo"
)

// PageData is the root template context for a full page render.
type PageData struct {
	Title     string
	Lang      string
	Path      string
	SEO       seo.Meta
	Analytics Analytics
	Nav       []nav.RenderedItem
	Brand     content.Brand
	Contact   content.Contact
	Socials   []content.Link
	CSRFToken string
	Year      int
	Dev       bool

	Home HomeData
}

// BuildPage assembles the page shell around home.
func BuildPage(site *content.Site, baseURL string, home HomeData) PageData {
	meta := BuildSEO(site, baseURL)
	return PageData{
		Title:   meta.Title,
		Lang:    "en",
		Path:    "/",
		SEO:     meta,
		Nav:     nav.Build(""),
		Brand:   site.Brand,
		Contact: site.Contact,
		Socials: site.Socials,
		Year:    time.Now().Year(),
		Home:    home,
	}
}

// BuildSEO builds head metadata and structured data for the home page.
func BuildSEO(site *content.Site, baseURL string) seo.Meta {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	canonical := base + "/"
	if base == "" {
		canonical = ""
	}

	title := site.SEO.Title
	if title == "" {
		title = site.Brand.Name
	}
	desc := seo.Description(site.SEO.Description, seo.DescriptionLimit)
	if desc == "" {
		desc = seo.Description(string(site.Section("founder").HTML), seo.DescriptionLimit)
	}
	image := site.SEO.OGImage
	if image == "" && len(site.Hero.Images) > 0 {
		image = site.Hero.Images[0].URL
	}

	sameAs := make([]string, 0, len(site.Socials))
	for _, l := range site.Socials {
		if l.URL != "" {
			sameAs = append(sameAs, l.URL)
		}
	}
	services := make([]string, 0, len(site.Services))
	for _, s := range site.Services {
		services = append(services, s.Title)
	}
	locality, country := splitLocation(site.Contact.Location)

	return seo.Meta{
		Title:       title,
		Description: desc,
		Keywords:    strings.Join(site.SEO.Keywords, ", "),
		Canonical:   canonical,
		Robots:      "index,follow",
		OG: seo.OpenGraph{
			Title:       title,
			Description: desc,
			Image:       image,
			Type:        "website",
			URL:         canonical,
			SiteName:    site.Brand.Name,
		},
		Twitter: seo.Twitter{Card: "summary_large_image", Image: image},
		JSONLD: []string{
			seo.JSON(seo.Organization(site.Brand.Name, canonical, site.Brand.Logo, sameAs)),
			seo.JSON(seo.WebSite(site.Brand.Name, canonical)),
			seo.JSON(seo.LocalBusiness(seo.Business{
				Name:      site.Brand.Name,
				URL:       canonical,
				Image:     site.Brand.Logo,
				Telephone: strings.TrimPrefix(site.Contact.PhoneHref, "tel:"),
				Email:     site.Contact.Email,
				Locality:  locality,
				Country:   country,
				Services:  services,
			})),
		},
	}
}

// splitLocation turns "Colombo, Sri Lanka" into its locality and country.
func splitLocation(loc string) (string, string) {
	before, after, ok := strings.Cut(loc, ",")
	if !ok {
		return strings.TrimSpace(loc), ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}
