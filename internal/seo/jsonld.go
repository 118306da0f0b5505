package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Organization returns an Organization schema with optional social profiles.
func Organization(name, url, logoURL string, sameAs []string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	if len(sameAs) > 0 {
		m["sameAs"] = sameAs
	}
	return m
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	return m
}

// Business describes the studio for LocalBusiness markup.
type Business struct {
	Name      string
	URL       string
	Image     string
	Telephone string
	Email     string
	Locality  string
	Country   string
	Services  []string
}

// LocalBusiness returns a LocalBusiness schema for a photography studio.
func LocalBusiness(b Business) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "LocalBusiness",
		"name":     b.Name,
	}
	if b.URL != "" {
		m["url"] = b.URL
	}
	if b.Image != "" {
		m["image"] = b.Image
	}
	if b.Telephone != "" {
		m["telephone"] = b.Telephone
	}
	if b.Email != "" {
		m["email"] = b.Email
	}
	if b.Locality != "" || b.Country != "" {
		addr := map[string]any{"@type": "PostalAddress"}
		if b.Locality != "" {
			addr["addressLocality"] = b.Locality
		}
		if b.Country != "" {
			addr["addressCountry"] = b.Country
		}
		m["address"] = addr
	}
	if len(b.Services) > 0 {
		offers := make([]map[string]any, 0, len(b.Services))
		for _, s := range b.Services {
			offers = append(offers, map[string]any{
				"@type":       "Offer",
				"itemOffered": map[string]any{"@type": "Service", "name": s},
			})
		}
		m["hasOfferCatalog"] = map[string]any{
			"@type":           "OfferCatalog",
			"name":            "Photography & Videography",
			"itemListElement": offers,
		}
	}
	return m
}
