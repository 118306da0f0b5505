package nav

import "strings"

// Item is a top-level navigation entry pointing at a section of the home page.
type Item struct {
	Anchor string // section id, e.g. "services"
	Label  string
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href   string
	Anchor string
	Label  string
	Active bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Anchor: "home", Label: "Home"},
	{Anchor: "services", Label: "Services"},
	{Anchor: "process", Label: "The Route"},
	{Anchor: "portfolio", Label: "Portfolio"},
	{Anchor: "contact", Label: "Contact"},
}

// Build renders navigation items; active is a section anchor with or without "#".
// An unknown or empty anchor marks Home active.
func Build(active string) []RenderedItem {
	active = strings.TrimPrefix(strings.TrimSpace(active), "#")
	if !Known(active) {
		active = Main[0].Anchor
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:   "#" + it.Anchor,
			Anchor: it.Anchor,
			Label:  it.Label,
			Active: it.Anchor == active,
		})
	}
	return items
}

// Known reports whether anchor names a navigable section.
func Known(anchor string) bool {
	for _, it := range Main {
		if it.Anchor == anchor {
			return true
		}
	}
	return false
}
