package seo

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// DescriptionLimit is the maximum length of a generated meta description.
const DescriptionLimit = 160

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
}

type Twitter struct {
	Card  string
	Site  string
	Image string
}

type Meta struct {
	Title       string
	Description string
	Keywords    string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Twitter     Twitter
	JSONLD      []string
}

// PlainText extracts the visible text of an HTML fragment, collapsing whitespace.
func PlainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapse(b.String())
		case html.StartTagToken:
			if name, _ := z.TagName(); isHidden(string(name)) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if name, _ := z.TagName(); isHidden(string(name)) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// Description returns PlainText(fragment) cut at a word boundary to limit runes.
func Description(fragment string, limit int) string {
	text := PlainText(fragment)
	if limit <= 0 {
		limit = DescriptionLimit
	}
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	cut := string(r[:limit-1])
	if i := strings.LastIndexFunc(cut, unicode.IsSpace); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(cut, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsPunct(r) }) + "…"
}

func isHidden(tag string) bool {
	return tag == "script" || tag == "style" || tag == "template"
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
