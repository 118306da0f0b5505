package seo

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPlainText(t *testing.T) {
	got := PlainText("<p>Hello <strong>there</strong></p>\n<script>var x = 1</script><p>friend &amp; co</p>")
	if got != "Hello there friend & co" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestDescriptionTruncatesAtWord(t *testing.T) {
	long := "<p>" + strings.Repeat("studio routes ", 30) + "</p>"
	got := Description(long, 40)
	if utf8.RuneCountInString(got) > 40 {
		t.Fatalf("description too long: %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if strings.Contains(got, "rou…") {
		t.Fatalf("cut inside a word: %q", got)
	}
	if short := Description("<p>Short</p>", 40); short != "Short" {
		t.Fatalf("unexpected short description %q", short)
	}
}

func TestLocalBusinessJSON(t *testing.T) {
	raw := JSON(LocalBusiness(Business{
		Name:      "Studio Routes",
		URL:       "https://example.com",
		Telephone: "+94777436629",
		Locality:  "Colombo",
		Country:   "LK",
		Services:  []string{"Photography"},
	}))
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if m["@type"] != "LocalBusiness" {
		t.Fatalf("unexpected type %v", m["@type"])
	}
	addr, _ := m["address"].(map[string]any)
	if addr["addressLocality"] != "Colombo" {
		t.Fatalf("unexpected address %v", addr)
	}
}

func TestOrganizationSameAs(t *testing.T) {
	m := Organization("Studio Routes", "", "", []string{"https://www.instagram.com/studioroutes/"})
	if _, ok := m["url"]; ok {
		t.Fatalf("expected url omitted")
	}
	if got := m["sameAs"].([]string); len(got) != 1 {
		t.Fatalf("unexpected sameAs %v", got)
	}
}
