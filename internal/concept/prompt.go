package concept

import (
	"fmt"
	"strings"
)

// StudioName is embedded in the creative director persona.
const StudioName = "Studio Routes"

// BuildPrompt renders the creative-director prompt for r.
func BuildPrompt(r Request) string {
	notes := strings.TrimSpace(r.Notes)
	if notes == "" {
		notes = "(none)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Act as a Creative Director for %q, a high-end photography company.\n", StudioName)
	b.WriteString("Create a brief, cinematic shoot concept based on this request:\n")
	fmt.Fprintf(&b, "Event/Type: %s\n", strings.TrimSpace(r.EventType))
	fmt.Fprintf(&b, "Notes: %s\n\n", notes)
	b.WriteString("Provide a Concept Name, a Mood description (max 20 words), a Color Palette (3-5 hex codes or color names), ")
	b.WriteString("3-5 specific Shot Ideas that tell a story, and 1-2 Location Vibe suggestions.")
	return b.String()
}
