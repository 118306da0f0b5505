package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify))
	policy   = bluemonday.UGCPolicy()
)

// RenderMarkdown converts md to sanitised HTML.
func RenderMarkdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("content: render markdown: %w", err)
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}

func loadSections(dir string) (map[string]Section, error) {
	out := map[string]Section{}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("content: list sections: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		slug := strings.TrimSuffix(e.Name(), ".md")
		sec, err := readSection(filepath.Join(dir, e.Name()), slug)
		if err != nil {
			return nil, err
		}
		out[slug] = sec
	}
	return out, nil
}

func readSection(path, slug string) (Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Section{}, err
	}
	fm, body := splitFrontMatter(string(data))
	meta := map[string]string{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &meta); err != nil {
			return Section{}, fmt.Errorf("content: parse front matter %s: %w", path, err)
		}
	}
	html, err := RenderMarkdown(body)
	if err != nil {
		return Section{}, err
	}
	return Section{
		Slug:    slug,
		Title:   strings.TrimSpace(meta["title"]),
		Eyebrow: strings.TrimSpace(meta["eyebrow"]),
		Meta:    meta,
		HTML:    html,
	}, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}
