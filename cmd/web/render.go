package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ahmath-musharraf/StudioRoutes/internal/observability"
)

var funcMap = template.FuncMap{
	"now": time.Now,
	// jsonld marks pre-encoded structured data as a script body.
	"jsonld": func(s string) template.JS { return template.JS(s) },
	"add":    func(a, b int) int { return a + b },
	"join":   strings.Join,
	"lower":  strings.ToLower,
	"pct":    func(v int) template.CSS { return template.CSS(fmt.Sprintf("%d%%", v)) },
	"tel":    telURL,
}

// telURL passes tel: links through the URL sanitizer, which only trusts http(s) and mailto.
func telURL(href string) template.URL {
	num, ok := strings.CutPrefix(strings.TrimSpace(href), "tel:")
	if !ok || num == "" {
		return template.URL("#")
	}
	for _, r := range num {
		if (r < '0' || r > '9') && r != '+' && r != '-' && r != ' ' {
			return template.URL("#")
		}
	}
	return template.URL("tel:" + strings.ReplaceAll(num, " ", ""))
}

func parseTemplates() (*template.Template, error) {
	// Recursively discover and parse all .tmpl files. Note: ParseGlob doesn't support **.
	var files []string
	if err := filepath.WalkDir(templatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", templatesDir)
	}
	return template.New("_root").Funcs(funcMap).ParseFiles(files...)
}

func templates() (*template.Template, error) {
	if devMode {
		return parseTemplates()
	}
	if tmplCache == nil {
		return nil, fmt.Errorf("template not initialized")
	}
	return tmplCache, nil
}

// render executes the base layout. In dev mode, templates are reparsed on each request.
func render(w http.ResponseWriter, r *http.Request, data any) {
	renderTemplate(w, r, http.StatusOK, "base", data)
}

// renderFragment executes a single named template for htmx swaps.
func renderFragment(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	renderTemplate(w, r, status, name, data)
}

func renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, err := templates()
	if err != nil {
		observability.FromContext(r.Context()).Error("template parse", zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	// buffer so a failing template never leaves a half-written page
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		observability.FromContext(r.Context()).Error("template exec", zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
