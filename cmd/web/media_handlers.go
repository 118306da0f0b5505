package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ahmath-musharraf/StudioRoutes/internal/handlers"
	"github.com/ahmath-musharraf/StudioRoutes/internal/thumbnail"
)

// thumbnailHandler returns the <img> for the next tier of a media thumbnail, or the
// placeholder once the chain is exhausted. The client calls it from the image's error handler.
func (a *app) thumbnailHandler(w http.ResponseWriter, r *http.Request) {
	site, ok := a.site(w, r)
	if !ok {
		return
	}
	m, ok := site.Media(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	attempt := 0
	if raw := r.URL.Query().Get("attempt"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid attempt", http.StatusBadRequest)
			return
		}
		attempt = n
	}
	fallback := ""
	if m.Platform == thumbnail.PlatformImage || m.Platform == thumbnail.PlatformInstagram {
		fallback = site.Portfolio.FallbackImage
	}
	thumb := handlers.ThumbAt(m, attempt, fallback, site.Brand.Name)
	w.Header().Set("Cache-Control", "no-store")
	renderFragment(w, r, http.StatusOK, "thumb", thumb)
}
