package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ahmath-musharraf/StudioRoutes/internal/content"
	"github.com/ahmath-musharraf/StudioRoutes/internal/handlers"
	mw "github.com/ahmath-musharraf/StudioRoutes/internal/middleware"
	"github.com/ahmath-musharraf/StudioRoutes/internal/observability"
)

// homeHandler renders the landing page for the state carried in the query string.
func (a *app) homeHandler(w http.ResponseWriter, r *http.Request) {
	site, ok := a.site(w, r)
	if !ok {
		return
	}
	page := a.page(r, site, handlers.ParseHomeState(r.URL.Query(), site))
	render(w, r, page)
}

// page builds the full-page view model; handlers mutate Home before rendering.
func (a *app) page(r *http.Request, site *content.Site, st handlers.HomeState) handlers.PageData {
	home := handlers.BuildHomeData(site, st, a.prober)
	token := mw.CSRFToken(r)
	home.WithToken(token)
	page := handlers.BuildPage(site, a.cfg.Site.BaseURL, home)
	page.Analytics = a.analytics
	page.CSRFToken = token
	page.Dev = devMode
	return page
}

func (a *app) site(w http.ResponseWriter, r *http.Request) (*content.Site, bool) {
	site, err := a.content.Site()
	if err != nil {
		observability.FromContext(r.Context()).Error("content unavailable", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return nil, false
	}
	return site, true
}
