package main

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ahmath-musharraf/StudioRoutes/internal/concept"
	"github.com/ahmath-musharraf/StudioRoutes/internal/handlers"
	mw "github.com/ahmath-musharraf/StudioRoutes/internal/middleware"
	"github.com/ahmath-musharraf/StudioRoutes/internal/observability"
)

const (
	conceptErrorMessage   = "Unable to generate plan at this moment. Please try again."
	conceptPendingMessage = "A concept is already being generated. Please wait."
	conceptLimitedMessage = "Too many requests. Please try again in a minute."
)

type conceptResponse struct {
	Plan  *concept.Plan `json:"plan,omitempty"`
	Error string        `json:"error,omitempty"`
}

// conceptHandler generates a shoot concept. One request per session may be in flight;
// results for requests whose client went away are dropped.
func (a *app) conceptHandler(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())
	site, ok := a.site(w, r)
	if !ok {
		return
	}
	view := handlers.BuildPlannerView(site)
	view.CSRFToken = mw.CSRFToken(r)
	if v := strings.TrimSpace(r.PostFormValue("event_type")); v != "" {
		view.Selected = v
	}
	view.Notes = strings.TrimSpace(r.PostFormValue("notes"))

	release, ok := a.gate.TryAcquire(mw.GetSession(r).ID)
	if !ok {
		view.Error = conceptPendingMessage
		a.conceptReply(w, r, http.StatusConflict, view)
		return
	}
	defer release()

	plan, err := a.concept.GenerateConcept(r.Context(), view.Selected, view.Notes)
	if r.Context().Err() != nil {
		logger.Debug("concept result discarded", zap.Error(r.Context().Err()))
		return
	}
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, concept.ErrConfiguration) {
			status = http.StatusServiceUnavailable
		}
		logger.Warn("concept request failed", zap.Error(err))
		view.Error = conceptErrorMessage
		a.conceptReply(w, r, status, view)
		return
	}
	view.Plan = &plan
	a.conceptReply(w, r, http.StatusOK, view)
}

// conceptLimited answers requests rejected by the rate limiter.
func (a *app) conceptLimited(w http.ResponseWriter, r *http.Request) {
	view := handlers.PlannerView{Error: conceptLimitedMessage, CSRFToken: mw.CSRFToken(r)}
	a.conceptReply(w, r, http.StatusTooManyRequests, view)
}

// conceptReply writes JSON, an htmx fragment or the full page with the planner filled in.
func (a *app) conceptReply(w http.ResponseWriter, r *http.Request, status int, view handlers.PlannerView) {
	switch {
	case wantsJSON(r):
		mw.WriteJSON(w, status, conceptResponse{Plan: view.Plan, Error: view.Error})
	case mw.IsHTMX(r.Context()):
		renderFragment(w, r, status, "concept_result", view)
	default:
		site, ok := a.site(w, r)
		if !ok {
			return
		}
		page := a.page(r, site, handlers.ParseHomeState(nil, site))
		page.Home.Planner = view
		renderTemplate(w, r, status, "base", page)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
