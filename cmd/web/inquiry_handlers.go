package main

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ahmath-musharraf/StudioRoutes/internal/forms"
	"github.com/ahmath-musharraf/StudioRoutes/internal/handlers"
	"github.com/ahmath-musharraf/StudioRoutes/internal/inquiry"
	mw "github.com/ahmath-musharraf/StudioRoutes/internal/middleware"
	"github.com/ahmath-musharraf/StudioRoutes/internal/observability"
)

// inquiryDispatchedEvent is the HX-Trigger event the client listens for to open the link.
const inquiryDispatchedEvent = "inquiry:dispatched"

type inquiryEvent struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	Notice         string `json:"notice"`
	DismissAfterMs int64  `json:"dismissAfterMs"`
}

// inquiryHandler validates a contact or booking form and turns it into a WhatsApp deep link.
// Invalid forms are re-rendered with their errors; valid ones are reset after dispatch.
func (a *app) inquiryHandler(kind forms.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := observability.FromContext(r.Context())
		site, ok := a.site(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			mw.WriteError(w, r, http.StatusBadRequest, "invalid form")
			return
		}

		fs := forms.FromForm(kind, r.PostForm)
		fs.Validate()
		contact, booking := forms.Defaults(forms.KindContact), forms.Defaults(forms.KindBooking)
		st := handlers.ParseHomeState(nil, site)
		st.Tab = kind

		place := func() {
			if kind == forms.KindBooking {
				booking = fs
			} else {
				contact = fs
			}
		}

		if !fs.Valid() {
			place()
			view := handlers.BuildContactView(site, st, contact, booking)
			a.inquiryReply(w, r, http.StatusUnprocessableEntity, st, view)
			return
		}

		res, err := a.inquiry.Dispatch(r.Context(), fs)
		if err != nil {
			if r.Context().Err() != nil {
				return
			}
			logger.Error("inquiry dispatch failed", zap.String("kind", string(kind)), zap.Error(err))
			status := http.StatusInternalServerError
			if errors.Is(err, inquiry.ErrInvalidForm) {
				status = http.StatusUnprocessableEntity
			}
			mw.WriteError(w, r, status, "Unable to send your message. Please try again.")
			return
		}

		if !mw.IsHTMX(r.Context()) {
			http.Redirect(w, r, res.URL, http.StatusSeeOther)
			return
		}
		if err := mw.Trigger(w, inquiryDispatchedEvent, inquiryEvent{
			ID:             res.ID,
			URL:            res.URL,
			Notice:         res.Notice,
			DismissAfterMs: res.DismissAfter.Milliseconds(),
		}); err != nil {
			logger.Warn("encode HX-Trigger", zap.Error(err))
		}
		fs.Reset()
		place()
		view := handlers.BuildContactView(site, st, contact, booking)
		view.Notice = res.Notice
		view.DispatchURL = res.URL
		view.DismissAfterMs = res.DismissAfter.Milliseconds()
		a.inquiryReply(w, r, http.StatusOK, st, view)
	}
}

func (a *app) inquiryReply(w http.ResponseWriter, r *http.Request, status int, st handlers.HomeState, view handlers.ContactView) {
	view.CSRFToken = mw.CSRFToken(r)
	if mw.IsHTMX(r.Context()) {
		renderFragment(w, r, status, "contact_panel", view)
		return
	}
	site, ok := a.site(w, r)
	if !ok {
		return
	}
	page := a.page(r, site, st)
	page.Home.Contact = view
	renderTemplate(w, r, status, "base", page)
}
