package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ahmath-musharraf/StudioRoutes/internal/concept"
	"github.com/ahmath-musharraf/StudioRoutes/internal/config"
	"github.com/ahmath-musharraf/StudioRoutes/internal/content"
	"github.com/ahmath-musharraf/StudioRoutes/internal/forms"
	"github.com/ahmath-musharraf/StudioRoutes/internal/handlers"
	"github.com/ahmath-musharraf/StudioRoutes/internal/inquiry"
	mw "github.com/ahmath-musharraf/StudioRoutes/internal/middleware"
	"github.com/ahmath-musharraf/StudioRoutes/internal/ratelimit"
	"github.com/ahmath-musharraf/StudioRoutes/internal/thumbnail"
)

type fakeGenerator struct {
	plan    concept.Plan
	err     error
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (f *fakeGenerator) GenerateConcept(ctx context.Context, eventType, notes string) (concept.Plan, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return concept.Plan{}, ctx.Err()
		}
	}
	return f.plan, f.err
}

var testPlan = concept.Plan{
	ConceptName:    "Golden Hour Vows",
	Mood:           "Warm, windswept and quietly cinematic",
	ColorPalette:   []string{"#C9A227", "#1B1B1B", "ivory"},
	SuggestedShots: []string{"Veil in the wind", "Footprints at dusk", "Silhouette on rocks"},
	LocationIdeas:  "Rocky cove at sunset",
}

// newTestApp builds the app like main(), with fakes for the model and probe.
func newTestApp(t *testing.T, gen concept.Generator, limiter ratelimit.Limiter) *app {
	t.Helper()
	// ensure templates reparse each request and set correct paths
	devMode = true
	templatesDir = "../../templates"
	publicDir = "../../public"
	if _, err := parseTemplates(); err != nil {
		t.Fatalf("parseTemplates failed: %v", err)
	}
	if gen == nil {
		gen = &fakeGenerator{plan: testPlan}
	}
	if limiter == nil {
		limiter = ratelimit.NewMemory(100, time.Minute, nil)
	}
	cfg := config.Config{
		Site:    config.SiteConfig{ContentDir: "../../content", BaseURL: "https://studioroutes.test"},
		Inquiry: config.InquiryConfig{WhatsAppNumber: "94777436629"},
	}
	site, err := content.Load(cfg.Site.ContentDir)
	if err != nil {
		t.Fatalf("load content: %v", err)
	}
	store := content.NewStaticStore(site)
	return &app{
		cfg:       cfg,
		logger:    zap.NewNop(),
		content:   store,
		concept:   gen,
		gate:      concept.NewGate(),
		limiter:   limiter,
		inquiry:   inquiry.NewDispatcher(cfg.Inquiry.WhatsAppNumber, nil),
		prober:    thumbnail.NewProber(nil, nil),
		sessions:  mw.NewSessions(mw.SessionOptions{SigningKey: "test-key"}),
		analytics: handlers.Analytics{GA4MeasurementID: "G-TEST123"},
	}
}

func newTestRouter(t *testing.T, gen concept.Generator) http.Handler {
	t.Helper()
	return newTestApp(t, gen, nil).routes()
}

// browser carries the cookies and CSRF token issued by GET /.
type browser struct {
	cookies []*http.Cookie
	token   string
}

func newBrowser(t *testing.T, srv http.Handler) browser {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	b := browser{cookies: rec.Result().Cookies()}
	for _, c := range b.cookies {
		if c.Name == "csrf_token" {
			b.token = c.Value
		}
	}
	if b.token == "" {
		t.Fatalf("missing csrf_token cookie from GET /")
	}
	return b
}

func (b browser) post(path string, form url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(mw.CSRFHeader, b.token)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	return req
}

func parseDoc(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func byID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && attr(n, "id") == id }
}

func byTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == tag }
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestHealthzOK(t *testing.T) {
	srv := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "ok" {
		t.Fatalf("expected body 'ok', got %q", got)
	}
}

func TestHomeRendersEverySection(t *testing.T) {
	srv := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	doc := parseDoc(t, rec.Body.String())
	for _, id := range []string{"home", "services", "process", "founder", "showcase", "portfolio", "planner", "edit", "instagram", "testimonials", "contact", "contact-panel"} {
		if findNode(doc, byID(id)) == nil {
			t.Errorf("missing section #%s", id)
		}
	}
	body := rec.Body.String()
	for _, want := range []string{`"@type":"LocalBusiness"`, `"@type":"Organization"`, "G-TEST123", "Capturing Your", "mailto:teamstudioroutes@gmail.com", "Mushi Editz"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in body", want)
		}
	}
	for _, href := range []string{"mailto:teamstudioroutes@gmail.com", "tel:+94777436629"} {
		if findNode(doc, func(n *html.Node) bool { return byTag("a")(n) && attr(n, "href") == href }) == nil {
			t.Errorf("expected link with href %q", href)
		}
	}
	if top := findNode(doc, func(n *html.Node) bool { return hasAttr(n, "data-to-top") }); top == nil || attr(top, "href") != "#home" || !hasAttr(top, "hidden") {
		t.Errorf("expected hidden scroll-to-top link targeting #home")
	}
	if canon := findNode(doc, func(n *html.Node) bool { return byTag("link")(n) && attr(n, "rel") == "canonical" }); canon == nil || attr(canon, "href") != "https://studioroutes.test/" {
		t.Errorf("expected canonical link to base URL")
	}
}

func TestHomePlaysSelectedVideo(t *testing.T) {
	srv := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?video=3&play=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	iframe := findNode(parseDoc(t, rec.Body.String()), byTag("iframe"))
	if iframe == nil {
		t.Fatalf("expected player iframe")
	}
	want := "https://www.youtube.com/embed/ysz5S6P_cNY?autoplay=1&rel=0&modestbranding=1&playsinline=1"
	if got := attr(iframe, "src"); got != want {
		t.Fatalf("iframe src = %q, want %q", got, want)
	}
}

func TestHomeUnknownVideoDoesNotPlay(t *testing.T) {
	srv := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?video=missing&play=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if findNode(parseDoc(t, rec.Body.String()), byTag("iframe")) != nil {
		t.Fatalf("unknown video must render the poster, not a player")
	}
}

func TestConceptFragment(t *testing.T) {
	gen := &fakeGenerator{plan: testPlan}
	srv := newTestRouter(t, gen)
	b := newBrowser(t, srv)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, b.post("/concept", url.Values{"event_type": {"Wedding"}, "notes": {"beach"}}, true))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Golden Hour Vows", "Footprints at dusk", "Rocky cove at sunset"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in fragment", want)
		}
	}
	if strings.Contains(body, "<html") {
		t.Fatalf("expected a fragment, got a full page")
	}
	if gen.calls != 1 {
		t.Fatalf("expected exactly one model call, got %d", gen.calls)
	}
}

func TestConceptJSON(t *testing.T) {
	srv := newTestRouter(t, nil)
	b := newBrowser(t, srv)
	req := b.post("/concept", url.Values{"event_type": {"Portrait"}}, false)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	var got conceptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Plan == nil || got.Plan.ConceptName != testPlan.ConceptName || len(got.Plan.ColorPalette) != 3 {
		t.Fatalf("unexpected plan: %+v", got.Plan)
	}
}

func TestConceptFailureShowsGenericMessage(t *testing.T) {
	for _, err := range []error{concept.ErrConfiguration, concept.ErrMalformedResponse, concept.ErrServiceUnavailable} {
		srv := newTestRouter(t, &fakeGenerator{err: err})
		b := newBrowser(t, srv)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, b.post("/concept", url.Values{"event_type": {"Wedding"}}, true))
		if rec.Code < 500 {
			t.Errorf("%v: expected 5xx, got %d", err, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), conceptErrorMessage) {
			t.Errorf("%v: expected generic message; body=%s", err, rec.Body.String())
		}
		if strings.Contains(rec.Body.String(), err.Error()) {
			t.Errorf("%v: internal error leaked to the page", err)
		}
	}
}

func TestConceptPendingPerSession(t *testing.T) {
	gen := &fakeGenerator{plan: testPlan, started: make(chan struct{}, 1), release: make(chan struct{})}
	srv := newTestRouter(t, gen)
	b := newBrowser(t, srv)

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.ServeHTTP(first, b.post("/concept", url.Values{"event_type": {"Wedding"}}, true))
	}()
	<-gen.started

	second := httptest.NewRecorder()
	srv.ServeHTTP(second, b.post("/concept", url.Values{"event_type": {"Wedding"}}, true))
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 while pending, got %d", second.Code)
	}

	close(gen.release)
	<-done
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to finish with 200, got %d", first.Code)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one model call, got %d", gen.calls)
	}
}

func TestConceptDiscardedWhenClientGoesAway(t *testing.T) {
	gen := &fakeGenerator{plan: testPlan, release: make(chan struct{})}
	srv := newTestRouter(t, gen)
	b := newBrowser(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	req := b.post("/concept", url.Values{"event_type": {"Wedding"}}, true).WithContext(ctx)
	rec := httptest.NewRecorder()
	cancel()
	srv.ServeHTTP(rec, req)
	if rec.Body.Len() != 0 {
		t.Fatalf("expected no body for a cancelled request, got %q", rec.Body.String())
	}
}

func TestConceptRequiresCSRF(t *testing.T) {
	srv := newTestRouter(t, nil)
	b := newBrowser(t, srv)
	req := b.post("/concept", url.Values{"event_type": {"Wedding"}}, true)
	req.Header.Del(mw.CSRFHeader)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestConceptRateLimited(t *testing.T) {
	a := newTestApp(t, nil, ratelimit.NewMemory(1, time.Minute, nil))
	srv := a.routes()
	b := newBrowser(t, srv)
	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests} {
		req := b.post("/concept", url.Values{"event_type": {"Wedding"}}, true)
		if i == 2 {
			req.Header.Set("X-Forwarded-For", "203.0.113.99")
		}
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}

func TestContactInvalidShowsErrors(t *testing.T) {
	srv := newTestRouter(t, nil)
	b := newBrowser(t, srv)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, b.post("/contact", url.Values{"email": {"nope"}}, true))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Name is required", "Please enter a valid email", "Message is required"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in fragment", want)
		}
	}
	if rec.Header().Get("HX-Trigger") != "" {
		t.Fatalf("invalid form must not dispatch")
	}
}

func TestContactDispatchTriggersWhatsApp(t *testing.T) {
	srv := newTestRouter(t, nil)
	b := newBrowser(t, srv)
	form := url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "service": {"Videography"}, "message": {"Hello there"}}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, b.post("/contact", form, true))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	var trigger map[string]inquiryEvent
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &trigger); err != nil {
		t.Fatalf("decode HX-Trigger: %v", err)
	}
	ev := trigger[inquiryDispatchedEvent]
	if !strings.HasPrefix(ev.URL, "https://wa.me/94777436629?text=") {
		t.Fatalf("unexpected url %q", ev.URL)
	}
	u, err := url.Parse(ev.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if !strings.Contains(u.Query().Get("text"), "*Name:* Ada") {
		t.Fatalf("unexpected message %q", u.Query().Get("text"))
	}
	if ev.DismissAfterMs != 3000 || ev.Notice != inquiry.SuccessNotice {
		t.Fatalf("unexpected event %+v", ev)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Redirecting to WhatsApp...") {
		t.Fatalf("expected success notice")
	}
	if strings.Contains(body, `value="Ada"`) {
		t.Fatalf("expected the form to be reset after dispatch")
	}
}

func TestBookingDispatchResetsForm(t *testing.T) {
	srv := newTestRouter(t, nil)
	b := newBrowser(t, srv)
	form := url.Values{
		"name": {"Ada"}, "email": {"ada@example.com"}, "date": {"2026-12-01"},
		"time": {"10:00"}, "attendees": {"2"}, "type": {"Event Coverage"},
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, b.post("/booking", form, true))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	doc := parseDoc(t, rec.Body.String())
	for _, id := range []string{"booking-name", "booking-date"} {
		n := findNode(doc, byID(id))
		if n == nil {
			t.Fatalf("missing #%s", id)
		}
		if v := attr(n, "value"); v != "" {
			t.Fatalf("expected #%s to be reset, got %q", id, v)
		}
	}
	selected := findNode(doc, func(n *html.Node) bool {
		return byTag("option")(n) && hasAttr(n, "selected")
	})
	if selected == nil || attr(selected, "value") != forms.DefaultSessionType {
		t.Fatalf("expected session type reset to %q", forms.DefaultSessionType)
	}
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func TestBookingWithoutHTMXRedirects(t *testing.T) {
	srv := newTestRouter(t, nil)
	b := newBrowser(t, srv)
	form := url.Values{
		"name": {"Ada"}, "email": {"ada@example.com"}, "date": {"2026-12-01"},
		"time": {"10:00"}, "attendees": {"2"}, "type": {"Event Coverage"},
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, b.post("/booking", form, false))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "https://wa.me/94777436629?text=") {
		t.Fatalf("unexpected Location %q", loc)
	}
}

func TestBookingRejectsZeroAttendees(t *testing.T) {
	srv := newTestRouter(t, nil)
	b := newBrowser(t, srv)
	form := url.Values{
		"name": {"Ada"}, "email": {"ada@example.com"}, "date": {"2026-12-01"},
		"time": {"10:00"}, "attendees": {"0"},
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, b.post("/booking", form, true))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Valid number of attendees required") {
		t.Fatalf("expected attendees error; body=%s", rec.Body.String())
	}
}

func TestThumbnailFragmentAdvances(t *testing.T) {
	srv := newTestRouter(t, nil)
	cases := []struct {
		path   string
		status int
		want   string
	}{
		{"/media/3/thumbnail?attempt=0", http.StatusOK, "maxresdefault.jpg"},
		{"/media/3/thumbnail?attempt=1", http.StatusOK, "hqdefault.jpg"},
		{"/media/3/thumbnail?attempt=2", http.StatusOK, "placeholder.svg"},
		{"/media/1/thumbnail", http.StatusOK, "placeholder.svg"},
		{"/media/p1/thumbnail?attempt=1", http.StatusOK, "Image Error"},
		{"/media/nope/thumbnail", http.StatusNotFound, ""},
		{"/media/3/thumbnail?attempt=-1", http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.path, tc.status, rec.Code)
			continue
		}
		if tc.want != "" && !strings.Contains(rec.Body.String(), tc.want) {
			t.Errorf("%s: expected %q in %q", tc.path, tc.want, rec.Body.String())
		}
	}
}

func TestAssetsServed(t *testing.T) {
	srv := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/js/site.js", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	b, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(b), "inquiry:dispatched") {
		t.Fatalf("unexpected asset body")
	}
}

func TestGeneratorErrorsAreSentinels(t *testing.T) {
	// the handler maps configuration errors to 503 and everything else to 502
	srv := newTestRouter(t, &fakeGenerator{err: fmt.Errorf("gemini: %w", concept.ErrConfiguration)})
	b := newBrowser(t, srv)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, b.post("/concept", url.Values{"event_type": {"Wedding"}}, true))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
