package concept

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 20 * time.Second
	tracerName     = "github.com/ahmath-musharraf/StudioRoutes/internal/concept"
)

// Outcome values recorded on the concept.generate.requests counter.
const (
	OutcomeOK            = "ok"
	OutcomeConfiguration = "configuration"
	OutcomeInvalid       = "invalid"
	OutcomeUnavailable   = "unavailable"
	OutcomeMalformed     = "malformed"
)

var (
	// ErrConfiguration means the model credentials are missing; no request is made.
	ErrConfiguration = errors.New("concept: model is not configured")
	// ErrServiceUnavailable wraps transport and endpoint failures.
	ErrServiceUnavailable = errors.New("concept: service unavailable")
	// ErrMalformedResponse means the body was empty or did not match the schema.
	ErrMalformedResponse = errors.New("concept: malformed response")
	// ErrInvalidRequest means the event type was empty.
	ErrInvalidRequest = errors.New("concept: event type is required")
)

// Plan is the creative brief returned for a shoot request.
type Plan struct {
	ConceptName    string   `json:"conceptName"`
	Mood           string   `json:"mood"`
	ColorPalette   []string `json:"colorPalette"`
	SuggestedShots []string `json:"suggestedShots"`
	LocationIdeas  string   `json:"locationIdeas"`
}

// Request carries the planner form input.
type Request struct {
	EventType string
	Notes     string
}

// Generator produces a concept plan. Handlers depend on this so tests can swap in fakes.
type Generator interface {
	GenerateConcept(ctx context.Context, eventType, notes string) (Plan, error)
}

// TextModel sends one prompt to a structured-output text endpoint and returns the raw body.
type TextModel interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Service builds prompts, calls the model once and parses the result.
type Service struct {
	model   TextModel
	timeout time.Duration
	logger  *zap.Logger
	tracer  trace.Tracer
	meter   metric.Meter

	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// Option customises a Service.
type Option func(*Service)

// WithTimeout bounds each model call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		if m != nil {
			s.meter = m
		}
	}
}

// NewService wraps model. A nil model yields a service that always reports ErrConfiguration.
func NewService(model TextModel, opts ...Option) *Service {
	s := &Service{
		model:   model,
		timeout: defaultTimeout,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.meter == nil {
		s.meter = otel.GetMeterProvider().Meter(tracerName)
	}
	s.registerMetrics()
	return s
}

func (s *Service) registerMetrics() {
	fallback := noop.NewMeterProvider().Meter(tracerName)
	requests, err := s.meter.Int64Counter(
		"concept.generate.requests",
		metric.WithDescription("Concept generation calls by outcome"),
	)
	if err != nil {
		s.logger.Warn("concept: unable to register request counter", zap.Error(err))
		requests, _ = fallback.Int64Counter("concept.generate.requests")
	}
	latency, err := s.meter.Float64Histogram(
		"concept.generate.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds of model calls"),
	)
	if err != nil {
		s.logger.Warn("concept: unable to register latency metric", zap.Error(err))
		latency, _ = fallback.Float64Histogram("concept.generate.latency")
	}
	s.requests = requests
	s.latency = latency
}

func (s *Service) record(ctx context.Context, outcome string) {
	if s == nil || s.requests == nil {
		return
	}
	s.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// GenerateConcept issues exactly one model request. It never retries and never caches.
func (s *Service) GenerateConcept(ctx context.Context, eventType, notes string) (Plan, error) {
	eventType = strings.TrimSpace(eventType)
	notes = strings.TrimSpace(notes)
	if s == nil || s.model == nil {
		s.record(ctx, OutcomeConfiguration)
		return Plan{}, ErrConfiguration
	}
	if eventType == "" {
		s.record(ctx, OutcomeInvalid)
		return Plan{}, ErrInvalidRequest
	}

	ctx, span := s.tracer.Start(ctx, "concept.generate",
		trace.WithAttributes(
			attribute.String("concept.event_type", eventType),
			attribute.Int("concept.notes_len", len(notes)),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.model.GenerateJSON(ctx, BuildPrompt(Request{EventType: eventType, Notes: notes}))
	if s.latency != nil {
		s.latency.Record(ctx, float64(time.Since(start))/float64(time.Millisecond))
	}
	if err != nil {
		if errors.Is(err, ErrConfiguration) {
			span.SetStatus(codes.Error, "not configured")
			s.record(ctx, OutcomeConfiguration)
			return Plan{}, err
		}
		s.record(ctx, OutcomeUnavailable)
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		s.logger.Warn("concept generation failed",
			zap.String("event_type", eventType),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return Plan{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	plan, err := ParsePlan(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed response")
		s.logger.Warn("concept response rejected",
			zap.String("event_type", eventType),
			zap.Int("body_len", len(raw)),
			zap.Error(err),
		)
		s.record(ctx, OutcomeMalformed)
		return Plan{}, err
	}
	s.record(ctx, OutcomeOK)
	s.logger.Info("concept generated",
		zap.String("event_type", eventType),
		zap.String("concept", plan.ConceptName),
		zap.Duration("latency", time.Since(start)),
	)
	return plan, nil
}

// ParsePlan decodes a model body and enforces that all five fields are present.
func ParsePlan(raw string) (Plan, error) {
	body := stripCodeFence(strings.TrimSpace(raw))
	if body == "" {
		return Plan{}, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	var wire struct {
		ConceptName    *string  `json:"conceptName"`
		Mood           *string  `json:"mood"`
		ColorPalette   []string `json:"colorPalette"`
		SuggestedShots []string `json:"suggestedShots"`
		LocationIdeas  *string  `json:"locationIdeas"`
	}
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var missing []string
	str := func(name string, v *string) string {
		if v == nil || strings.TrimSpace(*v) == "" {
			missing = append(missing, name)
			return ""
		}
		return strings.TrimSpace(*v)
	}
	list := func(name string, v []string) []string {
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		if len(out) == 0 {
			missing = append(missing, name)
		}
		return out
	}
	plan := Plan{
		ConceptName:    str("conceptName", wire.ConceptName),
		Mood:           str("mood", wire.Mood),
		ColorPalette:   list("colorPalette", wire.ColorPalette),
		SuggestedShots: list("suggestedShots", wire.SuggestedShots),
		LocationIdeas:  str("locationIdeas", wire.LocationIdeas),
	}
	if len(missing) > 0 {
		return Plan{}, fmt.Errorf("%w: missing %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}
	return plan, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
