package inquiry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/ahmath-musharraf/StudioRoutes/internal/forms"
)

const (
	// DefaultRecipient is the studio WhatsApp number in international format without "+".
	DefaultRecipient = "94777436629"
	// SuccessNotice is shown after the deep link has been produced.
	SuccessNotice = "Redirecting to WhatsApp..."
	// DismissAfter is how long the notice stays up unless dismissed.
	DismissAfter = 3 * time.Second

	messagingHost = "wa.me"
	meterName     = "github.com/ahmath-musharraf/StudioRoutes/internal/inquiry"
)

var (
	// ErrInvalidForm is returned when Dispatch receives a field set with errors.
	ErrInvalidForm = errors.New("inquiry: form has validation errors")
	// ErrUnknownKind is returned for a form kind without a template.
	ErrUnknownKind = errors.New("inquiry: unknown form kind")
)

// Result describes a dispatched inquiry. Success only means the link was produced.
type Result struct {
	ID           string
	Kind         forms.Kind
	Text         string
	URL          string
	Notice       string
	DismissAfter time.Duration
}

// Dispatcher turns validated forms into messaging deep links.
type Dispatcher struct {
	recipient string
	logger    *zap.Logger
	strip     *bluemonday.Policy
	now       func() time.Time
	meter     metric.Meter
	sent      metric.Int64Counter
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.meter = m
		}
	}
}

// NewDispatcher builds a dispatcher for the given recipient number.
func NewDispatcher(recipient string, logger *zap.Logger, opts ...Option) *Dispatcher {
	recipient = digitsOnly(recipient)
	if recipient == "" {
		recipient = DefaultRecipient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		recipient: recipient,
		logger:    logger,
		strip:     bluemonday.StrictPolicy(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.meter == nil {
		d.meter = otel.GetMeterProvider().Meter(meterName)
	}
	sent, err := d.meter.Int64Counter(
		"inquiry.dispatched",
		metric.WithDescription("Inquiry deep links produced by form kind"),
	)
	if err != nil {
		logger.Warn("inquiry: unable to register dispatch counter", zap.Error(err))
		sent, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter("inquiry.dispatched")
	}
	d.sent = sent
	return d
}

// Recipient returns the normalised recipient number.
func (d *Dispatcher) Recipient() string { return d.recipient }

// Dispatch composes the message for fs and returns the deep link to open. It re-validates
// fs and refuses to dispatch when any field is invalid.
func (d *Dispatcher) Dispatch(ctx context.Context, fs forms.FieldSet) (Result, error) {
	values := forms.Defaults(fs.Kind).Values
	for f, v := range fs.Values {
		values[f] = v
	}
	if errs := forms.Validate(fs.Kind, values); len(errs) > 0 {
		return Result{}, ErrInvalidForm
	}
	text, err := d.Compose(fs)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res := Result{
		ID:           ulid.MustNew(ulid.Timestamp(d.now()), ulid.DefaultEntropy()).String(),
		Kind:         fs.Kind,
		Text:         text,
		URL:          DeepLink(d.recipient, text),
		Notice:       SuccessNotice,
		DismissAfter: DismissAfter,
	}
	d.sent.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(fs.Kind))))
	d.logger.Info("inquiry dispatched",
		zap.String("inquiry_id", res.ID),
		zap.String("kind", string(fs.Kind)),
		zap.Int("text_len", len(text)),
	)
	return res, nil
}

// Compose renders the labelled message block for fs.
func (d *Dispatcher) Compose(fs forms.FieldSet) (string, error) {
	var title string
	var lines []line
	v := func(f forms.Field) string { return d.clean(fs.Values[f]) }
	switch fs.Kind {
	case forms.KindContact:
		title = "New Website Inquiry"
		lines = []line{
			{"Name", v(forms.FieldName)},
			{"Email", v(forms.FieldEmail)},
			{"Service", v(forms.FieldService)},
			{"Message", v(forms.FieldMessage)},
		}
	case forms.KindBooking:
		title = "New Booking Request"
		lines = []line{
			{"Name", v(forms.FieldName)},
			{"Email", v(forms.FieldEmail)},
			{"Date", v(forms.FieldDate)},
			{"Time", v(forms.FieldTime)},
			{"Attendees", v(forms.FieldAttendees)},
			{"Type", v(forms.FieldType)},
			{"Notes", v(forms.FieldNotes)},
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, fs.Kind)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", title)
	for _, l := range lines {
		fmt.Fprintf(&b, "\n*%s:* %s", l.label, l.value)
	}
	return b.String(), nil
}

// DeepLink builds https://wa.me/<recipient>?text=<text>.
func DeepLink(recipient, text string) string {
	u := url.URL{
		Scheme:   "https",
		Host:     messagingHost,
		Path:     "/" + digitsOnly(recipient),
		RawQuery: "text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20"),
	}
	return u.String()
}

type line struct {
	label string
	value string
}

// clean drops markup so the chat message carries plain text only.
func (d *Dispatcher) clean(s string) string {
	s = strings.TrimSpace(d.strip.Sanitize(s))
	// StrictPolicy escapes entities; the message is not HTML.
	r := strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&#34;", `"`, "&#39;", "'")
	return r.Replace(s)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
