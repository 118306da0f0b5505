package forms

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind identifies which form a field set belongs to.
type Kind string

const (
	KindContact Kind = "contact"
	KindBooking Kind = "booking"
)

// Field enumerates every input the contact and booking forms carry.
type Field string

const (
	FieldName      Field = "name"
	FieldEmail     Field = "email"
	FieldService   Field = "service"
	FieldMessage   Field = "message"
	FieldDate      Field = "date"
	FieldTime      Field = "time"
	FieldAttendees Field = "attendees"
	FieldType      Field = "type"
	FieldNotes     Field = "notes"
)

// Error messages surfaced next to the offending input.
const (
	MsgNameRequired      = "Name is required"
	MsgEmailRequired     = "Email is required"
	MsgEmailInvalid      = "Please enter a valid email"
	MsgMessageRequired   = "Message is required"
	MsgDateRequired      = "Date is required"
	MsgTimeRequired      = "Time is required"
	MsgAttendeesRequired = "Valid number of attendees required"
)

// Default select values restored after a successful dispatch.
const (
	DefaultService     = "Wedding Photography"
	DefaultSessionType = "Portrait Session"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Fields lists the inputs of a form kind in display order.
func Fields(kind Kind) []Field {
	switch kind {
	case KindContact:
		return []Field{FieldName, FieldEmail, FieldService, FieldMessage}
	case KindBooking:
		return []Field{FieldName, FieldEmail, FieldDate, FieldTime, FieldAttendees, FieldType, FieldNotes}
	default:
		return nil
	}
}

// Values maps each field of a form to its current value.
type Values map[Field]string

// Errors maps a field to its validation message. A missing key means valid.
type Errors map[Field]string

// Has reports whether the field carries an error.
func (e Errors) Has(f Field) bool {
	_, ok := e[f]
	return ok
}

// Get returns the error message for f, or "".
func (e Errors) Get(f Field) string { return e[f] }

// FieldSet is the state of one form instance: values plus per-field errors.
type FieldSet struct {
	Kind   Kind
	Values Values
	Errors Errors
}

// Defaults returns the initial state of a form.
func Defaults(kind Kind) FieldSet {
	values := Values{}
	for _, f := range Fields(kind) {
		values[f] = ""
	}
	switch kind {
	case KindContact:
		values[FieldService] = DefaultService
	case KindBooking:
		values[FieldType] = DefaultSessionType
	}
	return FieldSet{Kind: kind, Values: values, Errors: Errors{}}
}

// FromForm builds a field set from submitted form values. Unknown keys are ignored;
// known fields missing from the submission start empty.
func FromForm(kind Kind, form url.Values) FieldSet {
	fs := Defaults(kind)
	for _, f := range Fields(kind) {
		if _, ok := form[string(f)]; ok {
			fs.Values[f] = Normalize(form.Get(string(f)))
		}
	}
	return fs
}

// Set updates a value and clears the field's pending error, mirroring an edit.
func (fs *FieldSet) Set(f Field, value string) {
	if fs.Values == nil {
		fs.Values = Values{}
	}
	fs.Values[f] = value
	fs.ClearError(f)
}

// ClearError drops the error for f.
func (fs *FieldSet) ClearError(f Field) {
	delete(fs.Errors, f)
}

// Validate runs the rules for the set's kind and stores the result.
func (fs *FieldSet) Validate() Errors {
	fs.Errors = Validate(fs.Kind, fs.Values)
	return fs.Errors
}

// Valid reports whether the last validation produced no errors.
func (fs FieldSet) Valid() bool { return len(fs.Errors) == 0 }

// Reset restores the default values and clears errors.
func (fs *FieldSet) Reset() {
	*fs = Defaults(fs.Kind)
}

// Value returns the value for f.
func (fs FieldSet) Value(f Field) string { return fs.Values[f] }

// Validate checks every rule for kind in one pass. Only fields present in values can
// receive an error, so the result is always a subset of the value keys.
func Validate(kind Kind, values Values) Errors {
	errs := Errors{}
	check := func(f Field, rule func(string) string) {
		v, ok := values[f]
		if !ok {
			return
		}
		if msg := rule(v); msg != "" {
			errs[f] = msg
		}
	}

	check(FieldName, required(MsgNameRequired))
	check(FieldEmail, email)
	switch kind {
	case KindContact:
		check(FieldMessage, required(MsgMessageRequired))
	case KindBooking:
		check(FieldDate, required(MsgDateRequired))
		check(FieldTime, required(MsgTimeRequired))
		check(FieldAttendees, attendees)
	}
	return errs
}

// ValidEmail applies the one-"@", dotted-domain pattern.
func ValidEmail(v string) bool {
	return emailPattern.MatchString(v)
}

// Attendees parses the attendee count; non-numeric input yields ok=false.
func Attendees(v string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Normalize trims surrounding space and applies NFC so equivalent input compares equal.
func Normalize(v string) string {
	return norm.NFC.String(strings.TrimSpace(v))
}

func required(msg string) func(string) string {
	return func(v string) string {
		if strings.TrimSpace(v) == "" {
			return msg
		}
		return ""
	}
}

func email(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return MsgEmailRequired
	}
	if !ValidEmail(v) {
		return MsgEmailInvalid
	}
	return ""
}

func attendees(v string) string {
	n, ok := Attendees(v)
	if !ok || n < 1 {
		return MsgAttendeesRequired
	}
	return ""
}
