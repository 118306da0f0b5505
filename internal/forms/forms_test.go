package forms

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContactCollectsAllErrors(t *testing.T) {
	errs := Validate(KindContact, Values{
		FieldName:    "",
		FieldEmail:   "bad",
		FieldMessage: "",
	})
	require.Len(t, errs, 3)
	assert.Equal(t, MsgNameRequired, errs[FieldName])
	assert.Equal(t, MsgEmailInvalid, errs[FieldEmail])
	assert.Equal(t, MsgMessageRequired, errs[FieldMessage])
}

func TestValidateContactAcceptsValidInput(t *testing.T) {
	errs := Validate(KindContact, Values{
		FieldName:    "A",
		FieldEmail:   "a@b.co",
		FieldMessage: "hi",
	})
	assert.Empty(t, errs)
}

func TestValidateEmailRequiredBeforeFormat(t *testing.T) {
	errs := Validate(KindContact, Values{FieldEmail: "   "})
	assert.Equal(t, MsgEmailRequired, errs[FieldEmail])
}

func TestValidEmailPattern(t *testing.T) {
	cases := map[string]bool{
		"a@b.co":         true,
		"first.last@x.y": true,
		"a@b":            false,
		"a b@c.d":        false,
		"a@@b.c":         false,
		"@b.c":           false,
		"a@.":            false,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidEmail(in), in)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	values := Values{FieldName: " ", FieldEmail: "nope", FieldMessage: "x"}
	first := Validate(KindContact, values)
	second := Validate(KindContact, values)
	assert.Equal(t, first, second)
}

func TestValidateOnlyReportsKnownFields(t *testing.T) {
	values := Values{FieldEmail: "bad"}
	errs := Validate(KindBooking, values)
	for f := range errs {
		_, ok := values[f]
		assert.True(t, ok, "error for %s without a value", f)
	}
}

func TestBookingAttendees(t *testing.T) {
	base := func(att string) Values {
		return Values{
			FieldName:      "Ana",
			FieldEmail:     "ana@example.com",
			FieldDate:      "2026-11-02",
			FieldTime:      "10:00",
			FieldAttendees: att,
			FieldType:      DefaultSessionType,
			FieldNotes:     "",
		}
	}
	assert.Equal(t, MsgAttendeesRequired, Validate(KindBooking, base("0"))[FieldAttendees])
	assert.Equal(t, MsgAttendeesRequired, Validate(KindBooking, base(""))[FieldAttendees])
	assert.Equal(t, MsgAttendeesRequired, Validate(KindBooking, base("two"))[FieldAttendees])
	assert.Empty(t, Validate(KindBooking, base("2")))
}

func TestBookingRequiresDateAndTime(t *testing.T) {
	fs := Defaults(KindBooking)
	errs := fs.Validate()
	assert.Equal(t, MsgDateRequired, errs[FieldDate])
	assert.Equal(t, MsgTimeRequired, errs[FieldTime])
	assert.Equal(t, MsgNameRequired, errs[FieldName])
	assert.False(t, errs.Has(FieldNotes))
	assert.False(t, errs.Has(FieldType))
}

func TestSetClearsFieldError(t *testing.T) {
	fs := Defaults(KindContact)
	fs.Validate()
	require.True(t, fs.Errors.Has(FieldName))

	fs.Set(FieldName, "Ana")
	assert.False(t, fs.Errors.Has(FieldName))
	assert.True(t, fs.Errors.Has(FieldEmail))
}

func TestResetRestoresDefaults(t *testing.T) {
	fs := FromForm(KindContact, url.Values{
		"name":    {"Ana"},
		"service": {"Drone Aerials"},
	})
	fs.Reset()
	assert.Equal(t, "", fs.Value(FieldName))
	assert.Equal(t, DefaultService, fs.Value(FieldService))
	assert.Empty(t, fs.Errors)
}

func TestFromFormNormalizesAndIgnoresUnknown(t *testing.T) {
	fs := FromForm(KindContact, url.Values{
		"name":  {"  Café "},
		"bogus": {"x"},
	})
	assert.Equal(t, "Café", fs.Value(FieldName))
	_, ok := fs.Values[Field("bogus")]
	assert.False(t, ok)
	assert.Equal(t, DefaultService, fs.Value(FieldService))
}
