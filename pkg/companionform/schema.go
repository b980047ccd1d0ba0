package companionform

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const DefaultDuration = 15

// RawNumber is user input that is coerced to a number during validation.
// It decodes from both JSON numbers and strings.
type RawNumber string

func (n *RawNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = RawNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*n = RawNumber(num.String())
	return nil
}

// Draft is the in-progress companion as typed by the user.
type Draft struct {
	Name     string    `json:"name" form:"name"`
	Subject  string    `json:"subject" form:"subject"`
	Topic    string    `json:"topic" form:"topic"`
	Voice    string    `json:"voice" form:"voice"`
	Style    string    `json:"style" form:"style"`
	Duration RawNumber `json:"duration" form:"duration"`
}

func NewDraft() Draft {
	return Draft{Duration: RawNumber(strconv.Itoa(DefaultDuration))}
}

// Record is a draft that passed validation.
type Record struct {
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Topic    string `json:"topic"`
	Voice    string `json:"voice"`
	Style    string `json:"style"`
	Duration int    `json:"duration"`
}

// FieldErrors maps a field name to its single error message.
type FieldErrors map[string]string

// Fields returns the invalid field names in form order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for f := range fe {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return fieldRank(out[i]) < fieldRank(out[j]) })
	return out
}

// ValidationError blocks a submission.
type ValidationError struct {
	Errors FieldErrors
}

func (e *ValidationError) Error() string {
	return "companion draft is invalid: " + strings.Join(e.Errors.Fields(), ", ")
}

// FieldErrors lets the HTTP layer render any validation error generically.
func (e *ValidationError) FieldErrors() map[string]string {
	return e.Errors
}

var fieldOrder = []string{"name", "subject", "topic", "voice", "style", "duration"}

func fieldRank(f string) int {
	for i, name := range fieldOrder {
		if name == f {
			return i
		}
	}
	return len(fieldOrder)
}

var messages = map[string]string{
	"name":     "Companion is required.",
	"subject":  "Subject is required.",
	"topic":    "Topic is required.",
	"voice":    "Voice is required.",
	"style":    "Style is required.",
	"duration": "Duration is required.",
}

const wholeMinutesMessage = "Duration must be a whole number of minutes."

type schema struct {
	Name     string  `json:"name" validate:"required"`
	Subject  string  `json:"subject" validate:"required"`
	Topic    string  `json:"topic" validate:"required"`
	Voice    string  `json:"voice" validate:"required"`
	Style    string  `json:"style" validate:"required"`
	Duration float64 `json:"duration" validate:"gte=1"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// coerce turns raw input into a number the way a browser number input
// does: blank is zero, anything unparsable or non-finite is rejected.
func coerce(raw RawNumber) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Validate checks the whole draft at once and reports one message per
// invalid field.
func Validate(d Draft) (Record, FieldErrors) {
	duration, _ := coerce(d.Duration)
	s := schema{
		Name:     d.Name,
		Subject:  d.Subject,
		Topic:    d.Topic,
		Voice:    d.Voice,
		Style:    d.Style,
		Duration: duration,
	}

	errs := FieldErrors{}
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Record{}, FieldErrors{"duration": messages["duration"]}
		}
		for _, fe := range verrs {
			errs[fe.Field()] = messages[fe.Field()]
		}
	}
	if _, ok := errs["duration"]; !ok {
		switch {
		case duration > math.MaxInt32:
			errs["duration"] = messages["duration"]
		case duration != math.Trunc(duration):
			errs["duration"] = wholeMinutesMessage
		}
	}
	if len(errs) > 0 {
		return Record{}, errs
	}

	return Record{
		Name:     s.Name,
		Subject:  s.Subject,
		Topic:    s.Topic,
		Voice:    s.Voice,
		Style:    s.Style,
		Duration: int(duration),
	}, nil
}
