package serverutils

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	if err := validate.RegisterValidation("subject", validSubject); err != nil {
		panic(err)
	}
}

func validSubject(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	subjectsMu.RLock()
	defer subjectsMu.RUnlock()
	if len(subjects) == 0 {
		return v != ""
	}
	_, ok := subjects[strings.ToLower(v)]
	return ok
}

var (
	subjectsMu sync.RWMutex
	subjects   map[string]struct{}
)

// RegisterSubjects sets the enumeration checked by the "subject" rule.
// An empty list accepts any non-empty subject.
func RegisterSubjects(list []string) {
	allowed := make(map[string]struct{}, len(list))
	for _, s := range list {
		allowed[strings.ToLower(s)] = struct{}{}
	}
	subjectsMu.Lock()
	subjects = allowed
	subjectsMu.Unlock()
}

// ValidationError is returned by ValidateRequest; the error middleware turns
// it into a 422 with per-field messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

func (e *ValidationError) FieldErrors() map[string]string {
	return e.Fields
}

// FieldErrorer is implemented by any error that can report per-field messages.
type FieldErrorer interface {
	error
	FieldErrors() map[string]string
}

func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "max", "lte":
		return fe.Field() + " must be at most " + fe.Param()
	case "subject":
		return fe.Field() + " is not an offered subject"
	}
	return fe.Field() + " is invalid"
}
