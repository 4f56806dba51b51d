// Package core defines the domain types shared across the Timeline service.
package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. validator.Validate caches struct
// metadata internally, so a single instance is reused for all checks.
var validate = newValidator()

// Event is a single calendar event extracted from a transcript.
type Event struct {
	// Title is a short summary of the event.
	Title string `json:"title" validate:"required,max=200"`
	// StartTime is the event start in RFC 3339 format.
	StartTime string `json:"start_time" validate:"required,rfc3339"`
	// EndTime is the event end in RFC 3339 format.
	EndTime string `json:"end_time" validate:"required,rfc3339"`
	// Description carries free-form detail such as location or participants.
	Description string `json:"description,omitempty" validate:"max=2000"`
	// Tag is an optional category drawn from the configured vocabulary.
	Tag string `json:"tag,omitempty" validate:"max=100"`
}

// Validate checks that the event carries the required fields and that its
// timestamps are well-formed RFC 3339 values.
func (e *Event) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid event field %q: failed %q constraint", toSnake(fe.Field()), fe.Tag())
	}
	return err
}

// toSnake maps exported Go field names onto their JSON wire names.
func toSnake(field string) string {
	switch field {
	case "StartTime":
		return "start_time"
	case "EndTime":
		return "end_time"
	default:
		return strings.ToLower(field)
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	// rfc3339 mirrors the timestamp contract of the analyze API. validator's
	// builtin datetime tag would also work but bakes the layout into every
	// struct tag.
	_ = v.RegisterValidation("rfc3339", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.RFC3339, fl.Field().String())
		return err == nil
	})
	return v
}
