package happenstance

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate uses the same tag name as gin binding so handler and service agree.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// Validate checks the request against the event contract: exactly four
// non-null events. Event fields themselves may be empty.
func Validate(req AnalysisRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}
	return nil
}

// describeValidation turns decode and validation failures into a short
// English detail string for the error body.
func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch {
		case fe.Tag() == "len":
			return fmt.Sprintf("events must contain exactly %d entries", RequiredEventCount)
		case fe.Tag() == "required" && strings.Contains(fe.Field(), "["):
			return fmt.Sprintf("%s must be an object", strings.ToLower(fe.Field()[:1])+fe.Field()[1:])
		case fe.Tag() == "required":
			return "events is required"
		default:
			return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
		}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			return "request body must be a JSON object"
		}
		switch typeErr.Type.Kind() {
		case reflect.Slice:
			return field + " must be an array"
		case reflect.Ptr, reflect.Struct:
			return field + " entries must be objects"
		case reflect.Bool:
			return field + " must be a boolean"
		case reflect.String:
			return field + " must be a string"
		default:
			return field + " has an invalid type"
		}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "request body must be valid JSON"
	}
	if errors.Is(err, io.EOF) {
		return "request body is required"
	}
	return err.Error()
}
