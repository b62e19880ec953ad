package book

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Violation describes one way a request body fails the book schema.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned by write operations when the body does not match the book schema.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "invalid book"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+" "+v.Message)
	}
	return "invalid book: " + strings.Join(parts, "; ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Violations: []Violation{{Field: field, Message: message}}}
}

// input is the wire shape of a write request. Pointers tell a missing field from a zero value.
type input struct {
	ISBN      *string `json:"isbn" validate:"required,min=1"`
	AmazonURL *string `json:"amazon_url" validate:"required"`
	Author    *string `json:"author" validate:"required"`
	Language  *string `json:"language" validate:"required"`
	Pages     *int    `json:"pages" validate:"required,min=-2147483648,max=2147483647"`
	Publisher *string `json:"publisher" validate:"required"`
	Title     *string `json:"title" validate:"required"`
	Year      *int    `json:"year" validate:"required,min=-2147483648,max=2147483647"`
}

type fieldTarget struct {
	name   string
	kind   string
	decode func(json.RawMessage) error
}

func (in *input) targets() []fieldTarget {
	return []fieldTarget{
		{"isbn", "a string", decodeString(&in.ISBN)},
		{"amazon_url", "a string", decodeString(&in.AmazonURL)},
		{"author", "a string", decodeString(&in.Author)},
		{"language", "a string", decodeString(&in.Language)},
		{"pages", "an integer", decodeInteger(&in.Pages)},
		{"publisher", "a string", decodeString(&in.Publisher)},
		{"title", "a string", decodeString(&in.Title)},
		{"year", "an integer", decodeInteger(&in.Year)},
	}
}

func decodeString(dst **string) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		return json.Unmarshal(raw, dst)
	}
}

// maxExactFloat is the largest magnitude below which every integer is exact in a float64.
const maxExactFloat = 1 << 53

// decodeInteger accepts JSON numbers with no fractional part, so 222 and 222.0 both decode.
func decodeInteger(dst **int) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		if err := json.Unmarshal(raw, dst); err == nil {
			return nil
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return err
		}
		if f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
			return errNotInteger
		}
		n := int(f)
		*dst = &n
		return nil
	}
}

var errNotInteger = errors.New("not an integer")

func (in input) book() Book {
	return Book{
		ISBN:      *in.ISBN,
		AmazonURL: *in.AmazonURL,
		Author:    *in.Author,
		Language:  *in.Language,
		Pages:     *in.Pages,
		Publisher: *in.Publisher,
		Title:     *in.Title,
		Year:      *in.Year,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report violations by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return v
}

// ParseBook decodes a request body and checks it against the book schema: every field present and
// of the right JSON type. All violations are collected into a single *ValidationError.
func ParseBook(body []byte) (Book, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Book{}, invalid("body", "must be a JSON object")
		}
		return Book{}, invalid("body", "must be valid JSON")
	}

	var in input
	var violations []Violation
	mistyped := make(map[string]bool)

	for _, t := range in.targets() {
		raw, ok := fields[t.name]
		if !ok {
			continue
		}
		if err := t.decode(raw); err != nil {
			mistyped[t.name] = true
			violations = append(violations, Violation{Field: t.name, Message: "must be " + t.kind})
		}
	}

	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Book{}, err
		}
		for _, fe := range fieldErrs {
			if mistyped[fe.Field()] {
				continue
			}
			violations = append(violations, Violation{Field: fe.Field(), Message: friendlyMessage(fe)})
		}
	}

	if len(violations) > 0 {
		return Book{}, &ValidationError{Violations: violations}
	}
	return in.book(), nil
}

func friendlyMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "max":
		if fe.Kind() == reflect.String {
			return "must not be empty"
		}
		return "must fit in a 32-bit signed integer"
	default:
		return "is invalid"
	}
}
