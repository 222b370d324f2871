package fluent

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Payload validation backing [WithValidatedPayload]. Field names in
// reported errors follow the json tag, matching what would have gone on
// the wire.
var payloadValidator *validator.Validate
var payloadTranslator ut.Translator

func init() {
	payloadValidator = validator.New()
	var ok bool
	payloadTranslator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("fluent: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(payloadValidator, payloadTranslator); err != nil {
		panic(err)
	}

	payloadValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// Validate checks an outbound payload against its declared validation tags
// before it is encoded onto a request. Failures are reported as
// [FieldErrors]; nothing is sent when validation fails.
func Validate(payload any) error {
	if err := payloadValidator.Struct(payload); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		var fields FieldErrors
		for _, verror := range verrors {
			fields = append(fields, FieldError{
				Field: verror.Field(),
				Err:   messageForTag(verror),
			})
		}
		return fields
	}

	return nil
}

// FieldError describes one payload field that failed validation.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors collects every failed field of one payload.
type FieldErrors []FieldError

// Error implements the error interface, returning a human-readable
// summary of all field errors.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return strings.Join(parts, "; ")
}

func messageForTag(verror validator.FieldError) string {
	switch verror.Tag() {
	case "required":
		return "a value is required"
	default:
		return verror.Translate(payloadTranslator)
	}
}
