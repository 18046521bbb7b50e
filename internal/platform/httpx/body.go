package httpx

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"

	"github.com/go-playground/validator/v10"
)

// ValidationErrors carries one message per invalid field, produced by
// ValidateStruct and surfaced through WithError as a 400.
type ValidationErrors struct {
	Fields map[string]string
}

func (e *ValidationErrors) Error() string { return "validation failed" }

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ = uni.GetTranslator("en")

	validate = validator.New()
	_ = entranslations.RegisterDefaultTranslations(validate, trans)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// ValidateStruct runs go-playground/validator against s, returning a
// *ValidationErrors populated with one translated message per failing field,
// or nil when s passes validation (or is not a struct).
func ValidateStruct(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil
	}

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Translate(trans)
	}

	return &ValidationErrors{Fields: fields}
}

// DecodeHandlerFunc receives a request body already decoded and validated
// into p.
type DecodeHandlerFunc func(p any, c *fiber.Ctx) error

// WithBody decodes the request body into a fresh instance of the same type
// as template, validates it, and calls handler; validation failures are
// translated straight to a 400 without invoking handler.
func WithBody(template any, handler DecodeHandlerFunc) fiber.Handler {
	t := reflect.TypeOf(template)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return func(c *fiber.Ctx) error {
		instance := reflect.New(t).Interface()

		if err := c.BodyParser(instance); err != nil {
			return BadRequest(c, "CB_MALFORMED_BODY", "Bad Request", "request body could not be parsed: "+err.Error(), nil)
		}

		if err := ValidateStruct(instance); err != nil {
			return WithError(c, err)
		}

		return handler(instance, c)
	}
}
