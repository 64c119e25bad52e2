package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("config: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// FieldError is a single invalid setting.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors lists every invalid setting found by one validation.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return "config: " + strings.Join(parts, "; ")
}

// Fields maps the dotted setting name to its message.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, f := range fe {
		m[f.Field] = f.Err
	}
	return m
}

func validateStruct(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}

	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) {
		return err
	}

	fields := make(FieldErrors, 0, len(verrors))
	for _, verror := range verrors {
		fields = append(fields, FieldError{
			Field: fieldName(verror.Namespace()),
			Err:   customErrForTag(verror.Tag(), verror),
		})
	}
	return fields
}

// fieldName drops the root struct name: Config.throttle.burst -> throttle.burst.
func fieldName(namespace string) string {
	_, name, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return name
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required":
		return "This field is required"
	case "required_with":
		return "This field is required when " + strings.ToLower(verror.Param()) + " is set"
	default:
		return verror.Translate(translator)
	}
}
