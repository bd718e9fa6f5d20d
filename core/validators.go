package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const requiredText = "this field is required"

var alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

// customValidation is a validation tag registered on top of the validator's builtins.
type customValidation struct {
	tag  string
	text string
	fn   validator.Func // nil: only the translation is replaced
}

var globalValidations = []customValidation{
	{tag: "alphanum_", text: "only alphanumeric characters and underscores are allowed", fn: alphaNumUnderValidation},
	{tag: "required", text: requiredText},
	{tag: "required_with", text: requiredText},
}

// NewTranslator returns the english translator used for validation errors.
func NewTranslator() ut.Translator {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	return translator
}

// InitValidators sets up `validate` for the whole app: english messages, JSON field names
// and the global custom tags. Domain packages register their own tags afterwards.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(jsonFieldName)

	for _, cv := range globalValidations {
		if cv.fn != nil {
			_ = validate.RegisterValidation(cv.tag, cv.fn)
			RegisterCustomTranslation(validate, translator, cv.tag, cv.text)
		} else {
			RegisterCustomTranslation(validate, translator, cv.tag, cv.text, true)
		}
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	ovrd := len(override) > 0 && override[0]
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateFields returns the translated message of every failed field, keyed by JSON name.
func TranslateFields(errs validator.ValidationErrors, translator ut.Translator) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fe.Translate(translator)
	}
	return fields
}

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}
