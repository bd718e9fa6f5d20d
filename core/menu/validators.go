package menu

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/edumanage/edumanage/core"
)

var (
	routeTag  = "menuroute"
	routeText = "route must be an absolute path without whitespace"
)

// InitValidators registers the menu validations & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(routeTag, routeValidation)
	core.RegisterCustomTranslation(validate, translator, routeTag, routeText)
}

func routeValidation(fl validator.FieldLevel) bool {
	route := fl.Field().String()
	return strings.HasPrefix(route, "/") && !strings.ContainsAny(route, " \t\n")
}
