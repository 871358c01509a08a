package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"casal/internal/core"
)

// validate checks request DTOs. Field names in errors are the JSON names.
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
	_ = v.RegisterValidation("iso4217", validateISO4217)
	_ = v.RegisterValidation("party", validateParty)
	_ = v.RegisterValidation("yearmonth", validateYearMonth)
	_ = v.RegisterValidation("fixedkind", validateFixedKind)
	return v
}

func validateISO4217(fl validator.FieldLevel) bool {
	return core.ValidCurrency(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
}

func validateParty(fl validator.FieldLevel) bool {
	return core.Party(fl.Field().String()).Validate() == nil
}

func validateYearMonth(fl validator.FieldLevel) bool {
	_, err := core.ParseYearMonth(fl.Field().String())
	return err == nil
}

func validateFixedKind(fl validator.FieldLevel) bool {
	return core.FixedKind(fl.Field().String()).Validate() == nil
}

// fieldErrors flattens validator errors into json-path -> message. It
// returns nil when err is not a validation failure.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		out[path] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "iso4217":
		return "must be an ISO 4217 currency code"
	case "party":
		return "must be A or B"
	case "yearmonth":
		return "must be formatted YYYY-MM"
	case "fixedkind":
		return "must be one of water, power, internet, rent, other"
	}
	return "is invalid"
}
