package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jsamuelsen/quote-service/internal/domain"
)

// ErrBinding indicates the JSON body or query string could not be decoded.
var ErrBinding = errors.New("binding failed")

// Validator returns the shared validator. Field names in failures are the
// JSON or form names the client sent.
var Validator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(wireName)

	_ = v.RegisterValidation("quotestatus", validateQuoteStatus)

	return v
})

func wireName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}

		if name != "" {
			return name
		}
	}

	return f.Name
}

// Validate checks v's validate tags. Rule failures come back as domain
// validation errors keyed by wire name, so handlers map them like any
// other invalid quote.
func Validate(v any) error {
	err := Validator().Struct(v)

	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}

	fields := make(map[string]string, len(failures))
	for _, fe := range failures {
		fields[fe.Field()] = validationMessage(fe)
	}

	return domain.ValidationFromFields(fields)
}

// BindAndValidate decodes the JSON body into v and validates it.
func BindAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// BindQueryAndValidate decodes the query string into v and validates it.
func BindQueryAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindQuery(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

func validationMessage(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "quotestatus":
		return "must be one of ACTIVE, INACTIVE, ARCHIVED"
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "min", "max":
		return sizeMessage(fe.Tag(), param, fe.Kind())
	default:
		return "failed validation: " + fe.Tag()
	}
}

// sizeMessage words min and max for strings, collections and numbers.
func sizeMessage(tag, param string, kind reflect.Kind) string {
	bound := "at least"
	if tag == "max" {
		bound = "at most"
	}

	switch kind {
	case reflect.String:
		return fmt.Sprintf("must be %s %s characters", bound, param)
	case reflect.Slice, reflect.Map:
		return fmt.Sprintf("must have %s %s items", bound, param)
	default:
		return fmt.Sprintf("must be %s %s", bound, param)
	}
}

// validateQuoteStatus accepts an empty value or any casing of a known status.
func validateQuoteStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if strings.TrimSpace(value) == "" {
		return true
	}

	_, err := domain.ParseStatus(value)

	return err == nil
}
