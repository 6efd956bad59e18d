package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError lists every problem found in a Config. Problems name the
// koanf key, which is also the YAML path and, upper-cased, the env var.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "config validation failed:\n  " + strings.Join(e.Problems, "\n  ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	return v
}

// Validate reports all tag and cross-field problems at once, so a broken
// deployment is fixed in one round. The service refuses to start on error.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}

		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	problems = append(problems, c.crossFieldProblems()...)

	if len(problems) == 0 {
		return nil
	}

	return &ValidationError{Problems: problems}
}

// crossFieldProblems covers rules a single struct tag cannot express.
func (c *Config) crossFieldProblems() []string {
	var problems []string

	if imp := c.Quotes.Import; imp.Concurrency > 0 && imp.Concurrency > imp.MaxCount {
		problems = append(problems, "quotes.import.concurrency must not exceed quotes.import.max_count")
	}

	if r := c.Client.Retry; r.MaxInterval > 0 && r.MaxInterval < r.InitialInterval {
		problems = append(problems, "client.retry.max_interval must not be below client.retry.initial_interval")
	}

	// A deadline past the write timeout leaves no time to send the 504.
	if s := c.Server; s.WriteTimeout > 0 && s.RequestTimeout > s.WriteTimeout {
		problems = append(problems, "server.request_timeout must not exceed server.write_timeout")
	}

	return problems
}

func describe(fe validator.FieldError) string {
	key := keyPath(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", key, condition(fe.Param()))
	case "min":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", key, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, fe.Param())
	case "url":
		return key + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed validation: %s", key, fe.Tag())
	}
}

// condition renders a required_if param such as "Enabled true" as
// "enabled is true".
func condition(param string) string {
	field, value, ok := strings.Cut(param, " ")
	if !ok {
		return param
	}

	return strings.ToLower(field) + " is " + value
}

// keyPath turns the validator namespace "Config.server.read_timeout" into
// the koanf key "server.read_timeout".
func keyPath(namespace string) string {
	_, rest, ok := strings.Cut(namespace, ".")
	if !ok {
		rest = namespace
	}

	return strings.ToLower(rest)
}
