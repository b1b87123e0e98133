package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/example/task-tracker/domain/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindJSON decodes the request body into dst and validates it. Malformed
// bodies and rule violations are both VALIDATION_ERROR.
func bindJSON(c *fiber.Ctx, dst any) error {
	body := c.Body()
	if len(body) == 0 {
		return apperr.Validation("", apperr.FieldError{Field: "body", Message: "request body is required"})
	}
	if err := c.App().Config().JSONDecoder(body, dst); err != nil {
		return decodeError(err)
	}
	return validateStruct(dst)
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Validation("", apperr.FieldError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
		})
	}
	return apperr.Validation("", apperr.FieldError{Field: "body", Message: "Invalid JSON body"})
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fieldPath(fe), Message: ruleMessage(fe)})
	}
	return apperr.Validation("", fields...)
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func ruleMessage(fe validator.FieldError) string {
	collection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "email":
		return "value is not a valid email address"
	case "min":
		if collection {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if collection {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}

// paramID parses a positive integer path parameter.
func paramID(c *fiber.Ctx, name, field string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("", apperr.FieldError{Field: field, Message: "must be a positive integer"})
	}
	return uint(id), nil
}

// queryUint parses an optional positive integer query parameter.
func queryUint(c *fiber.Ctx, name string) (*uint, *apperr.FieldError) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil, &apperr.FieldError{Field: name, Message: "must be a positive integer"}
	}
	v := uint(n)
	return &v, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c *fiber.Ctx, name string, def int) (int, *apperr.FieldError) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &apperr.FieldError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}
