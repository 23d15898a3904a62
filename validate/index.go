package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"writing_marketplace/constants"
	"writing_marketplace/model"
	"writing_marketplace/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields under the names clients send
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// FieldErrors maps a request field to what is wrong with it.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+f[k])
	}
	return strings.Join(parts, "; ")
}

// Struct validates s and flattens validator errors into FieldErrors.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		out[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

// Fail writes the response for a validation error.
func Fail(c *fiber.Ctx, err error) error {
	var fields FieldErrors
	if errors.As(err, &fields) {
		return utils.FieldErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, fields)
	}
	return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
}

// body parses the request body into T, validates it and stores it under key.
func body[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input T
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
		}
		if err := Struct(input); err != nil {
			return Fail(c, err)
		}
		c.Locals(key, input)
		return c.Next()
	}
}

// GetById parses the uuid route param named key into locals "inputId".
func GetById(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params(key))
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_UUID, errors.New("params invalid"))
		}
		c.Locals("inputId", id)
		return c.Next()
	}
}

func Pagination() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var page model.Pagination
		if err := c.QueryParser(&page); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_INPUT, err)
		}
		if err := Struct(page); err != nil {
			return Fail(c, err)
		}
		c.Locals("inputPagination", page)
		return c.Next()
	}
}
