package utils

import (
	"writing_marketplace/constants"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	var errMsg interface{}
	if err != nil {
		errMsg = err.Error()
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   errMsg,
	})
}

// FieldErrorResponse reports validation failures keyed by request field.
func FieldErrorResponse(c *fiber.Ctx, status int, message string, fields map[string]string) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   "validation failed",
		"fields":  fields,
	})
}

func SuccessResponse(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

func MessageResponse(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

// NormalizePage clamps limit/page to sane values.
func NormalizePage(limit, page int) (int, int) {
	if limit <= 0 {
		limit = constants.DEFAULT_PAGE_SIZE
	}
	if limit > constants.MAX_PAGE_SIZE {
		limit = constants.MAX_PAGE_SIZE
	}
	if page < 1 {
		page = 1
	}
	return limit, page
}

func ApplyPagination(query *gorm.DB, limit, page int) *gorm.DB {
	limit, page = NormalizePage(limit, page)
	return query.Limit(limit).Offset(limit * (page - 1))
}

func Ptr[T any](v T) *T {
	return &v
}
