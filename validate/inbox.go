package validate

import (
	"strings"

	"writing_marketplace/model"

	"github.com/gofiber/fiber/v2"
)

type inboxQuery struct {
	model.Pagination
	Filter string `query:"filter" validate:"omitempty,oneof=all inbox sent unread archived trash"`
}

func SendMessage() fiber.Handler {
	return body[model.SendMessageInput]("inputSendMessage")
}

// InboxFilter reads ?filter= (default all) plus pagination.
func InboxFilter() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q inboxQuery
		if err := c.QueryParser(&q); err != nil {
			return Fail(c, err)
		}
		q.Filter = strings.ToLower(strings.TrimSpace(q.Filter))
		if err := Struct(q); err != nil {
			return Fail(c, err)
		}
		if q.Filter == "" {
			q.Filter = string(model.FilterAll)
		}
		c.Locals("inputInboxFilter", model.MessageFilter(q.Filter))
		c.Locals("inputPagination", q.Pagination)
		return c.Next()
	}
}

// MessageFlag checks the :flag route param.
func MessageFlag(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		flag := model.MessageFlag(c.Params(key))
		switch flag {
		case model.FlagRead, model.FlagArchive, model.FlagTrash:
		default:
			return Fail(c, FieldErrors{key: "must be one of: read, archive, trash"})
		}
		c.Locals("inputMessageFlag", flag)
		return c.Next()
	}
}
