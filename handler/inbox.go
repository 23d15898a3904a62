package handler

import (
	"writing_marketplace/constants"
	"writing_marketplace/model"
	"writing_marketplace/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (h *Handler) SendEmailToWriter(c *fiber.Ctx) error {
	input := c.Locals("inputSendMessage").(model.SendMessageInput)
	msg, err := h.messages.SendToWriter(c.UserContext(), input)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.MessageResponse(c, fiber.StatusCreated, constants.MESSAGE_SENT, msg)
}

func (h *Handler) ListMessages(c *fiber.Ctx) error {
	filter := c.Locals("inputInboxFilter").(model.MessageFilter)
	page := c.Locals("inputPagination").(model.Pagination)
	res, err := h.messages.List(c.UserContext(), filter, page)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, res)
}

func (h *Handler) ToggleMessageFlag(c *fiber.Ctx) error {
	id := c.Locals("inputId").(uuid.UUID)
	flag := c.Locals("inputMessageFlag").(model.MessageFlag)
	msg, err := h.messages.ToggleFlag(c.UserContext(), id, flag)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, msg)
}
