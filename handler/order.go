package handler

import (
	"context"
	"mime/multipart"

	"writing_marketplace/constants"
	"writing_marketplace/model"
	"writing_marketplace/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (h *Handler) Quote(c *fiber.Ctx) error {
	input := c.Locals("inputOrder").(model.OrderInput)
	return utils.SuccessResponse(c, fiber.StatusOK, h.orders.Quote(input))
}

func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	input := c.Locals("inputOrder").(model.OrderInput)
	headers, _ := c.Locals("inputFiles").([]*multipart.FileHeader)

	files, closeFiles, err := openAttachments(headers)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.UPLOAD_FAILED, err)
	}
	defer closeFiles()

	order, err := h.orders.Create(c.UserContext(), input, files)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, order)
}

func (h *Handler) UpdateOrder(c *fiber.Ctx) error {
	id := c.Locals("inputId").(uuid.UUID)
	input := c.Locals("inputOrder").(model.OrderInput)
	headers, _ := c.Locals("inputFiles").([]*multipart.FileHeader)

	files, closeFiles, err := openAttachments(headers)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.UPLOAD_FAILED, err)
	}
	defer closeFiles()

	order, err := h.orders.Update(c.UserContext(), id, input, files)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

func (h *Handler) ListMyOrders(c *fiber.Ctx) error {
	filter := c.Locals("inputOrderFilter").(model.OrderFilter)
	res, err := h.orders.ListMine(c.UserContext(), filter)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, res)
}

func (h *Handler) ListAllOrders(c *fiber.Ctx) error {
	filter := c.Locals("inputOrderFilter").(model.OrderFilter)
	res, err := h.orders.ListAll(c.UserContext(), filter)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, res)
}

func (h *Handler) GetOrder(c *fiber.Ctx) error {
	order, err := h.orders.Get(c.UserContext(), c.Locals("inputId").(uuid.UUID))
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

func (h *Handler) DeleteOrder(c *fiber.Ctx) error {
	if err := h.orders.Delete(c.UserContext(), c.Locals("inputId").(uuid.UUID)); err != nil {
		return h.respondError(c, err)
	}
	return utils.MessageResponse(c, fiber.StatusOK, constants.ORDER_DELETED, nil)
}

type orderAction func(ctx context.Context, id uuid.UUID) (*model.Order, error)

// transition wraps the single-id lifecycle operations.
func (h *Handler) transition(action orderAction) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := action(c.UserContext(), c.Locals("inputId").(uuid.UUID))
		if err != nil {
			return h.respondError(c, err)
		}
		return utils.SuccessResponse(c, fiber.StatusOK, order)
	}
}

func (h *Handler) CancelOrder() fiber.Handler   { return h.transition(h.orders.Cancel) }
func (h *Handler) DisputeOrder() fiber.Handler  { return h.transition(h.orders.Dispute) }
func (h *Handler) CompleteOrder() fiber.Handler { return h.transition(h.orders.Complete) }

func (h *Handler) AssignOrder(c *fiber.Ctx) error {
	input := c.Locals("inputAssignOrder").(model.AssignOrderInput)
	writerID, err := uuid.Parse(input.WriterID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_UUID, err)
	}
	order, err := h.orders.Assign(c.UserContext(), c.Locals("inputId").(uuid.UUID), writerID)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

func (h *Handler) AdminTransition(c *fiber.Ctx) error {
	status := c.Locals("inputOrderStatus").(model.OrderStatus)
	order, err := h.orders.AdminTransition(c.UserContext(), c.Locals("inputId").(uuid.UUID), status)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}
