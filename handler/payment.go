package handler

import (
	"net/http"

	"writing_marketplace/constants"
	"writing_marketplace/model"
	"writing_marketplace/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Checkout opens a provider session for the order in the request body.
func (h *Handler) Checkout(method model.PaymentMethod) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input := c.Locals("inputCheckout").(model.CheckoutInput)
		orderID, err := uuid.Parse(input.OrderID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_UUID, err)
		}
		session, err := h.payments.Checkout(c.UserContext(), orderID, method)
		if err != nil {
			return h.respondError(c, err)
		}
		return utils.SuccessResponse(c, fiber.StatusCreated, session)
	}
}

func (h *Handler) CapturePaypal(c *fiber.Ctx) error {
	input := c.Locals("inputCapture").(model.CaptureInput)
	order, err := h.payments.CapturePaypal(c.UserContext(), input.PaypalOrderID)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

func (h *Handler) PaypalWebhook(c *fiber.Ctx) error {
	headers := http.Header{}
	c.Request().Header.VisitAll(func(k, v []byte) {
		headers.Add(string(k), string(v))
	})
	// the body slice is reused by fasthttp after the handler returns
	body := append([]byte(nil), c.Body()...)
	if err := h.payments.HandlePaypalWebhook(c.UserContext(), headers, body); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// StripeWebhook verifies against the raw body, so nothing may parse it first.
func (h *Handler) StripeWebhook(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)
	if err := h.payments.HandleStripeWebhook(c.UserContext(), body, c.Get("Stripe-Signature")); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *Handler) ListMyPayments(c *fiber.Ctx) error {
	page := c.Locals("inputPagination").(model.Pagination)
	res, err := h.payments.ListMine(c.UserContext(), page)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, res)
}

func (h *Handler) ListAllPayments(c *fiber.Ctx) error {
	page := c.Locals("inputPagination").(model.Pagination)
	res, err := h.payments.ListAll(c.UserContext(), page)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, res)
}
