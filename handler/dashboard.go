package handler

import (
	"writing_marketplace/utils"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) UserDashboard(c *fiber.Ctx) error {
	res, err := h.dashboard.User(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, res)
}

func (h *Handler) AdminDashboard(c *fiber.Ctx) error {
	res, err := h.dashboard.Admin(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, res)
}
