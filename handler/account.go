package handler

import (
	"mime/multipart"

	"writing_marketplace/constants"
	"writing_marketplace/model"
	"writing_marketplace/service"
	"writing_marketplace/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type pageLister func(*fiber.Ctx, model.Pagination) (*model.ResponseCustom, error)

func (h *Handler) paged(list pageLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.Locals("inputPagination").(model.Pagination)
		res, err := list(c, page)
		if err != nil {
			return h.respondError(c, err)
		}
		return utils.SuccessResponse(c, fiber.StatusOK, res)
	}
}

func (h *Handler) ListClients() fiber.Handler {
	return h.paged(func(c *fiber.Ctx, p model.Pagination) (*model.ResponseCustom, error) {
		return h.accounts.ListClients(c.UserContext(), p)
	})
}

func (h *Handler) ListWriters() fiber.Handler {
	return h.paged(func(c *fiber.Ctx, p model.Pagination) (*model.ResponseCustom, error) {
		return h.accounts.ListWriters(c.UserContext(), p)
	})
}

func (h *Handler) ListAdministrators() fiber.Handler {
	return h.paged(func(c *fiber.Ctx, p model.Pagination) (*model.ResponseCustom, error) {
		return h.accounts.ListAdministrators(c.UserContext(), p)
	})
}

func (h *Handler) GetClient(c *fiber.Ctx) error {
	view, err := h.accounts.GetClient(c.UserContext(), c.Locals("inputId").(uuid.UUID))
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, view)
}

func (h *Handler) CreateWriter(c *fiber.Ctx) error {
	input := c.Locals("inputCreateWriter").(model.CreateWriterInput)
	view, err := h.accounts.CreateWriter(c.UserContext(), input)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, view)
}

// MyProfile serves both the client and the admin profile routes; the role
// comes from the session.
func (h *Handler) MyProfile(c *fiber.Ctx) error {
	view, err := h.accounts.Profile(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, view)
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	input := c.Locals("inputUpdateProfile").(model.UpdateProfileInput)

	var avatar *service.Attachment
	if fh, ok := c.Locals("inputAvatar").(*multipart.FileHeader); ok {
		files, closeFiles, err := openAttachments([]*multipart.FileHeader{fh})
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.UPLOAD_FAILED, err)
		}
		defer closeFiles()
		avatar = &files[0]
	}

	view, err := h.accounts.UpdateProfile(c.UserContext(), input, avatar)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, view)
}
