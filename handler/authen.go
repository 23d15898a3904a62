package handler

import (
	"writing_marketplace/constants"
	"writing_marketplace/helper"
	"writing_marketplace/model"
	"writing_marketplace/service"
	"writing_marketplace/utils"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) startSession(c *fiber.Ctx, status int, session *service.Session) error {
	h.setSessionCookie(c, session.Token, session.ExpiresAt)
	return utils.MessageResponse(c, status, constants.SIGNED_IN, session)
}

func (h *Handler) SignUp(c *fiber.Ctx) error {
	input := c.Locals("inputSignUp").(model.SignUpInput)
	session, err := h.accounts.SignUp(c.UserContext(), input)
	if err != nil {
		return h.respondError(c, err)
	}
	return h.startSession(c, fiber.StatusCreated, session)
}

// SignIn returns the password sign-in handler for one account role.
func (h *Handler) SignIn(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input := c.Locals("inputSignIn").(model.SignInInput)
		session, err := h.accounts.SignIn(c.UserContext(), input, role)
		if err != nil {
			return h.respondError(c, err)
		}
		return h.startSession(c, fiber.StatusOK, session)
	}
}

func (h *Handler) OAuthSignIn(provider string, role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input := c.Locals("inputOAuthSignIn").(model.OAuthSignInInput)
		session, err := h.accounts.OAuthSignIn(c.UserContext(), provider, input, role)
		if err != nil {
			return h.respondError(c, err)
		}
		return h.startSession(c, fiber.StatusOK, session)
	}
}

// SignOut revokes the current token when there is one and always clears
// the cookie.
func (h *Handler) SignOut(c *fiber.Ctx) error {
	if claims, ok := helper.GetSession(c); ok {
		if err := h.accounts.SignOut(c.UserContext(), claims); err != nil {
			return h.respondError(c, err)
		}
	}
	h.clearSessionCookie(c)
	return utils.MessageResponse(c, fiber.StatusOK, constants.SIGNED_OUT, nil)
}
