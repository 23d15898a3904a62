package validate

import (
	"writing_marketplace/model"

	"github.com/gofiber/fiber/v2"
)

func SignUp() fiber.Handler {
	return body[model.SignUpInput]("inputSignUp")
}

func SignIn() fiber.Handler {
	return body[model.SignInInput]("inputSignIn")
}

func OAuthSignIn() fiber.Handler {
	return body[model.OAuthSignInInput]("inputOAuthSignIn")
}

func CreateWriter() fiber.Handler {
	return body[model.CreateWriterInput]("inputCreateWriter")
}

// UpdateProfile accepts JSON or a multipart form with an optional "avatar"
// image.
func UpdateProfile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.UpdateProfileInput
		if err := c.BodyParser(&input); err != nil {
			return Fail(c, err)
		}
		if err := Struct(input); err != nil {
			return Fail(c, err)
		}

		if form, err := c.MultipartForm(); err == nil {
			if files := form.File["avatar"]; len(files) > 0 {
				avatar := files[0]
				if err := checkFile(avatar, "avatar"); err != nil {
					return Fail(c, err)
				}
				c.Locals("inputAvatar", avatar)
			}
		}

		c.Locals("inputUpdateProfile", input)
		return c.Next()
	}
}
