package validate

import (
	"writing_marketplace/model"

	"github.com/gofiber/fiber/v2"
)

func Checkout() fiber.Handler {
	return body[model.CheckoutInput]("inputCheckout")
}

func Capture() fiber.Handler {
	return body[model.CaptureInput]("inputCapture")
}
