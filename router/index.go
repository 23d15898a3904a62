package router

import (
	"writing_marketplace/cache"
	"writing_marketplace/constants"
	"writing_marketplace/handler"
	"writing_marketplace/middleware"
	"writing_marketplace/model"
	"writing_marketplace/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func SetupRoutes(app *fiber.App, h *handler.Handler, auth *middleware.Auth, store cache.Store, log *zap.Logger) {
	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1")

	protected := auth.Protected()
	client := middleware.RequireRole(model.RoleClient)
	admin := middleware.RequireRole(model.RoleAdmin)
	signInLimit := middleware.RateLimit(store, "sign-in", constants.SIGN_IN_ATTEMPTS, constants.SIGN_IN_WINDOW, log)

	authGroup := v1.Group("/auth")
	authGroup.Post("/sign-up", signInLimit, validate.SignUp(), h.SignUp)
	authGroup.Post("/sign-in", signInLimit, validate.SignIn(), h.SignIn(model.RoleClient))
	authGroup.Post("/admin/sign-in", signInLimit, validate.SignIn(), h.SignIn(model.RoleAdmin))
	authGroup.Post("/writer/sign-in", signInLimit, validate.SignIn(), h.SignIn(model.RoleWriter))
	authGroup.Post("/sign-out", auth.OptionalAuth(), h.SignOut)

	oauth := v1.Group("/oauth2")
	for _, provider := range []string{model.ProviderGoogle, model.ProviderFacebook} {
		oauth.Post("/sign-in/"+provider, signInLimit, validate.OAuthSignIn(), h.OAuthSignIn(provider, model.RoleClient))
		oauth.Post("/admin/sign-in/"+provider, signInLimit, validate.OAuthSignIn(), h.OAuthSignIn(provider, model.RoleAdmin))
	}

	orders := v1.Group("/orders")
	orders.Post("/quote", validate.Quote(), h.Quote)
	orders.Post("/post-order", auth.OptionalAuth(), validate.OrderForm(), h.CreateOrder)
	orders.Get("/my-orders", protected, client, validate.OrderFilter(), h.ListMyOrders)
	orders.Get("/all/orders", protected, admin, validate.OrderFilter(), h.ListAllOrders)
	orders.Get("/order/:id", protected, validate.GetById("id"), h.GetOrder)
	orders.Patch("/update-order/:id", protected, client, validate.GetById("id"), validate.OrderForm(), h.UpdateOrder)
	orders.Delete("/delete-order/:id", protected, client, validate.GetById("id"), h.DeleteOrder)
	orders.Patch("/cancel-order/:id", protected, client, validate.GetById("id"), h.CancelOrder())
	orders.Patch("/dispute-order/:id", protected, validate.GetById("id"), h.DisputeOrder())
	orders.Patch("/complete-order/:id", protected, client, validate.GetById("id"), h.CompleteOrder())
	orders.Patch("/assign-order/:id", protected, admin, validate.GetById("id"), validate.AssignOrder(), h.AssignOrder)
	orders.Patch("/status/:id", protected, admin, validate.GetById("id"), validate.OrderStatus(), h.AdminTransition)

	checkout := v1.Group("/checkout", protected, client)
	checkout.Post("/pay-with-paypal", validate.Checkout(), h.Checkout(model.MethodPaypal))
	checkout.Post("/stripe", validate.Checkout(), h.Checkout(model.MethodStripe))
	checkout.Post("/google", validate.Checkout(), h.Checkout(model.MethodGoogle))

	// provider callbacks carry no session
	webhook := v1.Group("/webhook")
	webhook.Post("/paypal", h.PaypalWebhook)
	webhook.Post("/stripe", h.StripeWebhook)

	payments := v1.Group("/payments", protected)
	payments.Get("/all/my-payments", client, validate.Pagination(), h.ListMyPayments)
	payments.Get("/all/payments", admin, validate.Pagination(), h.ListAllPayments)
	payments.Post("/capture", client, validate.Capture(), h.CapturePaypal)

	dashboard := v1.Group("/dashboard", protected)
	dashboard.Get("/user/dashboard", client, h.UserDashboard)
	dashboard.Get("/administrator/dashboard", admin, h.AdminDashboard)

	users := v1.Group("/users", protected, admin)
	users.Get("/clients", validate.Pagination(), h.ListClients())
	users.Get("/clients/:id", validate.GetById("id"), h.GetClient)
	users.Get("/writers", validate.Pagination(), h.ListWriters())
	users.Get("/administrators", validate.Pagination(), h.ListAdministrators())

	inbox := v1.Group("/inbox", protected)
	inbox.Post("/send/email/writer", client, validate.SendMessage(), h.SendEmailToWriter)
	inbox.Get("/messages/all", validate.InboxFilter(), h.ListMessages)
	inbox.Patch("/messages/:id/:flag", validate.GetById("id"), validate.MessageFlag("flag"), h.ToggleMessageFlag)

	writers := v1.Group("/writers", protected)
	writers.Get("/all", validate.Pagination(), h.ListWriters())
	writers.Post("/create", admin, validate.CreateWriter(), h.CreateWriter)

	profile := v1.Group("/profile", protected)
	profile.Get("/my-profile", h.MyProfile)
	profile.Get("/admin-profile", admin, h.MyProfile)
	profile.Patch("/update-profile", validate.UpdateProfile(), h.UpdateProfile)
}
