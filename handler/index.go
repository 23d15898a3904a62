package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"time"

	"writing_marketplace/constants"
	"writing_marketplace/service"
	"writing_marketplace/utils"
	"writing_marketplace/validate"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler holds the services behind the HTTP routes.
type Handler struct {
	accounts   *service.AccountService
	orders     *service.OrderService
	payments   *service.PaymentService
	dashboard  *service.DashboardService
	messages   *service.MessageService
	secure     bool
	sessionTTL time.Duration
	log        *zap.Logger
}

type Deps struct {
	Accounts   *service.AccountService
	Orders     *service.OrderService
	Payments   *service.PaymentService
	Dashboard  *service.DashboardService
	Messages   *service.MessageService
	Secure     bool // production cookies
	SessionTTL time.Duration
	Log        *zap.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		accounts:   d.Accounts,
		orders:     d.Orders,
		payments:   d.Payments,
		dashboard:  d.Dashboard,
		messages:   d.Messages,
		secure:     d.Secure,
		sessionTTL: d.SessionTTL,
		log:        d.Log,
	}
}

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{service.ErrUnauthorized, fiber.StatusUnauthorized, constants.UNAUTHORIZED},
	{service.ErrInvalidCredentials, fiber.StatusUnauthorized, constants.INVALID_CREDENTIALS},
	{service.ErrForbidden, fiber.StatusForbidden, constants.FORBIDDEN},
	{service.ErrAccountInactive, fiber.StatusForbidden, constants.ACCOUNT_NOT_ACTIVE},
	{service.ErrOrderNotFound, fiber.StatusNotFound, constants.ORDER_NOT_FOUND},
	{service.ErrAccountNotFound, fiber.StatusNotFound, constants.ACCOUNT_NOT_FOUND},
	{service.ErrWriterNotFound, fiber.StatusNotFound, constants.WRITER_NOT_FOUND},
	{service.ErrMessageNotFound, fiber.StatusNotFound, constants.MESSAGE_NOT_FOUND},
	{service.ErrPaymentNotFound, fiber.StatusNotFound, constants.PAYMENT_NOT_FOUND},
	{service.ErrEmailTaken, fiber.StatusConflict, constants.EMAIL_ALREADY_EXISTS},
	{service.ErrAlreadyPaid, fiber.StatusConflict, constants.ORDER_ALREADY_PAID},
	{service.ErrOrderNotEditable, fiber.StatusConflict, constants.ORDER_NOT_EDITABLE},
	{service.ErrOnlyDraftDeletable, fiber.StatusConflict, constants.ORDER_NOT_DRAFT},
	{service.ErrInvalidTransition, fiber.StatusUnprocessableEntity, constants.INVALID_TRANSITION},
	{service.ErrTooManyFiles, fiber.StatusBadRequest, constants.TOO_MANY_FILES},
	{service.ErrUnsupportedProvider, fiber.StatusBadRequest, constants.UNSUPPORTED_OAUTH},
	{service.ErrInvalidWebhook, fiber.StatusBadRequest, constants.INVALID_WEBHOOK},
	{service.ErrPaymentDeclined, fiber.StatusPaymentRequired, constants.PAYMENT_DECLINED},
	{service.ErrAmountMismatch, fiber.StatusConflict, constants.AMOUNT_MISMATCH},
	{service.ErrRateLimited, fiber.StatusTooManyRequests, constants.TOO_MANY_REQUESTS},
}

// respondError renders a service error. Provider and unexpected errors are
// logged with detail and answered with a generic message.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return utils.ErrorResponse(c, m.status, m.message, m.target)
		}
	}
	var fields validate.FieldErrors
	if errors.As(err, &fields) {
		return validate.Fail(c, fields)
	}
	if errors.Is(err, service.ErrProvider) {
		h.log.Error("provider error", zap.String("path", c.Path()), zap.Error(err))
		return utils.ErrorResponse(c, fiber.StatusBadGateway, constants.ERROR_PROVIDER, service.ErrProvider)
	}
	h.log.Error("request failed", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, nil)
}

func (h *Handler) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     constants.SESSION_COOKIE,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(h.sessionTTL.Seconds()),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: h.sameSite(),
	})
}

func (h *Handler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     constants.SESSION_COOKIE,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: h.sameSite(),
	})
}

func (h *Handler) sameSite() string {
	if h.secure {
		return fiber.CookieSameSiteNoneMode
	}
	return fiber.CookieSameSiteLaxMode
}

// openAttachments opens the uploaded parts. The returned func closes them.
func openAttachments(headers []*multipart.FileHeader) ([]service.Attachment, func(), error) {
	files := make([]io.Closer, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	out := make([]service.Attachment, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		out = append(out, service.Attachment{
			Filename:    fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Body:        f,
		})
	}
	return out, closeAll, nil
}
