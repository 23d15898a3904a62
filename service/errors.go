package service

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotEditable    = errors.New("order can no longer be edited")
	ErrInvalidTransition   = errors.New("order status transition not allowed")
	ErrOnlyDraftDeletable  = errors.New("only draft orders can be deleted")
	ErrTooManyFiles        = errors.New("too many files attached to order")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountInactive     = errors.New("account is not active")
	ErrWriterNotFound      = errors.New("writer not found")
	ErrMessageNotFound     = errors.New("message not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrAlreadyPaid         = errors.New("order already paid")
	ErrPaymentDeclined     = errors.New("payment declined")
	ErrAmountMismatch      = errors.New("captured amount does not match order total")
	ErrDuplicateEvent      = errors.New("webhook event already processed")
	ErrInvalidWebhook      = errors.New("invalid webhook")
	ErrUnsupportedProvider = errors.New("unsupported oauth provider")
	ErrRateLimited         = errors.New("too many requests")
	ErrProvider            = errors.New("upstream provider error")
)
