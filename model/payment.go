package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type PaymentMethod string

const (
	MethodPaypal PaymentMethod = "paypal"
	MethodStripe PaymentMethod = "stripe"
	MethodGoogle PaymentMethod = "google"
)

// Payment is one attempt against an order. A partial unique index keeps at
// most one completed row per order.
type Payment struct {
	DTO
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"orderId"`
	Order       *Order          `json:"order,omitempty"`
	UserID      *uuid.UUID      `gorm:"type:uuid;index" json:"userId"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	PaymentType string          `gorm:"size:10;not null;default:full" json:"paymentType"`
	Status      PaymentStatus   `gorm:"size:20;not null;default:pending;index" json:"status"`
	Method      PaymentMethod   `gorm:"size:20;not null" json:"method"`
	ProviderRef string          `gorm:"size:255;index" json:"providerRef"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
}

type CheckoutInput struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
}

type CaptureInput struct {
	// PayPal order id returned by the approve redirect (the "token" query param).
	PaypalOrderID string `json:"paypalOrderId" validate:"required,max=64"`
}

type CheckoutSession struct {
	OrderID        uuid.UUID       `json:"orderId"`
	PaymentID      uuid.UUID       `json:"paymentId"`
	Method         PaymentMethod   `json:"method"`
	CheckoutAmount decimal.Decimal `json:"checkoutAmount"`
	RedirectURL    string          `json:"redirectUrl,omitempty"`
	ClientSecret   string          `json:"clientSecret,omitempty"`
	ProviderRef    string          `json:"providerRef"`
}
