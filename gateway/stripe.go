package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"writing_marketplace/config"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeEventKind int

const (
	StripeEventIgnored StripeEventKind = iota
	StripeEventSucceeded
	StripeEventFailed
)

type StripeCheckoutRequest struct {
	OrderID       string
	PaymentID     string
	Description   string
	AmountCents   int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type StripeSession struct {
	ID           string
	URL          string
	ClientSecret string
}

// StripeEvent is a verified webhook reduced to what the payment flow needs.
type StripeEvent struct {
	ID          string
	Type        string
	Kind        StripeEventKind
	OrderID     string
	PaymentID   string
	ProviderRef string
	AmountCents int64
}

type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, req StripeCheckoutRequest) (*StripeSession, error)
	CreatePaymentIntent(ctx context.Context, req StripeCheckoutRequest) (*StripeSession, error)
	ParseWebhook(payload []byte, signature string) (*StripeEvent, error)
}

type stripeClientImpl struct {
	api           *client.API
	webhookSecret string
	currency      string
}

func NewStripeClient(cfg config.Stripe) StripeClient {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &stripeClientImpl{api: api, webhookSecret: cfg.WebhookSecret, currency: cfg.Currency}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, req StripeCheckoutRequest) (*StripeSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(c.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata("orderId", req.OrderID)
	params.AddMetadata("paymentId", req.PaymentID)
	params.Context = ctx
	params.SetIdempotencyKey("checkout-" + req.PaymentID)

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}
	return &StripeSession{ID: s.ID, URL: s.URL}, nil
}

// CreatePaymentIntent backs the Google Pay button: the browser confirms the
// intent with a wallet card through Stripe.js.
func (c *stripeClientImpl) CreatePaymentIntent(ctx context.Context, req StripeCheckoutRequest) (*StripeSession, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.AmountCents),
		Currency:           stripe.String(c.currency),
		Description:        stripe.String(req.Description),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata("orderId", req.OrderID)
	params.AddMetadata("paymentId", req.PaymentID)
	params.Context = ctx
	params.SetIdempotencyKey("intent-" + req.PaymentID)

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe payment intent: %w", err)
	}
	return &StripeSession{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (c *stripeClientImpl) ParseWebhook(payload []byte, signature string) (*StripeEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verify stripe signature: %w", err)
	}
	return decodeStripeEvent(event)
}

func decodeStripeEvent(event stripe.Event) (*StripeEvent, error) {
	out := &StripeEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded", "checkout.session.expired", "checkout.session.async_payment_failed":
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.OrderID = s.Metadata["orderId"]
		out.PaymentID = s.Metadata["paymentId"]
		out.ProviderRef = s.ID
		out.AmountCents = s.AmountTotal
		switch {
		case out.Type == "checkout.session.expired" || out.Type == "checkout.session.async_payment_failed":
			out.Kind = StripeEventFailed
		case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
			out.Kind = StripeEventSucceeded
		}
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		// intents created by Checkout carry no metadata and are settled by
		// the session events above
		if pi.Metadata["orderId"] == "" {
			return out, nil
		}
		out.OrderID = pi.Metadata["orderId"]
		out.PaymentID = pi.Metadata["paymentId"]
		out.ProviderRef = pi.ID
		out.AmountCents = pi.Amount
		if out.Type == "payment_intent.succeeded" {
			out.Kind = StripeEventSucceeded
		} else {
			out.Kind = StripeEventFailed
		}
	}
	return out, nil
}
