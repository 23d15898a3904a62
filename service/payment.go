package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"writing_marketplace/gateway"
	"writing_marketplace/model"
	"writing_marketplace/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	providerPaypal = "paypal"
	providerStripe = "stripe"
)

// statuses an order can only reach after it has been paid
var settledStatuses = map[model.OrderStatus]bool{
	model.StatusPaid:        true,
	model.StatusAssigned:    true,
	model.StatusSubmitted:   true,
	model.StatusUnconfirmed: true,
	model.StatusCompleted:   true,
	model.StatusDisputed:    true,
}

// PaymentEvent is a provider notification reduced to what settles a payment.
type PaymentEvent struct {
	Provider  string
	EventID   string
	EventType string
	OrderID   uuid.UUID
	// PaymentID is zero when the provider only echoes its own reference.
	PaymentID uuid.UUID
	// LookupRef is the provider reference stored on the payment at checkout.
	LookupRef   string
	ProviderRef string
	Method      model.PaymentMethod
	Amount      decimal.Decimal
}

type PaymentService struct {
	db          *gorm.DB
	paypal      gateway.PaypalClient
	stripe      gateway.StripeClient
	notify      Notifier
	clientURL   string
	expireAfter time.Duration
	now         func() time.Time
	log         *zap.Logger
}

func NewPaymentService(
	db *gorm.DB,
	paypal gateway.PaypalClient,
	stripe gateway.StripeClient,
	notify Notifier,
	clientURL string,
	expireAfter time.Duration,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		db:          db,
		paypal:      paypal,
		stripe:      stripe,
		notify:      notify,
		clientURL:   strings.TrimRight(clientURL, "/"),
		expireAfter: expireAfter,
		now:         time.Now,
		log:         log,
	}
}

// Checkout opens a pending payment for the order and a session with the
// chosen provider. A guest order is claimed by the paying client.
func (s *PaymentService) Checkout(ctx context.Context, orderID uuid.UUID, method model.PaymentMethod) (*model.CheckoutSession, error) {
	caller, err := requireRole(ctx, model.RoleClient)
	if err != nil {
		return nil, err
	}

	var (
		order   model.Order
		payment model.Payment
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if order.UserID == nil {
			res := tx.Model(&model.Order{}).
				Where("id = ? AND user_id IS NULL", order.ID).
				Update("user_id", caller.AccountID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrForbidden
			}
			owner := caller.AccountID
			order.UserID = &owner
			s.log.Info("guest order claimed", zap.String("order_id", order.ID.String()), zap.String("user_id", owner.String()))
		} else if *order.UserID != caller.AccountID {
			return ErrForbidden
		}

		switch {
		case settledStatuses[order.Status]:
			return ErrAlreadyPaid
		case !order.Status.Payable(), !order.CheckoutAmount.IsPositive():
			return ErrInvalidTransition
		}

		payment = model.Payment{
			OrderID:     order.ID,
			UserID:      order.UserID,
			Amount:      order.CheckoutAmount,
			PaymentType: order.PaymentOption,
			Status:      model.PaymentPending,
			Method:      method,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	session := &model.CheckoutSession{
		OrderID:        order.ID,
		PaymentID:      payment.ID,
		Method:         method,
		CheckoutAmount: payment.Amount,
	}
	ref, err := s.openSession(ctx, &order, &payment, caller.Email, session)
	if err != nil {
		s.log.Error("checkout provider call failed",
			zap.String("order_id", order.ID.String()),
			zap.String("method", string(method)),
			zap.Error(err),
		)
		if ferr := s.db.WithContext(ctx).Model(&payment).
			Where("status = ?", model.PaymentPending).
			Update("status", model.PaymentFailed).Error; ferr != nil {
			s.log.Error("mark payment failed", zap.String("payment_id", payment.ID.String()), zap.Error(ferr))
		}
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	if err := s.db.WithContext(ctx).Model(&payment).Update("provider_ref", ref).Error; err != nil {
		return nil, err
	}
	session.ProviderRef = ref
	return session, nil
}

func (s *PaymentService) openSession(ctx context.Context, order *model.Order, payment *model.Payment, email string, session *model.CheckoutSession) (string, error) {
	orderRef := order.ID.String()
	description := fmt.Sprintf("Order %s", orderRef)
	if order.Topic != "" {
		description = truncate(description+": "+order.Topic, 127)
	}

	switch payment.Method {
	case model.MethodPaypal:
		res, err := s.paypal.CreateOrder(ctx, gateway.CreateOrderRequest{
			OrderID:     orderRef,
			PaymentID:   payment.ID.String(),
			Description: description,
			Amount:      payment.Amount.StringFixed(2),
			ReturnURL:   s.clientURL + "/checkout/paypal/return?orderId=" + orderRef,
			CancelURL:   s.clientURL + "/orders/" + orderRef,
		})
		if err != nil {
			return "", err
		}
		session.RedirectURL = res.ApproveURL
		return res.OrderID, nil
	case model.MethodStripe:
		res, err := s.stripe.CreateCheckoutSession(ctx, gateway.StripeCheckoutRequest{
			OrderID:       orderRef,
			PaymentID:     payment.ID.String(),
			Description:   description,
			AmountCents:   toCents(payment.Amount),
			CustomerEmail: email,
			SuccessURL:    s.clientURL + "/checkout/success?orderId=" + orderRef,
			CancelURL:     s.clientURL + "/orders/" + orderRef,
		})
		if err != nil {
			return "", err
		}
		session.RedirectURL = res.URL
		return res.ID, nil
	case model.MethodGoogle:
		res, err := s.stripe.CreatePaymentIntent(ctx, gateway.StripeCheckoutRequest{
			OrderID:       orderRef,
			PaymentID:     payment.ID.String(),
			Description:   description,
			AmountCents:   toCents(payment.Amount),
			CustomerEmail: email,
		})
		if err != nil {
			return "", err
		}
		session.ClientSecret = res.ClientSecret
		return res.ID, nil
	}
	return "", fmt.Errorf("unsupported payment method %q", payment.Method)
}

// MarkPaid settles an order in one transaction: the delivery is recorded,
// the payment becomes completed and the order flips to Paid. Any failure
// rolls back all three. A capture for a different amount than the order's
// current checkout amount is recorded, closes its payment as failed and
// leaves the order unpaid.
func (s *PaymentService) MarkPaid(ctx context.Context, ev PaymentEvent) (*model.Order, error) {
	var (
		order    model.Order
		payment  model.Payment
		captured decimal.Decimal
		mismatch bool
		now      = s.now()
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := recordEvent(tx, ev, now); err != nil {
			return err
		}
		if err := tx.First(&order, "id = ?", ev.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !model.CanTransition(order.Status, model.StatusPaid, model.ActorPayment) {
			if settledStatuses[order.Status] {
				return ErrAlreadyPaid
			}
			return ErrInvalidTransition
		}

		found, err := findPayment(tx, ev)
		if err != nil {
			return err
		}

		captured = ev.Amount
		if !captured.IsPositive() && found != nil {
			captured = found.Amount
		}
		if captured.IsPositive() && !captured.Round(2).Equal(order.CheckoutAmount.Round(2)) {
			mismatch = true
			if found != nil && found.Status == model.PaymentPending {
				return tx.Model(found).Update("status", model.PaymentFailed).Error
			}
			return nil
		}

		if found != nil && found.Status == model.PaymentPending {
			payment = *found
		} else {
			amount := ev.Amount
			if !amount.IsPositive() {
				amount = order.CheckoutAmount
			}
			payment = model.Payment{
				OrderID:     order.ID,
				UserID:      order.UserID,
				Amount:      amount,
				PaymentType: order.PaymentOption,
				Method:      ev.Method,
			}
		}
		payment.Status = model.PaymentCompleted
		payment.PaidAt = &now
		if payment.ProviderRef == "" {
			payment.ProviderRef = ev.ProviderRef
		}
		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("save completed payment: %w", err)
		}

		res := tx.Model(&model.Order{}).
			Where("id = ? AND status IN ?", order.ID, model.PayableStatuses()).
			Updates(map[string]any{"status": model.StatusPaid, "paid_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyPaid
		}
		order.Status = model.StatusPaid
		order.PaidAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mismatch {
		s.log.Error("captured amount does not match order",
			zap.String("order_id", order.ID.String()),
			zap.String("provider", ev.Provider),
			zap.String("provider_ref", ev.ProviderRef),
			zap.String("captured", captured.StringFixed(2)),
			zap.String("checkout_amount", order.CheckoutAmount.StringFixed(2)),
		)
		return nil, ErrAmountMismatch
	}

	s.log.Info("order paid",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("provider", ev.Provider),
		zap.String("provider_ref", ev.ProviderRef),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)
	s.sendReceipt(order, payment)
	return &order, nil
}

// MarkFailed closes a pending payment as failed. With failOrder set a
// pending order also moves to Failed; it stays payable.
func (s *PaymentService) MarkFailed(ctx context.Context, ev PaymentEvent, failOrder bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := recordEvent(tx, ev, s.now()); err != nil {
			return err
		}
		found, err := findPayment(tx, ev)
		if err != nil {
			return err
		}
		if found != nil && found.Status == model.PaymentPending {
			if err := tx.Model(found).Update("status", model.PaymentFailed).Error; err != nil {
				return err
			}
		}
		if failOrder && model.CanTransition(model.StatusPending, model.StatusFailed, model.ActorPayment) {
			res := tx.Model(&model.Order{}).
				Where("id = ? AND status = ?", ev.OrderID, model.StatusPending).
				Update("status", model.StatusFailed)
			if res.Error != nil {
				return res.Error
			}
		}
		s.log.Warn("payment failed",
			zap.String("order_id", ev.OrderID.String()),
			zap.String("provider", ev.Provider),
			zap.String("event_type", ev.EventType),
		)
		return nil
	})
}

// HandlePaypalWebhook verifies and applies one PayPal delivery. Replays and
// deliveries for unknown or already settled orders are acknowledged.
func (s *PaymentService) HandlePaypalWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if err := s.paypal.VerifyWebhookSignature(ctx, headers, body); err != nil {
		s.log.Warn("paypal webhook rejected", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrInvalidWebhook, err)
	}

	var event gateway.PaypalWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: decode payload: %w", ErrInvalidWebhook, err)
	}

	switch event.EventType {
	case "PAYMENT.CAPTURE.COMPLETED", "PAYMENT.CAPTURE.DENIED":
	default:
		s.log.Debug("paypal webhook ignored", zap.String("event_type", event.EventType))
		return nil
	}

	orderID, err := uuid.Parse(event.Resource.CustomID)
	if err != nil {
		s.log.Warn("paypal webhook without order reference",
			zap.String("event_id", event.ID),
			zap.String("custom_id", event.Resource.CustomID),
		)
		return nil
	}
	amount, _ := decimal.NewFromString(event.Resource.Amount.Value)
	ev := PaymentEvent{
		Provider:    providerPaypal,
		EventID:     event.ID,
		EventType:   event.EventType,
		OrderID:     orderID,
		LookupRef:   event.Resource.SupplementaryData.RelatedIDs.OrderID,
		ProviderRef: event.Resource.ID,
		Method:      model.MethodPaypal,
		Amount:      amount,
	}

	if event.EventType == "PAYMENT.CAPTURE.COMPLETED" {
		_, err = s.MarkPaid(ctx, ev)
	} else {
		err = s.MarkFailed(ctx, ev, true)
	}
	return s.acknowledge(ev, err)
}

func (s *PaymentService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.stripe.ParseWebhook(payload, signature)
	if err != nil {
		s.log.Warn("stripe webhook rejected", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrInvalidWebhook, err)
	}
	if event.Kind == gateway.StripeEventIgnored {
		s.log.Debug("stripe webhook ignored", zap.String("event_type", event.Type))
		return nil
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		s.log.Warn("stripe webhook without order reference", zap.String("event_id", event.ID))
		return nil
	}
	paymentID, _ := uuid.Parse(event.PaymentID)
	method := model.MethodStripe
	if strings.HasPrefix(event.Type, "payment_intent.") {
		method = model.MethodGoogle
	}
	ev := PaymentEvent{
		Provider:    providerStripe,
		EventID:     event.ID,
		EventType:   event.Type,
		OrderID:     orderID,
		PaymentID:   paymentID,
		LookupRef:   event.ProviderRef,
		ProviderRef: event.ProviderRef,
		Method:      method,
		Amount:      decimal.New(event.AmountCents, -2),
	}

	if event.Kind == gateway.StripeEventSucceeded {
		_, err = s.MarkPaid(ctx, ev)
	} else {
		err = s.MarkFailed(ctx, ev, false)
	}
	return s.acknowledge(ev, err)
}

// acknowledge turns integrity gaps into no-ops so the provider stops
// redelivering. Anything else is returned and the provider retries.
func (s *PaymentService) acknowledge(ev PaymentEvent, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicateEvent),
		errors.Is(err, ErrAlreadyPaid),
		errors.Is(err, ErrOrderNotFound):
		s.log.Warn("webhook acknowledged without changes",
			zap.String("provider", ev.Provider),
			zap.String("event_id", ev.EventID),
			zap.String("order_id", ev.OrderID.String()),
			zap.Error(err),
		)
		return nil
	case errors.Is(err, ErrAmountMismatch):
		// already logged with both amounts; needs a refund by hand
		return nil
	case errors.Is(err, ErrInvalidTransition):
		s.log.Error("payment received for an order that is not payable",
			zap.String("provider", ev.Provider),
			zap.String("event_id", ev.EventID),
			zap.String("order_id", ev.OrderID.String()),
			zap.String("provider_ref", ev.ProviderRef),
		)
		return nil
	}
	return err
}

// CapturePaypal finalizes an approved PayPal order on the buyer's return.
// It is safe to call after the webhook already settled the payment.
func (s *PaymentService) CapturePaypal(ctx context.Context, paypalOrderID string) (*model.Order, error) {
	caller, err := requireRole(ctx, model.RoleClient)
	if err != nil {
		return nil, err
	}

	var payment model.Payment
	err = s.db.WithContext(ctx).
		Preload("Order").
		Where("provider_ref = ? AND method = ?", paypalOrderID, model.MethodPaypal).
		Order("created_at desc").
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if payment.Order == nil || payment.Order.UserID == nil || *payment.Order.UserID != caller.AccountID {
		return nil, ErrForbidden
	}
	if payment.Status == model.PaymentCompleted {
		return payment.Order, nil
	}
	if !payment.Amount.Round(2).Equal(payment.Order.CheckoutAmount.Round(2)) {
		// the order was edited after this session opened
		return nil, ErrAmountMismatch
	}

	res, err := s.paypal.CaptureOrder(ctx, paypalOrderID, payment.ID.String())
	if errors.Is(err, gateway.ErrAlreadyCaptured) {
		res, err = s.paypal.GetOrder(ctx, paypalOrderID)
	}
	if err != nil {
		s.log.Error("paypal capture failed", zap.String("paypal_order_id", paypalOrderID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	amount, _ := decimal.NewFromString(res.Amount)
	ev := PaymentEvent{
		Provider:    providerPaypal,
		EventType:   "CAPTURE",
		OrderID:     payment.OrderID,
		PaymentID:   payment.ID,
		ProviderRef: res.CaptureID,
		Method:      model.MethodPaypal,
		Amount:      amount,
	}
	if !res.Completed() {
		if err := s.MarkFailed(ctx, ev, true); err != nil {
			return nil, err
		}
		return nil, ErrPaymentDeclined
	}

	order, err := s.MarkPaid(ctx, ev)
	if errors.Is(err, ErrAlreadyPaid) {
		var current model.Order
		if err := s.db.WithContext(ctx).First(&current, "id = ?", payment.OrderID).Error; err != nil {
			return nil, err
		}
		return &current, nil
	}
	return order, err
}

func (s *PaymentService) ListMine(ctx context.Context, page model.Pagination) (*model.ResponseCustom, error) {
	caller, err := requireRole(ctx, model.RoleClient)
	if err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(&model.Payment{}).Where("user_id = ?", caller.AccountID)
	return listPayments(query, page)
}

func (s *PaymentService) ListAll(ctx context.Context, page model.Pagination) (*model.ResponseCustom, error) {
	if _, err := requireRole(ctx, model.RoleAdmin); err != nil {
		return nil, err
	}
	return listPayments(s.db.WithContext(ctx).Model(&model.Payment{}), page)
}

func listPayments(query *gorm.DB, page model.Pagination) (*model.ResponseCustom, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	limit, p := utils.NormalizePage(page.Limit, page.Page)
	var payments []model.Payment
	err := utils.ApplyPagination(query.Preload("Order").Order("created_at desc"), limit, p).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return &model.ResponseCustom{Rows: payments, Limit: limit, Page: p, TotalCount: total}, nil
}

// ExpireStalePayments fails pending payments nobody completed in time.
// Orders are left alone so the client can check out again.
func (s *PaymentService) ExpireStalePayments(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.expireAfter)
	res := s.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("status = ? AND created_at < ?", model.PaymentPending, cutoff).
		Update("status", model.PaymentFailed)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.log.Info("stale payments expired", zap.Int64("count", res.RowsAffected), zap.Time("cutoff", cutoff))
	}
	return res.RowsAffected, nil
}

func (s *PaymentService) sendReceipt(order model.Order, payment model.Payment) {
	if s.notify == nil || order.UserID == nil {
		return
	}
	go func() {
		var user model.User
		if err := s.db.First(&user, "id = ?", *order.UserID).Error; err != nil {
			s.log.Warn("receipt skipped, owner not found", zap.String("order_id", order.ID.String()), zap.Error(err))
			return
		}
		deadline := ""
		if order.Deadline != nil {
			deadline = utils.FormatDisplayDate(*order.Deadline)
		}
		data := utils.PaymentReceiptData{
			CustomerName: user.Name,
			OrderID:      order.ID.String(),
			Topic:        order.Topic,
			Pages:        order.Pages,
			Deadline:     deadline,
			Method:       string(payment.Method),
			Amount:       payment.Amount.StringFixed(2),
			StatusLabel:  order.Status.Label(),
			DetailLink:   s.clientURL + "/orders/" + order.ID.String(),
		}
		if err := s.notify.SendPaymentReceipt(user.Email, data); err != nil {
			s.log.Error("send payment receipt", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}()
}

func recordEvent(tx *gorm.DB, ev PaymentEvent, now time.Time) error {
	if ev.EventID == "" {
		return nil
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.WebhookEvent{
		EventID:     ev.EventID,
		Provider:    ev.Provider,
		EventType:   ev.EventType,
		ProcessedAt: now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateEvent
	}
	return nil
}

func findPayment(tx *gorm.DB, ev PaymentEvent) (*model.Payment, error) {
	query := tx.Where("order_id = ?", ev.OrderID)
	switch {
	case ev.PaymentID != uuid.Nil:
		query = query.Where("id = ?", ev.PaymentID)
	case ev.LookupRef != "":
		query = query.Where("provider_ref = ?", ev.LookupRef)
	default:
		return nil, nil
	}
	var p model.Payment
	err := query.First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
