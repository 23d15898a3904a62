package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"writing_marketplace/constants"
	"writing_marketplace/helper"
	"writing_marketplace/model"
	"writing_marketplace/utils"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// orderFormColumns are the columns an owner edit may touch.
var orderFormColumns = []string{
	"service_type", "document_type", "academic_level", "subject", "paper_format",
	"language", "spacing", "writer_category", "pages", "words", "sources", "slides",
	"charts", "deadline", "topic", "instructions", "files", "plagiarism_report", "tip",
	"total_price", "payment_option", "coupon_code", "amount_due", "checkout_amount", "status",
}

type OrderService struct {
	db     *gorm.DB
	prices helper.PriceTable
	files  helper.Uploader
	now    func() time.Time
	log    *zap.Logger
}

func NewOrderService(db *gorm.DB, prices helper.PriceTable, files helper.Uploader, log *zap.Logger) *OrderService {
	return &OrderService{
		db:     db,
		prices: prices,
		files:  files,
		now:    time.Now,
		log:    log,
	}
}

func priceInputOf(o *model.Order) helper.PriceInput {
	return helper.PriceInput{
		ServiceType:      o.ServiceType,
		DocumentType:     o.DocumentType,
		AcademicLevel:    o.AcademicLevel,
		Pages:            o.Pages,
		Deadline:         o.Deadline,
		WriterCategory:   o.WriterCategory,
		Spacing:          o.Spacing,
		Sources:          o.Sources,
		Slides:           o.Slides,
		Charts:           o.Charts,
		Tip:              o.Tip,
		PlagiarismReport: o.PlagiarismReport,
		PaymentOption:    o.PaymentOption,
	}
}

// Quote prices a form without persisting anything.
func (s *OrderService) Quote(in model.OrderInput) helper.PriceQuote {
	var o model.Order
	if err := s.apply(&o, in, false); err != nil {
		s.log.Debug("quote input not fully copied", zap.Error(err))
	}
	return s.prices.Quote(priceInputOf(&o), s.now()).Rounded()
}

func inputOf(o *model.Order) model.OrderInput {
	return model.OrderInput{
		ServiceType:      o.ServiceType,
		DocumentType:     o.DocumentType,
		AcademicLevel:    o.AcademicLevel,
		Subject:          o.Subject,
		Topic:            o.Topic,
		PaperFormat:      o.PaperFormat,
		Language:         o.Language,
		Spacing:          o.Spacing,
		WriterCategory:   o.WriterCategory,
		Pages:            o.Pages,
		Words:            o.Words,
		Sources:          o.Sources,
		Slides:           o.Slides,
		Charts:           o.Charts,
		Deadline:         o.Deadline,
		Instructions:     o.Instructions,
		Tip:              o.Tip,
		PlagiarismReport: o.PlagiarismReport,
		PaymentOption:    o.PaymentOption,
		CouponCode:       o.CouponCode,
	}
}

// apply copies the form onto o and recomputes every commercial field, so the
// stored checkout amount can never drift from the rest of the row. With
// partial set only the fields present in the form replace stored values;
// otherwise the form replaces them all, zero values included.
func (s *OrderService) apply(o *model.Order, in model.OrderInput, partial bool) error {
	src := in
	if partial {
		src = in.Overlay(inputOf(o))
	}
	if err := copier.Copy(o, &src); err != nil {
		return fmt.Errorf("copy order input: %w", err)
	}
	o.PlagiarismReport = src.PlagiarismReport
	o.Tip = src.Tip
	o.Deadline = src.Deadline

	if o.Pages < 1 {
		o.Pages = 1
	}
	for _, n := range []*int{&o.Words, &o.Sources, &o.Slides, &o.Charts} {
		if *n < 0 {
			*n = 0
		}
	}
	if o.Tip.IsNegative() {
		o.Tip = decimal.Zero
	}
	if o.PaymentOption != "half" {
		o.PaymentOption = "full"
	}

	q := s.prices.Quote(priceInputOf(o), s.now()).Rounded()
	o.Tip = o.Tip.Round(2)
	o.TotalPrice = q.Total
	o.AmountDue = q.AmountDue
	o.CheckoutAmount = q.CheckoutAmount
	return nil
}

func (s *OrderService) upload(ctx context.Context, files []Attachment) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		key := helper.ObjectKey("orders", f.Filename, s.now())
		url, err := s.files.Upload(ctx, key, f.Body, f.Size, f.ContentType)
		if err != nil {
			s.log.Error("order file upload failed", zap.String("key", key), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrProvider, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// Create stores a new order as a draft or pending depending on the form's
// save-as-draft flag. Anonymous callers create guest orders with no owner.
func (s *OrderService) Create(ctx context.Context, in model.OrderInput, files []Attachment) (*model.Order, error) {
	order := &model.Order{Status: model.StatusPending}
	if in.SaveAsDraft {
		order.Status = model.StatusDraft
	}
	if caller, ok := CallerFromContext(ctx); ok {
		if caller.Role != model.RoleClient {
			return nil, ErrForbidden
		}
		owner := caller.AccountID
		order.UserID = &owner
	}
	if len(files) > constants.MAX_ORDER_FILES {
		return nil, ErrTooManyFiles
	}
	if err := s.apply(order, in, false); err != nil {
		return nil, err
	}

	urls, err := s.upload(ctx, files)
	if err != nil {
		return nil, err
	}
	order.Files = urls

	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	s.log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
		zap.String("checkout_amount", order.CheckoutAmount.StringFixed(2)),
	)
	return order, nil
}

// Update edits a draft or pending order. A draft saved without the draft
// flag is promoted to pending; a pending order cannot go back to draft.
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, in model.OrderInput, files []Attachment) (*model.Order, error) {
	caller, err := requireRole(ctx, model.RoleClient)
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(order, caller); err != nil {
		return nil, err
	}
	if !order.Status.Editable() {
		return nil, ErrOrderNotEditable
	}

	prev := order.Status
	next := prev
	switch {
	case in.SaveAsDraft && prev != model.StatusDraft:
		return nil, ErrInvalidTransition
	case !in.SaveAsDraft && prev == model.StatusDraft:
		if !model.CanTransition(prev, model.StatusPending, model.ActorOwner) {
			return nil, ErrInvalidTransition
		}
		next = model.StatusPending
	}

	if len(order.Files)+len(files) > constants.MAX_ORDER_FILES {
		return nil, ErrTooManyFiles
	}
	// a draft saved again as a draft may be partial, anything else was
	// validated as a complete form
	prevCheckout := order.CheckoutAmount
	if err := s.apply(order, in, next == model.StatusDraft); err != nil {
		return nil, err
	}
	order.Status = next

	urls, err := s.upload(ctx, files)
	if err != nil {
		return nil, err
	}
	order.Files = append(order.Files, urls...)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(order).
			Where("status = ?", prev).
			Select(orderFormColumns).
			Updates(order)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// status moved underneath us, most likely a payment landed
			return ErrOrderNotEditable
		}
		if order.CheckoutAmount.Equal(prevCheckout) {
			return nil
		}
		// sessions opened at the old amount can no longer settle the order
		res = tx.Model(&model.Payment{}).
			Where("order_id = ? AND status = ?", order.ID, model.PaymentPending).
			Update("status", model.PaymentFailed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			s.log.Info("open payments closed after order edit",
				zap.String("order_id", order.ID.String()),
				zap.Int64("payments", res.RowsAffected),
				zap.String("checkout_amount", order.CheckoutAmount.StringFixed(2)),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Delete removes a draft. Any other status is refused.
func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	caller, err := requireRole(ctx, model.RoleClient)
	if err != nil {
		return err
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := ownedBy(order, caller); err != nil {
		return err
	}
	if !order.Status.Deletable() {
		return ErrOnlyDraftDeletable
	}

	res := s.db.WithContext(ctx).Where("status = ?", model.StatusDraft).Delete(order)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOnlyDraftDeletable
	}
	s.log.Info("draft order deleted", zap.String("order_id", id.String()))
	return nil
}

func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	caller, err := requireRole(ctx, model.RoleClient)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, model.StatusCancelled, model.ActorOwner,
		func(o *model.Order) error { return ownedBy(o, caller) },
		map[string]any{"cancelled_at": s.now()},
	)
}

func (s *OrderService) Dispute(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	caller, err := requireRole(ctx, model.RoleClient, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	actor := model.ActorOwner
	if caller.Role == model.RoleAdmin {
		actor = model.ActorAdmin
	}
	return s.transition(ctx, id, model.StatusDisputed, actor,
		func(o *model.Order) error { return ownedBy(o, caller) }, nil)
}

func (s *OrderService) Complete(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	caller, err := requireRole(ctx, model.RoleClient)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, model.StatusCompleted, model.ActorOwner,
		func(o *model.Order) error { return ownedBy(o, caller) }, nil)
}

func (s *OrderService) Assign(ctx context.Context, id, writerID uuid.UUID) (*model.Order, error) {
	if _, err := requireRole(ctx, model.RoleAdmin); err != nil {
		return nil, err
	}
	var writer model.Writer
	err := s.db.WithContext(ctx).Where("id = ? AND active = ?", writerID, true).First(&writer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWriterNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, model.StatusAssigned, model.ActorAdmin, nil,
		map[string]any{"writer_id": writer.ID})
}

// AdminTransition moves an order along any edge the admin actor owns.
func (s *OrderService) AdminTransition(ctx context.Context, id uuid.UUID, to model.OrderStatus) (*model.Order, error) {
	if _, err := requireRole(ctx, model.RoleAdmin); err != nil {
		return nil, err
	}
	if to == model.StatusAssigned {
		// assignment needs a writer, see Assign
		return nil, ErrInvalidTransition
	}
	return s.transition(ctx, id, to, model.ActorAdmin, nil, nil)
}

func (s *OrderService) transition(ctx context.Context, id uuid.UUID, to model.OrderStatus, actor model.Actor, check func(*model.Order) error, extra map[string]any) (*model.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(order); err != nil {
			return nil, err
		}
	}
	from := order.Status
	if !model.CanTransition(from, to, actor) {
		return nil, ErrInvalidTransition
	}

	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := s.db.WithContext(ctx).Model(order).Where("status = ?", from).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	s.log.Info("order status changed",
		zap.String("order_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", string(actor)),
	)
	return s.load(ctx, id)
}

// Get returns one order with its payments. Clients only see their own.
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	var order model.Order
	err = s.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") }).
		Preload("Writer").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := ownedBy(&order, caller); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) ListMine(ctx context.Context, filter model.OrderFilter) (*model.ResponseCustom, error) {
	caller, err := requireRole(ctx, model.RoleClient)
	if err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", caller.AccountID)
	return s.list(query, filter)
}

func (s *OrderService) ListAll(ctx context.Context, filter model.OrderFilter) (*model.ResponseCustom, error) {
	if _, err := requireRole(ctx, model.RoleAdmin); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(&model.Order{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	return s.list(query, filter, "User")
}

func (s *OrderService) list(query *gorm.DB, filter model.OrderFilter, preloads ...string) (*model.ResponseCustom, error) {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	limit, page := utils.NormalizePage(filter.Limit, filter.Page)
	find := query.Order("created_at desc")
	for _, p := range preloads {
		find = find.Preload(p)
	}
	var orders []model.Order
	if err := utils.ApplyPagination(find, limit, page).Find(&orders).Error; err != nil {
		return nil, err
	}
	return &model.ResponseCustom{Rows: orders, Limit: limit, Page: page, TotalCount: total}, nil
}

func (s *OrderService) load(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ownedBy lets admins through, lets a writer see orders assigned to them and
// restricts clients to their own orders. Guest orders belong to nobody until
// checkout claims them.
func ownedBy(o *model.Order, caller model.TokenClaim) error {
	switch caller.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleWriter:
		if o.WriterID != nil && *o.WriterID == caller.AccountID {
			return nil
		}
		return ErrForbidden
	}
	if o.UserID == nil || *o.UserID != caller.AccountID {
		return ErrForbidden
	}
	return nil
}
