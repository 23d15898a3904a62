package service

import (
	"context"
	"sort"

	"writing_marketplace/constants"
	"writing_marketplace/model"
	"writing_marketplace/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DashboardService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewDashboardService(db *gorm.DB, log *zap.Logger) *DashboardService {
	return &DashboardService{db: db, log: log}
}

type statusCount struct {
	Status string
	Total  int64
}

// AggregateStatusCounts folds raw per-status counts into display buckets.
// Stored values outside the closed status set count towards All only, so
// the named buckets never sum past All. Their total and the values
// themselves are returned separately.
func AggregateStatusCounts(counts map[string]int64) (model.StatusBuckets, int64, []string) {
	var (
		b            model.StatusBuckets
		unrecognized int64
		unknown      []string
	)
	for raw, n := range counts {
		b.All += n
		switch model.OrderStatus(raw) {
		case model.StatusDraft:
			b.Draft += n
		case model.StatusPending:
			b.Pending += n
		case model.StatusPaid:
			b.Paid += n
		case model.StatusAssigned:
			b.InProgress += n
		case model.StatusCompleted:
			b.Completed += n
		case model.StatusCancelled:
			b.Cancelled += n
		case model.StatusDisputed:
			b.Disputed += n
		case model.StatusSubmitted:
			b.Submitted += n
		case model.StatusUnconfirmed:
			b.Unconfirmed += n
		case model.StatusFailed:
			b.Failed += n
		default:
			unrecognized += n
			unknown = append(unknown, raw)
		}
	}
	sort.Strings(unknown)
	return b, unrecognized, unknown
}

// BuildRecent renders orders, newest first, into at most limit preview rows.
// The input slice is left untouched.
func BuildRecent(orders []model.Order, limit int) []model.RecentOrder {
	sorted := make([]model.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]model.RecentOrder, 0, len(sorted))
	for _, o := range sorted {
		out = append(out, model.RecentOrder{
			ID:             o.ID.String(),
			Topic:          o.Topic,
			Subject:        o.Subject,
			Pages:          o.Pages,
			CheckoutAmount: o.CheckoutAmount,
			Date:           utils.FormatDisplayDate(o.CreatedAt),
			Status:         o.Status,
			StatusLabel:    o.Status.Label(),
		})
	}
	return out
}

func (s *DashboardService) User(ctx context.Context) (*model.UserDashboard, error) {
	caller, err := requireRole(ctx, model.RoleClient)
	if err != nil {
		return nil, err
	}
	scope := func(db *gorm.DB) *gorm.DB { return db.Where("user_id = ?", caller.AccountID) }

	counts, unrecognized, err := s.counts(ctx, scope, caller.AccountID)
	if err != nil {
		return nil, err
	}
	recent, err := s.recent(ctx, scope, constants.USER_RECENT_ORDERS)
	if err != nil {
		return nil, err
	}
	return &model.UserDashboard{Counts: counts, UnrecognizedStatuses: unrecognized, Recent: recent}, nil
}

func (s *DashboardService) Admin(ctx context.Context) (*model.AdminDashboard, error) {
	if _, err := requireRole(ctx, model.RoleAdmin); err != nil {
		return nil, err
	}
	all := func(db *gorm.DB) *gorm.DB { return db }

	out := &model.AdminDashboard{}
	var err error
	if out.Counts, out.UnrecognizedStatuses, err = s.counts(ctx, all, uuid.Nil); err != nil {
		return nil, err
	}
	if out.Recent, err = s.recent(ctx, all, constants.ADMIN_RECENT_ORDERS); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := db.Model(&model.User{}).Count(&out.Users).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Writer{}).Count(&out.Writers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Administrator{}).Count(&out.Administrators).Error; err != nil {
		return nil, err
	}

	completed := db.Model(&model.Payment{}).Where("status = ?", model.PaymentCompleted)
	if err := completed.Count(&out.CompletedPayments).Error; err != nil {
		return nil, err
	}
	var revenue decimal.NullDecimal
	err = db.Model(&model.Payment{}).
		Where("status = ?", model.PaymentCompleted).
		Select("SUM(amount)").
		Row().
		Scan(&revenue)
	if err != nil {
		return nil, err
	}
	out.Revenue = decimal.Zero
	if revenue.Valid {
		out.Revenue = revenue.Decimal.Round(2)
	}
	return out, nil
}

func (s *DashboardService) counts(ctx context.Context, scope func(*gorm.DB) *gorm.DB, owner uuid.UUID) (model.StatusBuckets, int64, error) {
	var rows []statusCount
	err := s.db.WithContext(ctx).
		Model(&model.Order{}).
		Scopes(scope).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return model.StatusBuckets{}, 0, err
	}

	raw := make(map[string]int64, len(rows))
	for _, r := range rows {
		raw[r.Status] += r.Total
	}
	buckets, unrecognized, unknown := AggregateStatusCounts(raw)
	if len(unknown) > 0 {
		s.log.Warn("orders with unrecognized status",
			zap.Strings("statuses", unknown),
			zap.Int64("count", unrecognized),
			zap.String("owner", owner.String()),
		)
	}
	return buckets, unrecognized, nil
}

func (s *DashboardService) recent(ctx context.Context, scope func(*gorm.DB) *gorm.DB, limit int) ([]model.RecentOrder, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Scopes(scope).
		Order("created_at desc").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return BuildRecent(orders, limit), nil
}
