package service

import (
	"testing"
	"time"

	"writing_marketplace/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func bucketSum(b model.StatusBuckets) int64 {
	return b.Draft + b.Pending + b.Paid + b.InProgress + b.Completed + b.Cancelled +
		b.Disputed + b.Submitted + b.Unconfirmed + b.Failed
}

func TestAggregateStatusCounts(t *testing.T) {
	tests := []struct {
		name         string
		counts       map[string]int64
		want         model.StatusBuckets
		unrecognized int64
		unknown      []string
	}{
		{
			name:   "empty",
			counts: map[string]int64{},
		},
		{
			name:   "known statuses",
			counts: map[string]int64{"draft": 1, "pending": 2, "Paid": 3, "assigned": 4, "Failed": 1},
			want:   model.StatusBuckets{All: 11, Draft: 1, Pending: 2, Paid: 3, InProgress: 4, Failed: 1},
		},
		{
			name:         "unknown values only raise all",
			counts:       map[string]int64{"completed": 2, "paid": 5, "archived": 1},
			want:         model.StatusBuckets{All: 8, Completed: 2},
			unrecognized: 6,
			unknown:      []string{"archived", "paid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unrecognized, unknown := AggregateStatusCounts(tt.counts)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.unrecognized, unrecognized)
			assert.Equal(t, tt.unknown, unknown)
			assert.Equal(t, got.All, bucketSum(got)+unrecognized)
		})
	}
}

func TestBuildRecentKeepsInputOrder(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	orders := make([]model.Order, 0, 6)
	for i := 0; i < 6; i++ {
		o := model.Order{Topic: string(rune('a' + i)), Status: model.StatusPending}
		o.ID = uuid.New()
		o.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		orders = append(orders, o)
	}
	orders[2].Status = model.StatusAssigned

	recent := BuildRecent(orders, 3)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"f", "e", "d"}, []string{recent[0].Topic, recent[1].Topic, recent[2].Topic})
	assert.Equal(t, "Pending", recent[0].StatusLabel)
	assert.NotEmpty(t, recent[0].Date)
	assert.Equal(t, "a", orders[0].Topic)

	all := BuildRecent(orders, 10)
	require.Len(t, all, 6)
	assert.Equal(t, "In Progress", all[3].StatusLabel)
}

func TestUserDashboard(t *testing.T) {
	db := newDB(t)
	dash := NewDashboardService(db, zap.NewNop())
	user := createUser(t, db, "a@example.com")
	other := createUser(t, db, "b@example.com")

	for _, st := range []model.OrderStatus{model.StatusDraft, model.StatusPending, model.StatusPending, model.StatusPaid, "legacy"} {
		createOrder(t, db, &user.ID, st)
	}
	createOrder(t, db, &other.ID, model.StatusCompleted)

	got, err := dash.User(asCaller(user.ID, model.RoleClient))
	require.NoError(t, err)
	assert.EqualValues(t, 5, got.Counts.All)
	assert.EqualValues(t, 2, got.Counts.Pending)
	assert.EqualValues(t, 1, got.UnrecognizedStatuses)
	assert.Zero(t, got.Counts.Completed)
	assert.LessOrEqual(t, bucketSum(got.Counts), got.Counts.All)
	assert.Len(t, got.Recent, 3)

	_, err = dash.User(asCaller(user.ID, model.RoleWriter))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAdminDashboard(t *testing.T) {
	db := newDB(t)
	dash := NewDashboardService(db, zap.NewNop())
	user := createUser(t, db, "a@example.com")
	createWriter(t, db, "w@example.com")

	var paid []model.Order
	for i := 0; i < 6; i++ {
		o := createOrder(t, db, &user.ID, model.StatusPaid)
		paid = append(paid, o)
	}
	for _, o := range paid[:2] {
		require.NoError(t, db.Create(&model.Payment{OrderID: o.ID, Amount: o.CheckoutAmount, Status: model.PaymentCompleted, Method: model.MethodPaypal}).Error)
	}
	require.NoError(t, db.Create(&model.Payment{OrderID: paid[2].ID, Amount: paid[2].CheckoutAmount, Status: model.PaymentPending, Method: model.MethodPaypal}).Error)

	got, err := dash.Admin(asCaller(uuid.New(), model.RoleAdmin))
	require.NoError(t, err)
	assert.EqualValues(t, 6, got.Counts.All)
	assert.EqualValues(t, 6, got.Counts.Paid)
	assert.Zero(t, got.UnrecognizedStatuses)
	assert.Len(t, got.Recent, 5)
	assert.EqualValues(t, 1, got.Users)
	assert.EqualValues(t, 1, got.Writers)
	assert.EqualValues(t, 2, got.CompletedPayments)
	assert.Equal(t, "127.20", got.Revenue.StringFixed(2))

	_, err = dash.Admin(asCaller(user.ID, model.RoleClient))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAdminDashboardEmptyRevenue(t *testing.T) {
	db := newDB(t)
	got, err := NewDashboardService(db, zap.NewNop()).Admin(asCaller(uuid.New(), model.RoleAdmin))
	require.NoError(t, err)
	assert.True(t, got.Revenue.IsZero())
	assert.Empty(t, got.Recent)
}
