package service

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"writing_marketplace/gateway"
	"writing_marketplace/helper"
	"writing_marketplace/model"
	"writing_marketplace/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func asCaller(id uuid.UUID, role model.Role) context.Context {
	return WithCaller(context.Background(), model.TokenClaim{AccountID: id, Role: role, Email: id.String() + "@example.com"})
}

type mockPaypal struct{ mock.Mock }

func (m *mockPaypal) CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (*gateway.CreateOrderResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*gateway.CreateOrderResponse)
	return res, args.Error(1)
}

func (m *mockPaypal) CaptureOrder(ctx context.Context, paypalOrderID, requestID string) (*gateway.CaptureResult, error) {
	args := m.Called(ctx, paypalOrderID, requestID)
	res, _ := args.Get(0).(*gateway.CaptureResult)
	return res, args.Error(1)
}

func (m *mockPaypal) GetOrder(ctx context.Context, paypalOrderID string) (*gateway.CaptureResult, error) {
	args := m.Called(ctx, paypalOrderID)
	res, _ := args.Get(0).(*gateway.CaptureResult)
	return res, args.Error(1)
}

func (m *mockPaypal) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error {
	return m.Called(ctx, headers, body).Error(0)
}

type mockStripe struct{ mock.Mock }

func (m *mockStripe) CreateCheckoutSession(ctx context.Context, req gateway.StripeCheckoutRequest) (*gateway.StripeSession, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*gateway.StripeSession)
	return res, args.Error(1)
}

func (m *mockStripe) CreatePaymentIntent(ctx context.Context, req gateway.StripeCheckoutRequest) (*gateway.StripeSession, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*gateway.StripeSession)
	return res, args.Error(1)
}

func (m *mockStripe) ParseWebhook(payload []byte, signature string) (*gateway.StripeEvent, error) {
	args := m.Called(payload, signature)
	res, _ := args.Get(0).(*gateway.StripeEvent)
	return res, args.Error(1)
}

type fakeUploader struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (u *fakeUploader) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.keys = append(u.keys, key)
	return "https://files.test/" + key, nil
}

// memStore is an in-process cache.Store for tests.
type memStore struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	hits    map[string]int64
}

func newMemStore() *memStore {
	return &memStore{revoked: map[string]time.Duration{}, hits: map[string]int64{}}
}

func (m *memStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = ttl
	return nil
}

func (m *memStore) IsTokenBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m *memStore) Allow(_ context.Context, key string, limit int64, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[key]++
	return m.hits[key] <= limit, nil
}

func newOrderService(t *testing.T, db *gorm.DB) (*OrderService, *fakeUploader) {
	t.Helper()
	up := &fakeUploader{}
	s := NewOrderService(db, helper.DefaultPriceTable(0.06), up, zap.NewNop())
	s.now = clock
	return s, up
}

func newPaymentService(db *gorm.DB, pp gateway.PaypalClient, st gateway.StripeClient) *PaymentService {
	s := NewPaymentService(db, pp, st, nil, "https://app.test", 24*time.Hour, zap.NewNop())
	s.now = clock
	return s
}

func createUser(t *testing.T, db *gorm.DB, email string) model.User {
	t.Helper()
	hash, err := helper.HashPassword("secret-pass")
	require.NoError(t, err)
	u := model.User{Profile: model.Profile{Name: "Client " + email, Email: email, Password: hash, Provider: model.ProviderLocal}}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func createWriter(t *testing.T, db *gorm.DB, email string) model.Writer {
	t.Helper()
	w := model.Writer{Profile: model.Profile{Name: "Writer", Email: email, Provider: model.ProviderLocal}, Category: "standard", Active: true}
	require.NoError(t, db.Create(&w).Error)
	return w
}

// createOrder inserts an order straight into the table with the scenario
// price: writing, 3 pages, checkout 63.60.
func createOrder(t *testing.T, db *gorm.DB, owner *uuid.UUID, status model.OrderStatus) model.Order {
	t.Helper()
	deadline := fixedNow.Add(48 * time.Hour)
	o := model.Order{
		UserID:         owner,
		ServiceType:    "writing",
		DocumentType:   "essay",
		AcademicLevel:  "university",
		Subject:        "History",
		Topic:          "The printing press",
		Pages:          3,
		Deadline:       &deadline,
		PaymentOption:  "full",
		TotalPrice:     decimal.RequireFromString("60.00"),
		AmountDue:      decimal.RequireFromString("60.00"),
		CheckoutAmount: decimal.RequireFromString("63.60"),
		Status:         status,
	}
	require.NoError(t, db.Create(&o).Error)
	return o
}

func scenarioInput() model.OrderInput {
	deadline := fixedNow.Add(48 * time.Hour)
	return model.OrderInput{
		ServiceType:    "writing",
		DocumentType:   "essay",
		AcademicLevel:  "university",
		Subject:        "History",
		Topic:          "The printing press",
		PaperFormat:    "APA",
		Spacing:        "double",
		WriterCategory: "standard",
		Pages:          3,
		Deadline:       &deadline,
		PaymentOption:  "full",
	}
}

func newDB(t *testing.T) *gorm.DB {
	return testutil.NewSQLite(t)
}
