package database

import (
	"context"
	"testing"
	"time"

	"writing_marketplace/config"
	"writing_marketplace/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("marketplace"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestMigrateAndCompletedPaymentIndex(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	log := zap.NewNop()

	require.NoError(t, Migrate(ctx, db, log))
	require.NoError(t, Migrate(ctx, db, log), "migration must be repeatable")

	deadline := time.Now().Add(48 * time.Hour)
	order := model.Order{
		ServiceType: "writing",
		Pages:       3,
		Deadline:    &deadline,
		Status:      model.StatusPending,
		TotalPrice:  decimal.RequireFromString("60.00"),
	}
	require.NoError(t, db.Create(&order).Error)
	assert.NotEqual(t, uuid.Nil, order.ID)

	first := model.Payment{OrderID: order.ID, Amount: decimal.RequireFromString("63.60"), Status: model.PaymentCompleted, Method: model.MethodPaypal}
	require.NoError(t, db.Create(&first).Error)

	second := model.Payment{OrderID: order.ID, Amount: decimal.RequireFromString("63.60"), Status: model.PaymentCompleted, Method: model.MethodStripe}
	assert.Error(t, db.Create(&second).Error, "second completed payment for one order must be rejected")

	failed := model.Payment{OrderID: order.ID, Amount: decimal.RequireFromString("63.60"), Status: model.PaymentFailed, Method: model.MethodStripe}
	assert.NoError(t, db.Create(&failed).Error)

	var stored model.Order
	require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, "60.00", stored.TotalPrice.StringFixed(2))
}

func TestSeedAdministratorOnce(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	log := zap.NewNop()
	require.NoError(t, Migrate(ctx, db, log))

	seed := config.AdminSeed{Email: "Admin@Example.com", Password: "s3cret-pass", Name: "Root"}
	require.NoError(t, SeedData(ctx, db, seed, log))
	require.NoError(t, SeedData(ctx, db, seed, log))

	var count int64
	db.Model(&model.Administrator{}).Where("email = ?", "admin@example.com").Count(&count)
	assert.Equal(t, int64(1), count)
}
