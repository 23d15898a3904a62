package database

import (
	"context"
	"fmt"

	"writing_marketplace/config"
	"writing_marketplace/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectDB opens the Postgres pool. The caller owns the returned handle.
func ConnectDB(cfg config.Database, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("connection opened to database", zap.String("host", cfg.Host), zap.String("db", cfg.Name))
	return db, nil
}

func CloseDB(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}

// Migrate creates or updates every table plus the partial unique index that
// allows a single completed payment per order. The index statement is valid
// on both Postgres and SQLite.
func Migrate(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&model.User{},
		&model.Writer{},
		&model.Administrator{},
		&model.Order{},
		&model.Payment{},
		&model.Message{},
		&model.WebhookEvent{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if err := db.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_payments_order_completed ON payments (order_id) WHERE status = 'completed'`,
	).Error; err != nil {
		return fmt.Errorf("create completed payment index: %w", err)
	}

	log.Info("database migrated")
	return nil
}
