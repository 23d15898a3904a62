package database

import (
	"context"
	"errors"
	"strings"

	"writing_marketplace/config"
	"writing_marketplace/helper"
	"writing_marketplace/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedData creates the first administrator when ADMIN_SEED_EMAIL is set and
// no administrator with that email exists yet.
func SeedData(ctx context.Context, db *gorm.DB, cfg config.AdminSeed, log *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return nil
	}
	if cfg.Password == "" {
		return errors.New("ADMIN_SEED_PASSWORD is required when ADMIN_SEED_EMAIL is set")
	}

	hash, err := helper.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	admin := model.Administrator{Profile: model.Profile{
		Name:     cfg.Name,
		Email:    email,
		Password: hash,
		Provider: model.ProviderLocal,
	}}

	res := db.WithContext(ctx).
		Where(model.Administrator{Profile: model.Profile{Email: email}}).
		Attrs(admin).
		FirstOrCreate(&admin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Info("seeded administrator", zap.String("email", email))
	}
	return nil
}
