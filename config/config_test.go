package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.06, cfg.Pricing.ProcessingFeeRate)
	assert.Equal(t, 24*time.Hour, cfg.JWT.SessionTTL)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.False(t, cfg.IsProduction())
	assert.Contains(t, cfg.DB.DSN(), "host=localhost port=5432")
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNegativeFee(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PRICING_PROCESSING_FEE_RATE", "-0.1")

	_, err := Load()
	assert.Error(t, err)
}
