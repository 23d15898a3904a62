package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string   `env:"APP_ENV" envDefault:"development"`
	Port        string   `env:"PORT" envDefault:"8002"`
	ClientURL   string   `env:"CLIENT_URL" envDefault:"http://localhost:5173"`
	AdminURL    string   `env:"ADMIN_URL" envDefault:"http://localhost:5174"`
	CorsOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:5174"`

	DB       Database      `envPrefix:"DB_"`
	JWT      JWT           `envPrefix:"JWT_"`
	Pricing  Pricing       `envPrefix:"PRICING_"`
	Paypal   Paypal        `envPrefix:"PAYPAL_"`
	Stripe   Stripe        `envPrefix:"STRIPE_"`
	Google   OAuth         `envPrefix:"GOOGLE_"`
	Facebook OAuth         `envPrefix:"FACEBOOK_"`
	SMTP     SMTP          `envPrefix:"SMTP_"`
	Storage  Storage
	Redis    Redis         `envPrefix:"REDIS_"`
	Admin    AdminSeed     `envPrefix:"ADMIN_SEED_"`
	Expiry   PaymentExpiry `envPrefix:"PAYMENT_EXPIRY_"`
}

type Database struct {
	Host            string        `env:"HOST,required,notEmpty"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"postgres"`
	Password        string        `env:"PASSWORD"`
	Name            string        `env:"NAME" envDefault:"writing_marketplace"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"50"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
}

func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type JWT struct {
	Secret     string        `env:"SECRET,required,notEmpty"`
	Issuer     string        `env:"ISSUER" envDefault:"writing-marketplace"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

type Pricing struct {
	ProcessingFeeRate float64 `env:"PROCESSING_FEE_RATE" envDefault:"0.06"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	WebhookID    string `env:"WEBHOOK_ID"`
	Currency     string `env:"CURRENCY" envDefault:"USD"`
}

type Stripe struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	Currency      string `env:"CURRENCY" envDefault:"usd"`
}

type OAuth struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@writing-marketplace.local"`
}

type Storage struct {
	Driver     string     `env:"STORAGE_DRIVER" envDefault:"s3"`
	S3         S3         `envPrefix:"S3_"`
	Cloudinary Cloudinary `envPrefix:"CLOUDINARY_"`
}

type S3 struct {
	Bucket          string `env:"BUCKET"`
	Region          string `env:"REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	Endpoint        string `env:"ENDPOINT"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL"`
}

type Cloudinary struct {
	CloudName string `env:"CLOUD_NAME"`
	APIKey    string `env:"API_KEY"`
	APISecret string `env:"API_SECRET"`
	Folder    string `env:"FOLDER" envDefault:"orders"`
}

type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type AdminSeed struct {
	Email    string `env:"EMAIL"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" envDefault:"Administrator"`
}

type PaymentExpiry struct {
	After    time.Duration `env:"AFTER" envDefault:"24h"`
	Interval time.Duration `env:"INTERVAL" envDefault:"15m"`
}

// Load reads .env when present and parses the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Pricing.ProcessingFeeRate < 0 {
		return nil, fmt.Errorf("PRICING_PROCESSING_FEE_RATE must be >= 0, got %v", cfg.Pricing.ProcessingFeeRate)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
