package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"writing_marketplace/cache"
	"writing_marketplace/config"
	"writing_marketplace/constants"
	"writing_marketplace/database"
	"writing_marketplace/gateway"
	"writing_marketplace/handler"
	"writing_marketplace/helper"
	"writing_marketplace/logger"
	"writing_marketplace/middleware"
	"writing_marketplace/router"
	"writing_marketplace/service"
	"writing_marketplace/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(!cfg.IsProduction()); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectDB(cfg.DB, log)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer database.CloseDB(db, log)
	if err := database.Migrate(ctx, db, log); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	if err := database.SeedData(ctx, db, cfg.Admin, log); err != nil {
		log.Fatal("seed", zap.Error(err))
	}

	var store cache.Store = cache.NoopStore{}
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("connect redis", zap.Error(err))
		}
		defer rdb.Close()
		store = rdb
	} else {
		log.Warn("REDIS_ADDR not set, token revocation and rate limits are disabled")
	}

	files, err := helper.NewUploader(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("init uploader", zap.Error(err))
	}
	mailer, err := utils.NewMailer(cfg.SMTP, log)
	if err != nil {
		log.Fatal("init mailer", zap.Error(err))
	}

	tokens := helper.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.SessionTTL)
	providers := []gateway.OAuthProvider{
		gateway.NewGoogleProvider(cfg.Google),
		gateway.NewFacebookProvider(cfg.Facebook),
	}

	orders := service.NewOrderService(db, helper.DefaultPriceTable(cfg.Pricing.ProcessingFeeRate), files, log)
	payments := service.NewPaymentService(
		db,
		gateway.NewPaypalClient(cfg.Paypal, log),
		gateway.NewStripeClient(cfg.Stripe),
		mailer,
		cfg.ClientURL,
		cfg.Expiry.After,
		log,
	)

	scheduler, err := service.NewScheduler(payments, cfg.Expiry.Interval, log)
	if err != nil {
		log.Fatal("init scheduler", zap.Error(err))
	}
	scheduler.Start()

	h := handler.New(handler.Deps{
		Accounts:   service.NewAccountService(db, tokens, store, providers, files, log),
		Orders:     orders,
		Payments:   payments,
		Dashboard:  service.NewDashboardService(db, log),
		Messages:   service.NewMessageService(db, store, mailer, cfg.ClientURL, log),
		Secure:     cfg.IsProduction(),
		SessionTTL: tokens.TTL(),
		Log:        log,
	})

	app := fiber.New(fiber.Config{
		BodyLimit: constants.MAX_REQUEST_BODY,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CorsOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, Stripe-Signature",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	router.SetupRoutes(app, h, middleware.NewAuth(tokens, store, log), store, log)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()
	log.Info("server started", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))

	<-ctx.Done()
	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("shutdown server", zap.Error(err))
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Error("shutdown scheduler", zap.Error(err))
	}
}
