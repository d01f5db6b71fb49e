// Package main is the entry point for the kobo backend. It wires the
// persistence layer, the payment gateway client and the services, then
// starts the HTTP server.
package main

import (
	"context"
	"log"
	"time"

	"kobo/internal/config"
	"kobo/internal/gateway"
	"kobo/internal/gateway/paystack"
	"kobo/internal/gateway/stripegw"
	"kobo/internal/handlers"
	applogger "kobo/internal/logger"
	"kobo/internal/metrics"
	"kobo/internal/repositories"
	"kobo/internal/repositories/cache"
	"kobo/internal/repositories/queue"
	"kobo/internal/services/payment"
	"kobo/internal/services/retry"
	"kobo/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	zlog, err := applogger.New("kobo", config.IsProduction())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	db, err := repositories.InitDB()
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	})
	redisCache := cache.NewRedisCache(redisClient)
	if err := redisCache.HealthCheck(context.Background()); err != nil {
		zlog.Fatal("failed to connect to redis", zap.Error(err))
	}
	retryQueue := queue.NewRedisQueue(redisClient)

	walletRepo := repositories.NewWalletRepository(db)
	txnRepo := repositories.NewTransactionRepository(db)
	ruleRepo := repositories.NewRoundUpRuleRepository(db)

	collector := metrics.NewPrometheusCollector()
	clock := payment.SystemClock{}

	walletSvc := wallet.NewService(walletRepo, redisCache, collector, zlog)

	backoff := config.GetBackoffEnv("RETRY_BACKOFF_MS", retry.DefaultBackoff)
	scheduler := retry.NewScheduler(backoff, txnRepo, retryQueue, clock, zlog)

	gw := buildGateway(zlog)

	paymentSvc := payment.NewService(
		walletSvc,
		gw,
		txnRepo,
		ruleRepo,
		scheduler,
		clock,
		payment.UUIDGenerator{},
		collector,
		zlog,
		payment.Config{
			Currency:       config.GetEnv("CURRENCY", "NGN"),
			GatewayTimeout: config.GetDurationEnv("GATEWAY_TIMEOUT", 30*time.Second),
		},
	)

	metricsSrv := metrics.StartServer(config.GetEnv("METRICS_PORT", "9090"), redisCache.HealthCheck)
	defer metricsSrv.Close()

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	handlers.SetupRoutes(
		app,
		handlers.NewPaymentHandler(paymentSvc, payment.UUIDGenerator{}),
		handlers.NewWalletHandler(walletSvc, txnRepo),
		handlers.NewRoundUpHandler(ruleRepo),
	)

	addr := ":" + config.GetEnv("PORT", "8080")
	zlog.Info("starting server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func buildGateway(zlog *zap.Logger) gateway.Gateway {
	provider := config.GetEnv("PAYMENT_GATEWAY", "paystack")
	switch provider {
	case "stripe":
		zlog.Info("using stripe gateway")
		return stripegw.New(stripegw.Config{
			SecretKey:  config.GetEnv("STRIPE_SECRET_KEY", ""),
			SuccessURL: config.GetEnv("STRIPE_SUCCESS_URL", "http://localhost:5173/payments/success"),
			CancelURL:  config.GetEnv("STRIPE_CANCEL_URL", "http://localhost:5173/payments/cancel"),
		})
	default:
		zlog.Info("using paystack gateway")
		return paystack.NewClient(paystack.Config{
			SecretKey: config.GetEnv("PAYSTACK_SECRET_KEY", ""),
			BaseURL:   config.GetEnv("PAYSTACK_BASE_URL", ""),
			Timeout:   config.GetDurationEnv("PAYSTACK_HTTP_TIMEOUT", 30*time.Second),
		})
	}
}
