package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/service-booking-backend/internal/app"
	"github.com/nekogravitycat/service-booking-backend/internal/config"
	"github.com/nekogravitycat/service-booking-backend/internal/db"
	"github.com/nekogravitycat/service-booking-backend/internal/logging"
	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
	"github.com/nekogravitycat/service-booking-backend/internal/payment"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/mq"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/ratelimit"
	"github.com/nekogravitycat/service-booking-backend/internal/schedule"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		bootstrap := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootstrap.Fatal().Err(err).Msg("failed to load config")
	}

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		bootstrap := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootstrap.Fatal().Err(err).Msg("failed to init logger")
	}
	if logCloser != nil {
		defer logCloser.Close()
	}
	ctx = logger.WithContext(ctx)

	metrics.Register()

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer pool.Close()

	limiter, redisClient := initLimiter(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var notifier schedule.Notifier = schedule.NopNotifier{}
	if cfg.AMQP.URL != "" {
		publisher, err := mq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.NotifyExchange)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init amqp publisher")
		}
		defer publisher.Close()
		notifier = publisher
	}

	container := app.NewContainer(app.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		DBPool:          pool,
		Logger:          logger,
		JWTSecret:       cfg.JWTSecret,
		JWTTTL:          cfg.JWTAccessTokenTTL,
		BcryptCost:      cfg.BcryptCost,
		Location:        cfg.Schedule.Location,
		SlotStep:        cfg.Schedule.SlotStep,
		Limiter:         limiter,
		RateLimitWindow: cfg.RateLimit.Window,
		Notifier:        notifier,
		WebhookSecret:   cfg.PaymentWebhookSecret,
	})

	if cfg.AMQP.URL != "" {
		startPaymentConsumer(ctx, cfg, container.ScheduleService, &logger)
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited gracefully")
}

// initLimiter prefers the shared Redis counter and falls back to a per-process limiter.
func initLimiter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (ratelimit.Limiter, *redis.Client) {
	local := ratelimit.NewLocalLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	if cfg.Redis.Addr == "" {
		logger.Warn().Msg("REDIS_ADDR not set, rate limits are per instance")
		return local, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with local rate limits")
		_ = client.Close()
		return local, nil
	}

	logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	return ratelimit.NewRedisLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window), client
}

func startPaymentConsumer(ctx context.Context, cfg *config.Config, svc schedule.Service, logger *zerolog.Logger) {
	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		URL:      cfg.AMQP.URL,
		Exchange: cfg.AMQP.Exchange,
		Queue:    cfg.AMQP.Queue,
		Keys:     payment.RoutingKeys,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init amqp consumer")
	}

	deliveries, err := consumer.Deliveries(ctx)
	if err != nil {
		_ = consumer.Close()
		logger.Fatal().Err(err).Msg("failed to start consuming payment events")
	}

	go func() {
		defer consumer.Close()
		logger.Info().Str("queue", cfg.AMQP.Queue).Msg("payment consumer running")
		if err := payment.NewConsumer(svc, *logger).Run(ctx, deliveries); err != nil {
			logger.Error().Err(err).Msg("payment consumer stopped")
		}
	}()
}
