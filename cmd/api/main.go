package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/garagekit/parking-service/internal/api/http"
	"github.com/garagekit/parking-service/internal/api/http/handlers"
	"github.com/garagekit/parking-service/internal/auth"
	"github.com/garagekit/parking-service/internal/config"
	"github.com/garagekit/parking-service/internal/events"
	"github.com/garagekit/parking-service/internal/messaging"
	"github.com/garagekit/parking-service/internal/observability"
	"github.com/garagekit/parking-service/internal/persistence"
	"github.com/garagekit/parking-service/internal/ratelimit"
	"github.com/garagekit/parking-service/internal/service"
	"github.com/garagekit/parking-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	store := pg.Store()
	if _, err := service.NewSeeder(store, cfg.Garage, logger).Seed(ctx); err != nil {
		logger.Fatal("failed to seed parking spots", zap.Error(err))
	}

	deps := map[string]handlers.Pinger{"store": store}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var limiter ratelimit.Limiter
	if redis.Reachable() {
		limiter = ratelimit.NewRedisLimiter(redis.Client, cfg.RateLimit)
		deps["redis"] = redis
	} else {
		local := ratelimit.NewLocalLimiter(cfg.RateLimit)
		defer local.Close()
		limiter = local
		logger.Warn("rate limiting falls back to in-process buckets")
	}

	dispatcher := events.NewInMemoryDispatcher()
	var publisher service.Publisher
	if cfg.Events.Enabled {
		mq, err := messaging.NewRabbitMQ(ctx, cfg.Events, logger)
		if err != nil {
			logger.Error("event relay disabled; rabbitmq unavailable", zap.Error(err))
		} else {
			defer mq.Close()
			publisher = mq
			deps["rabbitmq"] = mq
		}
	}
	worker.StartEventRelay(service.NewEventRelay(dispatcher, publisher, logger))

	authService := service.NewAuthService(cfg.Auth, store)
	carService := service.NewCarService(store)
	spotService := service.NewSpotService(store)
	parkingService := service.NewParkingService(store, dispatcher, logger)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Cars:           handlers.NewCarsHandler(carService),
		Spots:          handlers.NewSpotsHandler(spotService),
		Parking:        handlers.NewParkingHandler(parkingService),
		AuthMiddleware: auth.NewAuthMiddleware(authService),
		RateLimit:      ratelimit.Middleware(limiter, cfg.RateLimit, logger),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
