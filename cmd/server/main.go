// Command server runs the stayhub HTTP API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/stayhub/internal/config"
	"github.com/iliyamo/stayhub/internal/database"
	"github.com/iliyamo/stayhub/internal/handler"
	"github.com/iliyamo/stayhub/internal/logging"
	"github.com/iliyamo/stayhub/internal/middleware"
	"github.com/iliyamo/stayhub/internal/queue"
	"github.com/iliyamo/stayhub/internal/repository"
	"github.com/iliyamo/stayhub/internal/router"
	"github.com/iliyamo/stayhub/internal/service"
	"github.com/iliyamo/stayhub/internal/utils"
)

func main() {
	// A missing .env is fine; the real environment wins either way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
	cfg := config.Load()
	logger := logging.NewJSON(os.Stdout, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Debug(ctx, "config loaded", "port", cfg.Port, "db_host", cfg.DBHost,
		"queue", cfg.QueueEnabled, "session_ttl", cfg.SessionTTL.String())

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "connect database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Error(ctx, "migrate database", "err", err)
			os.Exit(1)
		}
	}

	var rdb *redis.Client
	if c, err := config.NewRedisClient(ctx, config.LoadRedisConfig()); err != nil {
		logger.Warn(ctx, "redis unavailable, running without cache and rate limit", "err", err)
	} else {
		rdb = c
		defer rdb.Close()
	}

	tokens, err := utils.NewSessionTokens(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		logger.Error(ctx, "session tokens", "err", err)
		os.Exit(1)
	}

	users := repository.NewUserRepo(db)
	places := repository.NewPlaceRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	// A nil *RabbitPublisher in the interface would not compare equal to nil.
	var publisher service.EventPublisher
	if cfg.QueueEnabled {
		publisher = service.NewRabbitPublisher(cfg.RabbitURL)
		go func() {
			if err := queue.StartBookingConsumer(ctx, cfg.RabbitURL, cfg.BookingLogDir, logger.With("component", "booking-consumer")); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error(ctx, "booking consumer stopped", "err", err)
			}
		}()
	}

	accounts := service.NewAccountService(users, tokens, cfg.BcryptCost)
	bookings := service.NewBookingService(places, bookingRepo, publisher, logger)

	cacheCfg := config.LoadCacheConfig()
	purger := middleware.NewCachePurger(rdb, cacheCfg.Prefix)

	e := router.New(cfg, logger, tokens)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, accounts, logger),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger))
	router.RegisterPlaces(e, handler.NewPlaceHandler(places, purger, cfg.RequestTimeout, logger),
		middleware.NewRedisCache(cacheCfg, rdb, logger))
	router.RegisterBookings(e, handler.NewBookingHandler(bookings, cfg.RequestTimeout, logger))

	go serve(ctx, e, ":"+cfg.Port, logger, cfg.Env)

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown", "err", err)
	}
	bookings.Wait()
}

func serve(ctx context.Context, e *echo.Echo, addr string, logger logging.Logger, env string) {
	logger.Info(ctx, "listening", "addr", addr, "env", env)
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error(ctx, "server failed", "err", err)
		os.Exit(1)
	}
}
