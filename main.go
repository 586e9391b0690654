package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/sharthi/stall-marketplace/config"
	"github.com/sharthi/stall-marketplace/internal/auth"
	"github.com/sharthi/stall-marketplace/internal/clock"
	"github.com/sharthi/stall-marketplace/internal/consumer"
	"github.com/sharthi/stall-marketplace/internal/handler"
	"github.com/sharthi/stall-marketplace/internal/metrics"
	"github.com/sharthi/stall-marketplace/internal/middleware"
	"github.com/sharthi/stall-marketplace/internal/repository"
	"github.com/sharthi/stall-marketplace/internal/service"
	"github.com/sharthi/stall-marketplace/pkg/database"
	"github.com/sharthi/stall-marketplace/pkg/logger"
	"github.com/sharthi/stall-marketplace/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	// RabbitMQ: event sync in, domain events out
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to RabbitMQ")
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.WithError(err).Fatal("failed to start consuming")
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.WithError(err).Fatal("failed to open RabbitMQ publisher")
	}
	defer publisher.Close()

	// Repositories
	tx := repository.NewTransactor(db)
	eventRepo := repository.NewEventRepository(db)
	clk := clock.NewSystem()
	stallRepo := repository.NewStallRepository(db, clk)
	bookingRepo := repository.NewBookingRepository(db, clk)
	statsRepo := repository.NewStatsRepository(db)

	consumer.NewEventConsumer(eventRepo, log.WithField("component", "event-consumer")).Start(msgs)

	// Services
	bookingSvc := service.NewBookingService(tx, eventRepo, stallRepo, bookingRepo, publisher, clk,
		log.WithField("component", "booking-service"), cfg.InvoiceBaseURL)
	stallSvc := service.NewStallService(tx, eventRepo, stallRepo, bookingRepo, publisher, clk,
		log.WithField("component", "stall-service"))
	dashboardSvc := service.NewDashboardService(eventRepo, bookingRepo, statsRepo, clk)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	e.Use(echoMw.Recover())
	e.Use(echoMw.BodyLimit("64K"))
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "stall-marketplace"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	stop := make(chan struct{})
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	limiter.StartCleanup(10*time.Minute, stop)

	authn := middleware.Auth(auth.NewJWTResolver(cfg.JWTSecret), log)
	limit := limiter.Middleware()

	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e, authn, limit)
	handler.NewStallHandler(stallSvc).RegisterRoutes(e, authn, limit)
	handler.NewOrganizerHandler(dashboardSvc).RegisterRoutes(e, authn)

	go func() {
		log.Infof("stall marketplace starting on :%s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	close(stop)
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("stall marketplace stopped")
}
