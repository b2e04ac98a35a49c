package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/OSU-CS493-Sp18/mongodb/internal/config"
	"github.com/OSU-CS493-Sp18/mongodb/internal/database"
	"github.com/OSU-CS493-Sp18/mongodb/internal/handler"
	"github.com/OSU-CS493-Sp18/mongodb/internal/logging"
	"github.com/OSU-CS493-Sp18/mongodb/internal/middleware"
	"github.com/OSU-CS493-Sp18/mongodb/internal/queue"
	"github.com/OSU-CS493-Sp18/mongodb/internal/repository"
	"github.com/OSU-CS493-Sp18/mongodb/internal/router"
	"github.com/OSU-CS493-Sp18/mongodb/internal/service"
	"github.com/OSU-CS493-Sp18/mongodb/internal/tracing"
)

const serviceName = "lodgings-api"

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	logger := logging.New(logging.Options{Env: cfg.Env, Level: cfg.LogLevel, File: cfg.LogFile})

	tp, err := tracing.New(cfg.JaegerEndpoint, serviceName)
	if err != nil {
		logger.WithError(err).Fatal("tracing init failed")
	}
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer(serviceName)

	db, err := database.OpenMySQL(database.MySQLOptions{
		User:     cfg.MySQLUser,
		Password: cfg.MySQLPassword,
		Host:     cfg.MySQLHost,
		Port:     cfg.MySQLPort,
		Name:     cfg.MySQLDB,
		MaxConns: cfg.MySQLMaxConns,
	})
	if err != nil {
		logger.WithError(err).Fatal("mysql connect failed")
	}
	defer db.Close()

	mongoClient, mongoDB, err := database.OpenMongo(database.MongoOptions{
		Host:     cfg.MongoHost,
		Port:     cfg.MongoPort,
		Name:     cfg.MongoDB,
		User:     cfg.MongoUser,
		Password: cfg.MongoPassword,
	})
	if err != nil {
		logger.WithError(err).Fatal("mongo connect failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	// Redis is optional; without it the cache and rate limiter pass through.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable; cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	lodgingRepo := repository.NewLodgingRepo(db)
	userRepo := repository.NewUserRepo(mongoDB, repository.BreakerSettings{
		MaxFailures: cfg.BreakerMaxFailures,
		Timeout:     cfg.BreakerTimeout,
	}, tracer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher service.EventPublisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		publisher = queue.NewPublisher(cfg.RabbitMQURL, logger)
		consumer := queue.NewConsumer(cfg.RabbitMQURL, logging.RotatingFile(cfg.EventsLogFile), logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("lodging consumer stopped")
			}
		}()
	}

	userSvc := service.NewUserService(userRepo, lodgingRepo, tracer, logger)
	lodgingSvc := service.NewLodgingService(lodgingRepo, userSvc, publisher, tracer, logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(e, logger)
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e, cfg.StaticDir)
	router.RegisterLodgings(e, handler.NewLodgingHandler(lodgingSvc, logger))
	router.RegisterUsers(e, handler.NewUserHandler(userSvc, logger))

	addr := ":" + cfg.Port
	go func() {
		logger.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("tracer shutdown")
	}
}
