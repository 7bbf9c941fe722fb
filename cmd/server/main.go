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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/cities_manager/internal/config"
	"github.com/Skotchmaster/cities_manager/internal/db"
	"github.com/Skotchmaster/cities_manager/internal/es"
	"github.com/Skotchmaster/cities_manager/internal/logging"
	loggingmw "github.com/Skotchmaster/cities_manager/internal/middleware/logging"
	"github.com/Skotchmaster/cities_manager/internal/mykafka"
	"github.com/Skotchmaster/cities_manager/internal/repo"
	"github.com/Skotchmaster/cities_manager/internal/search"
	"github.com/Skotchmaster/cities_manager/internal/service"
	"github.com/Skotchmaster/cities_manager/internal/tokens"
	httpserver "github.com/Skotchmaster/cities_manager/internal/transport/http"
)

func main() {
	cfg := config.Load()
	cfg.MustRequired()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	tokenSvc, err := tokens.NewService(cfg.Tokens())
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	ctx := context.Background()

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := db.Seed(ctx, gdb); err != nil {
		log.Fatalf("db: %v", err)
	}

	var events service.EventPublisher = mykafka.Discard{}
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		events = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	store := &repo.GormRepo{DB: gdb}
	citySvc := &service.CityService{Repo: store}
	if cfg.ES.URL != "" {
		esClient, err := es.NewClient(cfg.ES)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		citySvc.Search = search.NewCityIndex(esClient, cfg.ESIndex)
	} else {
		logger.Warn("search_index_disabled", "reason", "ES_URL is empty")
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	deps := httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Users:    store,
			Sessions: store,
			Tokens:   tokenSvc,
			Events:   events,
		}},
		CitiesHandler: &httpserver.CitiesHTTP{Svc: citySvc},
		Tokens:        tokenSvc,
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http_server_started", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		log.Println("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_failed", "error", err)
		}
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}
