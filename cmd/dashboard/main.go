package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/rahul-codes-hash/microservices/internal/dashboard/repository"
	"github.com/rahul-codes-hash/microservices/internal/dashboard/service"
	dashboardHttp "github.com/rahul-codes-hash/microservices/internal/dashboard/transport/http"
	"github.com/rahul-codes-hash/microservices/internal/dashboard/transport/kafka"
	"github.com/rahul-codes-hash/microservices/pkg/config"
	"github.com/rahul-codes-hash/microservices/pkg/db"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"github.com/rahul-codes-hash/microservices/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "dashboard-service")
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	pool, err := db.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: "info",
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Printf("failed to sync logger: %v", err)
		}
	}()

	replicaRepo := repository.NewReplicaRepository(pool, logger)
	dashboardService := service.NewDashboardService(replicaRepo, pool, logger)

	consumer := kafka.NewConsumer(dashboardService, logger)
	go consumer.Start(ctx, cfg.Kafka.Brokers)

	app := fiber.New()
	app.Use(otelfiber.Middleware())

	dashboardHandler := dashboardHttp.NewDashboardHandler(dashboardService, logger)
	dashboardHttp.RegisterRoutes(app, dashboardHandler)

	go func() {
		log.Println("dashboard service listening on " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("error listening on %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mylogger.Info(shutdownCtx, logger, "Shutting down dashboard service")

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error shutting down HTTP app: %v\n", err)
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	pool.Close()
}
