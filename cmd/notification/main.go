package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rahul-codes-hash/microservices/internal/notification/infrastructure/email"
	"github.com/rahul-codes-hash/microservices/internal/notification/repository"
	"github.com/rahul-codes-hash/microservices/internal/notification/service"
	"github.com/rahul-codes-hash/microservices/internal/notification/transport/kafka"
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

	tp, err := utils.InitTracer(ctx, "notification-service")
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

	emailSender := email.NewSMTPSender(logger)
	contactRepo := repository.NewContactRepository(pool, logger)
	notificationService := service.NewNotificationService(emailSender, contactRepo, logger, pool)

	consumer := kafka.NewConsumer(notificationService, logger)

	log.Println("notification service consuming")
	consumer.Start(ctx, cfg.Kafka.Brokers)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mylogger.Info(shutdownCtx, logger, "Shutting down notification service")

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	pool.Close()
}
