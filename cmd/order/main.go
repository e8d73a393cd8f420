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
	"github.com/rahul-codes-hash/microservices/internal/order/accessor"
	"github.com/rahul-codes-hash/microservices/internal/order/repository"
	"github.com/rahul-codes-hash/microservices/internal/order/service"
	orderHttp "github.com/rahul-codes-hash/microservices/internal/order/transport/http"
	"github.com/rahul-codes-hash/microservices/internal/order/transport/kafka"
	"github.com/rahul-codes-hash/microservices/pkg/config"
	"github.com/rahul-codes-hash/microservices/pkg/db"
	pkgKafka "github.com/rahul-codes-hash/microservices/pkg/kafka"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	outboxRepository "github.com/rahul-codes-hash/microservices/pkg/outbox/repository"
	"github.com/rahul-codes-hash/microservices/pkg/outbox/worker"
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

	tp, err := utils.InitTracer(ctx, "order-service")
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

	orderRepo := repository.NewOrderRepository(pool, logger)
	outboxRepo := outboxRepository.NewOutboxRepository(pool, logger)

	cartAccessor := accessor.NewCartAccessor(cfg.Services.CartURL, cfg.HTTP.Timeout, logger)
	catalogAccessor := accessor.NewCatalogAccessor(cfg.Services.CatalogURL, cfg.HTTP.Timeout, logger)

	orderService := service.NewOrderService(service.Deps{
		Pool:            pool,
		Logger:          logger,
		OrderRepo:       orderRepo,
		OutboxRepo:      outboxRepo,
		CartAccessor:    cartAccessor,
		CatalogAccessor: catalogAccessor,
		TaxRatePercent:  cfg.Pricing.TaxRatePercent,
		ShippingFee:     cfg.Pricing.ShippingFee,
		SagaDeadline:    cfg.Saga.Deadline,
		ReservationTTL:  cfg.Saga.ReservationTTL,
	})

	kafkaProducer, err := pkgKafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	outboxProcessor := worker.NewOutboxProcessor(pool, outboxRepo, kafkaProducer, logger)
	go outboxProcessor.Start(ctx)

	consumer := kafka.NewConsumer(orderService, logger)
	go consumer.Start(ctx, cfg.Kafka.Brokers)

	app := fiber.New()
	app.Use(otelfiber.Middleware())

	orderHandler := orderHttp.NewOrderHandler(orderService, logger)
	orderHttp.RegisterRoutes(app, orderHandler)

	go func() {
		log.Println("order service listening on " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("error listening on %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mylogger.Info(shutdownCtx, logger, "Shutting down order service")

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error shutting down HTTP app: %v\n", err)
	}

	if err := kafkaProducer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close kafka producer", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	pool.Close()
}
