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
	"github.com/rahul-codes-hash/microservices/internal/catalog/repository"
	"github.com/rahul-codes-hash/microservices/internal/catalog/service"
	catalogHttp "github.com/rahul-codes-hash/microservices/internal/catalog/transport/http"
	"github.com/rahul-codes-hash/microservices/internal/catalog/transport/kafka"
	"github.com/rahul-codes-hash/microservices/pkg/config"
	"github.com/rahul-codes-hash/microservices/pkg/db"
	pkgKafka "github.com/rahul-codes-hash/microservices/pkg/kafka"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	outboxRepository "github.com/rahul-codes-hash/microservices/pkg/outbox/repository"
	"github.com/rahul-codes-hash/microservices/pkg/outbox/worker"
	"github.com/rahul-codes-hash/microservices/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reaperInterval = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "catalog-service")
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

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})

	productRepo := repository.NewProductRepository(pool, logger)
	reservationRepo := repository.NewReservationRepository(pool, logger)
	outboxRepo := outboxRepository.NewOutboxRepository(pool, logger)

	catalogService := service.NewCachedCatalogService(
		service.NewCatalogService(productRepo, reservationRepo, outboxRepo, pool, logger),
		redisClient,
	)

	kafkaProducer, err := pkgKafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	outboxProcessor := worker.NewOutboxProcessor(pool, outboxRepo, kafkaProducer, logger)
	go outboxProcessor.Start(ctx)

	reaper := service.NewReaper(catalogService, reaperInterval, logger)
	go reaper.Run(ctx)

	consumer := kafka.NewConsumer(catalogService, logger)
	go consumer.Start(ctx, cfg.Kafka.Brokers)

	app := fiber.New()
	app.Use(otelfiber.Middleware())

	catalogHandler := catalogHttp.NewCatalogHandler(catalogService, logger)
	catalogHttp.RegisterRoutes(app, catalogHandler)

	go func() {
		log.Println("catalog service listening on " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("error listening on %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mylogger.Info(shutdownCtx, logger, "Shutting down catalog service")

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error shutting down HTTP app: %v\n", err)
	}

	if err := kafkaProducer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close kafka producer", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close redis client", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	pool.Close()
}
