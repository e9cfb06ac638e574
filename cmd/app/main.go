package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pawsit/pawsit/api"
	"github.com/pawsit/pawsit/config"
	"github.com/pawsit/pawsit/internal/bootstrap"
	"github.com/pawsit/pawsit/internal/cache"
	"github.com/pawsit/pawsit/internal/kafka"
	"github.com/pawsit/pawsit/internal/notify"
	"github.com/pawsit/pawsit/internal/processor"
	"github.com/pawsit/pawsit/internal/repository"
	"github.com/pawsit/pawsit/internal/service/booking"
	"github.com/pawsit/pawsit/internal/service/payments"
	"github.com/pawsit/pawsit/internal/service/reviews"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	dispatcher := notify.NewDispatcher(producer, cfg.Kafka.NotificationsTopic)
	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Reviews.CacheTTLSeconds)*time.Second)
	processorClient := processor.NewHTTPClient(cfg.Payments.ProcessorURL, cfg.Payments.ProcessorKey, cfg.Payments.WebhookSecret, nil)

	bookingRepo := repository.NewBookingRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)

	escrowService := payments.NewEscrowService(bookingRepo, catalogRepo, processorClient, dispatcher,
		cfg.Payments.FeePercent(), cfg.Payments.OnboardReturnURL)
	bookingService := booking.NewBookingService(bookingRepo, catalogRepo, escrowService, dispatcher)
	reviewService := reviews.NewReviewService(reviewRepo, bookingRepo, redisCache, dispatcher)

	bookingHandler := api.NewBookingHandler(bookingService)
	paymentHandler := api.NewPaymentHandler(escrowService, processorClient)
	reviewHandler := api.NewReviewHandler(reviewService)

	if err := bootstrap.Run(ctx, cfg, bookingHandler, paymentHandler, reviewHandler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
