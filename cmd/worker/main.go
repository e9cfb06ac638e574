package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pawsit/pawsit/config"
	"github.com/pawsit/pawsit/internal/domain"
	"github.com/pawsit/pawsit/internal/kafka"
	"github.com/pawsit/pawsit/internal/notify"
	"github.com/pawsit/pawsit/internal/processor"
	"github.com/pawsit/pawsit/internal/repository"
	"github.com/pawsit/pawsit/internal/service/booking"
	"github.com/pawsit/pawsit/internal/service/payments"
)

// walkEvent is what the walk-tracking service emits when a sitter starts or
// ends a walk. The worker turns it into the trusted in_progress/completed
// transitions.
type walkEvent struct {
	BookingID int64     `json:"booking_id"`
	Type      string    `json:"type"`
	At        time.Time `json:"at"`
}

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
	processorClient := processor.NewHTTPClient(cfg.Payments.ProcessorURL, cfg.Payments.ProcessorKey, cfg.Payments.WebhookSecret, nil)

	bookingRepo := repository.NewBookingRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	escrowService := payments.NewEscrowService(bookingRepo, catalogRepo, processorClient, dispatcher,
		cfg.Payments.FeePercent(), cfg.Payments.OnboardReturnURL)
	bookingService := booking.NewBookingService(bookingRepo, catalogRepo, escrowService, dispatcher)

	walkConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.WalkEventsTopic)
	defer walkConsumer.Close()
	notifyConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID+"-notify", cfg.Kafka.NotificationsTopic)
	defer notifyConsumer.Close()

	sender := notify.NewSender()

	go func() {
		err := walkConsumer.Consume(ctx, kafka.JSONHandler(func(ctx context.Context, event walkEvent) error {
			handleWalkEvent(ctx, bookingService, event)
			return nil
		}))
		if err != nil {
			log.Printf("walk consumer stopped: %v", err)
		}
	}()

	if err := notifyConsumer.Consume(ctx, kafka.JSONHandler(func(ctx context.Context, event notify.Event) error {
		if err := sender.Send(ctx, event); err != nil {
			log.Printf("deliver notification to user %d: %v", event.UserID, err)
		}
		return nil
	})); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("notification consumer stopped: %v", err)
	}
}

// handleWalkEvent applies a walk transition. Conflicts are expected on
// redelivery (the conditional write already happened) and only logged.
func handleWalkEvent(ctx context.Context, svc booking.BookingUseCase, event walkEvent) {
	var err error
	switch event.Type {
	case "walk_started":
		_, err = svc.StartWalk(ctx, event.BookingID)
	case "walk_ended":
		_, err = svc.CompleteWalk(ctx, event.BookingID)
	default:
		log.Printf("ignoring unknown walk event type %q", event.Type)
		return
	}
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			log.Printf("walk event %s for booking %d already applied: %s", event.Type, event.BookingID, conflict.Reason)
			return
		}
		log.Printf("apply walk event %s for booking %d: %v", event.Type, event.BookingID, err)
	}
}
