package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pawsit/pawsit/internal/domain"
	"github.com/pawsit/pawsit/internal/policy"
	"github.com/pawsit/pawsit/internal/repository"
)

type BookingUseCase interface {
	Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	Confirm(ctx context.Context, bookingID, actorID int64) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID, actorID int64) (*domain.Booking, error)
	StartWalk(ctx context.Context, bookingID int64) (*domain.Booking, error)
	CompleteWalk(ctx context.Context, bookingID int64) (*domain.Booking, error)
}

// Escrow is the slice of the payment service the state machine needs when a
// cancellation has to move money back.
type Escrow interface {
	ReleaseHold(ctx context.Context, b *domain.Booking) error
	RefundCaptured(ctx context.Context, b *domain.Booking, amountCents int64) error
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, eventType, title, body string, data map[string]string) error
}

type CreateBookingInput struct {
	OwnerID   int64     `json:"owner_id"`
	SitterID  int64     `json:"sitter_id"`
	ServiceID int64     `json:"service_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

const maxBookingDuration = 24 * time.Hour

// BookingService drives the booking lifecycle. Every transition is one
// conditional write in the repository; on a zero-row result the service
// re-reads the booking and reports the most specific failure it can prove.
type BookingService struct {
	bookings repository.BookingRepository
	catalog  repository.CatalogRepository
	escrow   Escrow
	notifier Notifier
	now      func() time.Time
}

type BookingServiceOption func(*BookingService)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	catalog repository.CatalogRepository,
	escrow Escrow,
	notifier Notifier,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings: bookings,
		catalog:  catalog,
		escrow:   escrow,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	now := s.now()
	if input.StartTime.Before(now) {
		return nil, &domain.ValidationError{Reason: "start_in_past"}
	}
	if !input.EndTime.After(input.StartTime) {
		return nil, &domain.ValidationError{Reason: "end_not_after_start"}
	}
	if input.EndTime.Sub(input.StartTime) > maxBookingDuration {
		return nil, &domain.ValidationError{Reason: "duration_over_24h"}
	}
	if input.SitterID == input.OwnerID {
		return nil, &domain.ValidationError{Reason: "sitter_is_owner"}
	}

	svc, err := s.catalog.GetService(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.SitterID != input.SitterID {
		return nil, &domain.ValidationError{Reason: "service_not_offered_by_sitter"}
	}

	b := &domain.Booking{
		OwnerID:         input.OwnerID,
		SitterID:        input.SitterID,
		ServiceID:       input.ServiceID,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		TotalPriceCents: svc.PriceCents,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.notify(ctx, b.SitterID, "booking_requested", "New booking request",
		fmt.Sprintf("You have a booking request for %s", b.StartTime.Format(time.RFC3339)), b.ID)
	return b, nil
}

func (s *BookingService) Confirm(ctx context.Context, bookingID, actorID int64) (*domain.Booking, error) {
	ok, err := s.bookings.ConfirmPending(ctx, bookingID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.classifyConfirmFailure(ctx, bookingID, actorID)
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, b.OwnerID, "booking_confirmed", "Booking confirmed",
		"Your sitter confirmed the booking", b.ID)
	return b, nil
}

// classifyConfirmFailure re-reads the row after a zero-row confirm to name
// the failure. The read is diagnostic only; the conditional write has
// already decided the outcome.
func (s *BookingService) classifyConfirmFailure(ctx context.Context, bookingID, actorID int64) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.SitterID != actorID {
		return &domain.AuthError{Reason: "not_booking_sitter"}
	}
	return &domain.ConflictError{Reason: "booking_already_" + string(b.Status)}
}

func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID int64) (*domain.Booking, error) {
	ok, err := s.bookings.CancelByActor(ctx, bookingID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.classifyCancelFailure(ctx, bookingID, actorID)
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	// The cancellation has committed; a settlement failure must not undo it
	// from the caller's point of view. The hold stays releasable through the
	// payment cancel endpoint, which accepts an already-cancelled booking.
	if err := s.settlePayment(ctx, b, actorID); err != nil {
		log.Printf("WARNING: failed to settle payment for cancelled booking %d: %v", b.ID, err)
	}

	s.notify(ctx, b.CounterpartOf(actorID), "booking_cancelled", "Booking cancelled",
		"The booking has been cancelled", b.ID)
	return b, nil
}

func (s *BookingService) classifyCancelFailure(ctx context.Context, bookingID, actorID int64) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !b.Participant(actorID) {
		return &domain.AuthError{Reason: "not_booking_participant"}
	}
	switch b.Status {
	case domain.BookingStatusConfirmed:
		// only reachable when the sitter tried to cancel past the pending stage
		return &domain.AuthError{Reason: "sitter_cannot_cancel_confirmed"}
	default:
		return &domain.ConflictError{Reason: "booking_already_" + string(b.Status)}
	}
}

// settlePayment moves money back after a successful cancellation. A held
// intent is released in full: nothing was captured, so there is nothing to
// keep. A captured payment is refunded per the sitter's cancellation policy.
// The processor is always called before any local payment write, so a
// failure here leaves the processor-side hold or charge intact for a retry.
func (s *BookingService) settlePayment(ctx context.Context, b *domain.Booking, actorID int64) error {
	switch b.PaymentStatus {
	case domain.PaymentStatusHeld:
		return s.escrow.ReleaseHold(ctx, b)
	case domain.PaymentStatusCaptured:
		sitter, err := s.catalog.GetSitter(ctx, b.SitterID)
		if err != nil {
			return err
		}
		quote := policy.CalculateRefund(sitter.Policy, b.TotalPriceCents, b.StartTime, s.now())
		if b.SitterID == actorID {
			// a sitter backing out never costs the owner anything
			quote = policy.RefundQuote{Percent: 100, AmountCents: b.TotalPriceCents, Eligible: true, Reason: "sitter_cancelled"}
		}
		if !quote.Eligible {
			return nil
		}
		return s.escrow.RefundCaptured(ctx, b, quote.AmountCents)
	default:
		return nil
	}
}

func (s *BookingService) StartWalk(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	b, err := s.advance(ctx, bookingID, domain.BookingStatusConfirmed, domain.BookingStatusInProgress)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, b.OwnerID, "walk_started", "Walk started", "Your sitter started the walk", b.ID)
	return b, nil
}

func (s *BookingService) CompleteWalk(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	b, err := s.advance(ctx, bookingID, domain.BookingStatusInProgress, domain.BookingStatusCompleted)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, b.OwnerID, "walk_completed", "Walk completed", "Your booking is complete", b.ID)
	s.notify(ctx, b.SitterID, "walk_completed", "Walk completed", "The booking is complete", b.ID)
	return b, nil
}

// advance is the trusted internal transition used by the walk tracker; it
// carries no actor check but keeps the same conditional-write discipline.
func (s *BookingService) advance(ctx context.Context, bookingID int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	ok, err := s.bookings.AdvanceStatus(ctx, bookingID, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		return nil, &domain.ConflictError{Reason: "booking_already_" + string(b.Status)}
	}
	return s.bookings.GetByID(ctx, bookingID)
}

func (s *BookingService) notify(ctx context.Context, userID int64, eventType, title, body string, bookingID int64) {
	if s.notifier == nil {
		return
	}
	data := map[string]string{"booking_id": fmt.Sprintf("%d", bookingID)}
	if err := s.notifier.Notify(ctx, userID, eventType, title, body, data); err != nil {
		log.Printf("WARNING: failed to notify user %d about %s for booking %d: %v", userID, eventType, bookingID, err)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
