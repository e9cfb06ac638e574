package payments

import (
	"context"
	"fmt"
	"log"

	"github.com/pawsit/pawsit/internal/domain"
	"github.com/pawsit/pawsit/internal/processor"
	"github.com/pawsit/pawsit/internal/repository"
)

type EscrowUseCase interface {
	CreateIntent(ctx context.Context, bookingID, actorID int64) (*IntentResult, error)
	Capture(ctx context.Context, bookingID, actorID int64) error
	CancelHeld(ctx context.Context, bookingID, actorID int64) error
	Reconcile(ctx context.Context, event *processor.Event) error
	Onboard(ctx context.Context, sitterID int64) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, eventType, title, body string, data map[string]string) error
}

type IntentResult struct {
	IntentID     string
	ClientSecret string
}

// EscrowService owns the payment side of a booking: one manual-capture
// intent held at the processor, captured or released later. The processor is
// always called before the matching local write, so local state can lag the
// processor but never run ahead of it; webhooks close the gap.
type EscrowService struct {
	bookings   repository.BookingRepository
	catalog    repository.CatalogRepository
	client     processor.Client
	notifier   Notifier
	feePercent float64
	returnURL  string
}

func NewEscrowService(
	bookings repository.BookingRepository,
	catalog repository.CatalogRepository,
	client processor.Client,
	notifier Notifier,
	feePercent float64,
	onboardReturnURL string,
) *EscrowService {
	return &EscrowService{
		bookings:   bookings,
		catalog:    catalog,
		client:     client,
		notifier:   notifier,
		feePercent: feePercent,
		returnURL:  onboardReturnURL,
	}
}

func (s *EscrowService) CreateIntent(ctx context.Context, bookingID, actorID int64) (*IntentResult, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != actorID {
		return nil, &domain.AuthError{Reason: "not_booking_owner"}
	}
	if b.PaymentIntentID != nil {
		return nil, &domain.ConflictError{Reason: "intent_already_exists"}
	}

	sitter, err := s.catalog.GetSitter(ctx, b.SitterID)
	if err != nil {
		return nil, err
	}
	if sitter.PayoutAccountID == nil {
		return nil, &domain.ConflictError{Reason: "sitter_not_onboarded"}
	}

	intent, err := s.client.CreateIntent(ctx, b.TotalPriceCents, *sitter.PayoutAccountID, s.feePercent)
	if err != nil {
		return nil, &domain.ProcessorError{Reason: "create_intent_failed", Err: err}
	}

	ok, err := s.bookings.AttachIntent(ctx, b.ID, intent.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// a concurrent CreateIntent won the row; void the intent we just
		// opened so no orphan hold lingers at the processor
		if cancelErr := s.client.Cancel(ctx, intent.ID); cancelErr != nil {
			log.Printf("WARNING: failed to void orphan intent %s: %v", intent.ID, cancelErr)
		}
		return nil, &domain.ConflictError{Reason: "intent_already_exists"}
	}

	s.notify(ctx, b.SitterID, "payment_held", "Payment secured",
		"The owner's payment is held in escrow for your booking", b.ID)
	return &IntentResult{IntentID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func (s *EscrowService) Capture(ctx context.Context, bookingID, actorID int64) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !b.Participant(actorID) {
		return &domain.AuthError{Reason: "not_booking_participant"}
	}
	if b.PaymentStatus != domain.PaymentStatusHeld || b.PaymentIntentID == nil {
		return &domain.ConflictError{Reason: "payment_not_held"}
	}

	if err := s.client.Capture(ctx, *b.PaymentIntentID); err != nil {
		return &domain.ProcessorError{Reason: "capture_failed", Err: err}
	}
	// zero rows here means a webhook already recorded the capture
	if _, err := s.bookings.SetPaymentStatus(ctx, b.ID, domain.PaymentStatusHeld, domain.PaymentStatusCaptured); err != nil {
		return err
	}

	s.notify(ctx, b.SitterID, "payment_captured", "Payment captured",
		"The payment for your booking has been captured", b.ID)
	return nil
}

func (s *EscrowService) CancelHeld(ctx context.Context, bookingID, actorID int64) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.OwnerID != actorID {
		return &domain.AuthError{Reason: "not_booking_owner"}
	}
	if err := s.ReleaseHold(ctx, b); err != nil {
		return err
	}
	// A released hold leaves no way to pay the sitter, so the booking falls
	// with it unless a cancellation already moved the row. Zero rows here
	// means exactly that race and is fine.
	if domain.CanTransition(b.Status, domain.BookingStatusCancelled) {
		if _, err := s.bookings.AdvanceStatus(ctx, b.ID, b.Status, domain.BookingStatusCancelled); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseHold voids a held intent in full. It is the trusted entry used by
// the booking state machine during cancellation; CancelHeld wraps it with
// the owner check for the HTTP surface.
func (s *EscrowService) ReleaseHold(ctx context.Context, b *domain.Booking) error {
	if b.PaymentStatus != domain.PaymentStatusHeld || b.PaymentIntentID == nil {
		return &domain.ConflictError{Reason: "payment_not_held"}
	}
	if err := s.client.Cancel(ctx, *b.PaymentIntentID); err != nil {
		return &domain.ProcessorError{Reason: "cancel_failed", Err: err}
	}
	if _, err := s.bookings.SetPaymentStatus(ctx, b.ID, domain.PaymentStatusHeld, domain.PaymentStatusCancelled); err != nil {
		return err
	}
	s.notify(ctx, b.OwnerID, "payment_released", "Payment released",
		"Your held payment has been released in full", b.ID)
	return nil
}

// RefundCaptured refunds a captured payment, partially or in full when
// amountCents <= 0. It is a trusted entry with no actor check: the only
// caller is the cancellation path, which has already decided the amount from
// the cancellation policy. Refunds do not change payment_status: captured is
// terminal and the refund is a processor-side ledger fact.
func (s *EscrowService) RefundCaptured(ctx context.Context, b *domain.Booking, amountCents int64) error {
	if b.PaymentStatus != domain.PaymentStatusCaptured || b.PaymentIntentID == nil {
		return &domain.ConflictError{Reason: "payment_not_captured"}
	}
	if err := s.client.Refund(ctx, *b.PaymentIntentID, amountCents); err != nil {
		return &domain.ProcessorError{Reason: "refund_failed", Err: err}
	}
	if amountCents <= 0 {
		amountCents = b.TotalPriceCents
	}
	s.notify(ctx, b.OwnerID, "payment_refunded", "Refund issued",
		fmt.Sprintf("A refund of %d cents has been issued", amountCents), b.ID)
	return nil
}

// Reconcile applies a processor webhook event. It is keyed by intent id and
// idempotent: the same event twice, or events out of order, converge on the
// processor's final truth. Unknown event types are ignored.
func (s *EscrowService) Reconcile(ctx context.Context, event *processor.Event) error {
	var status domain.PaymentStatus
	switch event.Type {
	case "payment_intent.succeeded":
		status = domain.PaymentStatusCaptured
	case "payment_intent.canceled":
		status = domain.PaymentStatusCancelled
	default:
		return nil
	}
	return s.bookings.SetPaymentStatusByIntent(ctx, event.IntentID, status)
}

// Onboard sets up the sitter's payout destination with the processor and
// returns the hosted onboarding link. Re-running it for an onboarded sitter
// just mints a fresh link for the existing account.
func (s *EscrowService) Onboard(ctx context.Context, sitterID int64) (string, error) {
	sitter, err := s.catalog.GetSitter(ctx, sitterID)
	if err != nil {
		return "", err
	}

	accountID := ""
	if sitter.PayoutAccountID != nil {
		accountID = *sitter.PayoutAccountID
	} else {
		accountID, err = s.client.CreateAccount(ctx, sitter.Email)
		if err != nil {
			return "", &domain.ProcessorError{Reason: "create_account_failed", Err: err}
		}
		if err := s.catalog.SetPayoutAccount(ctx, sitterID, accountID); err != nil {
			return "", err
		}
	}

	link, err := s.client.CreateOnboardingLink(ctx, accountID, s.returnURL)
	if err != nil {
		return "", &domain.ProcessorError{Reason: "onboarding_link_failed", Err: err}
	}
	return link, nil
}

func (s *EscrowService) notify(ctx context.Context, userID int64, eventType, title, body string, bookingID int64) {
	if s.notifier == nil {
		return
	}
	data := map[string]string{"booking_id": fmt.Sprintf("%d", bookingID)}
	if err := s.notifier.Notify(ctx, userID, eventType, title, body, data); err != nil {
		log.Printf("WARNING: failed to notify user %d about %s for booking %d: %v", userID, eventType, bookingID, err)
	}
}

var _ EscrowUseCase = (*EscrowService)(nil)
