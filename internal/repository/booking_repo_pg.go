package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pawsit/pawsit/internal/domain"
)

// BookingRepository persists bookings. Every state-changing method is a
// single conditional UPDATE whose WHERE clause carries the full precondition;
// the boolean result is the affected-row count. Callers that get false must
// re-read the row to find out why, never guess.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIntentID(ctx context.Context, intentID string) (*domain.Booking, error)
	ConfirmPending(ctx context.Context, id, sitterID int64) (bool, error)
	CancelByActor(ctx context.Context, id, actorID int64) (bool, error)
	AdvanceStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (bool, error)
	AttachIntent(ctx context.Context, id int64, intentID string) (bool, error)
	SetPaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) (bool, error)
	SetPaymentStatusByIntent(ctx context.Context, intentID string, to domain.PaymentStatus) error
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, owner_id, sitter_id, service_id, start_time, end_time, total_price_cents, status, payment_intent_id, payment_status, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.OwnerID, &b.SitterID, &b.ServiceID, &b.StartTime, &b.EndTime,
		&b.TotalPriceCents, &b.Status, &b.PaymentIntentID, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	b.Status = domain.BookingStatusPending
	b.PaymentStatus = domain.PaymentStatusPending
	return r.db.QueryRow(ctx, `INSERT INTO bookings (owner_id, sitter_id, service_id, start_time, end_time, total_price_cents, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		b.OwnerID, b.SitterID, b.ServiceID, b.StartTime, b.EndTime, b.TotalPriceCents, b.Status, b.PaymentStatus).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Reason: "booking_not_found"}
	}
	return b, err
}

func (r *PGBookingRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE payment_intent_id=$1`, intentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Reason: "booking_not_found"}
	}
	return b, err
}

func (r *PGBookingRepository) ConfirmPending(ctx context.Context, id, sitterID int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE id=$2 AND sitter_id=$3 AND status=$4`,
		domain.BookingStatusConfirmed, id, sitterID, domain.BookingStatusPending)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// CancelByActor encodes both cancellation rules in one WHERE clause: the
// sitter may decline a pending booking, the owner may cancel a pending or
// confirmed one. Racing transitions lose by affecting zero rows.
func (r *PGBookingRepository) CancelByActor(ctx context.Context, id, actorID int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE id=$2 AND (
			(sitter_id=$3 AND status=$4) OR
			(owner_id=$3 AND status IN ($4, $5))
		)`,
		domain.BookingStatusCancelled, id, actorID, domain.BookingStatusPending, domain.BookingStatusConfirmed)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *PGBookingRepository) AdvanceStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`, to, id, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// AttachIntent records the processor intent and moves the payment to held.
// The IS NULL guard keeps a booking at no more than one active intent.
func (r *PGBookingRepository) AttachIntent(ctx context.Context, id int64, intentID string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET payment_intent_id=$1, payment_status=$2, updated_at=now()
		WHERE id=$3 AND payment_intent_id IS NULL AND payment_status=$4`,
		intentID, domain.PaymentStatusHeld, id, domain.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *PGBookingRepository) SetPaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET payment_status=$1, updated_at=now() WHERE id=$2 AND payment_status=$3`, to, id, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// SetPaymentStatusByIntent is the webhook reconciliation write. It is keyed
// by intent id, unconditional on the current status, and therefore safe to
// apply repeatedly or out of order: the last processor truth wins. An
// unknown intent id is not an error; the local row may simply lag.
func (r *PGBookingRepository) SetPaymentStatusByIntent(ctx context.Context, intentID string, to domain.PaymentStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE bookings SET payment_status=$1, updated_at=now() WHERE payment_intent_id=$2`, to, intentID)
	return err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
