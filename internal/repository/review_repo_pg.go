package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pawsit/pawsit/internal/domain"
)

const uniqueViolation = "23505"

const (
	lockBookingSQL = `SELECT id FROM bookings WHERE id=$1 FOR UPDATE`

	insertReviewSQL = `INSERT INTO reviews (booking_id, reviewer_id, reviewee_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	countReviewsSQL = `SELECT COUNT(*) FROM reviews WHERE booking_id=$1`

	publishPairSQL = `UPDATE reviews SET published_at=$1 WHERE booking_id=$2 AND published_at IS NULL`
)

// ReviewRepository persists review pairs. Submit runs the insert and the
// publication check in one transaction so that the pair becomes visible with
// a single shared timestamp, never one side before the other.
type ReviewRepository interface {
	Submit(ctx context.Context, rev *domain.Review) (published bool, err error)
	ListPublishedFor(ctx context.Context, revieweeID int64) ([]domain.Review, error)
	ListByReviewer(ctx context.Context, reviewerID int64) ([]domain.Review, error)
}

type PGReviewRepository struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) ReviewRepository {
	return &PGReviewRepository{db: db}
}

// reviewTx is the slice of pgx.Tx the submit transaction needs.
type reviewTx interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *PGReviewRepository) Submit(ctx context.Context, rev *domain.Review) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	published, err := submitInTx(ctx, tx, rev)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return published, nil
}

func submitInTx(ctx context.Context, tx reviewTx, rev *domain.Review) (bool, error) {
	// Lock the booking row before anything else. Two reviewers submitting for
	// the same booking concurrently would otherwise each count only their own
	// uncommitted insert and neither would publish the pair; the lock makes
	// the second transaction wait until the first commit is visible.
	var bookingID int64
	if err := tx.QueryRow(ctx, lockBookingSQL, rev.BookingID).Scan(&bookingID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, &domain.NotFoundError{Reason: "booking_not_found"}
		}
		return false, err
	}

	err := tx.QueryRow(ctx, insertReviewSQL,
		rev.BookingID, rev.ReviewerID, rev.RevieweeID, rev.Rating, rev.Comment).
		Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return false, &domain.ConflictError{Reason: "duplicate_review"}
		}
		return false, err
	}

	// Reveal the pair once the reciprocal row exists. One UPDATE stamps both
	// rows with the same timestamp inside the insert's transaction.
	var count int
	if err := tx.QueryRow(ctx, countReviewsSQL, rev.BookingID).Scan(&count); err != nil {
		return false, err
	}
	if count != 2 {
		return false, nil
	}
	ts := time.Now().UTC()
	if _, err := tx.Exec(ctx, publishPairSQL, ts, rev.BookingID); err != nil {
		return false, err
	}
	rev.PublishedAt = &ts
	return true, nil
}

func (r *PGReviewRepository) ListPublishedFor(ctx context.Context, revieweeID int64) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, reviewer_id, reviewee_id, rating, comment, published_at, created_at
		FROM reviews
		WHERE reviewee_id=$1 AND published_at IS NOT NULL
		ORDER BY created_at DESC`, revieweeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (r *PGReviewRepository) ListByReviewer(ctx context.Context, reviewerID int64) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, reviewer_id, reviewee_id, rating, comment, published_at, created_at
		FROM reviews
		WHERE reviewer_id=$1
		ORDER BY created_at DESC`, reviewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

func collectReviews(rows pgx.Rows) ([]domain.Review, error) {
	var reviews []domain.Review
	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(&rev.ID, &rev.BookingID, &rev.ReviewerID, &rev.RevieweeID,
			&rev.Rating, &rev.Comment, &rev.PublishedAt, &rev.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

var _ ReviewRepository = (*PGReviewRepository)(nil)
