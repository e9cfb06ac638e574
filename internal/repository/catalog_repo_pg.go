package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pawsit/pawsit/internal/domain"
)

// CatalogRepository reads the sitter and service-listing attributes the
// booking core depends on. Listing and profile CRUD live in another service;
// only the payout account is written from here, during onboarding.
type CatalogRepository interface {
	GetService(ctx context.Context, id int64) (*domain.ServiceListing, error)
	GetSitter(ctx context.Context, id int64) (*domain.Sitter, error)
	SetPayoutAccount(ctx context.Context, sitterID int64, accountID string) error
}

type PGCatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) CatalogRepository {
	return &PGCatalogRepository{db: db}
}

func (r *PGCatalogRepository) GetService(ctx context.Context, id int64) (*domain.ServiceListing, error) {
	var s domain.ServiceListing
	err := r.db.QueryRow(ctx, `SELECT id, sitter_id, price_cents FROM services WHERE id=$1`, id).
		Scan(&s.ID, &s.SitterID, &s.PriceCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Reason: "service_not_found"}
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGCatalogRepository) GetSitter(ctx context.Context, id int64) (*domain.Sitter, error) {
	var s domain.Sitter
	err := r.db.QueryRow(ctx, `SELECT id, email, payout_account_id, cancellation_policy FROM sitters WHERE id=$1`, id).
		Scan(&s.ID, &s.Email, &s.PayoutAccountID, &s.Policy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Reason: "sitter_not_found"}
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGCatalogRepository) SetPayoutAccount(ctx context.Context, sitterID int64, accountID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE sitters SET payout_account_id=$1, updated_at=now() WHERE id=$2`, accountID, sitterID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Reason: "sitter_not_found"}
	}
	return nil
}

var _ CatalogRepository = (*PGCatalogRepository)(nil)
