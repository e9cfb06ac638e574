package domain

import "github.com/pawsit/pawsit/internal/policy"

// ServiceListing is the read-only view of a sitter's service offering that
// booking creation needs: who owns it and what it costs. Listing CRUD is
// handled elsewhere.
type ServiceListing struct {
	ID         int64
	SitterID   int64
	PriceCents int64
}

// Sitter carries the sitter attributes the payment and cancellation paths
// read: the payout destination configured with the processor and the
// cancellation policy applied to refunds.
type Sitter struct {
	ID              int64
	Email           string
	PayoutAccountID *string
	Policy          policy.Policy
}
