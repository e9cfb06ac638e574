package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusHeld      PaymentStatus = "held"
	PaymentStatusCaptured  PaymentStatus = "captured"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// allowedTransitions is the full booking lifecycle graph. A status missing
// from the map is terminal.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed:  {BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress: {BookingStatusCompleted},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID              int64
	OwnerID         int64
	SitterID        int64
	ServiceID       int64
	StartTime       time.Time
	EndTime         time.Time
	TotalPriceCents int64
	Status          BookingStatus
	PaymentIntentID *string
	PaymentStatus   PaymentStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Participant reports whether userID is the owner or the sitter of the booking.
func (b *Booking) Participant(userID int64) bool {
	return userID == b.OwnerID || userID == b.SitterID
}

// CounterpartOf returns the other party of the booking: the sitter for the
// owner and vice versa. The caller must already have verified participation.
func (b *Booking) CounterpartOf(userID int64) int64 {
	if userID == b.OwnerID {
		return b.SitterID
	}
	return b.OwnerID
}
