package domain

import "time"

// Review is one side of a double-blind review pair. PublishedAt stays nil
// until the reciprocal review for the same booking exists; both rows of a
// pair always carry the same PublishedAt value.
type Review struct {
	ID          int64
	BookingID   int64
	ReviewerID  int64
	RevieweeID  int64
	Rating      int
	Comment     string
	PublishedAt *time.Time
	CreatedAt   time.Time
}
