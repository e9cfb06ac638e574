package reviews

import (
	"context"
	"log"

	"github.com/pawsit/pawsit/internal/domain"
	"github.com/pawsit/pawsit/internal/repository"
)

type ReviewUseCase interface {
	Submit(ctx context.Context, input SubmitReviewInput) (*domain.Review, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Review, error)
	ListOwn(ctx context.Context, reviewerID int64) ([]domain.Review, error)
}

type Cache interface {
	GetReviews(ctx context.Context, revieweeID int64) ([]domain.Review, error)
	SetReviews(ctx context.Context, revieweeID int64, reviews []domain.Review) error
	InvalidateReviews(ctx context.Context, revieweeIDs ...int64) error
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, eventType, title, body string, data map[string]string) error
}

type SubmitReviewInput struct {
	BookingID  int64  `json:"booking_id"`
	ReviewerID int64  `json:"-"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// ReviewService enforces the double-blind gate: a review stays hidden until
// the counterpart review for the same booking lands, then both publish with
// one shared timestamp.
type ReviewService struct {
	reviews  repository.ReviewRepository
	bookings repository.BookingRepository
	cache    Cache
	notifier Notifier
}

func NewReviewService(
	reviews repository.ReviewRepository,
	bookings repository.BookingRepository,
	cache Cache,
	notifier Notifier,
) *ReviewService {
	return &ReviewService{reviews: reviews, bookings: bookings, cache: cache, notifier: notifier}
}

func (s *ReviewService) Submit(ctx context.Context, input SubmitReviewInput) (*domain.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, &domain.ValidationError{Reason: "rating_out_of_range"}
	}

	b, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if !b.Participant(input.ReviewerID) {
		return nil, &domain.AuthError{Reason: "not_booking_participant"}
	}
	if b.Status != domain.BookingStatusCompleted {
		return nil, &domain.ConflictError{Reason: "booking_not_completed"}
	}

	rev := &domain.Review{
		BookingID:  input.BookingID,
		ReviewerID: input.ReviewerID,
		RevieweeID: b.CounterpartOf(input.ReviewerID),
		Rating:     input.Rating,
		Comment:    input.Comment,
	}
	published, err := s.reviews.Submit(ctx, rev)
	if err != nil {
		return nil, err
	}

	if published {
		if s.cache != nil {
			if err := s.cache.InvalidateReviews(ctx, b.OwnerID, b.SitterID); err != nil {
				log.Printf("WARNING: failed to invalidate review cache for booking %d: %v", b.ID, err)
			}
		}
		s.notifyPublished(ctx, b.OwnerID, b.ID)
		s.notifyPublished(ctx, b.SitterID, b.ID)
	}
	return rev, nil
}

func (s *ReviewService) ListForUser(ctx context.Context, userID int64) ([]domain.Review, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetReviews(ctx, userID); err == nil && cached != nil {
			return cached, nil
		}
	}

	reviews, err := s.reviews.ListPublishedFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetReviews(ctx, userID, reviews); err != nil {
			log.Printf("WARNING: failed to cache reviews for user %d: %v", userID, err)
		}
	}
	return reviews, nil
}

func (s *ReviewService) ListOwn(ctx context.Context, reviewerID int64) ([]domain.Review, error) {
	return s.reviews.ListByReviewer(ctx, reviewerID)
}

func (s *ReviewService) notifyPublished(ctx context.Context, userID, bookingID int64) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, "reviews_published", "Reviews published",
		"Both reviews for your booking are now visible", nil); err != nil {
		log.Printf("WARNING: failed to notify user %d about published reviews for booking %d: %v", userID, bookingID, err)
	}
}

var _ ReviewUseCase = (*ReviewService)(nil)
