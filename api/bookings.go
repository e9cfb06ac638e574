package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pawsit/pawsit/internal/domain"
	"github.com/pawsit/pawsit/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	SitterID  int64     `json:"sitter_id"`
	ServiceID int64     `json:"service_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type bookingResponse struct {
	ID              int64   `json:"id"`
	OwnerID         int64   `json:"owner_id"`
	SitterID        int64   `json:"sitter_id"`
	ServiceID       int64   `json:"service_id"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	TotalPriceCents int64   `json:"total_price_cents"`
	Status          string  `json:"status"`
	PaymentStatus   string  `json:"payment_status"`
	PaymentIntentID *string `json:"payment_intent_id,omitempty"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		OwnerID:         b.OwnerID,
		SitterID:        b.SitterID,
		ServiceID:       b.ServiceID,
		StartTime:       b.StartTime.Format(time.RFC3339),
		EndTime:         b.EndTime.Format(time.RFC3339),
		TotalPriceCents: b.TotalPriceCents,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		PaymentIntentID: b.PaymentIntentID,
	}
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.PUT("/:id/status", h.updateStatus)
}

func (h *BookingHandler) create(c *gin.Context) {
	owner, ok := actorID(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	b, err := h.service.Create(c.Request.Context(), booking.CreateBookingInput{
		OwnerID:   owner,
		SitterID:  req.SitterID,
		ServiceID: req.ServiceID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(b))
}

// updateStatus accepts the two end-user transitions: the sitter confirming
// and either party cancelling. Walk start/end arrive on the internal path,
// not here.
func (h *BookingHandler) updateStatus(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_booking_id"})
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	var b *domain.Booking
	switch domain.BookingStatus(req.Status) {
	case domain.BookingStatusConfirmed:
		b, err = h.service.Confirm(c.Request.Context(), bookingID, actor)
	case domain.BookingStatusCancelled:
		b, err = h.service.Cancel(c.Request.Context(), bookingID, actor)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_status"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(b))
}
