package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pawsit/pawsit/internal/domain"
	"github.com/pawsit/pawsit/internal/service/reviews"
)

type ReviewHandler struct {
	service reviews.ReviewUseCase
}

type submitReviewRequest struct {
	BookingID int64  `json:"booking_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type reviewResponse struct {
	ID          int64   `json:"id"`
	BookingID   int64   `json:"booking_id"`
	ReviewerID  int64   `json:"reviewer_id"`
	RevieweeID  int64   `json:"reviewee_id"`
	Rating      int     `json:"rating"`
	Comment     string  `json:"comment,omitempty"`
	PublishedAt *string `json:"published_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func toReviewResponse(rev *domain.Review) reviewResponse {
	resp := reviewResponse{
		ID:         rev.ID,
		BookingID:  rev.BookingID,
		ReviewerID: rev.ReviewerID,
		RevieweeID: rev.RevieweeID,
		Rating:     rev.Rating,
		Comment:    rev.Comment,
		CreatedAt:  rev.CreatedAt.Format(time.RFC3339),
	}
	if rev.PublishedAt != nil {
		published := rev.PublishedAt.Format(time.RFC3339)
		resp.PublishedAt = &published
	}
	return resp
}

func NewReviewHandler(service reviews.ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.submit)
	router.GET("/", h.listOwn)
	router.GET("/:userId", h.listForUser)
}

func (h *ReviewHandler) submit(c *gin.Context) {
	reviewer, ok := actorID(c)
	if !ok {
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	rev, err := h.service.Submit(c.Request.Context(), reviews.SubmitReviewInput{
		BookingID:  req.BookingID,
		ReviewerID: reviewer,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReviewResponse(rev))
}

// listForUser returns only published reviews about the given user; nobody's
// unpublished half of a pair ever shows up here.
func (h *ReviewHandler) listForUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_user_id"})
		return
	}

	list, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]reviewResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toReviewResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// listOwn returns the caller's submissions, published or not.
func (h *ReviewHandler) listOwn(c *gin.Context) {
	reviewer, ok := actorID(c)
	if !ok {
		return
	}

	list, err := h.service.ListOwn(c.Request.Context(), reviewer)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]reviewResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toReviewResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}
