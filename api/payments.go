package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pawsit/pawsit/internal/processor"
	"github.com/pawsit/pawsit/internal/service/payments"
)

// WebhookVerifier is the slice of the processor client the webhook endpoint
// needs: signature check plus event decode.
type WebhookVerifier interface {
	VerifyWebhookSignature(rawBody []byte, signatureHeader string) (*processor.Event, error)
}

type PaymentHandler struct {
	service  payments.EscrowUseCase
	verifier WebhookVerifier
}

type paymentRequest struct {
	BookingID int64 `json:"booking_id"`
}

func NewPaymentHandler(service payments.EscrowUseCase, verifier WebhookVerifier) *PaymentHandler {
	return &PaymentHandler{service: service, verifier: verifier}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/create-intent", h.createIntent)
	router.POST("/capture", h.capture)
	router.POST("/cancel", h.cancel)
	router.POST("/onboard", h.onboard)
}

// RegisterWebhook mounts the unauthenticated processor callback; it sits
// outside the payments group because the processor, not a user, calls it.
func (h *PaymentHandler) RegisterWebhook(router *gin.RouterGroup) {
	router.POST("/payment-processor", h.webhook)
}

func (h *PaymentHandler) createIntent(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	result, err := h.service.CreateIntent(c.Request.Context(), req.BookingID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"intent_id":     result.IntentID,
		"client_secret": result.ClientSecret,
	})
}

func (h *PaymentHandler) capture(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	if err := h.service.Capture(c.Request.Context(), req.BookingID, actor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "captured"})
}

func (h *PaymentHandler) cancel(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	if err := h.service.CancelHeld(c.Request.Context(), req.BookingID, actor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *PaymentHandler) onboard(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	link, err := h.service.Onboard(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"onboarding_url": link})
}

func (h *PaymentHandler) webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_body"})
		return
	}

	event, err := h.verifier.VerifyWebhookSignature(body, c.GetHeader("X-Processor-Signature"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_signature"})
		return
	}

	if err := h.service.Reconcile(c.Request.Context(), event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
