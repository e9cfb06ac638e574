package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pawsit/pawsit/internal/domain"
)

// respondError maps the domain error taxonomy onto stable HTTP statuses.
// Only the short reason string reaches the client; processor and internal
// detail stay in the logs.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		authErr       *domain.AuthError
		notFoundErr   *domain.NotFoundError
		conflictErr   *domain.ConflictError
		processorErr  *domain.ProcessorError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Reason})
	case errors.As(err, &authErr):
		c.JSON(http.StatusForbidden, gin.H{"error": authErr.Reason})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Reason})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Reason})
	case errors.As(err, &processorErr):
		log.Printf("processor failure: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": processorErr.Reason})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

// actorID reads the authenticated user id set by the upstream gateway.
func actorID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return 0, false
	}
	return id, true
}
