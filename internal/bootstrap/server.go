package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pawsit/pawsit/api"
	"github.com/pawsit/pawsit/config"
)

// Run builds the HTTP router, starts the server and blocks until the context
// is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, bookingH *api.BookingHandler, paymentH *api.PaymentHandler, reviewH *api.ReviewHandler) error {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	bookingH.Register(router.Group("/bookings"))
	paymentH.Register(router.Group("/payments"))
	paymentH.RegisterWebhook(router.Group("/webhooks"))
	reviewH.Register(router.Group("/reviews"))

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
