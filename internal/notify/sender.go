package notify

import (
	"context"
	"log"
)

// Sender performs the actual best-effort delivery in the worker. The push
// and email providers sit behind another internal service; here delivery is
// a log line with the same contract.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event Event) error {
	log.Printf("notify user %d [%s] %s: %s", event.UserID, event.Type, event.Title, event.Body)
	return nil
}
