package processor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

var ErrBadSignature = errors.New("webhook signature mismatch")

// VerifyWebhookSignature checks the HMAC-SHA256 signature the processor puts
// on every delivery and decodes the event payload. The raw body must be the
// exact bytes that were signed.
func (c *HTTPClient) VerifyWebhookSignature(rawBody []byte, signatureHeader string) (*Event, error) {
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signatureHeader)) {
		return nil, ErrBadSignature
	}

	var event Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
