// Package processor talks to the external payment processor. The client is
// an explicitly constructed value injected into the escrow service, so tests
// substitute a fake without any global state.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// Intent is a manual-capture payment intent: funds are authorized and held
// until a separate capture call moves them.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Event is a webhook event decoded after signature verification.
type Event struct {
	Type     string `json:"type"`
	IntentID string `json:"intent_id"`
}

type Client interface {
	CreateAccount(ctx context.Context, email string) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID, returnURL string) (string, error)
	CreateIntent(ctx context.Context, amountCents int64, destinationAccountID string, feePercent float64) (*Intent, error)
	Capture(ctx context.Context, intentID string) error
	Cancel(ctx context.Context, intentID string) error
	Refund(ctx context.Context, intentID string, amountCents int64) error
	VerifyWebhookSignature(rawBody []byte, signatureHeader string) (*Event, error)
}

// HTTPClient implements Client against the processor's REST API.
type HTTPClient struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	http          *http.Client
}

func NewHTTPClient(baseURL, secretKey, webhookSecret string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{
		baseURL:       baseURL,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		http:          httpClient,
	}
}

func (c *HTTPClient) CreateAccount(ctx context.Context, email string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/v1/accounts", url.Values{"email": {email}}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *HTTPClient) CreateOnboardingLink(ctx context.Context, accountID, returnURL string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	form := url.Values{"account": {accountID}, "return_url": {returnURL}}
	if err := c.post(ctx, "/v1/account_links", form, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *HTTPClient) CreateIntent(ctx context.Context, amountCents int64, destinationAccountID string, feePercent float64) (*Intent, error) {
	feeCents := int64(float64(amountCents) * feePercent / 100)
	form := url.Values{
		"amount":          {strconv.FormatInt(amountCents, 10)},
		"capture_method":  {"manual"},
		"destination":     {destinationAccountID},
		"application_fee": {strconv.FormatInt(feeCents, 10)},
	}
	var out Intent
	if err := c.post(ctx, "/v1/payment_intents", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Capture(ctx context.Context, intentID string) error {
	return c.post(ctx, "/v1/payment_intents/"+intentID+"/capture", nil, nil)
}

func (c *HTTPClient) Cancel(ctx context.Context, intentID string) error {
	return c.post(ctx, "/v1/payment_intents/"+intentID+"/cancel", nil, nil)
}

func (c *HTTPClient) Refund(ctx context.Context, intentID string, amountCents int64) error {
	form := url.Values{"payment_intent": {intentID}}
	if amountCents > 0 {
		form.Set("amount", strconv.FormatInt(amountCents, 10))
	}
	return c.post(ctx, "/v1/refunds", form, nil)
}

// post issues one processor call. Each request carries a fresh idempotency
// key so a transport-level retry at the processor cannot double-apply it.
func (c *HTTPClient) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = bytes.NewBufferString(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Idempotency-Key", uuid.NewString())
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("processor request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("processor %s returned %d: %s", path, resp.StatusCode, payload)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ Client = (*HTTPClient)(nil)
