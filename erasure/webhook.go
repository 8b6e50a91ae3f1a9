package erasure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
	"golang.org/x/oauth2/clientcredentials"
)

const webhookTimeout = 30 * time.Second

// ClientCredentials returns an *http.Client authenticating with the OAuth2 client credentials grant.
func ClientCredentials(ctx context.Context, clientID, clientSecret, tokenURL string) *http.Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	c := cfg.Client(ctx)
	c.Timeout = webhookTimeout
	return c
}

// A WebhookStep asks the marketplace to delete the account's listings, messages and reviews.
//
// The endpoint receives POST {"accountId": "..."} and answers {"removed": n}.
// A 404 means the marketplace holds nothing for the account.
type WebhookStep struct {
	client   *http.Client
	endpoint string
}

// NewWebhookStep constructs a *WebhookStep.
// A nil client uses http.DefaultClient.
func NewWebhookStep(endpoint string, client *http.Client) *WebhookStep {
	if client == nil {
		client = http.DefaultClient
	}

	return &WebhookStep{client: client, endpoint: endpoint}
}

func (s *WebhookStep) Name() string { return "marketplace" }

type webhookRequest struct {
	AccountID uuid.UUID `json:"accountId"`
}

type webhookResponse struct {
	Removed int `json:"removed"`
}

func (s *WebhookStep) Erase(ctx context.Context, accountID uuid.UUID) (int, error) {
	b, err := json.Marshal(webhookRequest{AccountID: accountID})
	if err != nil {
		return 0, fmt.Errorf("%w: %s", retention.ErrUnexpected, err)
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(b))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", retention.ErrBadConfig, err)
	}
	r.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", retention.ErrDependency, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return 0, nil
	case res.StatusCode < 200 || res.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return 0, fmt.Errorf("%w: marketplace returned %d: %s", retention.ErrDependency, res.StatusCode, bytes.TrimSpace(body))
	}

	var out webhookResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil && err != io.EOF {
		return 0, fmt.Errorf("%w: decoding marketplace response: %s", retention.ErrDependency, err)
	}

	return out.Removed, nil
}
