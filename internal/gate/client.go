package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

// AuthorityClient abstracts the transport to the external authority.
// Send delivers a signed signal; a nil decision with a nil error means the
// authority accepted the signal for asynchronous resolution and the
// decision will arrive later through the callback surface.
type AuthorityClient interface {
	Send(ctx context.Context, signal *domain.KarmaSignal) (*domain.AuthorizationDecision, error)
	CheckHealth(ctx context.Context) error
}

// HTTPAuthorityClient talks to the authority over its HTTP API.
type HTTPAuthorityClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPAuthorityClient creates a client for the authority at baseURL.
// attemptTimeout bounds every individual request.
func NewHTTPAuthorityClient(baseURL string, attemptTimeout time.Duration) *HTTPAuthorityClient {
	if baseURL == "" {
		panic("baseURL cannot be empty")
	}

	return &HTTPAuthorityClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: attemptTimeout,
		},
	}
}

// Ensure HTTPAuthorityClient implements AuthorityClient
var _ AuthorityClient = (*HTTPAuthorityClient)(nil)

// Send implements AuthorityClient.Send
// It posts the signal to the authority's signal endpoint. A 200 response
// carries an immediate decision; a 202 means the decision will arrive
// asynchronously.
func (c *HTTPAuthorityClient) Send(
	ctx context.Context,
	signal *domain.KarmaSignal,
) (*domain.AuthorizationDecision, error) {
	body, err := json.Marshal(signal)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signal: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/v1/signals",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build signal request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthorityUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var decision domain.AuthorizationDecision
		if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
		}
		if decision.Nonce == uuid.Nil {
			return nil, fmt.Errorf("%w: decision missing nonce", ErrMalformedDecision)
		}
		if !decision.Outcome.Valid() {
			return nil, fmt.Errorf("%w: unrecognized outcome %q",
				ErrMalformedDecision, decision.Outcome)
		}
		return &decision, nil

	case http.StatusAccepted:
		// Decision will arrive through the asynchronous callback.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil

	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: authority returned status %d",
			ErrAuthorityUnavailable, resp.StatusCode)
	}
}

// CheckHealth implements AuthorityClient.CheckHealth
// It probes the authority's health endpoint.
func (c *HTTPAuthorityClient) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthorityUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health probe returned status %d",
			ErrAuthorityUnavailable, resp.StatusCode)
	}
	return nil
}
