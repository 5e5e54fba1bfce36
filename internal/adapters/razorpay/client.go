package razorpay

import (
	"SabhaPay/internal/core/ports"
	"SabhaPay/internal/shared/config"
	"SabhaPay/internal/shared/metrics"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

var _ ports.VerificationProvider = (*Client)(nil) // Ensure compliance

// Client implements the VerificationProvider port against the Razorpay v2
// account/stakeholder/product API.
type Client struct {
	baseURL     string
	keyID       string
	keySecret   string
	environment string
	httpClient  *http.Client
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewClient creates a new provider client adapter.
func NewClient(cfg config.ProviderConfig, m *metrics.Metrics, baseLogger *zerolog.Logger) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		keyID:       cfg.KeyID,
		keySecret:   cfg.KeySecret,
		environment: cfg.Environment,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		metrics:     m,
		log:         baseLogger.With().Str("component", "provider_client").Logger(),
	}
}

// Environment labels the credential set this client was built with.
func (c *Client) Environment() string {
	return c.environment
}

// OnboardingURL returns the provider's hosted remediation page for an
// account, used when the workflow cannot finish programmatically.
func (c *Client) OnboardingURL(accountID string) string {
	return fmt.Sprintf("https://dashboard.razorpay.com/app/route/accounts/%s/onboarding", url.PathEscape(accountID))
}

// do performs one API call. Writes carry the idempotency key so that a
// network-level retry of the same attempt cannot double-register.
func (c *Client) do(ctx context.Context, op, method, path string, idemKey string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not marshal %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("could not build %s request: %w", op, err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idemKey != "" {
		req.Header.Set("X-Idempotency-Key", idemKey)
	}

	return c.send(req, op, out)
}

// send executes a prepared request and decodes the response, translating
// every failure into a structured ports.ProviderError.
func (c *Client) send(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.count(op, "network_error")
		c.log.Error().Err(err).Str("operation", op).Msg("Provider call failed at transport level")
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.count(op, "network_error")
		return classifyTransportError(err)
	}

	if resp.StatusCode >= 400 {
		provErr := translateAPIError(resp.StatusCode, respBody)
		c.count(op, string(provErr.Kind))
		// Raw description is log-only; callers surface sanitized messages.
		c.log.Warn().
			Str("operation", op).
			Int("status", resp.StatusCode).
			Str("kind", string(provErr.Kind)).
			Str("field", provErr.Field).
			Msg("Provider returned an error")
		return provErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			c.count(op, "decode_error")
			return &ports.ProviderError{
				Kind:        ports.KindUnknown,
				Description: fmt.Sprintf("undecodable %s response: %v", op, err),
				HTTPStatus:  resp.StatusCode,
			}
		}
	}

	c.count(op, "ok")
	return nil
}

func (c *Client) count(op, outcome string) {
	if c.metrics != nil {
		c.metrics.ProviderRequests.WithLabelValues(op, outcome).Inc()
	}
}
