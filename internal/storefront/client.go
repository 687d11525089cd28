package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/transport"
)

// =============================================================================
// STOREFRONT GRAPHQL CLIENT
// =============================================================================
//
// Endpoint: {scheme}://{storeDomain}/api/{apiVersion}/graphql.json
// Auth:     X-Shopify-Storefront-Access-Token: {public token}
//
// Failure rules:
//   - transport failure or non-2xx status → mapped to model.APIError
//   - 200 with a non-empty "errors" array  → GatewayError wrapping model.GraphQLErrors
//     (extensions.code THROTTLED becomes a rate-limit error)
//   - "data" is decoded only when "errors" is empty
// =============================================================================

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20

	tokenHeader = "X-Shopify-Storefront-Access-Token"
	serviceName = "Storefront API"
)

// Config holds client settings.
type Config struct {
	// StoreDomain is "shop.example.com", or a full base URL such as "http://127.0.0.1:8080".
	StoreDomain string
	APIVersion  string
	AccessToken string
	UserAgent   string
	Timeout     time.Duration
	// HTTPClient overrides the default client (fingerprinting transport + Timeout).
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client executes GraphQL operations against one store.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	userAgent  string
	logger     *slog.Logger
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.StoreDomain == "" {
		return nil, errors.New("store domain is required")
	}
	if cfg.APIVersion == "" {
		return nil, errors.New("API version is required")
	}
	if cfg.AccessToken == "" {
		return nil, errors.New("storefront access token is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "storefront/dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport.NewChromeTransport(cfg.Timeout),
		}
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   endpointURL(cfg.StoreDomain, cfg.APIVersion),
		token:      cfg.AccessToken,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger,
	}, nil
}

func endpointURL(domain, version string) string {
	base := strings.TrimRight(domain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return base + "/api/" + version + "/graphql.json"
}

// Endpoint returns the GraphQL URL this client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type graphQLResponse struct {
	Data   json.RawMessage     `json:"data"`
	Errors model.GraphQLErrors `json:"errors"`
}

// execute runs op and decodes "data" into out.
func (c *Client) execute(ctx context.Context, op operation, vars map[string]any, out any) error {
	req, err := c.newRequest(ctx, op, vars)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op.name, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("storefront request failed",
			slog.String("operation", op.name),
			slog.Any("error", err),
		)
		return model.NewGatewayError(op.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.NewGatewayError(op.name, fmt.Errorf("reading response: %w", err))
	}

	c.logger.Debug("storefront request",
		slog.String("operation", op.name),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return c.parseError(op, resp, body)
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return model.NewGatewayError(op.name, fmt.Errorf("parsing response: %w", err))
	}
	if len(envelope.Errors) > 0 {
		for _, ge := range envelope.Errors {
			if ge.Code() == "THROTTLED" {
				return model.NewRateLimitError(serviceName, retryHint(resp.Header))
			}
		}
		return model.NewGatewayError(op.name, envelope.Errors)
	}
	if out == nil {
		return nil
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return model.NewGatewayError(op.name, errors.New("response has no data"))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return model.NewGatewayError(op.name, fmt.Errorf("decoding data: %w", err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, op operation, vars map[string]any) (*http.Request, error) {
	body, err := json.Marshal(graphQLRequest{
		Query:         op.query,
		OperationName: op.name,
		Variables:     vars,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(tokenHeader, c.token)
	return req, nil
}

// parseError converts a non-2xx response to model.APIError.
func (c *Client) parseError(op operation, resp *http.Response, body []byte) error {
	var envelope graphQLResponse
	_ = json.Unmarshal(body, &envelope) // best effort

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return model.NewUnauthorizedError("storefront access token rejected")
	case http.StatusForbidden:
		return model.NewUnauthorizedError("storefront access denied")
	case http.StatusNotFound:
		return model.NewNotFoundError("store")
	case http.StatusTooManyRequests:
		hint := retryHint(resp.Header)
		c.logger.Warn("storefront rate limited",
			slog.String("operation", op.name),
			slog.String("hint", hint),
		)
		return model.NewRateLimitError(serviceName, hint)
	case http.StatusBadRequest:
		if len(envelope.Errors) > 0 {
			return model.NewValidationError("request", envelope.Errors.Error())
		}
		return model.NewValidationError("request", "invalid request")
	default:
		cause := fmt.Errorf("status %d", resp.StatusCode)
		if len(envelope.Errors) > 0 {
			cause = fmt.Errorf("status %d: %w", resp.StatusCode, envelope.Errors)
		}
		return model.NewGatewayError(op.name, cause)
	}
}
