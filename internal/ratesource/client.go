package ratesource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/tripfolio/tripbudget-go/internal/types"
)

const (
	latestEndpoint = "/v1/latest"

	contentType = "application/json"
)

// Client fetches exchange rates from an HTTP rate provider
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	headers     map[string]string
	logger      types.Logger
	hooks       *types.Hooks
}

// ratesResponse is the provider wire format for the latest-rates endpoint
type ratesResponse struct {
	Base  string             `json:"base"`
	AsOf  time.Time          `json:"as_of"`
	Rates map[string]float64 `json:"rates"`
	Error string             `json:"error,omitempty"`
}

// Options for the rate-source client
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Headers     map[string]string
	RetryConfig *types.RetryConfig
	Logger      types.Logger
	Hooks       *types.Hooks
}

// NewClient creates a new rate-source client
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}

	// Set defaults
	if opts.BaseURL == "" {
		opts.BaseURL = types.DefaultProviderURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: types.DefaultTimeout,
		}
	}

	// Create retry client if configured
	var retryClient *retryablehttp.Client
	if opts.RetryConfig != nil {
		retryClient = retryablehttp.NewClient()
		retryClient.HTTPClient = opts.HTTPClient
		retryClient.RetryMax = opts.RetryConfig.MaxRetries
		retryClient.RetryWaitMin = opts.RetryConfig.RetryWait
		retryClient.RetryWaitMax = opts.RetryConfig.MaxWait

		if opts.Logger != nil {
			retryClient.Logger = &retryLogger{logger: opts.Logger}
		}
	}

	// Set default headers
	headers := map[string]string{
		"Accept":     contentType,
		"User-Agent": types.UserAgent,
	}

	// Merge custom headers
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &Client{
		baseURL:     opts.BaseURL,
		httpClient:  opts.HTTPClient,
		retryClient: retryClient,
		headers:     headers,
		logger:      opts.Logger,
		hooks:       opts.Hooks,
	}
}

// FetchRates retrieves rates for the given base currency. When symbols are
// provided only those currencies are requested; otherwise the provider returns
// its full table. Rates are expressed relative to the base (base itself = 1).
func (c *Client) FetchRates(ctx context.Context, base string, symbols ...string) (map[string]float64, time.Time, error) {
	if base == "" {
		return nil, time.Time{}, types.ErrUnknownBase
	}

	q := url.Values{}
	q.Set("base", base)
	if len(symbols) > 0 {
		q.Set("symbols", strings.Join(symbols, ","))
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+latestEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, time.Time{}, errors.Wrap(err, "failed to create request")
	}

	// Set headers
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	// Call request hook
	if c.hooks != nil && c.hooks.OnRequest != nil {
		c.hooks.OnRequest(ctx, httpReq)
	}

	if c.logger != nil {
		c.logger.Debug("rate fetch", "base", base, "symbols", symbols)
	}

	// Execute request
	start := time.Now()
	resp, err := c.doRequest(httpReq)
	duration := time.Since(start)

	if err != nil {
		if c.hooks != nil && c.hooks.OnError != nil {
			c.hooks.OnError(ctx, err)
		}
		return nil, time.Time{}, err
	}
	defer resp.Body.Close()

	// Call response hook
	if c.hooks != nil && c.hooks.OnResponse != nil {
		c.hooks.OnResponse(ctx, resp, duration)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, time.Time{}, errors.Wrap(err, "failed to read response")
	}

	if c.logger != nil {
		c.logger.Debug("rate response", "status", resp.StatusCode, "duration", duration, "size", len(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, time.Time{}, c.handleHTTPError(resp.StatusCode, respBody)
	}

	var parsed ratesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, time.Time{}, errors.Wrap(err, "failed to parse response")
	}

	if parsed.Error != "" {
		return nil, time.Time{}, &types.Error{
			Code:    "PROVIDER_ERROR",
			Message: parsed.Error,
		}
	}

	if len(parsed.Rates) == 0 {
		return nil, time.Time{}, &types.Error{
			Code:    "EMPTY_RATES",
			Message: fmt.Sprintf("provider returned no rates for base %s", base),
		}
	}

	asOf := parsed.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	return parsed.Rates, asOf, nil
}

// doRequest executes the HTTP request with retry if configured
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if c.retryClient != nil {
		// Convert to retryable request
		retryReq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, err
		}
		return c.retryClient.Do(retryReq)
	}
	return c.httpClient.Do(req)
}

// handleHTTPError maps provider HTTP failures to typed errors
func (c *Client) handleHTTPError(statusCode int, body []byte) error {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusNotFound:
		return types.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		msg := errResp.Message
		if msg == "" {
			msg = errResp.Error
		}
		if msg == "" {
			msg = "bad request"
		}
		return &types.Error{
			Code:       "BAD_REQUEST",
			Message:    msg,
			StatusCode: statusCode,
			Err:        types.ErrUnknownBase,
		}
	case http.StatusTooManyRequests:
		return types.ErrRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return types.ErrTimeout
	default:
		if statusCode >= 500 {
			msg := errResp.Message
			if msg == "" {
				msg = errResp.Error
			}
			baseMsg := fmt.Sprintf("provider error: %d", statusCode)
			if msg != "" {
				baseMsg = fmt.Sprintf("%s: %s", baseMsg, msg)
			}
			return &types.Error{
				Code:       "SERVER_ERROR",
				Message:    baseMsg,
				StatusCode: statusCode,
				Err:        types.ErrServerError,
			}
		}
		return &types.Error{
			Code:       "HTTP_ERROR",
			Message:    fmt.Sprintf("HTTP error: %d", statusCode),
			StatusCode: statusCode,
		}
	}
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
