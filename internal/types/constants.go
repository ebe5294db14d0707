package types

import (
	"errors"
	"time"
)

const (
	// DefaultProviderURL is the default exchange-rate provider base URL
	DefaultProviderURL = "https://api.exchangerate.host"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 15 * time.Second

	// UserAgent is the user agent string
	UserAgent = "tripbudget-go/1.0.0"
)

// Common errors
var (
	// ErrRateLimited is returned when the rate provider throttles us
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout is returned on timeout
	ErrTimeout = errors.New("request timeout")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrServerError is returned for provider server errors
	ErrServerError = errors.New("server error")

	// ErrUnknownBase is returned when the provider rejects the base currency
	ErrUnknownBase = errors.New("unknown base currency")
)
