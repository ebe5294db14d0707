package ratesource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripfolio/tripbudget-go/internal/types"
)

func TestClient_FetchRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/latest", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("base"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"base": "USD",
			"as_of": "2026-08-01T00:00:00Z",
			"rates": {"EUR": 0.92, "JPY": 148.5, "GBP": 0.79}
		}`))
	}))
	defer server.Close()

	client := NewClient(&Options{BaseURL: server.URL})

	rates, asOf, err := client.FetchRates(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, 0.92, rates["EUR"])
	assert.Equal(t, 148.5, rates["JPY"])
	assert.Equal(t, 2026, asOf.Year())
}

func TestClient_FetchRates_Subset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EUR,JPY", r.URL.Query().Get("symbols"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base": "USD", "rates": {"EUR": 0.93, "JPY": 150.0}}`))
	}))
	defer server.Close()

	client := NewClient(&Options{BaseURL: server.URL})

	rates, asOf, err := client.FetchRates(context.Background(), "USD", "EUR", "JPY")
	require.NoError(t, err)
	assert.Len(t, rates, 2)
	// Provider omitted as_of; client stamps fetch time instead
	assert.WithinDuration(t, time.Now(), asOf, time.Minute)
}

func TestClient_FetchRates_EmptyBase(t *testing.T) {
	client := NewClient(nil)

	_, _, err := client.FetchRates(context.Background(), "")
	assert.ErrorIs(t, err, types.ErrUnknownBase)
}

func TestClient_FetchRates_EmptyRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base": "USD", "rates": {}}`))
	}))
	defer server.Close()

	client := NewClient(&Options{BaseURL: server.URL})

	_, _, err := client.FetchRates(context.Background(), "USD")
	assert.Error(t, err)
}

func TestHandleHTTPError(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name       string
		statusCode int
		body       []byte
		sentinel   error
	}{
		{"429 rate limited", http.StatusTooManyRequests, nil, types.ErrRateLimited},
		{"404 not found", http.StatusNotFound, nil, types.ErrNotFound},
		{"504 gateway timeout", http.StatusGatewayTimeout, nil, types.ErrTimeout},
		{"400 unknown base", http.StatusBadRequest, []byte(`{"error": "unsupported base XXX"}`), types.ErrUnknownBase},
		{"500 server error", http.StatusInternalServerError, []byte(`{"message": "upstream feed down"}`), types.ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.handleHTTPError(tt.statusCode, tt.body)

			assert.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestHandleHTTPError_ServerError_IncludesResponseBody(t *testing.T) {
	client := &Client{}

	err := client.handleHTTPError(500, []byte(`{"error": "feed error", "message": "upstream feed down"}`))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "upstream feed down")
	assert.Contains(t, err.Error(), "500")
}
