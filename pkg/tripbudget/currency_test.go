package tripbudget

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestConverter(t *testing.T, rates map[string]float64) (*currencyService, *MockRateProvider) {
	t.Helper()

	provider := new(MockRateProvider)
	provider.On("FetchRates", mock.Anything, "USD", mock.Anything).
		Return(rates, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), nil).Once()

	service := newCurrencyService(context.Background(), "USD", provider, nil)
	return service, provider
}

func TestCurrencyService_ConvertIdentity(t *testing.T) {
	service, _ := newTestConverter(t, map[string]float64{"EUR": 0.92, "JPY": 148.0})

	for _, code := range []string{"USD", "EUR", "JPY", "XXX"} {
		for _, amount := range []float64{0, 1, 123.456, 99999.99} {
			got, approx := service.Convert(amount, code, code)
			assert.Equal(t, amount, got, "identity conversion for %s must be exact", code)
			assert.False(t, approx)
		}
	}
}

func TestCurrencyService_ConvertPivotsThroughBase(t *testing.T) {
	service, _ := newTestConverter(t, map[string]float64{"EUR": 0.92, "JPY": 148.0})

	t.Run("base to quote", func(t *testing.T) {
		got, approx := service.Convert(100, "USD", "EUR")
		assert.False(t, approx)
		assert.InDelta(t, 92, got, 0.0001)
	})

	t.Run("quote to base", func(t *testing.T) {
		got, approx := service.Convert(92, "EUR", "USD")
		assert.False(t, approx)
		assert.InDelta(t, 100, got, 0.0001)
	})

	t.Run("cross rate", func(t *testing.T) {
		got, approx := service.Convert(92, "EUR", "JPY")
		assert.False(t, approx)
		assert.InDelta(t, 14800, got, 0.01)
	})
}

func TestCurrencyService_ConvertRoundTrip(t *testing.T) {
	service, _ := newTestConverter(t, map[string]float64{"EUR": 0.92, "JPY": 148.0, "VND": 24800})

	pairs := [][2]string{{"USD", "EUR"}, {"EUR", "JPY"}, {"JPY", "VND"}}
	for _, pair := range pairs {
		for _, amount := range []float64{1, 250.75, 100000} {
			there, _ := service.Convert(amount, pair[0], pair[1])
			back, _ := service.Convert(there, pair[1], pair[0])
			assert.InDelta(t, amount, back, amount*1e-9, "%s->%s round trip", pair[0], pair[1])
		}
	}
}

func TestCurrencyService_MissingRateIsApproximate(t *testing.T) {
	service, _ := newTestConverter(t, map[string]float64{"EUR": 0.92})

	// Unknown currency falls back to rate 1.0 and flags the result, rather
	// than blocking the budget display
	got, approx := service.Convert(100, "XYZ", "USD")
	assert.True(t, approx)
	assert.Equal(t, 100.0, got)

	got, approx = service.Convert(100, "USD", "XYZ")
	assert.True(t, approx)
	assert.Equal(t, 100.0, got)
}

func TestCurrencyService_DefaultsOnProviderFailure(t *testing.T) {
	provider := new(MockRateProvider)
	provider.On("FetchRates", mock.Anything, "USD", mock.Anything).
		Return(nil, nil, assert.AnError)

	service := newCurrencyService(context.Background(), "USD", provider, nil)

	assert.True(t, service.UsingDefaults())
	assert.True(t, service.LastFetched().IsZero())

	got, approx := service.Convert(100, "USD", "EUR")
	assert.False(t, approx)
	assert.Greater(t, got, 0.0)
}

func TestCurrencyService_DefaultsRebaseToNonUSD(t *testing.T) {
	service := newCurrencyService(context.Background(), "EUR", nil, nil)

	require.True(t, service.UsingDefaults())
	assert.Equal(t, 1.0, service.Rates()["EUR"])

	// EUR->USD through the rebased defaults: 100 / 0.92
	got, approx := service.Convert(100, "EUR", "USD")
	assert.False(t, approx)
	assert.InDelta(t, 108.69, got, 0.01)
}

func TestCurrencyService_RefreshRates_FullReplace(t *testing.T) {
	service, provider := newTestConverter(t, map[string]float64{"EUR": 0.92, "JPY": 148.0})

	provider.On("FetchRates", mock.Anything, "USD", mock.Anything).
		Return(map[string]float64{"EUR": 0.95}, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), nil).Once()

	require.NoError(t, service.RefreshRates(context.Background()))

	rates := service.Rates()
	assert.Equal(t, 0.95, rates["EUR"])
	// Full replace drops currencies the provider no longer returns
	_, hasJPY := rates["JPY"]
	assert.False(t, hasJPY)
	assert.Equal(t, 20, service.LastFetched().Day())
}

func TestCurrencyService_RefreshRates_SubsetOverwrite(t *testing.T) {
	service, provider := newTestConverter(t, map[string]float64{"EUR": 0.92, "JPY": 148.0})

	provider.On("FetchRates", mock.Anything, "USD", []string{"EUR"}).
		Return(map[string]float64{"EUR": 0.95}, time.Now(), nil).Once()

	require.NoError(t, service.RefreshRates(context.Background(), "EUR"))

	rates := service.Rates()
	assert.Equal(t, 0.95, rates["EUR"])
	// Entries outside the subset are untouched
	assert.Equal(t, 148.0, rates["JPY"])
}

func TestCurrencyService_RefreshRates_FailureKeepsTable(t *testing.T) {
	service, provider := newTestConverter(t, map[string]float64{"EUR": 0.92})

	provider.On("FetchRates", mock.Anything, "USD", mock.Anything).
		Return(nil, nil, assert.AnError)

	err := service.RefreshRates(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateFetch)

	// Pre-refresh table still fully readable
	got, approx := service.Convert(100, "USD", "EUR")
	assert.False(t, approx)
	assert.InDelta(t, 92, got, 0.0001)
}

func TestCurrencyService_NoProvider(t *testing.T) {
	service := newCurrencyService(context.Background(), "USD", nil, nil)

	assert.True(t, service.UsingDefaults())
	err := service.RefreshRates(context.Background())
	assert.ErrorIs(t, err, ErrRateFetch)
}

func TestCurrencyService_ConcurrentReadDuringRefresh(t *testing.T) {
	service, provider := newTestConverter(t, map[string]float64{"EUR": 0.92, "JPY": 148.0})

	provider.On("FetchRates", mock.Anything, "USD", mock.Anything).
		Return(map[string]float64{"EUR": 0.95, "JPY": 150.0}, time.Now(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				// Readers must always see a whole table: either rate pair is
				// valid, a mid-swap mixture is not observable via approx flags
				got, approx := service.Convert(100, "USD", "EUR")
				assert.False(t, approx)
				assert.True(t, got == 92 || got == 95, "got %v", got)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = service.RefreshRates(context.Background())
		}()
	}
	wg.Wait()
}
