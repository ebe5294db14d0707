package tripbudget

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/shopspring/decimal"
)

// defaultRates is the embedded fallback table, expressed relative to USD.
// Stale rates are acceptable for budget estimates; a number beats a blocked
// display.
var defaultRates = map[string]float64{
	"USD": 1,
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 148.0,
	"CHF": 0.88,
	"AUD": 1.52,
	"NZD": 1.64,
	"CAD": 1.36,
	"MXN": 17.1,
	"BRL": 5.05,
	"CNY": 7.22,
	"INR": 83.2,
	"KRW": 1330,
	"SGD": 1.34,
	"THB": 35.6,
	"VND": 24800,
	"IDR": 15900,
	"PHP": 56.4,
	"TRY": 32.5,
	"ZAR": 18.7,
}

// rateTable is an immutable snapshot of the conversion table. Readers always
// see a whole table; refresh swaps the pointer, never mutates in place.
type rateTable struct {
	base          string
	rates         map[string]decimal.Decimal
	asOf          time.Time
	usingDefaults bool
}

// currencyService implements the CurrencyService interface
type currencyService struct {
	base     string
	provider RateProvider
	logger   Logger
	table    atomic.Value // *rateTable
}

// newCurrencyService builds the converter, fetching an initial table from the
// provider. On any provider failure it falls back to the embedded defaults
// and never fails construction.
func newCurrencyService(ctx context.Context, base string, provider RateProvider, logger Logger) *currencyService {
	s := &currencyService{
		base:     base,
		provider: provider,
		logger:   logger,
	}

	if provider != nil {
		rates, asOf, err := provider.FetchRates(ctx, base)
		if err == nil {
			s.table.Store(buildTable(base, rates, asOf, false))
			return s
		}
		if logger != nil {
			logger.Warn("rate fetch failed, using embedded defaults", "base", base, "error", err)
		}
		sentry.CaptureException(err)
	}

	s.table.Store(defaultTable(base))
	return s
}

// defaultTable re-bases the embedded USD table onto the requested base
func defaultTable(base string) *rateTable {
	baseRate := decimal.NewFromInt(1)
	if r, ok := defaultRates[base]; ok {
		baseRate = decimal.NewFromFloat(r)
	}

	rates := make(map[string]decimal.Decimal, len(defaultRates)+1)
	for code, r := range defaultRates {
		rates[code] = decimal.NewFromFloat(r).Div(baseRate)
	}
	rates[base] = decimal.NewFromInt(1)

	return &rateTable{
		base:          base,
		rates:         rates,
		asOf:          time.Time{},
		usingDefaults: true,
	}
}

// buildTable converts provider float rates into a decimal snapshot
func buildTable(base string, rates map[string]float64, asOf time.Time, usingDefaults bool) *rateTable {
	t := &rateTable{
		base:          base,
		rates:         make(map[string]decimal.Decimal, len(rates)+1),
		asOf:          asOf,
		usingDefaults: usingDefaults,
	}
	for code, r := range rates {
		t.rates[code] = decimal.NewFromFloat(r)
	}
	// The base's own rate is always exactly 1
	t.rates[base] = decimal.NewFromInt(1)
	return t
}

func (s *currencyService) load() *rateTable {
	return s.table.Load().(*rateTable)
}

// BaseCurrency returns the base currency code
func (s *currencyService) BaseCurrency() string {
	return s.base
}

// Convert converts amount from one currency to another, pivoting through the
// base. Identity conversions return the amount untouched. A missing rate is
// treated as 1.0 and the result flagged approximate instead of failing.
func (s *currencyService) Convert(amount float64, from, to string) (float64, bool) {
	if from == to {
		return amount, false
	}

	t := s.load()
	approximate := false
	d := decimal.NewFromFloat(amount)

	if from != t.base {
		if r, ok := t.rates[from]; ok && !r.IsZero() {
			d = d.Div(r)
		} else {
			approximate = true
		}
	}

	if to != t.base {
		if r, ok := t.rates[to]; ok {
			d = d.Mul(r)
		} else {
			approximate = true
		}
	}

	out, _ := d.Float64()
	return out, approximate
}

// ToBase converts an amount in the given currency to the base currency
func (s *currencyService) ToBase(amount float64, currency string) (float64, bool) {
	return s.Convert(amount, currency, s.base)
}

// RefreshRates re-fetches from the provider. Without symbols the whole table
// is replaced; with symbols only those entries are overwritten, built on a
// copy and swapped in atomically so readers never see a partial table.
func (s *currencyService) RefreshRates(ctx context.Context, symbols ...string) error {
	if s.provider == nil {
		return WrapError(ErrRateFetch, "NO_PROVIDER", "no rate provider configured")
	}

	rates, asOf, err := s.provider.FetchRates(ctx, s.base, symbols...)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("rate refresh failed, keeping current table", "base", s.base, "error", err)
		}
		sentry.CaptureException(err)
		return &Error{Code: "RATE_FETCH", Message: "rate refresh failed", Err: ErrRateFetch}
	}

	if len(symbols) == 0 {
		s.table.Store(buildTable(s.base, rates, asOf, false))
		return nil
	}

	old := s.load()
	merged := &rateTable{
		base:          s.base,
		rates:         make(map[string]decimal.Decimal, len(old.rates)),
		asOf:          asOf,
		usingDefaults: old.usingDefaults,
	}
	for code, r := range old.rates {
		merged.rates[code] = r
	}
	for code, r := range rates {
		merged.rates[code] = decimal.NewFromFloat(r)
	}
	merged.rates[s.base] = decimal.NewFromInt(1)
	s.table.Store(merged)

	return nil
}

// Rates returns a copy of the current table as floats
func (s *currencyService) Rates() map[string]float64 {
	t := s.load()
	out := make(map[string]float64, len(t.rates))
	for code, r := range t.rates {
		f, _ := r.Float64()
		out[code] = f
	}
	return out
}

// UsingDefaults reports whether the embedded default table is in use
func (s *currencyService) UsingDefaults() bool {
	return s.load().usingDefaults
}

// LastFetched returns when the table was last refreshed from the provider
func (s *currencyService) LastFetched() time.Time {
	return s.load().asOf
}
