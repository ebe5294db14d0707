package tripbudget

import (
	"context"
	"time"
)

// StatusService computes spend, remaining and alert status from raw records.
// Pure and deterministic; safe to call on every keystroke.
type StatusService interface {
	// Compute reconciles a budget against a cost set. ancillaryTotal is an
	// extra spend stream (e.g. inter-country transport) outside the records.
	Compute(budget *Budget, costs []*CostRecord, ancillaryTotal float64) *Status
}

// AllocationService builds allocation sets whose dollar, percent and per-diem
// views stay mutually consistent
type AllocationService interface {
	// NewSet creates an allocation set over the given buckets in order
	NewSet(mode UnitMode, buckets []*AllocationBucket) *AllocationSet

	// FromBudget derives a category allocation set from a budget, using the
	// trip duration for per-diem rates
	FromBudget(budget *Budget, trip *TripMetadata, mode UnitMode) *AllocationSet
}

// CurrencyService converts amounts between currencies via a refreshable
// rate table pivoting through the base currency
type CurrencyService interface {
	// Convert converts amount between two currency codes. The bool reports
	// whether the result is approximate because a rate was missing.
	Convert(amount float64, from, to string) (float64, bool)

	// ToBase converts an amount in the given currency to the base currency
	ToBase(amount float64, currency string) (float64, bool)

	// BaseCurrency returns the base currency code
	BaseCurrency() string

	// RefreshRates re-fetches from the provider; with symbols it overwrites
	// only those entries, otherwise it replaces the whole table
	RefreshRates(ctx context.Context, symbols ...string) error

	// Rates returns a copy of the current rate table
	Rates() map[string]float64

	// UsingDefaults reports whether the embedded default table is in use
	UsingDefaults() bool

	// LastFetched returns when the table was last refreshed from the provider
	LastFetched() time.Time
}

// AutosaveService coalesces edits per data domain and issues debounced,
// cancellable flushes to the persistence collaborators
type AutosaveService interface {
	// RecordEdit merges a partial update for an entity and (re)starts the
	// domain's debounce timer
	RecordEdit(domain Domain, entityID string, fields map[string]interface{}) error

	// RecordDelete records a tombstone edit for an entity
	RecordDelete(domain Domain, entityID string) error

	// Flush synchronously flushes a domain's pending edits, bypassing the timer
	Flush(ctx context.Context, domain Domain) error

	// Pending returns the number of pending entities for a domain
	Pending(domain Domain) int

	// LastError returns the domain's surfaced flush error, if any
	LastError(domain Domain) error

	// Stop cancels all pending timers; pending edits are left unflushed
	Stop()
}

// ResearchService normalizes candidate costs supplied by the external
// cost-estimation collaborator. The engine never originates estimates.
type ResearchService interface {
	// Normalize resolves the candidate's currency, computes its base-currency
	// amount and assigns an ID
	Normalize(candidate *CostCandidate) (*CostRecord, error)
}

// BudgetService validates budgets and generates contingency-buffered defaults
type BudgetService interface {
	// Validate checks budget invariants against the observed cost buckets
	Validate(budget *Budget, costs []*CostRecord) error

	// GenerateDefault builds a budget from currently known costs plus the
	// contingency buffer, allocated proportionally per bucket
	GenerateDefault(costs []*CostRecord, contingencyPct float64) *Budget
}

// RateProvider is the external exchange-rate collaborator. Best-effort: the
// engine stays fully functional on its embedded defaults when this fails.
type RateProvider interface {
	FetchRates(ctx context.Context, base string, symbols ...string) (map[string]float64, time.Time, error)
}

// CostStore persists the costs domain. Must be idempotent under retry.
type CostStore interface {
	SaveCosts(ctx context.Context, edits map[string]*PendingEdit) error
}

// BudgetStore persists the budget domain. Must be idempotent under retry.
type BudgetStore interface {
	SaveBudget(ctx context.Context, edits map[string]*PendingEdit) error
}

// TripStore persists the trip-metadata domain. Must be idempotent under retry.
type TripStore interface {
	SaveTripMetadata(ctx context.Context, edits map[string]*PendingEdit) error
}
