package tripbudget

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tripfolio/tripbudget-go/internal/ratesource"
	internalTypes "github.com/tripfolio/tripbudget-go/internal/types"
)

const (
	// DefaultBaseCurrency is used when no base currency is configured
	DefaultBaseCurrency = "USD"

	// DefaultTimeout bounds the initial rate fetch at construction time
	DefaultTimeout = 15 * time.Second
)

// Engine is the budget allocation and reconciliation engine
type Engine struct {
	// Service interfaces
	Status      StatusService
	Allocations AllocationService
	Currency    CurrencyService
	Autosave    AutosaveService
	Research    ResearchService
	Budgets     BudgetService

	// Internal fields
	options *Options
	logger  Logger
}

// Options configures the engine
type Options struct {
	// BaseCurrency is the currency all amounts normalize to (default USD)
	BaseCurrency string

	// RateProvider overrides the default HTTP rate provider
	RateProvider RateProvider

	// ProviderURL overrides the default rate provider base URL
	ProviderURL string

	// HTTPClient allows using a custom HTTP client for the rate provider
	HTTPClient *http.Client

	// RetryConfig configures rate-provider retry behavior
	RetryConfig *internalTypes.RetryConfig

	// Persistence collaborators, one per autosave domain. A nil store leaves
	// that domain unconfigured.
	CostStore   CostStore
	BudgetStore BudgetStore
	TripStore   TripStore

	// Logger for debug logging
	Logger Logger

	// Hooks for observability on provider requests
	Hooks *internalTypes.Hooks

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions

	// DebounceOverrides replaces the per-domain debounce windows, mainly for
	// tests
	DebounceOverrides map[Domain]time.Duration
}

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// NewEngine creates a new budget engine. Construction never fails on rate
// provider errors; the converter falls back to its embedded default table.
func NewEngine(opts *Options) (*Engine, error) {
	if opts == nil {
		opts = &Options{}
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}

		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}

		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}

		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}

		if err := sentry.Init(sentryOpts); err != nil {
			// Log error but don't fail engine creation
			if opts.Logger != nil {
				opts.Logger.Error("Failed to initialize Sentry", "error", err)
			}
		}
	}

	// Set defaults
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = DefaultBaseCurrency
	}

	provider := opts.RateProvider
	if provider == nil {
		provider = ratesource.NewClient(&ratesource.Options{
			BaseURL:     opts.ProviderURL,
			HTTPClient:  opts.HTTPClient,
			RetryConfig: opts.RetryConfig,
			Logger:      opts.Logger,
			Hooks:       opts.Hooks,
		})
	}

	e := &Engine{
		options: opts,
		logger:  opts.Logger,
	}

	e.initServices(provider)

	return e, nil
}

// initServices initializes all service implementations
func (e *Engine) initServices(provider RateProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	e.Status = &statusService{engine: e}
	e.Allocations = &allocationService{engine: e}
	e.Currency = newCurrencyService(ctx, e.options.BaseCurrency, provider, e.logger)
	e.Autosave = newAutosaveService(e.options, e.logger)
	e.Research = &researchService{engine: e}
	e.Budgets = &budgetService{engine: e}
}

// Close cancels autosave timers and flushes any pending Sentry events.
// Pending autosave edits are not flushed; call Autosave.Flush per domain
// first for a clean shutdown.
func (e *Engine) Close() {
	e.Autosave.Stop()
	sentry.Flush(2 * time.Second)
}
