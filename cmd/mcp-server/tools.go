package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tripfolio/tripbudget-go/pkg/tripbudget"
)

// budgetTools holds the engine and the in-session trip state shared by all
// tool handlers
type budgetTools struct {
	engine *tripbudget.Engine

	mu     sync.Mutex
	budget *tripbudget.Budget
	costs  []*tripbudget.CostRecord
}

func newBudgetTools(engine *tripbudget.Engine) *budgetTools {
	return &budgetTools{
		engine: engine,
		budget: &tripbudget.Budget{},
	}
}

// GetStatus tool - reconciles the budget against recorded costs
type GetStatusInput struct {
	AncillaryTotal float64 `json:"ancillaryTotal,omitempty" jsonschema:"Extra spend outside the cost records, e.g. inter-country transport (base currency)"`
}

type AlertEntry struct {
	Level      string  `json:"level" jsonschema:"Alert level: info, warning or exceeded"`
	Scope      string  `json:"scope" jsonschema:"What the alert refers to: total, category or country"`
	Bucket     string  `json:"bucket,omitempty" jsonschema:"Bucket name for category/country alerts"`
	Percentage float64 `json:"percentage" jsonschema:"Percentage of budget used"`
}

type BucketEntry struct {
	Name       string  `json:"name" jsonschema:"Bucket name"`
	Spent      float64 `json:"spent" jsonschema:"Amount spent in the base currency"`
	Budget     float64 `json:"budget" jsonschema:"Amount allocated in the base currency"`
	Percentage float64 `json:"percentage" jsonschema:"Percentage of the allocation used"`
}

type GetStatusOutput struct {
	TotalSpent     float64       `json:"totalSpent" jsonschema:"Total spent in the base currency"`
	TotalRemaining float64       `json:"totalRemaining" jsonschema:"Budget remaining in the base currency"`
	PercentageUsed float64       `json:"percentageUsed" jsonschema:"Percentage of the total budget used"`
	ByCategory     []BucketEntry `json:"byCategory" jsonschema:"Per-category breakdown"`
	ByCountry      []BucketEntry `json:"byCountry" jsonschema:"Per-country breakdown"`
	Alerts         []AlertEntry  `json:"alerts" jsonschema:"Budget alerts, total first then per bucket"`
}

func (t *budgetTools) GetStatus(ctx context.Context, req *mcp.CallToolRequest, input GetStatusInput) (*mcp.CallToolResult, GetStatusOutput, error) {
	t.mu.Lock()
	budget := t.budget
	costs := t.costs
	t.mu.Unlock()

	status := t.engine.Status.Compute(budget, costs, input.AncillaryTotal)

	out := GetStatusOutput{
		TotalSpent:     status.TotalSpent,
		TotalRemaining: status.TotalRemaining,
		PercentageUsed: status.PercentageUsed,
	}

	for name, b := range status.ByCategory {
		out.ByCategory = append(out.ByCategory, BucketEntry{Name: name, Spent: b.Spent, Budget: b.Budget, Percentage: b.Percentage})
	}
	for name, b := range status.ByCountry {
		out.ByCountry = append(out.ByCountry, BucketEntry{Name: name, Spent: b.Spent, Budget: b.Budget, Percentage: b.Percentage})
	}
	for _, a := range status.Alerts {
		out.Alerts = append(out.Alerts, AlertEntry{
			Level:      string(a.Level),
			Scope:      string(a.Scope),
			Bucket:     a.Bucket,
			Percentage: a.Percentage,
		})
	}

	return nil, out, nil
}

// AddResearchedCost tool - normalizes and records a cost candidate
type AddResearchedCostInput struct {
	Country     string   `json:"country,omitempty" jsonschema:"Country the cost belongs to"`
	Category    string   `json:"category" jsonschema:"Spending category, e.g. accommodation, food, transport"`
	Description string   `json:"description,omitempty" jsonschema:"What the cost covers"`
	Amount      float64  `json:"amount" jsonschema:"Amount in the original currency"`
	Currency    string   `json:"currency,omitempty" jsonschema:"ISO currency code; defaults to the base currency"`
	Low         float64  `json:"low,omitempty" jsonschema:"Low estimate in the original currency"`
	Mid         float64  `json:"mid,omitempty" jsonschema:"Mid estimate in the original currency"`
	High        float64  `json:"high,omitempty" jsonschema:"High estimate in the original currency"`
	Confidence  string   `json:"confidence,omitempty" jsonschema:"Estimate confidence: low, medium or high"`
	Sources     []string `json:"sources,omitempty" jsonschema:"Source URLs backing the estimate"`
	Notes       string   `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

type AddResearchedCostOutput struct {
	ID          string  `json:"id" jsonschema:"Assigned cost record ID"`
	AmountBase  float64 `json:"amountBase" jsonschema:"Amount converted to the base currency"`
	Currency    string  `json:"currency" jsonschema:"Resolved currency code"`
	Approximate bool    `json:"approximate" jsonschema:"Whether the conversion used a fallback rate"`
}

func (t *budgetTools) AddResearchedCost(ctx context.Context, req *mcp.CallToolRequest, input AddResearchedCostInput) (*mcp.CallToolResult, AddResearchedCostOutput, error) {
	rec, err := t.engine.Research.Normalize(&tripbudget.CostCandidate{
		Country:     input.Country,
		Category:    input.Category,
		Description: input.Description,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Low:         input.Low,
		Mid:         input.Mid,
		High:        input.High,
		Confidence:  input.Confidence,
		Sources:     input.Sources,
		Notes:       input.Notes,
	})
	if err != nil {
		return nil, AddResearchedCostOutput{}, fmt.Errorf("failed to normalize candidate: %w", err)
	}

	t.mu.Lock()
	t.costs = append(t.costs, rec)
	t.mu.Unlock()

	_, approximate := t.engine.Currency.ToBase(rec.Amount, rec.Currency)

	return nil, AddResearchedCostOutput{
		ID:          rec.ID,
		AmountBase:  rec.AmountBase,
		Currency:    rec.Currency,
		Approximate: approximate,
	}, nil
}

// ConvertCurrency tool - converts between currency codes
type ConvertCurrencyInput struct {
	Amount float64 `json:"amount" jsonschema:"Amount to convert"`
	From   string  `json:"from" jsonschema:"Source ISO currency code"`
	To     string  `json:"to" jsonschema:"Target ISO currency code"`
}

type ConvertCurrencyOutput struct {
	Amount      float64 `json:"amount" jsonschema:"Converted amount"`
	Approximate bool    `json:"approximate" jsonschema:"True when a missing rate was substituted with 1.0"`
}

func (t *budgetTools) ConvertCurrency(ctx context.Context, req *mcp.CallToolRequest, input ConvertCurrencyInput) (*mcp.CallToolResult, ConvertCurrencyOutput, error) {
	if input.From == "" || input.To == "" {
		return nil, ConvertCurrencyOutput{}, fmt.Errorf("both from and to currency codes are required")
	}

	amount, approximate := t.engine.Currency.Convert(input.Amount, input.From, input.To)

	return nil, ConvertCurrencyOutput{Amount: amount, Approximate: approximate}, nil
}

// SetBudget tool - replaces the trip budget
type SetBudgetInput struct {
	TotalBudget    float64            `json:"totalBudget" jsonschema:"Total budget in the base currency"`
	ContingencyPct float64            `json:"contingencyPct,omitempty" jsonschema:"Contingency buffer percentage"`
	ByCategory     map[string]float64 `json:"byCategory,omitempty" jsonschema:"Per-category allocations in the base currency"`
}

type SetBudgetOutput struct {
	TotalBudget float64 `json:"totalBudget" jsonschema:"Accepted total budget"`
	Buckets     int     `json:"buckets" jsonschema:"Number of category allocations"`
}

func (t *budgetTools) SetBudget(ctx context.Context, req *mcp.CallToolRequest, input SetBudgetInput) (*mcp.CallToolResult, SetBudgetOutput, error) {
	budget := &tripbudget.Budget{
		TotalBudget:    input.TotalBudget,
		ContingencyPct: input.ContingencyPct,
		ByCategory:     input.ByCategory,
	}

	t.mu.Lock()
	costs := t.costs
	t.mu.Unlock()

	if err := t.engine.Budgets.Validate(budget, costs); err != nil {
		return nil, SetBudgetOutput{}, fmt.Errorf("invalid budget: %w", err)
	}

	t.mu.Lock()
	t.budget = budget
	t.mu.Unlock()

	return nil, SetBudgetOutput{TotalBudget: budget.TotalBudget, Buckets: len(budget.ByCategory)}, nil
}

// GenerateBudget tool - builds a default budget from recorded costs
type GenerateBudgetInput struct {
	ContingencyPct float64 `json:"contingencyPct,omitempty" jsonschema:"Contingency buffer percentage over known costs"`
}

type GenerateBudgetOutput struct {
	TotalBudget float64            `json:"totalBudget" jsonschema:"Generated total budget"`
	ByCategory  map[string]float64 `json:"byCategory" jsonschema:"Generated per-category allocations"`
	ByCountry   map[string]float64 `json:"byCountry" jsonschema:"Generated per-country allocations"`
}

func (t *budgetTools) GenerateBudget(ctx context.Context, req *mcp.CallToolRequest, input GenerateBudgetInput) (*mcp.CallToolResult, GenerateBudgetOutput, error) {
	t.mu.Lock()
	costs := t.costs
	t.mu.Unlock()

	budget := t.engine.Budgets.GenerateDefault(costs, input.ContingencyPct)

	t.mu.Lock()
	t.budget = budget
	t.mu.Unlock()

	return nil, GenerateBudgetOutput{
		TotalBudget: budget.TotalBudget,
		ByCategory:  budget.ByCategory,
		ByCountry:   budget.ByCountry,
	}, nil
}
