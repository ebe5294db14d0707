package tripbudget

import (
	"fmt"
	"math"
)

// budgetService implements the BudgetService interface
type budgetService struct {
	engine *Engine
}

// Validate checks the budget invariants: no negative amounts, and allocation
// bucket keys must be a subset of the buckets observed in the cost data.
func (s *budgetService) Validate(budget *Budget, costs []*CostRecord) error {
	if budget == nil {
		return &ValidationError{Field: "budget", Message: "budget is required"}
	}
	if budget.TotalBudget < 0 {
		return &ValidationError{Field: "totalBudget", Message: "total budget must not be negative", Value: budget.TotalBudget, Err: ErrNegativeAmount}
	}
	if budget.ContingencyPct < 0 {
		return &ValidationError{Field: "contingencyPct", Message: "contingency must not be negative", Value: budget.ContingencyPct, Err: ErrNegativeAmount}
	}

	for name, amount := range budget.ByCategory {
		if amount < 0 {
			return &ValidationError{Field: "byCategory." + name, Message: "allocation must not be negative", Value: amount, Err: ErrNegativeAmount}
		}
	}
	for name, amount := range budget.ByCountry {
		if amount < 0 {
			return &ValidationError{Field: "byCountry." + name, Message: "allocation must not be negative", Value: amount, Err: ErrNegativeAmount}
		}
	}

	if costs != nil {
		categories := make(map[string]bool)
		countries := make(map[string]bool)
		for _, c := range costs {
			if c == nil {
				continue
			}
			categories[c.Category] = true
			countries[c.Country] = true
		}

		for name := range budget.ByCategory {
			if !categories[name] {
				return &ValidationError{
					Field:   "byCategory." + name,
					Message: fmt.Sprintf("category %q does not appear in the cost data", name),
					Value:   name,
					Err:     ErrUnknownBucket,
				}
			}
		}
		for name := range budget.ByCountry {
			if !countries[name] {
				return &ValidationError{
					Field:   "byCountry." + name,
					Message: fmt.Sprintf("country %q does not appear in the cost data", name),
					Value:   name,
					Err:     ErrUnknownBucket,
				}
			}
		}
	}

	return nil
}

// GenerateDefault builds a budget from currently known costs plus the
// contingency buffer. Each observed bucket gets its spend scaled by the same
// buffer, so the allocation stays proportional; amounts round to whole
// currency units.
func (s *budgetService) GenerateDefault(costs []*CostRecord, contingencyPct float64) *Budget {
	if contingencyPct < 0 {
		contingencyPct = 0
	}
	buffer := 1 + contingencyPct/100

	budget := &Budget{
		ContingencyPct: contingencyPct,
		ByCategory:     make(map[string]float64),
		ByCountry:      make(map[string]float64),
	}

	var total float64
	for _, c := range costs {
		if c == nil {
			continue
		}
		total += c.AmountBase
		if c.Category != "" {
			budget.ByCategory[c.Category] += c.AmountBase
		}
		if c.Country != "" {
			budget.ByCountry[c.Country] += c.AmountBase
		}
	}

	budget.TotalBudget = math.Round(total * buffer)
	for name, spent := range budget.ByCategory {
		budget.ByCategory[name] = math.Round(spent * buffer)
	}
	for name, spent := range budget.ByCountry {
		budget.ByCountry[name] = math.Round(spent * buffer)
	}

	return budget
}
