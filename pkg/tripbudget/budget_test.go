package tripbudget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetService_Validate(t *testing.T) {
	service := &budgetService{}

	costs := []*CostRecord{
		usd("food", "Japan", 100),
		usd("accommodation", "Japan", 400),
	}

	t.Run("valid budget", func(t *testing.T) {
		budget := &Budget{
			TotalBudget: 1000,
			ByCategory:  map[string]float64{"food": 300},
			ByCountry:   map[string]float64{"Japan": 900},
		}
		assert.NoError(t, service.Validate(budget, costs))
	})

	t.Run("negative total", func(t *testing.T) {
		err := service.Validate(&Budget{TotalBudget: -1}, costs)
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})

	t.Run("negative allocation", func(t *testing.T) {
		budget := &Budget{ByCategory: map[string]float64{"food": -5}}
		err := service.Validate(budget, costs)
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})

	t.Run("negative contingency", func(t *testing.T) {
		err := service.Validate(&Budget{ContingencyPct: -10}, costs)
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})

	t.Run("bucket not observed in costs", func(t *testing.T) {
		budget := &Budget{ByCategory: map[string]float64{"souvenirs": 50}}
		err := service.Validate(budget, costs)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownBucket)
	})

	t.Run("nil costs skips subset check", func(t *testing.T) {
		budget := &Budget{ByCategory: map[string]float64{"souvenirs": 50}}
		assert.NoError(t, service.Validate(budget, nil))
	})

	t.Run("nil budget", func(t *testing.T) {
		assert.True(t, IsValidation(service.Validate(nil, costs)))
	})
}

func TestBudgetService_GenerateDefault(t *testing.T) {
	service := &budgetService{}

	costs := []*CostRecord{
		usd("accommodation", "Japan", 4000),
		usd("food", "Japan", 1000),
		usd("food", "Korea", 500),
	}

	budget := service.GenerateDefault(costs, 20)

	// Known costs total 5500, plus a 20% contingency buffer
	assert.Equal(t, 6600.0, budget.TotalBudget)
	assert.Equal(t, 20.0, budget.ContingencyPct)
	assert.Equal(t, 4800.0, budget.ByCategory["accommodation"])
	assert.Equal(t, 1800.0, budget.ByCategory["food"])
	assert.Equal(t, 6000.0, budget.ByCountry["Japan"])
	assert.Equal(t, 600.0, budget.ByCountry["Korea"])

	// Generated budgets always satisfy their own invariants
	assert.NoError(t, service.Validate(budget, costs))
}

func TestBudgetService_GenerateDefault_NoCosts(t *testing.T) {
	service := &budgetService{}

	budget := service.GenerateDefault(nil, 15)

	assert.Equal(t, 0.0, budget.TotalBudget)
	assert.Empty(t, budget.ByCategory)
	assert.Empty(t, budget.ByCountry)
}
