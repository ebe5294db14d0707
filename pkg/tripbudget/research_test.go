package tripbudget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResearchService_Normalize(t *testing.T) {
	engine := newTestEngine(t, nil)

	rec, err := engine.Research.Normalize(&CostCandidate{
		DestinationID: "dest-1",
		Country:       "Japan",
		Category:      "accommodation",
		Description:   "Kyoto ryokan, 3 nights",
		Amount:        74000,
		Currency:      "JPY",
		Low:           60000,
		Mid:           74000,
		High:          95000,
		Confidence:    "medium",
		Sources:       []string{"https://example.com/ryokan"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "accommodation", rec.Category)
	assert.Equal(t, "JPY", rec.Currency)
	assert.Equal(t, 74000.0, rec.Amount)
	// 74000 JPY at 148 to the dollar
	assert.InDelta(t, 500, rec.AmountBase, 0.01)
	assert.Equal(t, CostStatusResearched, rec.Status)

	require.NotNil(t, rec.Research)
	assert.Equal(t, 74000.0, rec.Research.Mid)
	assert.Equal(t, "medium", rec.Research.Confidence)
	assert.Len(t, rec.Research.Sources, 1)
}

func TestResearchService_Normalize_DefaultsCurrencyToBase(t *testing.T) {
	engine := newTestEngine(t, nil)

	rec, err := engine.Research.Normalize(&CostCandidate{
		Category: "food",
		Amount:   123.45,
	})
	require.NoError(t, err)

	assert.Equal(t, "USD", rec.Currency)
	// Base-currency candidates keep amount == amountBase exactly
	assert.Equal(t, rec.Amount, rec.AmountBase)
	assert.Nil(t, rec.Research)
}

func TestResearchService_Normalize_Validation(t *testing.T) {
	engine := newTestEngine(t, nil)

	t.Run("nil candidate", func(t *testing.T) {
		_, err := engine.Research.Normalize(nil)
		assert.True(t, IsValidation(err))
	})

	t.Run("missing category", func(t *testing.T) {
		_, err := engine.Research.Normalize(&CostCandidate{Amount: 10})
		assert.True(t, IsValidation(err))
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := engine.Research.Normalize(&CostCandidate{Category: "food", Amount: -1})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})
}

func TestResearchService_Normalize_UniqueIDs(t *testing.T) {
	engine := newTestEngine(t, nil)

	a, err := engine.Research.Normalize(&CostCandidate{Category: "food", Amount: 10})
	require.NoError(t, err)
	b, err := engine.Research.Normalize(&CostCandidate{Category: "food", Amount: 10})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}
