package tripbudget

import (
	"github.com/google/uuid"
)

// CostCandidate is what the cost-estimation collaborator (AI or manual
// research) supplies. The engine only normalizes it into a CostRecord.
type CostCandidate struct {
	DestinationID string   `json:"destinationId,omitempty"`
	Country       string   `json:"country,omitempty"`
	Category      string   `json:"category"`
	Description   string   `json:"description,omitempty"`
	Amount        float64  `json:"amount"`
	Currency      string   `json:"currency,omitempty"`
	Low           float64  `json:"low,omitempty"`
	Mid           float64  `json:"mid,omitempty"`
	High          float64  `json:"high,omitempty"`
	Confidence    string   `json:"confidence,omitempty"`
	Sources       []string `json:"sources,omitempty"`
	Date          Date     `json:"date,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// researchService implements the ResearchService interface
type researchService struct {
	engine *Engine
}

// Normalize turns a candidate into a CostRecord: an empty currency resolves
// to the base currency, the base-currency amount is computed through the
// converter, and a fresh ID is assigned. A candidate priced in the base
// currency keeps its amount as AmountBase exactly.
func (s *researchService) Normalize(c *CostCandidate) (*CostRecord, error) {
	if c == nil {
		return nil, &ValidationError{Field: "candidate", Message: "candidate is required"}
	}
	if c.Category == "" {
		return nil, &ValidationError{Field: "category", Message: "category is required"}
	}
	if c.Amount < 0 {
		return nil, &ValidationError{Field: "amount", Message: "amount must not be negative", Value: c.Amount, Err: ErrNegativeAmount}
	}

	currency := c.Currency
	if currency == "" {
		currency = s.engine.Currency.BaseCurrency()
	}

	amountBase, approximate := s.engine.Currency.ToBase(c.Amount, currency)
	if approximate && s.engine.logger != nil {
		s.engine.logger.Warn("normalized cost with approximate conversion", "currency", currency, "category", c.Category)
	}

	rec := &CostRecord{
		ID:            uuid.New().String(),
		DestinationID: c.DestinationID,
		Country:       c.Country,
		Category:      c.Category,
		Description:   c.Description,
		Amount:        c.Amount,
		Currency:      currency,
		AmountBase:    amountBase,
		Status:        CostStatusResearched,
		Date:          c.Date,
		Notes:         c.Notes,
	}

	if c.Low != 0 || c.Mid != 0 || c.High != 0 || len(c.Sources) > 0 {
		rec.Research = &ResearchEstimate{
			Low:        c.Low,
			Mid:        c.Mid,
			High:       c.High,
			Confidence: c.Confidence,
			Sources:    c.Sources,
		}
	}

	return rec, nil
}
