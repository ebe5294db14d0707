package tripbudget

// CostStatus tracks how firm a cost record is
type CostStatus string

const (
	CostStatusEstimated  CostStatus = "estimated"
	CostStatusResearched CostStatus = "researched"
	CostStatusBooked     CostStatus = "booked"
	CostStatusPaid       CostStatus = "paid"
)

// AlertLevel classifies how close a bucket is to its budget
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertExceeded AlertLevel = "exceeded"
)

// AlertScope identifies what a budget alert refers to
type AlertScope string

const (
	ScopeTotal    AlertScope = "total"
	ScopeCategory AlertScope = "category"
	ScopeCountry  AlertScope = "country"
)

// Alert flags a bucket (or the overall total) that crossed a spend threshold
type Alert struct {
	Level      AlertLevel `json:"level"`
	Scope      AlertScope `json:"scope"`
	Bucket     string     `json:"bucket,omitempty"`
	Percentage float64    `json:"percentage"`
}

// Budget holds the trip budget and its allocation across buckets.
// All amounts are in the trip's base currency.
type Budget struct {
	TotalBudget    float64            `json:"totalBudget"`
	ContingencyPct float64            `json:"contingencyPct"`
	ByCategory     map[string]float64 `json:"byCategory,omitempty"`
	ByCountry      map[string]float64 `json:"byCountry,omitempty"`
	CategoryNotes  map[string]string  `json:"categoryNotes,omitempty"`
	GroupNotes     string             `json:"groupNotes,omitempty"`
}

// ResearchEstimate carries optional cost-research metadata supplied by the
// estimation collaborator
type ResearchEstimate struct {
	Low        float64  `json:"low"`
	Mid        float64  `json:"mid"`
	High       float64  `json:"high"`
	Confidence string   `json:"confidence,omitempty"`
	Sources    []string `json:"sources,omitempty"`
}

// CostRecord is a single itemized trip cost
type CostRecord struct {
	ID            string            `json:"id"`
	DestinationID string            `json:"destinationId,omitempty"`
	Country       string            `json:"country,omitempty"`
	Category      string            `json:"category"`
	Description   string            `json:"description,omitempty"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	AmountBase    float64           `json:"amountBase"`
	Status        CostStatus        `json:"status"`
	Date          Date              `json:"date,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Research      *ResearchEstimate `json:"research,omitempty"`
}

// TripMetadata is the aggregate trip document the engine computes against
type TripMetadata struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StartDate    Date   `json:"startDate,omitempty"`
	EndDate      Date   `json:"endDate,omitempty"`
	Travelers    int    `json:"travelers,omitempty"`
	BaseCurrency string `json:"baseCurrency"`
	Notes        string `json:"notes,omitempty"`
}

// DurationDays returns the trip length in days, inclusive of both endpoints.
// Returns 0 when either date is unset.
func (m *TripMetadata) DurationDays() int {
	if m == nil || m.StartDate.IsZero() || m.EndDate.IsZero() {
		return 0
	}
	days := int(m.EndDate.Sub(m.StartDate.Time).Hours()/24) + 1
	if days < 0 {
		return 0
	}
	return days
}

// BucketStatus is the spend breakdown for one category or country
type BucketStatus struct {
	Spent      float64 `json:"spent"`
	Budget     float64 `json:"budget"`
	Percentage float64 `json:"percentage"`
}

// Status is the full reconciliation of a budget against its cost records
type Status struct {
	TotalSpent     float64                  `json:"totalSpent"`
	TotalRemaining float64                  `json:"totalRemaining"`
	PercentageUsed float64                  `json:"percentageUsed"`
	ByCategory     map[string]*BucketStatus `json:"byCategory"`
	ByCountry      map[string]*BucketStatus `json:"byCountry"`
	Alerts         []*Alert                 `json:"alerts"`
}
