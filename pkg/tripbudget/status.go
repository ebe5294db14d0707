package tripbudget

// Alert thresholds, in percent of budget. The boundary at exactly 100% is a
// warning: "exceeded" requires strictly more than the budget.
const (
	alertInfoFloor    = 80.0
	alertWarningFloor = 90.0
	alertExceededOver = 100.0
)

// statusService implements the StatusService interface
type statusService struct {
	engine *Engine
}

// Compute reconciles a budget against a cost set. It is pure: no state is
// read or written outside the arguments.
func (s *statusService) Compute(budget *Budget, costs []*CostRecord, ancillaryTotal float64) *Status {
	st := &Status{
		ByCategory: make(map[string]*BucketStatus),
		ByCountry:  make(map[string]*BucketStatus),
		Alerts:     []*Alert{},
	}

	// Bucket encounter order follows the cost slice
	var categoryOrder []string
	var countryOrder []string

	for _, c := range costs {
		if c == nil {
			continue
		}
		st.TotalSpent += c.AmountBase

		if c.Category != "" {
			b, ok := st.ByCategory[c.Category]
			if !ok {
				b = &BucketStatus{}
				st.ByCategory[c.Category] = b
				categoryOrder = append(categoryOrder, c.Category)
			}
			b.Spent += c.AmountBase
		}

		if c.Country != "" {
			b, ok := st.ByCountry[c.Country]
			if !ok {
				b = &BucketStatus{}
				st.ByCountry[c.Country] = b
				countryOrder = append(countryOrder, c.Country)
			}
			b.Spent += c.AmountBase
		}
	}

	st.TotalSpent += ancillaryTotal

	var total float64
	if budget != nil {
		total = budget.TotalBudget
	}

	st.TotalRemaining = total - st.TotalSpent
	st.PercentageUsed = safePercent(st.TotalSpent, total)

	if budget != nil {
		// Buckets allocated in the budget but with no spend yet still show up,
		// after the observed ones. Their percentage is 0 so they never alert.
		for name, amount := range budget.ByCategory {
			if _, ok := st.ByCategory[name]; !ok {
				st.ByCategory[name] = &BucketStatus{}
				categoryOrder = append(categoryOrder, name)
			}
			st.ByCategory[name].Budget = amount
		}
		for name, amount := range budget.ByCountry {
			if _, ok := st.ByCountry[name]; !ok {
				st.ByCountry[name] = &BucketStatus{}
				countryOrder = append(countryOrder, name)
			}
			st.ByCountry[name].Budget = amount
		}
	}

	for _, b := range st.ByCategory {
		b.Percentage = safePercent(b.Spent, b.Budget)
	}
	for _, b := range st.ByCountry {
		b.Percentage = safePercent(b.Spent, b.Budget)
	}

	// Alert policy: overall total first, then categories, then countries,
	// each in encounter order.
	if level, ok := alertFor(st.PercentageUsed); ok {
		st.Alerts = append(st.Alerts, &Alert{
			Level:      level,
			Scope:      ScopeTotal,
			Percentage: st.PercentageUsed,
		})
	}
	for _, name := range categoryOrder {
		if level, ok := alertFor(st.ByCategory[name].Percentage); ok {
			st.Alerts = append(st.Alerts, &Alert{
				Level:      level,
				Scope:      ScopeCategory,
				Bucket:     name,
				Percentage: st.ByCategory[name].Percentage,
			})
		}
	}
	for _, name := range countryOrder {
		if level, ok := alertFor(st.ByCountry[name].Percentage); ok {
			st.Alerts = append(st.Alerts, &Alert{
				Level:      level,
				Scope:      ScopeCountry,
				Bucket:     name,
				Percentage: st.ByCountry[name].Percentage,
			})
		}
	}

	return st
}

// safePercent divides spent by budget as a percentage, guarding budget == 0
func safePercent(spent, budget float64) float64 {
	if budget > 0 {
		return spent / budget * 100
	}
	return 0
}

// alertFor classifies a usage percentage. Exactly 100% is a warning.
func alertFor(p float64) (AlertLevel, bool) {
	switch {
	case p > alertExceededOver:
		return AlertExceeded, true
	case p > alertWarningFloor:
		return AlertWarning, true
	case p >= alertInfoFloor:
		return AlertInfo, true
	default:
		return "", false
	}
}
