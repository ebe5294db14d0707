package tripbudget

import (
	"math"
	"sort"
)

// UnitMode selects which unit an allocation is displayed and edited in.
// The canonical value of a bucket is always its absolute base-currency amount;
// the mode only controls how raw edit values are interpreted.
type UnitMode string

const (
	UnitDollar  UnitMode = "dollar"
	UnitPercent UnitMode = "percent"
	UnitPerDiem UnitMode = "perdiem"
)

// Allocation tolerances. The percent tolerance and the dollar tolerance are
// intentionally different and must not be unified: doing so would silently
// change which badges a user sees.
const (
	percentTolerance = 0.1
	dollarTolerance  = 1.0
)

// AllocationState classifies how completely a budget is distributed
type AllocationState string

const (
	AllocationFull  AllocationState = "fully-allocated"
	AllocationUnder AllocationState = "under-allocated"
	AllocationOver  AllocationState = "over-allocated"
)

// AllocationBucket is one named slice of the budget with its three views.
// Absolute is canonical; Percent and PerDiem are derived.
type AllocationBucket struct {
	Name         string  `json:"name"`
	Absolute     float64 `json:"absolute"`
	Percent      float64 `json:"percent"`
	PerDiem      float64 `json:"perDiem"`
	DurationDays int     `json:"durationDays,omitempty"`
}

// CompletenessReport is the percent-mode allocation summary
type CompletenessReport struct {
	State AllocationState `json:"state"`
	Sum   float64         `json:"sum"`
	Delta float64         `json:"delta"` // 100 - Sum; positive means under-allocated
}

// UnallocatedReport is the dollar-terms allocation summary
type UnallocatedReport struct {
	Amount         float64 `json:"amount"` // totalBudget - sum of absolutes
	FullyAllocated bool    `json:"fullyAllocated"`
}

// AllocationSet keeps a set of named buckets' dollar, percent and per-diem
// views mutually consistent. Not safe for concurrent use; the engine treats
// it as presentation-thread state.
type AllocationSet struct {
	mode      UnitMode
	buckets   []*AllocationBucket
	index     map[string]*AllocationBucket
	lastTotal float64
}

// allocationService implements the AllocationService interface
type allocationService struct {
	engine *Engine
}

// NewSet creates an allocation set over the given buckets in order
func (s *allocationService) NewSet(mode UnitMode, buckets []*AllocationBucket) *AllocationSet {
	set := &AllocationSet{
		mode:  mode,
		index: make(map[string]*AllocationBucket, len(buckets)),
	}
	for _, b := range buckets {
		if b == nil || b.Name == "" {
			continue
		}
		if b.DurationDays < 1 {
			// Unknown duration defaults to one day so per-diem never divides by zero
			b.DurationDays = 1
		}
		set.buckets = append(set.buckets, b)
		set.index[b.Name] = b
	}
	return set
}

// FromBudget derives a category allocation set from a budget. Buckets are
// ordered by name so the set is deterministic; each bucket carries the trip
// duration for its per-diem rate.
func (s *allocationService) FromBudget(budget *Budget, trip *TripMetadata, mode UnitMode) *AllocationSet {
	days := trip.DurationDays()

	names := make([]string, 0, len(budget.ByCategory))
	for name := range budget.ByCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	buckets := make([]*AllocationBucket, 0, len(names))
	for _, name := range names {
		buckets = append(buckets, &AllocationBucket{
			Name:         name,
			Absolute:     budget.ByCategory[name],
			DurationDays: days,
		})
	}

	set := s.NewSet(mode, buckets)
	set.Recalc(budget.TotalBudget)
	return set
}

// Mode returns the current unit mode
func (s *AllocationSet) Mode() UnitMode {
	return s.mode
}

// Buckets returns the buckets in order
func (s *AllocationSet) Buckets() []*AllocationBucket {
	out := make([]*AllocationBucket, len(s.buckets))
	copy(out, s.buckets)
	return out
}

// Bucket looks up a bucket by name
func (s *AllocationSet) Bucket(name string) (*AllocationBucket, bool) {
	b, ok := s.index[name]
	return b, ok
}

// Recalc re-derives every bucket's views against the given total
func (s *AllocationSet) Recalc(totalBudget float64) {
	s.lastTotal = totalBudget
	for _, b := range s.buckets {
		s.derive(b, totalBudget)
	}
}

// SwitchMode changes the display mode. The canonical absolute values are
// untouched; only derived views are recomputed, so mode switches never drift.
func (s *AllocationSet) SwitchMode(newMode UnitMode, totalBudget float64) {
	if newMode == s.mode && totalBudget == s.lastTotal {
		return
	}
	s.mode = newMode
	s.Recalc(totalBudget)
}

// EditBucket interprets rawValue in the current mode and updates that bucket's
// canonical value and derived views. Other buckets are re-derived only when
// totalBudget itself changed. Validation failures leave the set untouched.
func (s *AllocationSet) EditBucket(name string, rawValue, totalBudget float64) error {
	b, ok := s.index[name]
	if !ok {
		return &ValidationError{Field: "name", Message: "unknown bucket: " + name, Value: name, Err: ErrUnknownBucket}
	}
	if rawValue < 0 {
		return &ValidationError{Field: "value", Message: "amount must not be negative", Value: rawValue, Err: ErrNegativeAmount}
	}
	if s.mode == UnitPercent && totalBudget <= 0 {
		return &ValidationError{Field: "totalBudget", Message: "percent edits need a non-zero total budget", Value: totalBudget, Err: ErrZeroTotalBudget}
	}

	var absolute float64
	switch s.mode {
	case UnitPercent:
		absolute = totalBudget * rawValue / 100
	case UnitPerDiem:
		absolute = rawValue * float64(b.DurationDays)
	default:
		absolute = rawValue
	}

	totalChanged := totalBudget != s.lastTotal

	b.Absolute = absolute
	s.derive(b, totalBudget)

	if totalChanged {
		for _, other := range s.buckets {
			if other != b {
				s.derive(other, totalBudget)
			}
		}
	}
	s.lastTotal = totalBudget

	return nil
}

// Completeness sums the percent views and classifies the allocation.
// Fully allocated means within 0.1 percentage points of 100.
func (s *AllocationSet) Completeness() *CompletenessReport {
	var sum float64
	for _, b := range s.buckets {
		sum += b.Percent
	}

	delta := 100 - sum
	state := AllocationFull
	switch {
	case math.Abs(delta) < percentTolerance:
		state = AllocationFull
	case delta > 0:
		state = AllocationUnder
	default:
		state = AllocationOver
	}

	return &CompletenessReport{State: state, Sum: sum, Delta: delta}
}

// Unallocated reports the dollar-terms gap between the total budget and the
// bucket absolutes, with its own looser 1-unit tolerance.
func (s *AllocationSet) Unallocated(totalBudget float64) *UnallocatedReport {
	var sum float64
	for _, b := range s.buckets {
		sum += b.Absolute
	}

	amount := totalBudget - sum
	return &UnallocatedReport{
		Amount:         amount,
		FullyAllocated: math.Abs(amount) < dollarTolerance,
	}
}

// derive recomputes a bucket's views: absolute to the nearest whole currency
// unit, percent to one decimal, per-diem from the bucket duration.
func (s *AllocationSet) derive(b *AllocationBucket, totalBudget float64) {
	b.Absolute = math.Round(b.Absolute)
	b.Percent = round1(safePercent(b.Absolute, totalBudget))

	days := b.DurationDays
	if days < 1 {
		days = 1
	}
	b.PerDiem = b.Absolute / float64(days)
}

// round1 rounds to one decimal place
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
