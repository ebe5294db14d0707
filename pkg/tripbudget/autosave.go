package tripbudget

import (
	"context"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// Domain identifies an autosave data domain. Domains debounce and flush
// independently and never block each other.
type Domain string

const (
	DomainCosts  Domain = "costs"
	DomainBudget Domain = "budget"
	DomainTrip   Domain = "trip"
)

// Debounce windows. Costs see many itemized, frequent edits; budget and trip
// metadata are single aggregate documents.
const (
	costsDebounce  = 2000 * time.Millisecond
	budgetDebounce = 1000 * time.Millisecond
	tripDebounce   = 1000 * time.Millisecond
)

// PendingEdit is the merged partial update for one entity. Deleted marks a
// tombstone so flush can distinguish delete from update.
type PendingEdit struct {
	Fields  map[string]interface{} `json:"fields,omitempty"`
	Deleted bool                   `json:"deleted,omitempty"`

	seq uint64
}

// FlushFunc sends a snapshot of pending edits to a persistence collaborator
type FlushFunc func(ctx context.Context, edits map[string]*PendingEdit) error

// domainQueue is the generic debounced coalescing queue. One instance per
// domain; the three domains share this type rather than hand-copied timer
// logic.
type domainQueue struct {
	domain   Domain
	debounce time.Duration
	flush    FlushFunc
	logger   Logger

	mu       sync.Mutex
	pending  map[string]*PendingEdit
	seq      uint64
	timer    *time.Timer
	inFlight bool
	rearm    bool
	lastErr  error
}

func newDomainQueue(domain Domain, debounce time.Duration, flush FlushFunc, logger Logger) *domainQueue {
	return &domainQueue{
		domain:   domain,
		debounce: debounce,
		flush:    flush,
		logger:   logger,
		pending:  make(map[string]*PendingEdit),
	}
}

// recordEdit merges fields last-write-wins and restarts the debounce timer.
// An edit after a tombstone turns the entry back into an update.
func (q *domainQueue) recordEdit(id string, fields map[string]interface{}) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.pending[id]
	if !ok {
		e = &PendingEdit{}
		q.pending[id] = e
	}
	if e.Fields == nil {
		e.Fields = make(map[string]interface{}, len(fields))
	}
	e.Deleted = false
	for k, v := range fields {
		e.Fields[k] = v
	}
	q.seq++
	e.seq = q.seq

	q.armLocked()
}

// recordDelete records a tombstone and restarts the debounce timer
func (q *domainQueue) recordDelete(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.pending[id]
	if !ok {
		e = &PendingEdit{}
		q.pending[id] = e
	}
	e.Deleted = true
	e.Fields = nil
	q.seq++
	e.seq = q.seq

	q.armLocked()
}

// armLocked (re)starts the debounce timer. Caller holds q.mu.
func (q *domainQueue) armLocked() {
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.debounce, q.tick)
}

// tick fires on debounce expiry. If a flush is already in flight the cycle is
// deferred until it completes instead of racing it.
func (q *domainQueue) tick() {
	q.mu.Lock()
	if q.inFlight {
		q.rearm = true
		q.mu.Unlock()
		return
	}
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	snapshot, marks := q.snapshotLocked()
	q.inFlight = true
	q.mu.Unlock()

	err := q.flush(context.Background(), snapshot)
	q.finish(err, marks)
}

// flushNow flushes synchronously, bypassing the timer
func (q *domainQueue) flushNow(ctx context.Context) error {
	q.mu.Lock()
	if q.inFlight {
		q.mu.Unlock()
		return &Error{Code: "FLUSH_IN_FLIGHT", Message: string(q.domain) + " flush already running", Err: ErrFlushInFlight}
	}
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return nil
	}
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	snapshot, marks := q.snapshotLocked()
	q.inFlight = true
	q.mu.Unlock()

	err := q.flush(ctx, snapshot)
	q.finish(err, marks)

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}

// snapshotLocked deep-copies the pending set and remembers each entry's
// sequence number as of the tick. Caller holds q.mu.
func (q *domainQueue) snapshotLocked() (map[string]*PendingEdit, map[string]uint64) {
	snapshot := make(map[string]*PendingEdit, len(q.pending))
	marks := make(map[string]uint64, len(q.pending))
	for id, e := range q.pending {
		cp := &PendingEdit{Deleted: e.Deleted}
		if e.Fields != nil {
			cp.Fields = make(map[string]interface{}, len(e.Fields))
			for k, v := range e.Fields {
				cp.Fields[k] = v
			}
		}
		snapshot[id] = cp
		marks[id] = e.seq
	}
	return snapshot, marks
}

// finish applies a flush result. Success clears exactly the flushed entries;
// entries edited mid-flush keep their newer sequence number and stay pending.
// Failure retains everything and surfaces the error without scheduling a
// retry, to avoid duplicate-save storms.
func (q *domainQueue) finish(err error, marks map[string]uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.inFlight = false

	if err != nil {
		q.lastErr = &Error{
			Code:    "PERSISTENCE",
			Message: string(q.domain) + " flush failed",
			Err:     ErrPersistence,
			Details: map[string]interface{}{"cause": err.Error()},
		}
		if q.logger != nil {
			q.logger.Error("autosave flush failed", "domain", q.domain, "pending", len(q.pending), "error", err)
		}
		sentry.CaptureException(err)
	} else {
		q.lastErr = nil
		for id, seq := range marks {
			if e, ok := q.pending[id]; ok && e.seq == seq {
				delete(q.pending, id)
			}
		}
		if q.logger != nil {
			q.logger.Debug("autosave flush ok", "domain", q.domain, "flushed", len(marks))
		}
	}

	// A tick that fired mid-flight is owed its cycle
	if q.rearm {
		q.rearm = false
		q.armLocked()
	}
}

func (q *domainQueue) pendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *domainQueue) lastError() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}

func (q *domainQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// autosaveService implements the AutosaveService interface over one queue per
// configured persistence collaborator
type autosaveService struct {
	queues map[Domain]*domainQueue
}

func newAutosaveService(opts *Options, logger Logger) *autosaveService {
	s := &autosaveService{queues: make(map[Domain]*domainQueue)}

	window := func(domain Domain, fallback time.Duration) time.Duration {
		if d, ok := opts.DebounceOverrides[domain]; ok && d > 0 {
			return d
		}
		return fallback
	}

	if opts.CostStore != nil {
		s.queues[DomainCosts] = newDomainQueue(DomainCosts, window(DomainCosts, costsDebounce),
			func(ctx context.Context, edits map[string]*PendingEdit) error {
				return opts.CostStore.SaveCosts(ctx, edits)
			}, logger)
	}
	if opts.BudgetStore != nil {
		s.queues[DomainBudget] = newDomainQueue(DomainBudget, window(DomainBudget, budgetDebounce),
			func(ctx context.Context, edits map[string]*PendingEdit) error {
				return opts.BudgetStore.SaveBudget(ctx, edits)
			}, logger)
	}
	if opts.TripStore != nil {
		s.queues[DomainTrip] = newDomainQueue(DomainTrip, window(DomainTrip, tripDebounce),
			func(ctx context.Context, edits map[string]*PendingEdit) error {
				return opts.TripStore.SaveTripMetadata(ctx, edits)
			}, logger)
	}

	return s
}

func (s *autosaveService) queue(domain Domain) (*domainQueue, error) {
	q, ok := s.queues[domain]
	if !ok {
		return nil, &Error{Code: "UNKNOWN_DOMAIN", Message: "no store configured for domain " + string(domain), Err: ErrUnknownDomain}
	}
	return q, nil
}

// RecordEdit merges a partial update for an entity and restarts the domain's
// debounce timer
func (s *autosaveService) RecordEdit(domain Domain, entityID string, fields map[string]interface{}) error {
	q, err := s.queue(domain)
	if err != nil {
		return err
	}
	q.recordEdit(entityID, fields)
	return nil
}

// RecordDelete records a tombstone edit for an entity
func (s *autosaveService) RecordDelete(domain Domain, entityID string) error {
	q, err := s.queue(domain)
	if err != nil {
		return err
	}
	q.recordDelete(entityID)
	return nil
}

// Flush synchronously flushes a domain's pending edits
func (s *autosaveService) Flush(ctx context.Context, domain Domain) error {
	q, err := s.queue(domain)
	if err != nil {
		return err
	}
	return q.flushNow(ctx)
}

// Pending returns the number of pending entities for a domain
func (s *autosaveService) Pending(domain Domain) int {
	q, err := s.queue(domain)
	if err != nil {
		return 0
	}
	return q.pendingCount()
}

// LastError returns the domain's surfaced flush error, if any
func (s *autosaveService) LastError(domain Domain) error {
	q, err := s.queue(domain)
	if err != nil {
		return err
	}
	return q.lastError()
}

// Stop cancels all pending timers. Pending edits stay in memory; call Flush
// first for a clean shutdown.
func (s *autosaveService) Stop() {
	for _, q := range s.queues {
		q.stop()
	}
}
