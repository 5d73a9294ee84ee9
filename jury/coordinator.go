// Package jury selects juror panels from a candidate registry using
// verifiable randomness delivered asynchronously by an oracle.
package jury

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/vechain/thor/v2/thor"
	"github.com/vechain/vrfjury/metrics"
	"github.com/vechain/vrfjury/oracle"
	"github.com/vechain/vrfjury/registry"
	"github.com/vechain/vrfjury/types"
)

// Request is a read-only view of a randomness request.
type Request struct {
	ID     types.RequestID
	Count  int
	Status types.RequestStatus
	// Snapshot holds the candidates registered when the request was issued.
	Snapshot    []thor.Address
	RequestedAt time.Time

	// Set once fulfilled
	Round       uint64
	Panel       types.Panel
	FulfilledAt time.Time
}

type Option func(*Coordinator)

// WithSink forwards every appended event record to s.
func WithSink(s types.Sink) Option {
	return func(c *Coordinator) {
		c.sink = s
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// Coordinator owns the candidate registry and drives the request/callback
// selection cycle. Each exported call runs atomically under one mutex.
//
// The oracle must deliver callbacks from a separate call: SelectJurors holds
// the lock while the oracle accepts the request.
type Coordinator struct {
	mu       sync.Mutex
	cfg      Config
	oracle   oracle.Coordinator
	registry *registry.Registry
	requests map[types.RequestID]*Request
	order    []types.RequestID
	counter  uint64

	log     *types.Log
	sink    types.Sink
	metrics *metrics.Metrics
	now     func() time.Time
}

var _ oracle.Consumer = (*Coordinator)(nil)

func New(cfg Config, o oracle.Coordinator, opts ...Option) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid jury config: %w", err)
	}
	if o == nil {
		return nil, fmt.Errorf("invalid jury config: oracle coordinator is required")
	}
	c := &Coordinator{
		cfg:      cfg,
		oracle:   o,
		registry: registry.New(),
		requests: make(map[types.RequestID]*Request),
		log:      types.NewLog("jury"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AddCandidate registers addr.
func (c *Coordinator) AddCandidate(addr thor.Address) error {
	c.mu.Lock()
	if err := c.registry.Add(addr); err != nil {
		c.mu.Unlock()
		return err
	}
	c.metrics.SetCandidates(c.registry.Len())
	records := c.log.Append(types.CandidateAdded{Address: addr})
	c.mu.Unlock()

	slog.Debug("candidate added", "address", addr)
	c.forward(records)
	return nil
}

// RemoveCandidate unregisters the candidate at index i. The last candidate
// moves into slot i.
func (c *Coordinator) RemoveCandidate(i int) (thor.Address, error) {
	c.mu.Lock()
	removed, err := c.registry.Remove(i)
	if err != nil {
		c.mu.Unlock()
		return thor.Address{}, err
	}
	c.metrics.SetCandidates(c.registry.Len())
	records := c.log.Append(types.CandidateRemoved{Address: removed, Index: i})
	c.mu.Unlock()

	slog.Debug("candidate removed", "address", removed, "index", i)
	c.forward(records)
	return removed, nil
}

// SelectJurors asks the oracle for count random words and records the
// request as pending. It returns once the oracle accepted the request; the
// panel is produced by the later callback.
func (c *Coordinator) SelectJurors(ctx context.Context, count int) (types.RequestID, error) {
	c.mu.Lock()
	available := c.registry.Len()
	if count <= 0 || count > available {
		c.mu.Unlock()
		return 0, &types.InvalidSelectionCountError{Count: count, Available: available}
	}

	id, err := c.oracle.RequestRandomWords(ctx, c, oracle.Request{
		KeyHash:              c.cfg.KeyHash,
		SubscriptionID:       c.cfg.SubscriptionID,
		RequestConfirmations: c.cfg.RequestConfirmations,
		CallbackGasLimit:     c.cfg.CallbackGasLimit,
		NumWords:             uint32(count),
	})
	if err != nil {
		c.mu.Unlock()
		return 0, fmt.Errorf("failed to request random words: %w", err)
	}
	if _, exists := c.requests[id]; exists {
		c.mu.Unlock()
		return 0, &types.UnknownOrDuplicateRequestError{RequestID: id}
	}

	c.requests[id] = &Request{
		ID:          id,
		Count:       count,
		Status:      types.StatusPending,
		Snapshot:    c.registry.Snapshot(),
		RequestedAt: c.now(),
	}
	c.order = append(c.order, id)
	c.metrics.IncrementRequests()
	records := c.log.Append(types.RandomWordsRequested{RequestID: id, Count: count})
	c.mu.Unlock()

	slog.Info("🎲 random words requested", "request_id", id, "count", count, "candidates", available)
	c.forward(records)
	return id, nil
}

// RawFulfillRandomWords is the oracle callback. Rejected calls leave the
// coordinator untouched.
func (c *Coordinator) RawFulfillRandomWords(_ context.Context, caller thor.Address, id types.RequestID, words []*big.Int) error {
	c.mu.Lock()
	if caller != c.cfg.OracleAddress {
		c.mu.Unlock()
		c.metrics.IncrementRejected("unauthorized")
		slog.Warn("rejected callback from unauthorized caller", "caller", caller, "request_id", id)
		return &types.UnauthorizedCallbackError{Caller: caller}
	}

	req, ok := c.requests[id]
	if !ok || req.Status != types.StatusPending {
		c.mu.Unlock()
		c.metrics.IncrementRejected("unknown_request")
		return &types.UnknownOrDuplicateRequestError{RequestID: id}
	}
	if len(words) != req.Count {
		c.mu.Unlock()
		c.metrics.IncrementRejected("word_count")
		return &types.WordCountMismatchError{RequestID: id, Expected: req.Count, Got: len(words)}
	}

	pool := eligible(req.Snapshot, c.registry.IsCandidate)
	if len(pool) < req.Count {
		c.mu.Unlock()
		c.metrics.IncrementRejected("selection_count")
		slog.Warn("too few snapshot candidates left to fulfill request", "request_id", id, "count", req.Count, "eligible", len(pool))
		return &types.InvalidSelectionCountError{Count: req.Count, Available: len(pool)}
	}

	panel := drawPanel(pool, words)
	c.counter++
	req.Status = types.StatusFulfilled
	req.Round = c.counter
	req.Panel = panel
	req.FulfilledAt = c.now()
	c.metrics.ObserveSelection(req.FulfilledAt.Sub(req.RequestedAt))
	records := c.log.Append(types.JurorsSelected{Round: c.counter, RequestID: id, Panel: panel})
	round := c.counter
	c.mu.Unlock()

	slog.Info("⚖️ jurors selected", "round", round, "request_id", id, "panel", panel.Strings())
	c.forward(records)
	return nil
}

func (c *Coordinator) forward(records []types.Record) {
	if c.sink != nil && len(records) > 0 {
		c.sink.Emit(records...)
	}
}

// Address identifies the coordinator to the oracle.
func (c *Coordinator) Address() thor.Address {
	return c.cfg.ConsumerAddress
}

func (c *Coordinator) OracleAddress() thor.Address {
	return c.cfg.OracleAddress
}

func (c *Coordinator) KeyHash() thor.Bytes32 {
	return c.cfg.KeyHash
}

func (c *Coordinator) SubscriptionID() uint64 {
	return c.cfg.SubscriptionID
}

func (c *Coordinator) CallbackGasLimit() uint32 {
	return c.cfg.CallbackGasLimit
}

func (c *Coordinator) RequestConfirmations() uint16 {
	return c.cfg.RequestConfirmations
}

func (c *Coordinator) CandidatesLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Len()
}

// Candidate returns the address at index i.
func (c *Coordinator) Candidate(i int) (thor.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.At(i)
}

func (c *Coordinator) IsCandidate(addr thor.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.IsCandidate(addr)
}

// IndexOf returns the slot of addr for use with RemoveCandidate, or -1.
func (c *Coordinator) IndexOf(addr thor.Address) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.IndexOf(addr)
}

// Candidates returns a copy of the registry in its current order.
func (c *Coordinator) Candidates() []thor.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Snapshot()
}

// SelectionCounter is the number of completed selection rounds.
func (c *Coordinator) SelectionCounter() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

func (c *Coordinator) Request(id types.RequestID) (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.requests[id]
	if !ok {
		return Request{}, false
	}
	return req.clone(), true
}

// Requests returns every request in issue order.
func (c *Coordinator) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Request, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.requests[id].clone())
	}
	return out
}

// Pending returns the ids of requests still awaiting their callback.
func (c *Coordinator) Pending() []types.RequestID {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []types.RequestID
	for _, id := range c.order {
		if c.requests[id].Status == types.StatusPending {
			ids = append(ids, id)
		}
	}
	return ids
}

// Log returns the coordinator's event log.
func (c *Coordinator) Log() *types.Log {
	return c.log
}

func (r *Request) clone() Request {
	out := *r
	out.Snapshot = append([]thor.Address(nil), r.Snapshot...)
	if r.Panel != nil {
		out.Panel = append(types.Panel(nil), r.Panel...)
	}
	return out
}
