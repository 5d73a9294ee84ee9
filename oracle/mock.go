package oracle

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/vechain/thor/v2/thor"
	"github.com/vechain/vrfjury/config"
	"github.com/vechain/vrfjury/types"
)

// Subscription is a funded account that pays for the requests of its
// consumers.
type Subscription struct {
	ID        uint64
	Owner     thor.Address
	Balance   *big.Int
	Consumers []thor.Address
}

// Fulfillment describes the outcome of one mock fulfillment.
type Fulfillment struct {
	RequestID   types.RequestID
	Words       []*big.Int
	Payment     *big.Int
	Success     bool
	CallbackErr error
}

type pendingRequest struct {
	req        Request
	consumer   Consumer
	preSeed    thor.Bytes32
	commitment thor.Bytes32
}

// Mock is an in-process VRF coordinator for development networks and tests.
// Words are derived from an ECVRF proof over a per-request seed; overrides
// allow tests to inject exact words.
type Mock struct {
	mu            sync.Mutex
	key           *ecdsa.PrivateKey
	address       thor.Address
	baseFee       *big.Int
	gasPriceLink  *big.Int
	subs          map[uint64]*Subscription
	nextSubID     uint64
	nextRequestID uint64
	nonces        map[thor.Address]uint64
	requests      map[types.RequestID]*pendingRequest
	proofs        map[types.RequestID]Proof

	log  *types.Log
	sink types.Sink
}

var _ Coordinator = (*Mock)(nil)

type MockOption func(*Mock)

// WithKey sets the VRF signing key. The oracle address derives from it.
func WithKey(sk *ecdsa.PrivateKey) MockOption {
	return func(m *Mock) {
		m.key = sk
	}
}

// WithSink forwards the mock's event records to s.
func WithSink(s types.Sink) MockOption {
	return func(m *Mock) {
		m.sink = s
	}
}

func NewMock(baseFee, gasPriceLink *big.Int, opts ...MockOption) (*Mock, error) {
	if baseFee == nil || baseFee.Sign() < 0 || gasPriceLink == nil || gasPriceLink.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	m := &Mock{
		baseFee:       new(big.Int).Set(baseFee),
		gasPriceLink:  new(big.Int).Set(gasPriceLink),
		subs:          make(map[uint64]*Subscription),
		nextSubID:     1,
		nextRequestID: 1,
		nonces:        make(map[thor.Address]uint64),
		requests:      make(map[types.RequestID]*pendingRequest),
		proofs:        make(map[types.RequestID]Proof),
		log:           types.NewLog("oracle"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.key == nil {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate vrf key: %w", err)
		}
		m.key = key
	}
	m.address = thor.Address(crypto.PubkeyToAddress(m.key.PublicKey))

	slog.Info("mock vrf coordinator created", "address", m.address, "base_fee", m.baseFee, "gas_price_link", m.gasPriceLink)
	return m, nil
}

// Address is the identity the mock presents to consumers on callbacks.
func (m *Mock) Address() thor.Address {
	return m.address
}

func (m *Mock) PublicKey() *ecdsa.PublicKey {
	return &m.key.PublicKey
}

// Log returns the mock's own event log.
func (m *Mock) Log() *types.Log {
	return m.log
}

func (m *Mock) CreateSubscription(owner thor.Address) uint64 {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = &Subscription{
		ID:      id,
		Owner:   owner,
		Balance: new(big.Int),
	}
	m.mu.Unlock()

	m.emit(SubscriptionCreated{SubscriptionID: id, Owner: owner})
	return id
}

func (m *Mock) FundSubscription(subID uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	m.mu.Lock()
	sub, ok := m.subs[subID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidSubscription, subID)
	}
	old := new(big.Int).Set(sub.Balance)
	sub.Balance.Add(sub.Balance, amount)
	funded := SubscriptionFunded{SubscriptionID: subID, OldBalance: old, NewBalance: new(big.Int).Set(sub.Balance)}
	m.mu.Unlock()

	m.emit(funded)
	return nil
}

// CancelSubscription refunds the remaining balance to `to` and deletes the
// subscription. Subscriptions with requests in flight cannot be canceled.
func (m *Mock) CancelSubscription(subID uint64, to thor.Address) error {
	m.mu.Lock()
	sub, ok := m.subs[subID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidSubscription, subID)
	}
	for _, pr := range m.requests {
		if pr.req.SubscriptionID == subID {
			m.mu.Unlock()
			return ErrPendingRequestExists
		}
	}
	delete(m.subs, subID)
	m.mu.Unlock()

	m.emit(SubscriptionCanceled{SubscriptionID: subID, To: to, Amount: sub.Balance})
	return nil
}

// GetSubscription returns a copy of the subscription state.
func (m *Mock) GetSubscription(subID uint64) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[subID]
	if !ok {
		return Subscription{}, fmt.Errorf("%w: %d", ErrInvalidSubscription, subID)
	}
	consumers := make([]thor.Address, len(sub.Consumers))
	copy(consumers, sub.Consumers)
	return Subscription{
		ID:        sub.ID,
		Owner:     sub.Owner,
		Balance:   new(big.Int).Set(sub.Balance),
		Consumers: consumers,
	}, nil
}

func (m *Mock) AddConsumer(subID uint64, consumer thor.Address) error {
	m.mu.Lock()
	sub, ok := m.subs[subID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidSubscription, subID)
	}
	if containsAddress(sub.Consumers, consumer) {
		// idempotent
		m.mu.Unlock()
		return nil
	}
	if len(sub.Consumers) >= config.MaxConsumers {
		m.mu.Unlock()
		return ErrTooManyConsumers
	}
	sub.Consumers = append(sub.Consumers, consumer)
	m.mu.Unlock()

	m.emit(ConsumerAdded{SubscriptionID: subID, Consumer: consumer})
	return nil
}

func (m *Mock) RemoveConsumer(subID uint64, consumer thor.Address) error {
	m.mu.Lock()
	sub, ok := m.subs[subID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidSubscription, subID)
	}
	idx := -1
	for i, c := range sub.Consumers {
		if c == consumer {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidConsumer, consumer)
	}
	last := len(sub.Consumers) - 1
	sub.Consumers[idx] = sub.Consumers[last]
	sub.Consumers = sub.Consumers[:last]
	m.mu.Unlock()

	m.emit(ConsumerRemoved{SubscriptionID: subID, Consumer: consumer})
	return nil
}

func (m *Mock) ConsumerIsAdded(subID uint64, consumer thor.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[subID]
	return ok && containsAddress(sub.Consumers, consumer)
}

// RequestRandomWords records the request and returns its id. Ids are
// sequential and start at 1.
func (m *Mock) RequestRandomWords(ctx context.Context, consumer Consumer, req Request) (types.RequestID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if consumer == nil {
		return 0, ErrInvalidConsumer
	}
	if req.RequestConfirmations > config.MaxRequestConfirmations {
		return 0, fmt.Errorf("%w: %d > %d", ErrInvalidRequestConfirmations, req.RequestConfirmations, config.MaxRequestConfirmations)
	}
	if req.CallbackGasLimit > config.MaxCallbackGasLimit {
		return 0, fmt.Errorf("%w: %d > %d", ErrGasLimitTooBig, req.CallbackGasLimit, config.MaxCallbackGasLimit)
	}
	if req.NumWords == 0 {
		return 0, ErrInvalidRandomWords
	}
	if req.NumWords > config.MaxNumWords {
		return 0, fmt.Errorf("%w: %d > %d", ErrNumWordsTooBig, req.NumWords, config.MaxNumWords)
	}

	sender := consumer.Address()

	m.mu.Lock()
	sub, ok := m.subs[req.SubscriptionID]
	if !ok {
		m.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrInvalidSubscription, req.SubscriptionID)
	}
	if !containsAddress(sub.Consumers, sender) {
		m.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrInvalidConsumer, sender)
	}

	id := types.RequestID(m.nextRequestID)
	nonce := m.nonces[sender] + 1
	preSeed := PreSeed(req.KeyHash, sender, req.SubscriptionID, nonce)
	commitment, err := commit(id, req, sender, preSeed)
	if err != nil {
		m.mu.Unlock()
		return 0, err
	}
	m.nextRequestID++
	m.nonces[sender] = nonce
	m.requests[id] = &pendingRequest{
		req:        req,
		consumer:   consumer,
		preSeed:    preSeed,
		commitment: commitment,
	}
	m.mu.Unlock()

	m.emit(RequestReceived{
		RequestID:            id,
		KeyHash:              req.KeyHash,
		PreSeed:              preSeed,
		SubscriptionID:       req.SubscriptionID,
		RequestConfirmations: req.RequestConfirmations,
		CallbackGasLimit:     req.CallbackGasLimit,
		NumWords:             req.NumWords,
		Sender:               sender,
	})
	return id, nil
}

// FulfillRandomWords answers request id with VRF-derived words.
func (m *Mock) FulfillRandomWords(ctx context.Context, id types.RequestID) (*Fulfillment, error) {
	return m.FulfillRandomWordsWithOverride(ctx, id, nil)
}

// FulfillRandomWordsWithOverride answers request id with the given words, or
// with VRF-derived words when words is nil. The request is consumed even when
// the consumer rejects the callback.
func (m *Mock) FulfillRandomWordsWithOverride(ctx context.Context, id types.RequestID, words []*big.Int) (*Fulfillment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	pr, ok := m.requests[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNonexistentRequest, id)
	}
	sender := pr.consumer.Address()
	commitment, err := commit(id, pr.req, sender, pr.preSeed)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if commitment != pr.commitment {
		m.mu.Unlock()
		return nil, ErrIncorrectCommitment
	}

	var (
		outputSeed thor.Bytes32
		proof      *Proof
	)
	if words == nil {
		beta, p, err := prove(m.key, Alpha(pr.preSeed, id))
		if err != nil {
			m.mu.Unlock()
			return nil, fmt.Errorf("failed to prove randomness: %w", err)
		}
		words = ExpandWords(beta, pr.req.NumWords)
		outputSeed = OutputSeed(beta)
		proof = &p
	} else {
		if uint32(len(words)) != pr.req.NumWords {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidRandomWords, pr.req.NumWords, len(words))
		}
		outputSeed = thor.Blake2b(Alpha(pr.preSeed, id))
	}

	payment := m.payment(pr.req)
	sub, ok := m.subs[pr.req.SubscriptionID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrInvalidSubscription, pr.req.SubscriptionID)
	}
	if sub.Balance.Cmp(payment) < 0 {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: balance %s, payment %s", ErrInsufficientBalance, sub.Balance, payment)
	}
	sub.Balance.Sub(sub.Balance, payment)
	delete(m.requests, id)
	if proof != nil {
		m.proofs[id] = *proof
	}
	m.mu.Unlock()

	callbackErr := pr.consumer.RawFulfillRandomWords(ctx, m.address, id, words)
	if callbackErr != nil {
		slog.Warn("consumer rejected random words", "request_id", id, "consumer", sender, "error", callbackErr)
	}

	m.emit(RandomWordsFulfilled{
		RequestID:  id,
		OutputSeed: outputSeed,
		Payment:    payment,
		Success:    callbackErr == nil,
	})

	return &Fulfillment{
		RequestID:   id,
		Words:       words,
		Payment:     payment,
		Success:     callbackErr == nil,
		CallbackErr: callbackErr,
	}, nil
}

// Proof returns the VRF proof of a fulfilled request. Overridden
// fulfillments carry no proof.
func (m *Mock) Proof(id types.RequestID) (Proof, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proofs[id]
	return p, ok
}

// Pending returns the ids of requests awaiting fulfillment, ascending.
func (m *Mock) Pending() []types.RequestID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]types.RequestID, 0, len(m.requests))
	for id := range m.requests {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Payment is the amount charged when the request is fulfilled.
func (m *Mock) Payment(req Request) *big.Int {
	return m.payment(req)
}

func (m *Mock) payment(req Request) *big.Int {
	gas := new(big.Int).SetUint64(uint64(req.CallbackGasLimit))
	fee := new(big.Int).Mul(gas, m.gasPriceLink)
	return fee.Add(fee, m.baseFee)
}

func (m *Mock) emit(events ...types.Event) {
	records := m.log.Append(events...)
	if m.sink != nil {
		m.sink.Emit(records...)
	}
}

func commit(id types.RequestID, req Request, sender thor.Address, preSeed thor.Bytes32) (thor.Bytes32, error) {
	enc, err := rlp.EncodeToBytes([]interface{}{
		uint64(id),
		preSeed,
		req.SubscriptionID,
		uint64(req.CallbackGasLimit),
		uint64(req.NumWords),
		sender,
	})
	if err != nil {
		return thor.Bytes32{}, fmt.Errorf("failed to encode request commitment: %w", err)
	}
	return thor.Blake2b(enc), nil
}

func containsAddress(list []thor.Address, addr thor.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}
