package oracle

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/thor/v2/thor"
	"github.com/vechain/vrfjury/types"
)

type recordingConsumer struct {
	addr   thor.Address
	err    error
	caller thor.Address
	ids    []types.RequestID
	words  [][]*big.Int
}

func (c *recordingConsumer) Address() thor.Address { return c.addr }

func (c *recordingConsumer) RawFulfillRandomWords(_ context.Context, caller thor.Address, id types.RequestID, words []*big.Int) error {
	c.caller = caller
	c.ids = append(c.ids, id)
	c.words = append(c.words, words)
	return c.err
}

var (
	owner    = thor.BytesToAddress([]byte("owner"))
	consumer = thor.BytesToAddress([]byte("consumer"))
	keyHash  = thor.Blake2b([]byte("gas lane"))
)

func newFundedMock(t *testing.T, c *recordingConsumer) (*Mock, uint64) {
	t.Helper()
	m, err := NewMock(big.NewInt(250), big.NewInt(1))
	require.NoError(t, err)
	sub := m.CreateSubscription(owner)
	require.NoError(t, m.FundSubscription(sub, big.NewInt(1_000_000_000)))
	require.NoError(t, m.AddConsumer(sub, c.Address()))
	return m, sub
}

func request(sub uint64, words uint32) Request {
	return Request{
		KeyHash:              keyHash,
		SubscriptionID:       sub,
		RequestConfirmations: 3,
		CallbackGasLimit:     500000,
		NumWords:             words,
	}
}

func TestNewMock_RejectsNegativeFees(t *testing.T) {
	_, err := NewMock(big.NewInt(-1), big.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = NewMock(big.NewInt(1), nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMock_AddressDerivesFromKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	m, err := NewMock(big.NewInt(0), big.NewInt(0), WithKey(key))
	require.NoError(t, err)
	assert.Equal(t, thor.Address(crypto.PubkeyToAddress(key.PublicKey)), m.Address())
	assert.Equal(t, &key.PublicKey, m.PublicKey())
}

func TestMock_Subscriptions(t *testing.T) {
	m, err := NewMock(big.NewInt(0), big.NewInt(0))
	require.NoError(t, err)

	first := m.CreateSubscription(owner)
	second := m.CreateSubscription(owner)
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)

	require.NoError(t, m.FundSubscription(first, big.NewInt(10)))
	require.NoError(t, m.FundSubscription(first, big.NewInt(5)))
	assert.ErrorIs(t, m.FundSubscription(first, big.NewInt(0)), ErrInvalidAmount)
	assert.ErrorIs(t, m.FundSubscription(99, big.NewInt(1)), ErrInvalidSubscription)

	sub, err := m.GetSubscription(first)
	require.NoError(t, err)
	assert.Equal(t, owner, sub.Owner)
	assert.Equal(t, int64(15), sub.Balance.Int64())

	// returned state is a copy
	sub.Balance.SetInt64(0)
	again, err := m.GetSubscription(first)
	require.NoError(t, err)
	assert.Equal(t, int64(15), again.Balance.Int64())

	require.NoError(t, m.CancelSubscription(first, owner))
	_, err = m.GetSubscription(first)
	assert.ErrorIs(t, err, ErrInvalidSubscription)

	events := m.Log().Events()
	require.Len(t, events, 5)
	canceled, ok := events[4].(SubscriptionCanceled)
	require.True(t, ok)
	assert.Equal(t, int64(15), canceled.Amount.Int64())
}

func TestMock_Consumers(t *testing.T) {
	m, err := NewMock(big.NewInt(0), big.NewInt(0))
	require.NoError(t, err)
	sub := m.CreateSubscription(owner)

	require.NoError(t, m.AddConsumer(sub, consumer))
	require.NoError(t, m.AddConsumer(sub, consumer))
	assert.True(t, m.ConsumerIsAdded(sub, consumer))

	got, err := m.GetSubscription(sub)
	require.NoError(t, err)
	assert.Len(t, got.Consumers, 1)

	require.NoError(t, m.RemoveConsumer(sub, consumer))
	assert.False(t, m.ConsumerIsAdded(sub, consumer))
	assert.ErrorIs(t, m.RemoveConsumer(sub, consumer), ErrInvalidConsumer)
	assert.ErrorIs(t, m.AddConsumer(42, consumer), ErrInvalidSubscription)
}

func TestMock_TooManyConsumers(t *testing.T) {
	m, err := NewMock(big.NewInt(0), big.NewInt(0))
	require.NoError(t, err)
	sub := m.CreateSubscription(owner)

	for i := 0; i < 100; i++ {
		require.NoError(t, m.AddConsumer(sub, thor.BytesToAddress([]byte{byte(i), 1})))
	}
	assert.ErrorIs(t, m.AddConsumer(sub, consumer), ErrTooManyConsumers)
}

func TestMock_RequestValidation(t *testing.T) {
	c := &recordingConsumer{addr: consumer}
	m, sub := newFundedMock(t, c)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		err  error
	}{
		{"zero words", request(sub, 0), ErrInvalidRandomWords},
		{"too many words", request(sub, 501), ErrNumWordsTooBig},
		{"unknown subscription", request(sub+1, 1), ErrInvalidSubscription},
		{"confirmations", func() Request { r := request(sub, 1); r.RequestConfirmations = 201; return r }(), ErrInvalidRequestConfirmations},
		{"gas limit", func() Request { r := request(sub, 1); r.CallbackGasLimit = 2_500_001; return r }(), ErrGasLimitTooBig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.RequestRandomWords(ctx, c, tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	stranger := &recordingConsumer{addr: thor.BytesToAddress([]byte("stranger"))}
	_, err := m.RequestRandomWords(ctx, stranger, request(sub, 1))
	assert.ErrorIs(t, err, ErrInvalidConsumer)
	assert.Empty(t, m.Pending())
}

func TestMock_RequestIDsAreSequential(t *testing.T) {
	c := &recordingConsumer{addr: consumer}
	m, sub := newFundedMock(t, c)

	for want := types.RequestID(1); want <= 3; want++ {
		id, err := m.RequestRandomWords(context.Background(), c, request(sub, 1))
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
	assert.Equal(t, []types.RequestID{1, 2, 3}, m.Pending())
}

func TestMock_FulfillDeliversVerifiableWords(t *testing.T) {
	c := &recordingConsumer{addr: consumer}
	m, sub := newFundedMock(t, c)
	ctx := context.Background()

	id, err := m.RequestRandomWords(ctx, c, request(sub, 3))
	require.NoError(t, err)

	f, err := m.FulfillRandomWords(ctx, id)
	require.NoError(t, err)
	assert.True(t, f.Success)
	assert.Len(t, f.Words, 3)
	assert.Equal(t, m.Address(), c.caller)
	assert.Equal(t, []types.RequestID{id}, c.ids)

	proof, ok := m.Proof(id)
	require.True(t, ok)
	words, err := VerifyWords(m.PublicKey(), proof, 3)
	require.NoError(t, err)
	assert.Equal(t, f.Words, words)

	// payment = 250 + 1 * 500000
	assert.Equal(t, int64(500250), f.Payment.Int64())
	got, err := m.GetSubscription(sub)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000-500250), got.Balance.Int64())

	_, err = m.FulfillRandomWords(ctx, id)
	assert.ErrorIs(t, err, ErrNonexistentRequest)
	assert.Empty(t, m.Pending())
}

func TestMock_VerifyRejectsTamperedProof(t *testing.T) {
	c := &recordingConsumer{addr: consumer}
	m, sub := newFundedMock(t, c)
	ctx := context.Background()

	id, err := m.RequestRandomWords(ctx, c, request(sub, 1))
	require.NoError(t, err)
	_, err = m.FulfillRandomWords(ctx, id)
	require.NoError(t, err)

	proof, ok := m.Proof(id)
	require.True(t, ok)
	proof.Alpha = []byte("another input")
	_, err = VerifyWords(m.PublicKey(), proof, 1)
	assert.ErrorIs(t, err, ErrInvalidProof)
}

func TestMock_FulfillWithOverride(t *testing.T) {
	c := &recordingConsumer{addr: consumer}
	m, sub := newFundedMock(t, c)
	ctx := context.Background()

	id, err := m.RequestRandomWords(ctx, c, request(sub, 1))
	require.NoError(t, err)

	_, err = m.FulfillRandomWordsWithOverride(ctx, id, []*big.Int{big.NewInt(1), big.NewInt(2)})
	assert.ErrorIs(t, err, ErrInvalidRandomWords)
	assert.Equal(t, []types.RequestID{id}, m.Pending())

	f, err := m.FulfillRandomWordsWithOverride(ctx, id, []*big.Int{big.NewInt(42)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), f.Words[0].Int64())
	_, ok := m.Proof(id)
	assert.False(t, ok)
}

func TestMock_ConsumerFailureStillConsumesRequest(t *testing.T) {
	c := &recordingConsumer{addr: consumer, err: errors.New("boom")}
	m, sub := newFundedMock(t, c)
	ctx := context.Background()

	id, err := m.RequestRandomWords(ctx, c, request(sub, 1))
	require.NoError(t, err)

	f, err := m.FulfillRandomWords(ctx, id)
	require.NoError(t, err)
	assert.False(t, f.Success)
	assert.EqualError(t, f.CallbackErr, "boom")
	assert.Empty(t, m.Pending())

	events := m.Log().Events()
	fulfilled, ok := events[len(events)-1].(RandomWordsFulfilled)
	require.True(t, ok)
	assert.False(t, fulfilled.Success)
}

func TestMock_InsufficientBalanceKeepsRequest(t *testing.T) {
	c := &recordingConsumer{addr: consumer}
	m, err := NewMock(big.NewInt(250), big.NewInt(1))
	require.NoError(t, err)
	sub := m.CreateSubscription(owner)
	require.NoError(t, m.FundSubscription(sub, big.NewInt(10)))
	require.NoError(t, m.AddConsumer(sub, consumer))
	ctx := context.Background()

	id, err := m.RequestRandomWords(ctx, c, request(sub, 1))
	require.NoError(t, err)

	_, err = m.FulfillRandomWords(ctx, id)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, []types.RequestID{id}, m.Pending())
	assert.Empty(t, c.ids)

	assert.ErrorIs(t, m.CancelSubscription(sub, owner), ErrPendingRequestExists)

	require.NoError(t, m.FundSubscription(sub, big.NewInt(1_000_000)))
	_, err = m.FulfillRandomWords(ctx, id)
	require.NoError(t, err)
	require.NoError(t, m.CancelSubscription(sub, owner))
}

func TestMock_ForwardsRecordsToSink(t *testing.T) {
	var got []types.Record
	sink := types.SinkFunc(func(records ...types.Record) { got = append(got, records...) })

	m, err := NewMock(big.NewInt(0), big.NewInt(0), WithSink(sink))
	require.NoError(t, err)
	m.CreateSubscription(owner)

	require.Len(t, got, 1)
	assert.Equal(t, "oracle", got[0].Source)
	assert.Equal(t, uint64(1), got[0].Seq)
	assert.Equal(t, SubscriptionCreatedEvent, got[0].Event.Name())
}
