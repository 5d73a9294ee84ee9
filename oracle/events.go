package oracle

import (
	"math/big"

	"github.com/vechain/thor/v2/thor"
	"github.com/vechain/vrfjury/types"
)

// Event names
const (
	SubscriptionCreatedEvent  = "subscription_created"
	SubscriptionFundedEvent   = "subscription_funded"
	SubscriptionCanceledEvent = "subscription_canceled"
	ConsumerAddedEvent        = "consumer_added"
	ConsumerRemovedEvent      = "consumer_removed"
	RequestReceivedEvent      = "oracle_random_words_requested"
	RandomWordsFulfilledEvent = "random_words_fulfilled"
)

type SubscriptionCreated struct {
	SubscriptionID uint64
	Owner          thor.Address
}

func (SubscriptionCreated) Name() string { return SubscriptionCreatedEvent }

type SubscriptionFunded struct {
	SubscriptionID uint64
	OldBalance     *big.Int
	NewBalance     *big.Int
}

func (SubscriptionFunded) Name() string { return SubscriptionFundedEvent }

type SubscriptionCanceled struct {
	SubscriptionID uint64
	To             thor.Address
	Amount         *big.Int
}

func (SubscriptionCanceled) Name() string { return SubscriptionCanceledEvent }

type ConsumerAdded struct {
	SubscriptionID uint64
	Consumer       thor.Address
}

func (ConsumerAdded) Name() string { return ConsumerAddedEvent }

type ConsumerRemoved struct {
	SubscriptionID uint64
	Consumer       thor.Address
}

func (ConsumerRemoved) Name() string { return ConsumerRemovedEvent }

// RequestReceived is the coordinator-side record of an accepted request.
type RequestReceived struct {
	RequestID            types.RequestID
	KeyHash              thor.Bytes32
	PreSeed              thor.Bytes32
	SubscriptionID       uint64
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NumWords             uint32
	Sender               thor.Address
}

func (RequestReceived) Name() string { return RequestReceivedEvent }

type RandomWordsFulfilled struct {
	RequestID  types.RequestID
	OutputSeed thor.Bytes32
	Payment    *big.Int
	Success    bool
}

func (RandomWordsFulfilled) Name() string { return RandomWordsFulfilledEvent }
