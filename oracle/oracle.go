// Package oracle defines the contract between the jury coordinator and a
// verifiable-randomness coordinator, and ships a mock coordinator for
// development networks and tests.
package oracle

import (
	"context"
	"math/big"

	"github.com/vechain/thor/v2/thor"
	"github.com/vechain/vrfjury/types"
)

// Request is an outbound randomness request.
type Request struct {
	KeyHash              thor.Bytes32
	SubscriptionID       uint64
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NumWords             uint32
}

// Coordinator accepts randomness requests. It returns as soon as the request
// is accepted; the words are delivered later through the consumer.
type Coordinator interface {
	RequestRandomWords(ctx context.Context, consumer Consumer, req Request) (types.RequestID, error)
}

// Consumer receives random words. Implementations must reject callers other
// than the coordinator they trust.
type Consumer interface {
	Address() thor.Address
	RawFulfillRandomWords(ctx context.Context, caller thor.Address, id types.RequestID, words []*big.Int) error
}
