package types

import (
	"strconv"

	"github.com/vechain/thor/v2/thor"
)

// RequestID is the oracle-issued identifier correlating a randomness
// request with its callback. It is opaque to the coordinator.
type RequestID uint64

func (id RequestID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

type RequestStatus byte

const (
	StatusPending RequestStatus = iota + 1
	StatusFulfilled
)

func (s RequestStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFulfilled:
		return "fulfilled"
	default:
		return "unknown"
	}
}

// Panel is the ordered list of jurors produced by one fulfillment.
type Panel []thor.Address

// Strings returns the hex form of every juror, in panel order.
func (p Panel) Strings() []string {
	out := make([]string, 0, len(p))
	for _, addr := range p {
		out = append(out, addr.String())
	}
	return out
}
