package jury

import (
	"errors"

	"github.com/vechain/thor/v2/thor"
	"github.com/vechain/vrfjury/config"
)

// Config is fixed at construction and only exposed through read-only
// accessors on the Coordinator.
type Config struct {
	// OracleAddress is the only caller allowed to deliver random words.
	OracleAddress thor.Address
	// ConsumerAddress identifies the coordinator to the oracle.
	ConsumerAddress      thor.Address
	KeyHash              thor.Bytes32
	SubscriptionID       uint64
	CallbackGasLimit     uint32
	RequestConfirmations uint16
}

// ConfigFromNetwork fills the oracle parameters from a network preset.
func ConfigFromNetwork(n config.Network, oracleAddr, consumer thor.Address, subID uint64) Config {
	return Config{
		OracleAddress:        oracleAddr,
		ConsumerAddress:      consumer,
		KeyHash:              n.KeyHash,
		SubscriptionID:       subID,
		CallbackGasLimit:     n.CallbackGasLimit,
		RequestConfirmations: config.DefaultRequestConfirmations,
	}
}

func (c Config) Validate() error {
	if c.OracleAddress == (thor.Address{}) {
		return errors.New("oracle address is required")
	}
	if c.ConsumerAddress == (thor.Address{}) {
		return errors.New("consumer address is required")
	}
	if c.CallbackGasLimit == 0 {
		return errors.New("callback gas limit must be positive")
	}
	return nil
}
