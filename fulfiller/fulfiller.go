// Package fulfiller answers randomness requests through the mock coordinator
// on development networks, standing in for the off-chain oracle node.
package fulfiller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vechain/vrfjury/common"
	"github.com/vechain/vrfjury/config"
	"github.com/vechain/vrfjury/oracle"
	"github.com/vechain/vrfjury/types"
)

type Fulfiller struct {
	mock   *oracle.Mock
	delay  time.Duration
	ctx    context.Context
	cancel context.CancelFunc
}

func New(mock *oracle.Mock, delay time.Duration) *Fulfiller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Fulfiller{
		mock:   mock,
		delay:  delay,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handle fulfills the request announced by an oracle RequestReceived record
// after the configured delay. It is a pubsub handler.
func (f *Fulfiller) Handle(rec *types.Record) error {
	ev, ok := rec.Event.(oracle.RequestReceived)
	if !ok {
		return nil
	}

	if f.delay > 0 {
		timer := time.NewTimer(f.delay)
		select {
		case <-f.ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}

	return common.Retry(f.ctx, func() error {
		res, err := f.mock.FulfillRandomWords(f.ctx, ev.RequestID)
		if errors.Is(err, oracle.ErrNonexistentRequest) {
			slog.Debug("request already fulfilled", "request_id", ev.RequestID)
			return nil
		}
		if err != nil {
			slog.Warn("failed to fulfill random words, retrying", "request_id", ev.RequestID, "error", err)
			return err
		}
		slog.Info("🔮 random words fulfilled", "request_id", ev.RequestID, "success", res.Success, "payment", res.Payment)
		return nil
	}, config.DefaultRetryDelay, config.DefaultRetryTimeout)
}

// Close aborts pending fulfillments.
func (f *Fulfiller) Close() {
	f.cancel()
}
