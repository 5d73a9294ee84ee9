package pubsub

import (
	"log/slog"
	"sync"

	"github.com/vechain/vrfjury/config"
	"github.com/vechain/vrfjury/types"
)

// Publisher feeds event records from the coordinator and the oracle into
// the subscriber's channel. It implements types.Sink.
type Publisher struct {
	recordChan chan *types.Record
	done       chan struct{}
	once       sync.Once
}

var _ types.Sink = (*Publisher)(nil)

func New(buffer int) (*Publisher, chan *types.Record) {
	if buffer <= 0 {
		buffer = config.DefaultChannelBuffer
	}
	recordChan := make(chan *types.Record, buffer)
	return &Publisher{
		recordChan: recordChan,
		done:       make(chan struct{}),
	}, recordChan
}

// Emit blocks while the channel is full. Records emitted after Close are
// dropped.
func (p *Publisher) Emit(records ...types.Record) {
	for i := range records {
		rec := records[i]
		select {
		case <-p.done:
			slog.Debug("publisher closed, dropping record", "source", rec.Source, "seq", rec.Seq, "event", rec.Event.Name())
			return
		default:
		}
		select {
		case p.recordChan <- &rec:
		case <-p.done:
			return
		}
	}
}

// Close stops delivery. The channel is left open so late emitters never
// panic; subscribers stop on their context.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.done)
	})
}
