package pubsub

import (
	"context"
	"log/slog"
	"sort"

	"github.com/vechain/vrfjury/config"
	"github.com/vechain/vrfjury/types"
)

// Handler processes one event record. Handlers receive every record and
// ignore the events they do not care about.
type Handler func(rec *types.Record) error

type Subscriber struct {
	recordChan chan *types.Record
	handlers   map[string]Handler
	names      []string
	workerPool *WorkerPool
}

func NewSubscriber(recordChan chan *types.Record, handlers map[string]Handler) *Subscriber {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Subscriber{
		recordChan: recordChan,
		handlers:   handlers,
		names:      names,
		workerPool: NewWorkerPool(config.DefaultWorkerPoolSize, config.DefaultTaskQueueSize),
	}
}

// Subscribe dispatches records to the handlers until ctx is done. Tasks
// already queued are completed before it returns.
func (s *Subscriber) Subscribe(ctx context.Context) {
	defer s.workerPool.Shutdown()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Subscriber context cancelled, shutting down worker pool")
			return
		case rec, ok := <-s.recordChan:
			if !ok {
				slog.Info("record channel closed, subscriber stopping")
				return
			}

			tasks := make([]Task, 0, len(s.handlers))
			for _, name := range s.names {
				tasks = append(tasks, Task{
					HandlerName: name,
					Handler:     s.handlers[name],
					Record:      rec,
				})
			}

			if err := s.workerPool.SubmitBatch(tasks); err != nil {
				slog.Error("Failed to submit tasks to worker pool", "error", err, "event", rec.Event.Name(), "seq", rec.Seq)
			}
		}
	}
}
