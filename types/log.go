package types

import (
	"sync"
	"time"
)

// Record is an event as stored in a Log.
type Record struct {
	Seq       uint64
	Source    string
	Timestamp time.Time
	Event     Event
}

// Sink receives records after they were appended to a Log.
type Sink interface {
	Emit(records ...Record)
}

// Log is an append-only, ordered event log.
type Log struct {
	mu      sync.RWMutex
	source  string
	records []Record
	now     func() time.Time
}

func NewLog(source string) *Log {
	return &Log{
		source: source,
		now:    time.Now,
	}
}

// Append stamps the events with consecutive sequence numbers and returns the
// resulting records.
func (l *Log) Append(events ...Event) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, 0, len(events))
	for _, ev := range events {
		rec := Record{
			Seq:       uint64(len(l.records)) + 1,
			Source:    l.source,
			Timestamp: l.now().UTC(),
			Event:     ev,
		}
		l.records = append(l.records, rec)
		out = append(out, rec)
	}
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Records returns a copy of the log.
func (l *Log) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Since returns the records with a sequence number greater than seq.
func (l *Log) Since(seq uint64) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if seq >= uint64(len(l.records)) {
		return nil
	}
	out := make([]Record, len(l.records)-int(seq))
	copy(out, l.records[seq:])
	return out
}

// Events returns the events of the log without their envelopes.
func (l *Log) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, rec.Event)
	}
	return out
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(records ...Record)

func (f SinkFunc) Emit(records ...Record) { f(records...) }

// Fanout forwards records to every non-nil sink in order.
type Fanout []Sink

func (f Fanout) Emit(records ...Record) {
	for _, s := range f {
		if s != nil {
			s.Emit(records...)
		}
	}
}
