package types

import (
	"github.com/vechain/thor/v2/thor"
)

// Event names
const (
	CandidateAddedEvent       = "candidate_added"
	CandidateRemovedEvent     = "candidate_removed"
	RandomWordsRequestedEvent = "random_words_requested"
	JurorsSelectedEvent       = "jurors_selected"
)

// Event is anything appended to an event log.
type Event interface {
	Name() string
}

type CandidateAdded struct {
	Address thor.Address
}

func (CandidateAdded) Name() string { return CandidateAddedEvent }

// CandidateRemoved carries the index the address occupied before the
// swap-and-pop.
type CandidateRemoved struct {
	Address thor.Address
	Index   int
}

func (CandidateRemoved) Name() string { return CandidateRemovedEvent }

type RandomWordsRequested struct {
	RequestID RequestID
	Count     int
}

func (RandomWordsRequested) Name() string { return RandomWordsRequestedEvent }

// JurorsSelected is emitted once per fulfilled request. Round is the
// selection counter value after the increment.
type JurorsSelected struct {
	Round     uint64
	RequestID RequestID
	Panel     Panel
}

func (JurorsSelected) Name() string { return JurorsSelectedEvent }
