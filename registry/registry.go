package registry

import (
	"github.com/vechain/thor/v2/thor"
	"github.com/vechain/vrfjury/types"
)

// Registry holds the addresses eligible for jury selection.
//
// candidates and isCandidate are kept in lockstep: an address is marked in
// isCandidate iff it appears exactly once in candidates. Removal swaps the
// last element into the vacated slot, so the order of candidates carries no
// meaning. A Registry is not safe for concurrent use.
type Registry struct {
	candidates  []thor.Address
	isCandidate map[thor.Address]bool
}

func New() *Registry {
	return &Registry{
		candidates:  make([]thor.Address, 0),
		isCandidate: make(map[thor.Address]bool),
	}
}

// Add appends addr to the registry.
func (r *Registry) Add(addr thor.Address) error {
	if r.isCandidate[addr] {
		return &types.AddressAlreadyAddedError{Address: addr}
	}
	r.candidates = append(r.candidates, addr)
	r.isCandidate[addr] = true
	return nil
}

// Remove deletes the candidate at index i and returns it. The last candidate
// takes its slot.
func (r *Registry) Remove(i int) (thor.Address, error) {
	if !r.inRange(i) {
		return thor.Address{}, &types.InvalidIndexError{Index: i}
	}
	removed := r.candidates[i]
	last := len(r.candidates) - 1

	delete(r.isCandidate, removed)
	r.candidates[i] = r.candidates[last]
	r.candidates[last] = thor.Address{}
	r.candidates = r.candidates[:last]

	return removed, nil
}

func (r *Registry) Len() int {
	return len(r.candidates)
}

func (r *Registry) At(i int) (thor.Address, error) {
	if !r.inRange(i) {
		return thor.Address{}, &types.InvalidIndexError{Index: i}
	}
	return r.candidates[i], nil
}

func (r *Registry) IsCandidate(addr thor.Address) bool {
	return r.isCandidate[addr]
}

// IndexOf returns the current slot of addr, or -1. It is linear in the
// registry size and meant for operators, not for the selection path.
func (r *Registry) IndexOf(addr thor.Address) int {
	if !r.isCandidate[addr] {
		return -1
	}
	for i, c := range r.candidates {
		if c == addr {
			return i
		}
	}
	return -1
}

// Snapshot returns a copy of the candidate sequence.
func (r *Registry) Snapshot() []thor.Address {
	out := make([]thor.Address, len(r.candidates))
	copy(out, r.candidates)
	return out
}

func (r *Registry) inRange(i int) bool {
	return i >= 0 && i < len(r.candidates)
}
