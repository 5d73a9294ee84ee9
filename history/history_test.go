package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/thor/v2/thor"
	"github.com/vechain/vrfjury/types"
)

func selected(round uint64) *types.Record {
	return &types.Record{
		Seq:   round,
		Event: types.JurorsSelected{Round: round, RequestID: types.RequestID(round), Panel: types.Panel{thor.BytesToAddress([]byte{byte(round)})}},
	}
}

func TestHistory_KeepsMostRecentRounds(t *testing.T) {
	h, err := New(2, nil)
	require.NoError(t, err)

	for round := uint64(1); round <= 3; round++ {
		require.NoError(t, h.Record(selected(round)))
	}
	require.NoError(t, h.Record(&types.Record{Event: types.CandidateAdded{}}))

	assert.Equal(t, 2, h.Len())
	_, ok := h.Panel(1)
	assert.False(t, ok)

	entries := h.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(2), entries[0].Round)
	assert.Equal(t, uint64(3), entries[1].Round)
}

func TestHistory_LoaderFillsEvictedRounds(t *testing.T) {
	loads := 0
	h, err := New(1, func(round uint64) (Entry, bool) {
		loads++
		if round > 10 {
			return Entry{}, false
		}
		return Entry{Round: round, RequestID: types.RequestID(round)}, true
	})
	require.NoError(t, err)

	require.NoError(t, h.Record(selected(5)))

	e, ok := h.Panel(5)
	require.True(t, ok)
	assert.Len(t, e.Panel, 1)
	assert.Zero(t, loads)

	e, ok = h.Panel(4)
	require.True(t, ok)
	assert.Equal(t, types.RequestID(4), e.RequestID)
	assert.Equal(t, 1, loads)

	_, ok = h.Panel(11)
	assert.False(t, ok)
}
