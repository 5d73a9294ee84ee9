package registry

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/thor/v2/thor"
	"github.com/vechain/vrfjury/types"
)

var (
	addrA = thor.MustParseAddress("0x1234567890123456789012345678901234567890")
	addrB = thor.MustParseAddress("0x2234567890123456789012345678901234567890")
	addrC = thor.MustParseAddress("0x3234567890123456789012345678901234567890")
)

func TestRegistry_AddTwice(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(addrA))

	err := r.Add(addrA)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrAddressAlreadyAdded))

	var dup *types.AddressAlreadyAddedError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, addrA, dup.Address)

	assert.Equal(t, 1, r.Len())
	assert.True(t, r.IsCandidate(addrA))
	assert.Equal(t, []thor.Address{addrA}, r.Snapshot())
}

func TestRegistry_RemoveSwapsLastIntoSlot(t *testing.T) {
	r := New()
	for _, a := range []thor.Address{addrA, addrB, addrC} {
		require.NoError(t, r.Add(a))
	}

	removed, err := r.Remove(0)
	require.NoError(t, err)
	assert.Equal(t, addrA, removed)

	assert.Equal(t, []thor.Address{addrC, addrB}, r.Snapshot())
	assert.Equal(t, 2, r.Len())
	assert.False(t, r.IsCandidate(addrA))
	assert.True(t, r.IsCandidate(addrB))
	assert.True(t, r.IsCandidate(addrC))
}

func TestRegistry_RemoveLastIsPop(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(addrA))
	require.NoError(t, r.Add(addrB))

	removed, err := r.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, addrB, removed)
	assert.Equal(t, []thor.Address{addrA}, r.Snapshot())
}

func TestRegistry_InvalidIndex(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(addrA))

	for _, i := range []int{-1, 1, 42} {
		_, err := r.Remove(i)
		require.Error(t, err)
		var idxErr *types.InvalidIndexError
		require.True(t, errors.As(err, &idxErr))
		assert.Equal(t, i, idxErr.Index)

		_, err = r.At(i)
		assert.True(t, errors.Is(err, types.ErrInvalidIndex))
	}

	assert.Equal(t, 1, r.Len())
	assert.True(t, r.IsCandidate(addrA))
}

func TestRegistry_ReAddAfterRemove(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(addrA))
	_, err := r.Remove(0)
	require.NoError(t, err)
	require.NoError(t, r.Add(addrA))
	assert.Equal(t, 0, r.IndexOf(addrA))
	assert.Equal(t, -1, r.IndexOf(addrB))
}

func TestRegistry_RandomOperationsKeepLockstep(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	pool := make([]thor.Address, 16)
	for i := range pool {
		pool[i] = thor.BytesToAddress([]byte{byte(i + 1)})
	}

	r := New()
	for step := 0; step < 2000; step++ {
		before := r.Snapshot()
		if rng.IntN(2) == 0 {
			addr := pool[rng.IntN(len(pool))]
			err := r.Add(addr)
			if contains(before, addr) {
				require.ErrorIs(t, err, types.ErrAddressAlreadyAdded)
				require.Equal(t, before, r.Snapshot())
			} else {
				require.NoError(t, err)
				require.Equal(t, len(before)+1, r.Len())
			}
		} else {
			i := rng.IntN(len(before)+2) - 1
			removed, err := r.Remove(i)
			if i < 0 || i >= len(before) {
				require.ErrorIs(t, err, types.ErrInvalidIndex)
				require.Equal(t, before, r.Snapshot())
			} else {
				require.NoError(t, err)
				require.Equal(t, before[i], removed)
				require.Equal(t, len(before)-1, r.Len())
				for _, a := range before {
					if a != removed {
						require.True(t, contains(r.Snapshot(), a))
					}
				}
			}
		}
		assertLockstep(t, r, pool)
	}
}

func assertLockstep(t *testing.T, r *Registry, pool []thor.Address) {
	t.Helper()
	seen := make(map[thor.Address]int)
	for _, a := range r.Snapshot() {
		seen[a]++
	}
	for a, n := range seen {
		require.Equal(t, 1, n, "duplicate candidate %s", a)
	}
	for _, a := range pool {
		require.Equal(t, seen[a] == 1, r.IsCandidate(a))
	}
	require.Equal(t, len(seen), len(r.isCandidate))
}

func contains(list []thor.Address, addr thor.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}
