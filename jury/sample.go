package jury

import (
	"math/big"

	"github.com/vechain/thor/v2/thor"
	"github.com/vechain/vrfjury/types"
)

// drawPanel picks one juror per word without replacement. Each word selects
// word mod len(pool) and the picked address is swapped out of the pool, so no
// juror appears twice. The caller guarantees len(words) <= len(pool).
func drawPanel(pool []thor.Address, words []*big.Int) types.Panel {
	remaining := make([]thor.Address, len(pool))
	copy(remaining, pool)

	panel := make(types.Panel, 0, len(words))
	var mod, idx big.Int
	for _, w := range words {
		mod.SetInt64(int64(len(remaining)))
		idx.Mod(w, &mod)
		j := int(idx.Int64())

		panel = append(panel, remaining[j])
		last := len(remaining) - 1
		remaining[j] = remaining[last]
		remaining = remaining[:last]
	}
	return panel
}

// eligible keeps the snapshot addresses that are still registered, in
// snapshot order.
func eligible(snapshot []thor.Address, registered func(thor.Address) bool) []thor.Address {
	out := make([]thor.Address, 0, len(snapshot))
	for _, addr := range snapshot {
		if registered(addr) {
			out = append(out, addr)
		}
	}
	return out
}
