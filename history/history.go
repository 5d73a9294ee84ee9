// Package history keeps the most recent juror panels in memory.
package history

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/vechain/vrfjury/config"
	"github.com/vechain/vrfjury/types"
)

type Entry struct {
	Round      uint64
	RequestID  types.RequestID
	Panel      types.Panel
	SelectedAt time.Time
}

// Loader resolves rounds that were evicted from the cache.
type Loader func(round uint64) (Entry, bool)

type History struct {
	cache  *lru.Cache[uint64, Entry]
	loader Loader
	sf     singleflight.Group
}

func New(size int, loader Loader) (*History, error) {
	if size <= 0 {
		size = config.DefaultHistorySize
	}
	cache, err := lru.New[uint64, Entry](size)
	if err != nil {
		return nil, fmt.Errorf(config.ErrFailedToCreateCache, err)
	}
	return &History{cache: cache, loader: loader}, nil
}

// Record caches the panel of a JurorsSelected record. It is a pubsub handler.
func (h *History) Record(rec *types.Record) error {
	ev, ok := rec.Event.(types.JurorsSelected)
	if !ok {
		return nil
	}
	h.cache.Add(ev.Round, Entry{
		Round:      ev.Round,
		RequestID:  ev.RequestID,
		Panel:      ev.Panel,
		SelectedAt: rec.Timestamp,
	})
	return nil
}

// Panel returns the entry of round, consulting the loader on a cache miss.
func (h *History) Panel(round uint64) (Entry, bool) {
	if e, ok := h.cache.Get(round); ok {
		return e, true
	}
	if h.loader == nil {
		return Entry{}, false
	}

	v, _, _ := h.sf.Do(strconv.FormatUint(round, 10), func() (interface{}, error) {
		if e, ok := h.cache.Get(round); ok {
			return &e, nil
		}
		e, ok := h.loader(round)
		if !ok {
			return (*Entry)(nil), nil
		}
		h.cache.Add(round, e)
		return &e, nil
	})
	e := v.(*Entry)
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns the cached entries ordered by round.
func (h *History) Entries() []Entry {
	keys := h.cache.Keys()
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		if e, ok := h.cache.Peek(k); ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Round < out[j].Round })
	return out
}

func (h *History) Len() int {
	return h.cache.Len()
}
