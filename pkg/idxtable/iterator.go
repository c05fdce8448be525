package idxtable

import "github.com/henderiw/itree/pkg/interval"

// Iterator walks a fixed list of entries ordered by range.
type Iterator[N interval.Number] struct {
	current int
	entries Entries[N]
}

func (r *Iterator[N]) Value() Entry[N] {
	return r.entries[r.current]
}

func (r *Iterator[N]) ID() string {
	return r.entries[r.current].ID()
}

func (r *Iterator[N]) Next() bool {
	r.current++
	return r.current < len(r.entries)
}

// IsConsecutive returns whether the current entry starts right after the
// previous one ends. Only meaningful for integer ranges.
func (r *Iterator[N]) IsConsecutive() bool {
	if r.current < 1 {
		return false
	}
	return r.entries[r.current-1].Range().High+1 == r.entries[r.current].Range().Low
}
