package idxtable

import (
	"fmt"

	"github.com/henderiw/itree/pkg/interval"
	"k8s.io/apimachinery/pkg/labels"
)

type Entry[N interval.Number] interface {
	ID() string
	Range() interval.Range[N]
	Labels() labels.Set
	String() string
	Equal(e2 Entry[N]) bool
}

type entry[N interval.Number] struct {
	id     string
	rng    interval.Range[N]
	labels labels.Set
}
type Entries[N interval.Number] []Entry[N]

func (r entry[N]) ID() string               { return r.id }
func (r entry[N]) Range() interval.Range[N] { return r.rng }
func (r entry[N]) Labels() labels.Set       { return r.labels }
func (r entry[N]) String() string {
	return fmt.Sprintf("id: %s, range: %s, labels: %s", r.id, r.rng, r.labels.String())
}
func (r entry[N]) Equal(e2 Entry[N]) bool {
	if r.ID() == e2.ID() &&
		r.Range() == e2.Range() &&
		r.labels.String() == e2.Labels().String() {
		return true
	}
	return false
}

func NewEntry[N interval.Number](id string, rng interval.Range[N], l labels.Set) Entry[N] {
	return entry[N]{
		id:     id,
		rng:    rng,
		labels: l,
	}
}
