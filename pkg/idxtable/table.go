package idxtable

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/henderiw/itree/pkg/interval"
	"k8s.io/apimachinery/pkg/labels"
)

var (
	ErrNotFound      = errors.New("entry not found")
	ErrAlreadyExists = errors.New("entry already exists")
	ErrOverlap       = errors.New("range overlaps an existing entry")
	ErrOutOfBounds   = errors.New("range out of bounds")
	ErrNoFreeRange   = errors.New("no free range found")
	ErrInvalidName   = errors.New("invalid entry name")
)

// IDFn names the entry for a range picked by the table.
type IDFn[N interval.Number] func(r interval.Range[N]) string

type Table[N interval.Number] interface {
	Name() string

	Get(id string) (Entry[N], error)
	Has(id string) bool
	Count() int

	Claim(id string, r interval.Range[N], l labels.Set) error
	ClaimRange(id, s string, l labels.Set) error
	ClaimDynamic(id string, size N, l labels.Set) (Entry[N], error)
	ClaimFree(size N, idFn IDFn[N], l labels.Set) (Entry[N], error)
	Update(id string, l labels.Set) error
	Release(id string) error
	ReleaseByLabel(selector labels.Selector) error

	Iterate() *Iterator[N]
	GetAll() Entries[N]
	GetByLabel(selector labels.Selector) Entries[N]

	Overlaps(r interval.Range[N]) (Entries[N], error)
	Contains(v N) Entries[N]
	IsFree(r interval.Range[N]) bool
	FindFree(size N) (interval.Range[N], error)

	Snapshot() interval.Tree[N]
	Clone() Table[N]

	PrintNodes()
}

// New returns an empty table holding ranges of N. Init entries are claimed
// without running the validation function; all their errors are joined.
func New[N interval.Number](name string, opts ...Option[N]) (Table[N], error) {
	r := &table[N]{
		m:      new(sync.RWMutex),
		name:   name,
		labels: map[string]labels.Set{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("table", name)

	var errm error
	for _, e := range r.initEntries {
		if err := r.add(e.ID(), e.Range(), e.Labels(), true); err != nil {
			errm = errors.Join(errm, err)
		}
	}
	r.initEntries = nil

	return r, errm
}

type table[N interval.Number] struct {
	m    *sync.RWMutex
	name string
	// tree is replaced on every mutation, never modified in place
	tree   interval.Tree[N]
	labels map[string]labels.Set

	bounds      *interval.Range[N]
	exclusive   bool
	validateFn  ValidationFn[N]
	initEntries Entries[N]
	logger      *slog.Logger
}

func (r *table[N]) Name() string { return r.name }

func (r *table[N]) validate(id string, rng interval.Range[N], init bool) error {
	if !rng.IsValid() {
		return errors.Wrapf(interval.ErrInvalidRange, "table %s, entry %s, range %s", r.name, id, rng)
	}
	if r.bounds != nil && !rng.CoveredBy(*r.bounds) {
		return errors.Wrapf(ErrOutOfBounds, "table %s, entry %s, range %s, bounds %s", r.name, id, rng, *r.bounds)
	}
	if r.validateFn != nil && !init {
		if err := r.validateFn(id, rng); err != nil {
			return err
		}
	}
	return nil
}

func (r *table[N]) Get(id string) (Entry[N], error) {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.get(id)
}

func (r *table[N]) get(id string) (Entry[N], error) {
	l, ok := r.labels[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "table %s, entry %s", r.name, id)
	}
	item, _ := r.tree.Get(id)
	return NewEntry(id, item.Range, l), nil
}

func (r *table[N]) Has(id string) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	_, ok := r.labels[id]
	return ok
}

func (r *table[N]) Count() int {
	r.m.RLock()
	defer r.m.RUnlock()

	return len(r.labels)
}

func (r *table[N]) Claim(id string, rng interval.Range[N], l labels.Set) error {
	r.m.Lock()
	defer r.m.Unlock()

	return r.add(id, rng, l, false)
}

// ClaimRange claims the range written as "low-high".
func (r *table[N]) ClaimRange(id, s string, l labels.Set) error {
	rng, err := interval.ParseRange[N](s)
	if err != nil {
		return errors.Wrapf(err, "table %s, entry %s", r.name, id)
	}
	return r.Claim(id, rng, l)
}

// ClaimDynamic claims the first free range of size values.
func (r *table[N]) ClaimDynamic(id string, size N, l labels.Set) (Entry[N], error) {
	return r.ClaimFree(size, func(interval.Range[N]) string { return id }, l)
}

// ClaimFree claims the first free range of size values under the id idFn
// derives from it. Finding and claiming happen under the same lock.
func (r *table[N]) ClaimFree(size N, idFn IDFn[N], l labels.Set) (Entry[N], error) {
	r.m.Lock()
	defer r.m.Unlock()

	rng, err := r.findFree(size)
	if err != nil {
		return nil, err
	}
	id := idFn(rng)
	if err := r.add(id, rng, l, false); err != nil {
		return nil, err
	}
	return NewEntry(id, rng, l), nil
}

// Update replaces the labels of an existing entry.
func (r *table[N]) Update(id string, l labels.Set) error {
	r.m.Lock()
	defer r.m.Unlock()

	if _, ok := r.labels[id]; !ok {
		return errors.Wrapf(ErrNotFound, "table %s, entry %s", r.name, id)
	}
	r.labels[id] = l
	r.logger.Debug("update", "id", id, "labels", l.String())
	return nil
}

// Release removes the entry. Releasing an unknown id is not an error.
func (r *table[N]) Release(id string) error {
	r.m.Lock()
	defer r.m.Unlock()

	r.delete(id)
	return nil
}

func (r *table[N]) ReleaseByLabel(selector labels.Selector) error {
	r.m.Lock()
	defer r.m.Unlock()

	for _, e := range r.getByLabel(selector) {
		r.delete(e.ID())
	}
	return nil
}

func (r *table[N]) Iterate() *Iterator[N] {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.iterate()
}

func (r *table[N]) iterate() *Iterator[N] {
	return &Iterator[N]{current: -1, entries: r.sorted(r.tree.ToMap())}
}

func (r *table[N]) sorted(items map[string]interval.Item[N]) Entries[N] {
	entries := make(Entries[N], 0, len(items))
	for id, item := range items {
		entries = append(entries, NewEntry(id, item.Range, r.labels[id]))
	}
	sort.Slice(entries, func(i, j int) bool {
		ri, rj := entries[i].Range(), entries[j].Range()
		if ri != rj {
			return ri.Less(rj)
		}
		return entries[i].ID() < entries[j].ID()
	})
	return entries
}

func (r *table[N]) GetAll() Entries[N] {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.sorted(r.tree.ToMap())
}

func (r *table[N]) GetByLabel(selector labels.Selector) Entries[N] {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.getByLabel(selector)
}

func (r *table[N]) getByLabel(selector labels.Selector) Entries[N] {
	entries := Entries[N]{}
	iter := r.iterate()
	for iter.Next() {
		if selector.Matches(iter.Value().Labels()) {
			entries = append(entries, iter.Value())
		}
	}
	return entries
}

// Overlaps returns the entries sharing at least one value with rng, sorted by
// range.
func (r *table[N]) Overlaps(rng interval.Range[N]) (Entries[N], error) {
	r.m.RLock()
	defer r.m.RUnlock()

	items, err := r.tree.QueryIntersection(rng)
	if err != nil {
		return nil, errors.Wrapf(err, "table %s", r.name)
	}
	return r.sorted(items), nil
}

// Contains returns the entries whose range holds v, sorted by range.
func (r *table[N]) Contains(v N) Entries[N] {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.sorted(r.tree.Stab(v))
}

// IsFree returns whether rng lies within the bounds and overlaps no entry.
func (r *table[N]) IsFree(rng interval.Range[N]) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.isFree(rng)
}

func (r *table[N]) isFree(rng interval.Range[N]) bool {
	if r.bounds != nil && !rng.CoveredBy(*r.bounds) {
		return false
	}
	found, err := r.tree.Intersects(rng)
	return err == nil && !found
}

// FindFree returns the lowest range of size values within the bounds that
// overlaps no entry. Sizes count integer values, so it is meant for tables
// over integer types.
func (r *table[N]) FindFree(size N) (interval.Range[N], error) {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.findFree(size)
}

func (r *table[N]) findFree(size N) (interval.Range[N], error) {
	if size < 1 {
		return interval.Range[N]{}, errors.Newf("table %s, invalid size %v", r.name, size)
	}
	if r.bounds == nil {
		return interval.Range[N]{}, errors.Wrapf(ErrNoFreeRange, "table %s has no bounds", r.name)
	}
	cursor := r.bounds.Low
	iter := r.iterate()
	for iter.Next() {
		rng := iter.Value().Range()
		if rng.High < cursor {
			continue
		}
		if rng.Low > cursor && rng.Low-cursor >= size {
			return interval.RangeFrom(cursor, cursor+size-1), nil
		}
		next := rng.High + 1
		if next <= rng.High || next > r.bounds.High {
			return interval.Range[N]{}, errors.Wrapf(ErrNoFreeRange, "table %s, size %v", r.name, size)
		}
		cursor = next
	}
	if r.bounds.High-cursor >= size-1 {
		return interval.RangeFrom(cursor, cursor+size-1), nil
	}
	return interval.Range[N]{}, errors.Wrapf(ErrNoFreeRange, "table %s, size %v", r.name, size)
}

// Snapshot returns the current tree. It is immutable and can be read without
// holding any lock while the table keeps changing.
func (r *table[N]) Snapshot() interval.Tree[N] {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.tree
}

// Clone returns an independent table with the same entries and options.
func (r *table[N]) Clone() Table[N] {
	r.m.RLock()
	defer r.m.RUnlock()

	l := make(map[string]labels.Set, len(r.labels))
	for id, s := range r.labels {
		l[id] = s
	}
	return &table[N]{
		m:          new(sync.RWMutex),
		name:       r.name,
		tree:       r.tree,
		labels:     l,
		bounds:     r.bounds,
		exclusive:  r.exclusive,
		validateFn: r.validateFn,
		logger:     r.logger,
	}
}

func (r *table[N]) add(id string, rng interval.Range[N], l labels.Set, init bool) error {
	if err := r.validate(id, rng, init); err != nil {
		return err
	}
	if _, ok := r.labels[id]; ok {
		return errors.Wrapf(ErrAlreadyExists, "table %s, entry %s", r.name, id)
	}
	if r.exclusive {
		var ids []string
		_ = r.tree.Visit(rng, func(item interval.Item[N]) bool {
			ids = append(ids, item.ID)
			return true
		})
		if len(ids) > 0 {
			sort.Strings(ids)
			return errors.Wrapf(ErrOverlap, "table %s, entry %s, range %s, overlapping %v", r.name, id, rng, ids)
		}
	}
	t, err := r.tree.Insert(interval.Item[N]{ID: id, Range: rng})
	if err != nil {
		return err
	}
	if l == nil {
		l = labels.Set{}
	}
	r.tree = t
	r.labels[id] = l
	r.logger.Debug("claim", "id", id, "range", rng.String(), "labels", l.String())
	return nil
}

func (r *table[N]) delete(id string) {
	if _, ok := r.labels[id]; !ok {
		return
	}
	r.tree = r.tree.Remove(id)
	delete(r.labels, id)
	r.logger.Debug("release", "id", id)
}

// note: this is only used for unit testing
// nolint
func (r *table[N]) PrintNodes() {
	iter := r.tree.Iterate()
	for iter.Next() {
		p := iter.Payload()
		fmt.Println("node", p.Item, "lowest", p.LowestEndpointInSubtree, "highest", p.HighestEndpointInSubtree, "labels", r.labels[p.Item.ID])
	}
}
