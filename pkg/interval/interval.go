// Package interval implements a persistent interval tree: an unbalanced
// binary search tree ordered by range low endpoint, where every node caches
// the lowest and highest endpoint of its subtree so overlap queries can skip
// subtrees that cannot intersect.
//
// Tree values are immutable. Insert and Remove return a new tree sharing all
// untouched subtrees with the old one, so any number of snapshots can be kept
// and read concurrently without locking.
package interval

import (
	"github.com/henderiw/itree/pkg/tree"
)

// Tree is an interval tree. The zero value is the empty tree.
type Tree[N Number] struct {
	root *tree.Node[Payload[N]]
}

// Empty returns the empty tree.
func Empty[N Number]() Tree[N] { return Tree[N]{} }

// Node builds a tree rooted at item with the given subtrees. The cached
// endpoints of the new root only cover item's own range; Insert computes
// them properly, callers assembling trees by hand can use NodeWithEndpoints
// and check the result with Validate.
func Node[N Number](item Item[N], left, right Tree[N]) (Tree[N], error) {
	return NodeWithEndpoints(item, left, right, item.Range.Low, item.Range.High)
}

// NodeWithEndpoints builds a tree rooted at item storing the given subtree
// endpoints as is.
func NodeWithEndpoints[N Number](item Item[N], left, right Tree[N], lowest, highest N) (Tree[N], error) {
	if !item.Range.IsValid() {
		return Tree[N]{}, newInvalidRangeError(&item, item.Range)
	}
	return Tree[N]{
		root: tree.NewNode(Payload[N]{
			Item:                     item,
			LowestEndpointInSubtree:  lowest,
			HighestEndpointInSubtree: highest,
		}, left.root, right.root),
	}, nil
}

// shouldBeLeftChild orders items by low endpoint, ties go right.
func shouldBeLeftChild[N Number](parent, candidate Payload[N]) bool {
	return candidate.Item.Range.Low < parent.Item.Range.Low
}

// updateEndpoints recomputes the cached endpoints of a rebuilt node from its
// item and the cached endpoints of its children.
func updateEndpoints[N Number](p Payload[N], left, right *tree.Node[Payload[N]]) Payload[N] {
	p.LowestEndpointInSubtree, p.HighestEndpointInSubtree = endpoints(p.Item.Range, left, right)
	return p
}

func endpoints[N Number](r Range[N], left, right *tree.Node[Payload[N]]) (lowest, highest N) {
	lowest, highest = r.Low, r.High
	for _, child := range [2]*tree.Node[Payload[N]]{left, right} {
		if child == nil {
			continue
		}
		lowest = min(lowest, child.Payload().LowestEndpointInSubtree)
		highest = max(highest, child.Payload().HighestEndpointInSubtree)
	}
	return lowest, highest
}

func (r Tree[N]) base() tree.Tree[Payload[N]] {
	return tree.New[Payload[N]](
		shouldBeLeftChild[N],
		tree.WithUpdatesFunc[Payload[N]](updateEndpoints[N]),
	).WithRoot(r.root)
}

// Insert returns a tree that also holds item. Items with equal low endpoints
// are kept; the tree is not rebalanced.
func (r Tree[N]) Insert(item Item[N]) (Tree[N], error) {
	if !item.Range.IsValid() {
		return r, newInvalidRangeError(&item, item.Range)
	}
	return Tree[N]{root: r.base().Insert(Payload[N]{Item: item}).Root()}, nil
}

// Remove returns a tree without the item with the given id. When no item has
// that id the receiver is returned unchanged.
func (r Tree[N]) Remove(id string) Tree[N] {
	return Tree[N]{root: r.base().Remove(func(p Payload[N]) bool {
		return p.Item.ID == id
	}).Root()}
}

func (r Tree[N]) IsEmpty() bool { return r.root == nil }

// Root exposes the root node, nil for the empty tree.
func (r Tree[N]) Root() *tree.Node[Payload[N]] { return r.root }

// Len returns the number of items. It walks the whole tree.
func (r Tree[N]) Len() int { return r.base().Len() }

func (r Tree[N]) Height() int { return r.base().Height() }

// Iterate returns a pre-order iterator over the node payloads.
func (r Tree[N]) Iterate() *tree.TreeIterator[Payload[N]] {
	return r.base().Iterate()
}

// ToMap lists every item keyed by id.
func (r Tree[N]) ToMap() map[string]Item[N] {
	payloads := tree.ToMap(r.base(), func(p Payload[N]) string { return p.Item.ID })
	items := make(map[string]Item[N], len(payloads))
	for id, p := range payloads {
		items[id] = p.Item
	}
	return items
}

// Has returns whether an item with the given id is stored.
func (r Tree[N]) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Get returns the item with the given id.
func (r Tree[N]) Get(id string) (Item[N], bool) {
	iter := r.Iterate()
	for iter.Next() {
		if item := iter.Payload().Item; item.ID == id {
			return item, true
		}
	}
	return Item[N]{}, false
}
