package interval

import "github.com/henderiw/itree/pkg/tree"

// Visitor is called for each item found by Visit. Returning false stops the
// walk.
type Visitor[N Number] func(item Item[N]) bool

// QueryIntersection returns every item whose range intersects q, endpoints
// included, keyed by id. It only fails when q itself is inverted.
func (r Tree[N]) QueryIntersection(q Range[N]) (map[string]Item[N], error) {
	items := map[string]Item[N]{}
	if err := r.Visit(q, func(item Item[N]) bool {
		items[item.ID] = item
		return true
	}); err != nil {
		return nil, err
	}
	return items, nil
}

// Visit calls fn for every item intersecting q until fn returns false. The
// visiting order is not part of the contract.
func (r Tree[N]) Visit(q Range[N], fn Visitor[N]) error {
	if !q.IsValid() {
		return newInvalidRangeError[N](nil, q)
	}
	visit(r.root, q, fn)
	return nil
}

// Intersects returns whether any item intersects q.
func (r Tree[N]) Intersects(q Range[N]) (bool, error) {
	found := false
	err := r.Visit(q, func(Item[N]) bool {
		found = true
		return false
	})
	return found, err
}

// Stab returns every item containing v.
func (r Tree[N]) Stab(v N) map[string]Item[N] {
	items := map[string]Item[N]{}
	visit(r.root, Range[N]{Low: v, High: v}, func(item Item[N]) bool {
		items[item.ID] = item
		return true
	})
	return items
}

func visit[N Number](n *tree.Node[Payload[N]], q Range[N], fn Visitor[N]) bool {
	if n == nil {
		return true
	}
	item := n.Payload().Item
	left, right := n.Left(), n.Right()
	switch {
	case item.Range.Intersects(q):
		// a match says nothing about the children
		if !fn(item) {
			return false
		}
		return visit(left, q, fn) && visit(right, q, fn)
	case left == nil || left.Payload().HighestEndpointInSubtree < q.Low:
		return visit(right, q, fn)
	case right != nil && right.Payload().LowestEndpointInSubtree > q.High:
		return visit(left, q, fn)
	default:
		return visit(left, q, fn) && visit(right, q, fn)
	}
}
