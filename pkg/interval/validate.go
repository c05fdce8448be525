package interval

import (
	"github.com/cockroachdb/errors"
	"github.com/henderiw/itree/pkg/tree"
)

// Validate checks every node for an inverted range and for cached endpoints
// that disagree with its range and its children's cached endpoints, then
// checks the ordering. The receiver is returned so calls can be chained.
func (r Tree[N]) Validate() (Tree[N], error) {
	if err := validateEndpoints(r.root); err != nil {
		return r, err
	}
	if _, err := r.base().Validate(); err != nil {
		return r, err
	}
	return r, nil
}

func validateEndpoints[N Number](n *tree.Node[Payload[N]]) error {
	if n == nil {
		return nil
	}
	p := n.Payload()
	if !p.Item.Range.IsValid() {
		item := p.Item
		return newInvalidRangeError(&item, item.Range)
	}
	lowest, highest := endpoints(p.Item.Range, n.Left(), n.Right())
	if lowest != p.LowestEndpointInSubtree {
		return errors.WithStack(&WrongEndpointError[N]{
			Expected: lowest,
			Actual:   p.LowestEndpointInSubtree,
			Node:     Tree[N]{root: n},
		})
	}
	if highest != p.HighestEndpointInSubtree {
		return errors.WithStack(&WrongEndpointError[N]{
			Highest:  true,
			Expected: highest,
			Actual:   p.HighestEndpointInSubtree,
			Node:     Tree[N]{root: n},
		})
	}
	if err := validateEndpoints(n.Left()); err != nil {
		return err
	}
	return validateEndpoints(n.Right())
}
