package tree

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrOrderingViolation is the mark carried by every ordering failure reported
// by Validate.
var ErrOrderingViolation = errors.New("child out of order")

// Side names the child of a node.
type Side int

const (
	LeftSide Side = iota
	RightSide
)

func (s Side) String() string {
	switch s {
	case LeftSide:
		return "left"
	case RightSide:
		return "right"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// OrderingViolationError reports the subtree whose left or right side holds a
// payload in the wrong position relative to the subtree root.
type OrderingViolationError[T any] struct {
	Side    Side
	Subtree *Node[T]
}

func newOrderingViolation[T any](n *Node[T], side Side) error {
	return errors.WithStack(&OrderingViolationError[T]{Side: side, Subtree: n})
}

func (e *OrderingViolationError[T]) Error() string {
	return fmt.Sprintf("%s child is out of order: %+v", e.Side, e.Subtree.payload)
}

func (e *OrderingViolationError[T]) Unwrap() error { return ErrOrderingViolation }
