package interval

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/henderiw/itree/pkg/tree"
)

var (
	// ErrInvalidRange marks ranges whose high endpoint is below the low one.
	ErrInvalidRange = errors.New("high of interval range must be greater than or equal to low")
	// ErrOrderingViolation marks trees whose children are out of order.
	ErrOrderingViolation = tree.ErrOrderingViolation
	// ErrWrongLowestEndpointStored marks nodes caching a wrong subtree minimum.
	ErrWrongLowestEndpointStored = errors.New("wrong lowest endpoint stored on node")
	// ErrWrongHighestEndpointStored marks nodes caching a wrong subtree maximum.
	ErrWrongHighestEndpointStored = errors.New("wrong highest endpoint stored on node")
)

// InvalidRangeError carries the rejected range, and the item holding it when
// the range came from an item rather than a query.
type InvalidRangeError[N Number] struct {
	Item  *Item[N]
	Range Range[N]
}

func newInvalidRangeError[N Number](item *Item[N], r Range[N]) error {
	return errors.WithStack(&InvalidRangeError[N]{Item: item, Range: r})
}

func (e *InvalidRangeError[N]) Error() string {
	if e.Item == nil {
		return fmt.Sprintf("%s: (%v, %v)", ErrInvalidRange, e.Range.Low, e.Range.High)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRange, e.Item)
}

func (e *InvalidRangeError[N]) Unwrap() error { return ErrInvalidRange }

// WrongEndpointError reports a node whose cached aggregate disagrees with the
// value recomputed from its own range and its children.
type WrongEndpointError[N Number] struct {
	Highest  bool
	Expected N
	Actual   N
	Node     Tree[N]
}

func (e *WrongEndpointError[N]) sentinel() error {
	if e.Highest {
		return ErrWrongHighestEndpointStored
	}
	return ErrWrongLowestEndpointStored
}

func (e *WrongEndpointError[N]) Error() string {
	return fmt.Sprintf("%s on %s\n\tExpected: %v\n\tActual: %v",
		e.sentinel(), e.Node.root.Payload().Item, e.Expected, e.Actual)
}

func (e *WrongEndpointError[N]) Unwrap() error { return e.sentinel() }
