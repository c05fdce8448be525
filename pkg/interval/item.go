package interval

import "fmt"

// Item is a range identified by ID. IDs are expected to be unique within a
// tree; with duplicates, Remove and ToMap pick one of them.
type Item[N Number] struct {
	ID    string
	Range Range[N]
}

func NewItem[N Number](id string, low, high N) Item[N] {
	return Item[N]{ID: id, Range: Range[N]{Low: low, High: high}}
}

func (r Item[N]) String() string {
	return fmt.Sprintf("((%v, %v), %s)", r.Range.Low, r.Range.High, r.ID)
}

// Payload is what each tree node stores: the item plus the lowest and highest
// endpoint found anywhere in the node's subtree.
type Payload[N Number] struct {
	Item                     Item[N]
	LowestEndpointInSubtree  N
	HighestEndpointInSubtree N
}
