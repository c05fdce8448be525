package tree

// Node is an immutable tree node. A nil *Node is the empty tree.
//
// Nodes are never modified after construction, so a subtree can be shared by
// any number of tree values.
type Node[T any] struct {
	payload T
	left    *Node[T]
	right   *Node[T]
}

// NewNode returns a node holding payload with the given children. No ordering
// or payload checks are performed; use Tree.Validate for that.
func NewNode[T any](payload T, left, right *Node[T]) *Node[T] {
	return &Node[T]{
		payload: payload,
		left:    left,
		right:   right,
	}
}

func (n *Node[T]) Payload() T      { return n.payload }
func (n *Node[T]) Left() *Node[T]  { return n.left }
func (n *Node[T]) Right() *Node[T] { return n.right }

// IsEmpty returns true when n is the empty tree.
func IsEmpty[T any](n *Node[T]) bool { return n == nil }

// leftmost returns the node with no left child reached by descending left
// from n. n must not be empty.
func (n *Node[T]) leftmost() *Node[T] {
	for n.left != nil {
		n = n.left
	}
	return n
}

func (n *Node[T]) len() int {
	if n == nil {
		return 0
	}
	return 1 + n.left.len() + n.right.len()
}

func (n *Node[T]) height() int {
	if n == nil {
		return 0
	}
	return 1 + max(n.left.height(), n.right.height())
}
