package tree

// ShouldBeLeftChildFn reports whether candidate belongs in the left subtree of
// a node holding parent. Returning false sends candidate right, so ties go
// right.
type ShouldBeLeftChildFn[T any] func(parent T, candidate T) bool

// FilterFunc[T] is called on a payload to check if it matches
type FilterFunc[T any] func(payload T) bool

// UpdatesFunc[T] is called every time a node is rebuilt on a changed path. It
// returns the payload to store, which lets callers keep per-subtree aggregates
// of the new children in sync.
type UpdatesFunc[T any] func(payload T, left, right *Node[T]) T

// Option configures a Tree.
type Option[T any] func(*Tree[T])

// WithUpdatesFunc installs fn as the payload hook for rebuilt nodes.
func WithUpdatesFunc[T any](fn UpdatesFunc[T]) Option[T] {
	return func(r *Tree[T]) {
		r.updatesFn = fn
	}
}

// Tree is a persistent, unbalanced binary search tree. A Tree is a small value
// holding the root and the ordering rule; every operation returns a new Tree
// and leaves the receiver untouched. Unchanged subtrees are shared.
type Tree[T any] struct {
	root              *Node[T]
	shouldBeLeftChild ShouldBeLeftChildFn[T]
	updatesFn         UpdatesFunc[T]
}

// New returns an empty tree ordered by shouldBeLeftChild.
func New[T any](shouldBeLeftChild ShouldBeLeftChildFn[T], opts ...Option[T]) Tree[T] {
	r := Tree[T]{
		shouldBeLeftChild: shouldBeLeftChild,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithRoot returns a tree with the same configuration rooted at root.
func (r Tree[T]) WithRoot(root *Node[T]) Tree[T] {
	r.root = root
	return r
}

func (r Tree[T]) Root() *Node[T] { return r.root }

func (r Tree[T]) IsEmpty() bool { return r.root == nil }

// Len returns the number of nodes. It walks the whole tree.
func (r Tree[T]) Len() int { return r.root.len() }

// Height returns the number of nodes on the longest root to leaf path.
func (r Tree[T]) Height() int { return r.root.height() }

// build allocates a node for a changed path, running the updates hook.
func (r Tree[T]) build(payload T, left, right *Node[T]) *Node[T] {
	if r.updatesFn != nil {
		payload = r.updatesFn(payload, left, right)
	}
	return NewNode(payload, left, right)
}

// Insert returns a tree that additionally holds payload. The tree is not
// rebalanced.
func (r Tree[T]) Insert(payload T) Tree[T] {
	r.root = r.insert(r.root, payload)
	return r
}

func (r Tree[T]) insert(n *Node[T], payload T) *Node[T] {
	if n == nil {
		return r.build(payload, nil, nil)
	}
	if r.shouldBeLeftChild(n.payload, payload) {
		return r.build(n.payload, r.insert(n.left, payload), n.right)
	}
	return r.build(n.payload, n.left, r.insert(n.right, payload))
}

// Remove returns a tree without the first payload, in pre-order, for which
// match returns true. If more than one payload matches, which one is removed
// is undefined. If nothing matches, the receiver is returned as is.
func (r Tree[T]) Remove(match FilterFunc[T]) Tree[T] {
	if root, removed := r.remove(r.root, match); removed {
		r.root = root
	}
	return r
}

func (r Tree[T]) remove(n *Node[T], match FilterFunc[T]) (*Node[T], bool) {
	if n == nil {
		return nil, false
	}
	if match(n.payload) {
		return r.deleteNode(n), true
	}
	if left, removed := r.remove(n.left, match); removed {
		return r.build(n.payload, left, n.right), true
	}
	if right, removed := r.remove(n.right, match); removed {
		return r.build(n.payload, n.left, right), true
	}
	return n, false
}

// deleteNode returns the subtree that replaces n once n's payload is gone.
func (r Tree[T]) deleteNode(n *Node[T]) *Node[T] {
	switch {
	case n.left != nil && n.right != nil:
		// splice in the in-order successor; it has no left child
		successor := n.right.leftmost()
		return r.build(successor.payload, n.left, r.removeLeftmost(n.right))
	case n.left != nil:
		return n.left
	case n.right != nil:
		return n.right
	default:
		return nil
	}
}

func (r Tree[T]) removeLeftmost(n *Node[T]) *Node[T] {
	if n.left == nil {
		return n.right
	}
	return r.build(n.payload, r.removeLeftmost(n.left), n.right)
}

// ToMap flattens the tree in pre-order into a map keyed by keyFn. When keyFn
// yields the same key twice, the payload visited last wins.
func ToMap[K comparable, T any](r Tree[T], keyFn func(payload T) K) map[K]T {
	entries := map[K]T{}
	iter := r.Iterate()
	for iter.Next() {
		p := iter.Payload()
		entries[keyFn(p)] = p
	}
	return entries
}

// Validate checks that every payload in a left subtree orders before its
// ancestor and every payload in a right subtree does not. It returns the
// receiver unchanged when the tree is valid so calls can be chained.
func (r Tree[T]) Validate() (Tree[T], error) {
	if err := r.validate(r.root); err != nil {
		return r, err
	}
	return r, nil
}

func (r Tree[T]) validate(n *Node[T]) error {
	if n == nil {
		return nil
	}
	if !r.allMatch(n.left, func(p T) bool { return r.shouldBeLeftChild(n.payload, p) }) {
		return newOrderingViolation(n, LeftSide)
	}
	if !r.allMatch(n.right, func(p T) bool { return !r.shouldBeLeftChild(n.payload, p) }) {
		return newOrderingViolation(n, RightSide)
	}
	if err := r.validate(n.left); err != nil {
		return err
	}
	return r.validate(n.right)
}

func (r Tree[T]) allMatch(n *Node[T], fn FilterFunc[T]) bool {
	if n == nil {
		return true
	}
	return fn(n.payload) && r.allMatch(n.left, fn) && r.allMatch(n.right, fn)
}
