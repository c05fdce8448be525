package tree

// treeIteratorNext is an indicator to know what Next() should return
// for the current node.
type treeIteratorNext int

const (
	nextSelf treeIteratorNext = iota
	nextLeft
	nextRight
	nextUp
)

type iteratorFrame[T any] struct {
	node *Node[T]
	// wentLeft records which child we descended into, children can be the
	// same shared node
	wentLeft bool
}

// TreeIterator[T] is a stateful pre-order iterator over a tree. Since trees
// are immutable it stays valid while other tree values are derived from the
// one being iterated.
type TreeIterator[T any] struct {
	node        *Node[T]
	nodeHistory []iteratorFrame[T]
	next        treeIteratorNext
}

// Iterate returns an iterator visiting every node, parent before children and
// left before right.
func (r Tree[T]) Iterate() *TreeIterator[T] {
	return &TreeIterator[T]{
		node:        r.root,
		nodeHistory: []iteratorFrame[T]{},
		next:        nextSelf,
	}
}

// Next jumps to the next node of the tree. It returns false if there
// is none.
func (iter *TreeIterator[T]) Next() bool {
	if iter.node == nil {
		return false
	}
	for {
		node := iter.node
		if iter.next == nextSelf {
			iter.next = nextLeft
			return true
		}
		if iter.next == nextLeft {
			if node.left != nil {
				iter.nodeHistory = append(iter.nodeHistory, iteratorFrame[T]{node: node, wentLeft: true})
				iter.node = node.left
				iter.next = nextSelf
				continue
			}
			iter.next = nextRight
		}
		if iter.next == nextRight {
			if node.right != nil {
				iter.nodeHistory = append(iter.nodeHistory, iteratorFrame[T]{node: node, wentLeft: false})
				iter.node = node.right
				iter.next = nextSelf
				continue
			}
			// We need to backtrack
			iter.next = nextUp
		}
		if iter.next == nextUp {
			nodeHistoryLen := len(iter.nodeHistory)
			if nodeHistoryLen == 0 {
				iter.node = nil
				return false
			}
			previous := iter.nodeHistory[nodeHistoryLen-1]
			iter.nodeHistory = iter.nodeHistory[:nodeHistoryLen-1]
			iter.node = previous.node
			if previous.wentLeft {
				iter.next = nextRight
			} else {
				iter.next = nextUp
			}
		}
	}
}

// Payload returns the payload of the current node.
func (iter *TreeIterator[T]) Payload() T {
	return iter.node.payload
}

// Node returns the current node.
func (iter *TreeIterator[T]) Node() *Node[T] {
	return iter.node
}
