package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xrbtree/lib/infra"
)

var (
	ErrRBTreeRootViolation  = errors.New("[rbtree] root violation")
	ErrRBTreeRedViolation   = errors.New("[rbtree] red violation")
	ErrRBTreeBlackViolation = errors.New("[rbtree] black violation")
	ErrRBTreeOrderViolation = errors.New("[rbtree] order violation")
	ErrRBTreeLinkViolation  = errors.New("[rbtree] link violation")
)

func isBlack[V infra.OrderedKey](node RBNode[V]) bool {
	return node == nil || node.Color() == Black
}

func isRed[V infra.OrderedKey](node RBNode[V]) bool {
	return node != nil && node.Color() == Red
}

func nodeString[V infra.OrderedKey](node RBNode[V]) string {
	if node == nil {
		return "nil"
	}
	return fmt.Sprintf("%v(%s)", node.Val(), node.Color())
}

func blackDepthTo[V infra.OrderedKey](target, to RBNode[V]) int {
	depth := 0
	for aux := target; aux != nil && aux != to; aux = aux.Parent() {
		if isBlack[V](aux) {
			depth++
		}
	}
	return depth
}

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

func RootViolationValidate[V infra.OrderedKey](tree RBTree[V]) error {
	if root := tree.Root(); root != nil {
		if isRed[V](root) {
			return fmt.Errorf("%w, red root %s", ErrRBTreeRootViolation, nodeString[V](root))
		}
		if root.Parent() != nil {
			return fmt.Errorf("%w, root %s has parent %s", ErrRBTreeRootViolation,
				nodeString[V](root), nodeString[V](root.Parent()))
		}
	}
	return nil
}

// inorder walks the tree by an explicit stack.
func inorder[V infra.OrderedKey](tree RBTree[V], action func(node RBNode[V]) error) error {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	stack := make([]RBNode[V], 0, 64)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		if err := action(aux); err != nil {
			return err
		}
		stack = stack[:size-1]
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return nil
}

// RedViolationValidate checks no red node has a red parent or child.
func RedViolationValidate[V infra.OrderedKey](tree RBTree[V]) error {
	return inorder[V](tree, func(aux RBNode[V]) error {
		if !isRed[V](aux) {
			return nil
		}
		if isRed[V](aux.Parent()) || isRed[V](aux.Left()) || isRed[V](aux.Right()) {
			return fmt.Errorf("%w, node %s", ErrRBTreeRedViolation, nodeString[V](aux))
		}
		return nil
	})
}

// BFS traversal to load all nodes owning at least one nil child.
func bfsLeaves[V infra.OrderedKey](tree RBTree[V]) []RBNode[V] {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	leaves := make([]RBNode[V], 0, 64)
	queue := make([]RBNode[V], 0, 64)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, aux)

	for len(queue) > 0 {
		aux = queue[0]
		l, r := aux.Left(), aux.Right()
		if /* nil leaves, keep one */ l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
		queue = queue[1:]
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

2-3-4 tree like:

	       <8> --- [13] --- <15>
		  /  \             /    \
		 /    \           /      \
	  <1>-[6][11]      [14] <16>-[17]

Each leaf node to root node black depth are equal.
*/
func BlackViolationValidate[V infra.OrderedKey](tree RBTree[V]) error {
	leaves := bfsLeaves[V](tree)
	if leaves == nil {
		return nil
	}

	blackDepth := blackDepthTo[V](leaves[0], tree.Root())
	for i := 1; i < len(leaves); i++ {
		if depth := blackDepthTo[V](leaves[i], tree.Root()); depth != blackDepth {
			return fmt.Errorf("%w, node %s black depth %d, expected %d", ErrRBTreeBlackViolation,
				nodeString[V](leaves[i]), depth, blackDepth)
		}
	}
	return nil
}

// OrderViolationValidate checks the inorder sequence is sorted by the
// tree comparator. Equal neighbours are allowed.
func OrderViolationValidate[V infra.OrderedKey](tree RBTree[V]) error {
	var (
		prev    RBNode[V]
		compare = tree.Comparator()
	)
	return inorder[V](tree, func(aux RBNode[V]) error {
		if prev != nil && compare(prev.Val(), aux.Val()) > 0 {
			return fmt.Errorf("%w, node %s after %s", ErrRBTreeOrderViolation,
				nodeString[V](aux), nodeString[V](prev))
		}
		prev = aux
		return nil
	})
}

// LinkViolationValidate checks every child points back to its parent.
func LinkViolationValidate[V infra.OrderedKey](tree RBTree[V]) error {
	return inorder[V](tree, func(aux RBNode[V]) error {
		if l := aux.Left(); l != nil && l.Parent() != aux {
			return fmt.Errorf("%w, left child %s of %s", ErrRBTreeLinkViolation,
				nodeString[V](l), nodeString[V](aux))
		}
		if r := aux.Right(); r != nil && r.Parent() != aux {
			return fmt.Errorf("%w, right child %s of %s", ErrRBTreeLinkViolation,
				nodeString[V](r), nodeString[V](aux))
		}
		return nil
	})
}

// Validate runs all the validators and combines their violations.
func Validate[V infra.OrderedKey](tree RBTree[V]) error {
	return multierr.Combine(
		RootViolationValidate[V](tree),
		LinkViolationValidate[V](tree),
		OrderViolationValidate[V](tree),
		RedViolationValidate[V](tree),
		BlackViolationValidate[V](tree),
	)
}
