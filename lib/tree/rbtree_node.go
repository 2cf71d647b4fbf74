package tree

import (
	"fmt"

	"github.com/benz9527/xrbtree/lib/infra"
)

var _ RBNode[int] = (*rbNode[int])(nil)

// rbNode owns its children. The parent is a back-pointer used only
// to walk upward while rebalancing.
type rbNode[V infra.OrderedKey] struct {
	parent *rbNode[V]
	left   *rbNode[V]
	right  *rbNode[V]
	val    V
	color  RBColor
}

func (node *rbNode[V]) Val() V {
	return node.val
}

func (node *rbNode[V]) Color() RBColor {
	return node.color
}

func (node *rbNode[V]) Left() RBNode[V] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *rbNode[V]) Right() RBNode[V] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *rbNode[V]) Parent() RBNode[V] {
	if node == nil || node.parent == nil {
		return nil
	}
	return node.parent
}

// Nil children are black leaves.
func (node *rbNode[V]) isBlack() bool {
	return node == nil || node.color == Black
}

func (node *rbNode[V]) isRed() bool {
	return node != nil && node.color == Red
}

func (node *rbNode[V]) setBlack() {
	node.color = Black
}

func (node *rbNode[V]) setRed() {
	node.color = Red
}

func (node *rbNode[V]) isRoot() bool {
	return node != nil && node.parent == nil
}

// isLeaf reports a childless node.
func (node *rbNode[V]) isLeaf() bool {
	return node != nil && node.left == nil && node.right == nil
}

func (node *rbNode[V]) Direction() RBDirection {
	if node == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] nil node without direction")
	}

	if node.isRoot() {
		return Root
	}
	if node == node.parent.left {
		return Left
	}
	return Right
}

// sibling must not be called on the root.
func (node *rbNode[V]) sibling() *rbNode[V] {
	switch node.Direction() {
	case Left:
		return node.parent.right
	case Right:
		return node.parent.left
	default:
	}
	panic( /* debug assertion */ "[rbtree] root node without sibling")
}

func (node *rbNode[V]) grandpa() *rbNode[V] {
	if node.parent == nil {
		return nil
	}
	return node.parent.parent
}

func (node *rbNode[V]) uncle() *rbNode[V] {
	gp := node.grandpa()
	if gp == nil {
		return nil
	}
	if node.parent == gp.left {
		return gp.right
	}
	return gp.left
}

// size walks the whole subtree, nothing is cached.
func (node *rbNode[V]) size() int64 {
	if node == nil {
		return 0
	}
	return 1 + node.left.size() + node.right.size()
}

func (node *rbNode[V]) minimum() *rbNode[V] {
	aux := node
	for ; aux != nil && aux.left != nil; aux = aux.left {
	}
	return aux
}

func (node *rbNode[V]) maximum() *rbNode[V] {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

// pred returns the in-order predecessor, nil for the minimum.
func (node *rbNode[V]) pred() *rbNode[V] {
	if node == nil {
		return nil
	}
	if node.left != nil {
		return node.left.maximum()
	}
	aux := node
	for aux.parent != nil && aux == aux.parent.left {
		aux = aux.parent
	}
	return aux.parent
}

func (node *rbNode[V]) String() string {
	if node == nil {
		return "nil"
	}
	return fmt.Sprintf("%v(%s)", node.val, node.color)
}
