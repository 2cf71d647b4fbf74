package tree

import (
	"strings"

	"github.com/benz9527/xrbtree/lib/infra"
)

var _ RBTree[int] = (*rbTree[int])(nil)

type rbTree[V infra.OrderedKey] struct {
	root    *rbNode[V]
	compare infra.OrderedKeyComparator[V]
	isDesc  bool
}

func (tree *rbTree[V]) Root() RBNode[V] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

func (tree *rbTree[V]) Comparator() infra.OrderedKeyComparator[V] {
	return tree.compare
}

func (tree *rbTree[V]) Size() int64 {
	return tree.root.size()
}

func (tree *rbTree[V]) IsEmpty() bool {
	return tree.root == nil
}

// References:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. The root is black.
// p3. All NIL nodes are considered black.
// p4. A red node does not have a red child. (red-violation)
// p5. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// Duplicated values are allowed, an equal value is routed to the right.

// find returns any node equal to val.
func (tree *rbTree[V]) find(val V) *rbNode[V] {
	for aux := tree.root; aux != nil; {
		res := tree.compare(val, aux.val)
		if res == 0 {
			return aux
		} else if res < 0 {
			aux = aux.left
		} else {
			aux = aux.right
		}
	}
	return nil
}

func (tree *rbTree[V]) Contains(val V) bool {
	return tree.find(val) != nil
}

func (tree *rbTree[V]) First() (V, bool) {
	if tree.root == nil {
		return *new(V), false
	}
	return tree.root.minimum().val, true
}

func (tree *rbTree[V]) Last() (V, bool) {
	if tree.root == nil {
		return *new(V), false
	}
	return tree.root.maximum().val, true
}

// The walk only enters the left subtree while its maximum is still
// a candidate. Otherwise the current node is the answer if it is a
// candidate, or the search continues on the right.
func (tree *rbTree[V]) Ceiling(val V) (V, bool) {
	for aux := tree.root; aux != nil; {
		res := tree.compare(aux.val, val)
		if res == 0 {
			return aux.val, true
		}
		if aux.left != nil && tree.compare(aux.left.maximum().val, val) >= 0 {
			aux = aux.left
			continue
		}
		if res > 0 {
			return aux.val, true
		}
		aux = aux.right
	}
	return *new(V), false
}

func (tree *rbTree[V]) Higher(val V) (V, bool) {
	for aux := tree.root; aux != nil; {
		if aux.left != nil && tree.compare(aux.left.maximum().val, val) > 0 {
			aux = aux.left
			continue
		}
		if tree.compare(aux.val, val) > 0 {
			return aux.val, true
		}
		aux = aux.right
	}
	return *new(V), false
}

// replace links y into x's position. x keeps its own links.
func (tree *rbTree[V]) replace(x, y *rbNode[V]) {
	switch dir := x.Direction(); dir {
	case Root:
		tree.root = y
	case Left:
		x.parent.left = y
	case Right:
		x.parent.right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to replace")
	}
	if y != nil {
		y.parent = x.parent
	}
}

// leftRotate lifts x.right over x.
//
//	  |                        |
//	  X                        S
//	 / \     leftRotate(X)    / \
//	L   S    ============>   X   Sd
//	   / \                  / \
//	 Sc   Sd               L   Sc
func (tree *rbTree[V]) leftRotate(x *rbNode[V]) {
	if x == nil || x.right == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] left rotate node x is nil or x.right is nil")
	}

	y := x.right
	tree.replace(x, y)
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.left = x
	x.parent = y
}

// rightRotate lifts x.left over x.
//
//	     |                          |
//	     X                          L
//	    / \     rightRotate(X)     / \
//	   L   R    ============>    Ll   X
//	  / \                            / \
//	Ll   Lr                         Lr   R
func (tree *rbTree[V]) rightRotate(x *rbNode[V]) {
	if x == nil || x.left == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] right rotate node x is nil or x.left is nil")
	}

	y := x.left
	tree.replace(x, y)
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	y.right = x
	x.parent = y
}

func (tree *rbTree[V]) Add(val V) {
	z := &rbNode[V]{
		val:   val,
		color: Red,
	}
	tree.insertWhere(z)
	tree.insertRebalance(z)
}

// insertWhere attaches z as a leaf. An empty tree takes z as root.
func (tree *rbTree[V]) insertWhere(z *rbNode[V]) {
	var y *rbNode[V]
	for x := tree.root; x != nil; {
		y = x
		if /* less */ tree.compare(z.val, x.val) < 0 {
			x = x.left
		} else /* greater or equal */ {
			x = x.right
		}
	}

	z.parent = y
	if y == nil {
		tree.root = z
	} else if tree.compare(z.val, y.val) < 0 {
		y.left = z
	} else {
		y.right = z
	}
}

type insertCase uint8

const (
	im1 insertCase = 1 + iota
	im2
	im3
	im4
	im5
)

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).

im1: X is the root, paint it into black.

im2: X's parent P is black, nothing is violated.

im3: Both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Restart from grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im4: The parent P is red but the uncle U is black. (red-violation)
X is opposite direction to P. Rotate P to opposite direction.
After rotation it is still red-violation, enter im5 with X = P.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im5: X is the same direction as parent.

	    [G]                 [P]               [P]
	    / \    repaint      / \    rotate(G)  / \
	  <P> [U]  ======>    <X> <G>  ======>  <X> <G>
	  /                          \                \
	<X>                          [U]              [U]
*/
func (tree *rbTree[V]) insertRebalance(x *rbNode[V]) {
	for state := im1; ; {
		switch state {
		case im1:
			if x.isRoot() {
				x.setBlack()
				return
			}
			state = im2
		case im2:
			if x.parent.isBlack() {
				return
			}
			state = im3
		case im3:
			if u := x.uncle(); u.isRed() {
				x.parent.setBlack()
				u.setBlack()
				gp := x.grandpa()
				gp.setRed()
				x, state = gp, im1
				continue
			}
			state = im4
		case im4:
			gp := x.grandpa()
			if x == x.parent.right && x.parent == gp.left {
				tree.leftRotate(x.parent)
				x = x.left
			} else if x == x.parent.left && x.parent == gp.right {
				tree.rightRotate(x.parent)
				x = x.right
			}
			state = im5
		case im5:
			gp := x.grandpa()
			x.parent.setBlack()
			gp.setRed()
			switch dir := x.Direction(); dir {
			case Left:
				tree.rightRotate(gp)
			case Right:
				tree.leftRotate(gp)
			default:
				// impossible run to here
				panic( /* debug assertion */ "[rbtree] insert violate (im5)")
			}
			return
		default:
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] unknown insert case")
		}
	}
}

func (tree *rbTree[V]) Remove(val V) bool {
	z := tree.find(val)
	if z == nil {
		return false
	}
	tree.removeNode(z)
	return true
}

/*
r1: Current node Z has left and right node.
Copy the max value of the left subtree (pred) into Z, then remove the pred.
The pred has no right child.

	  |                    |
	  Z                    L
	 / \                  / \
	L  ..   copy(L, Z)   L  ..
		|   =========>   ^   |
		P                |   P
	   / \           remove  / \
	  S  ..                 S  ..

r2: Y is red, it must be a leaf node, remove directly.

r3: Y is black and contains a red child, repaint the child into black.

r4: Y is a black leaf node (black-violation).
Rebalance with Y still linked, then unlink it.
*/
func (tree *rbTree[V]) removeNode(z *rbNode[V]) {
	y := z
	if /* r1 */ y.left != nil && y.right != nil {
		y = z.pred()
		z.val = y.val
	}

	child := y.right
	if child == nil {
		child = y.left
	}

	if y.isBlack() {
		if /* r3 */ child.isRed() {
			child.setBlack()
		} else /* r4 */ {
			tree.removeRebalance(y)
		}
	}

	tree.replace(y, child)
	if y.isRoot() && child != nil {
		child.setBlack()
	}

	y.parent = nil
	y.left = nil
	y.right = nil
}

type removeCase uint8

const (
	rm1 removeCase = 1 + iota
	rm2
	rm3
	rm4
	rm5
	rm6
)

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

X carries a double-black deficit.
Sc is the child of sibling S close to X, Sd is the distant one.

rm1: X is the root, the deficit is absorbed.

rm2: X's sibling S is red, so P, Sc and Sd must be black.
Repaint P into red, S into black, rotate P toward X.
Enter rm3 with the new sibling Sc.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm3: P, S, Sc and Sd are all black.
Repaint S into red to balance locally, the deficit moves up to P.

	  [P]             [P]
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm4: P is red, S, Sc and Sd are black.
Swap P and S colors, done.

	  <P>             [P]
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm5: S is black, Sc is red and Sd is black.
Repaint S into red, Sc into black, rotate S away from X.
Enter rm6.

	                        {P}                {P}
	  {P}                   / \                / \
	  / \    r-rotate(S)  [X] <Sc>   repaint  [X] [Sc]
	[X] [S]  ==========>        \    ======>       \
	    / \                     [S]                <S>
	  <Sc> [Sd]                   \                  \
	                              [Sd]               [Sd]

rm6: S is black and Sd is red.
Copy P's color to S, repaint P and Sd into black, rotate P toward X.

	  {P}                   {S}                {S}
	  / \    l-rotate(P)    / \     repaint    / \
	[X] [S]  ==========>  {P} <Sd>  ======>  [P] [Sd]
	    / \               / \                / \
	 {Sc} <Sd>          [X] {Sc}           [X] {Sc}
*/
func (tree *rbTree[V]) removeRebalance(x *rbNode[V]) {
	for state := rm1; ; {
		switch state {
		case rm1:
			if x.isRoot() {
				return
			}
			state = rm2
		case rm2:
			if s := x.sibling(); s.isRed() {
				x.parent.setRed()
				s.setBlack()
				if x == x.parent.left {
					tree.leftRotate(x.parent)
				} else {
					tree.rightRotate(x.parent)
				}
			}
			state = rm3
		case rm3:
			s := x.sibling()
			if x.parent.isBlack() && s.isBlack() && s.left.isBlack() && s.right.isBlack() {
				s.setRed()
				x, state = x.parent, rm1
				continue
			}
			state = rm4
		case rm4:
			s := x.sibling()
			if x.parent.isRed() && s.isBlack() && s.left.isBlack() && s.right.isBlack() {
				s.setRed()
				x.parent.setBlack()
				return
			}
			state = rm5
		case rm5:
			s := x.sibling()
			switch dir := x.Direction(); dir {
			case Left:
				if sc, sd := s.left, s.right; sc.isRed() && sd.isBlack() {
					s.setRed()
					sc.setBlack()
					tree.rightRotate(s)
				}
			case Right:
				if sc, sd := s.right, s.left; sc.isRed() && sd.isBlack() {
					s.setRed()
					sc.setBlack()
					tree.leftRotate(s)
				}
			default:
				// impossible run to here
				panic( /* debug assertion */ "[rbtree] remove violate (rm5)")
			}
			state = rm6
		case rm6:
			s, p := x.sibling(), x.parent
			s.color = p.color
			p.setBlack()
			switch dir := x.Direction(); dir {
			case Left:
				s.right.setBlack()
				tree.leftRotate(p)
			case Right:
				s.left.setBlack()
				tree.rightRotate(p)
			default:
				// impossible run to here
				panic( /* debug assertion */ "[rbtree] remove violate (rm6)")
			}
			return
		default:
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] unknown remove case")
		}
	}
}

// Inorder traversal to implement the DFS.
func (tree *rbTree[V]) foreach(action func(idx int64, color RBColor, val V) bool) {
	aux := tree.root
	if aux == nil {
		return
	}

	stack := make([]*rbNode[V], 0, 64)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; !action(idx, aux.color, aux.val) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = aux.right; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
	}
}

// Clear detaches every node from its neighbours.
func (tree *rbTree[V]) Clear() {
	aux := tree.root
	tree.root = nil
	if aux == nil {
		return
	}

	stack := make([]*rbNode[V], 0, 64)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, aux)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if aux.left != nil {
			stack = append(stack, aux.left)
		}
		if aux.right != nil {
			stack = append(stack, aux.right)
		}
		aux.parent, aux.left, aux.right = nil, nil, nil
	}
}

// String renders the root and its immediate children only.
func (tree *rbTree[V]) String() string {
	if tree.root == nil {
		return "RBTree[]"
	}
	builder := strings.Builder{}
	_, _ = builder.WriteString("RBTree[root: ")
	_, _ = builder.WriteString(tree.root.String())
	_, _ = builder.WriteString(", left: ")
	_, _ = builder.WriteString(tree.root.left.String())
	_, _ = builder.WriteString(", right: ")
	_, _ = builder.WriteString(tree.root.right.String())
	_, _ = builder.WriteString("]")
	return builder.String()
}

type RBTreeOpt[V infra.OrderedKey] func(*rbTree[V])

// WithRBTreeDesc reverses the order, First returns the largest value.
func WithRBTreeDesc[V infra.OrderedKey]() RBTreeOpt[V] {
	return func(tree *rbTree[V]) {
		tree.isDesc = true
	}
}

func NewRBTree[V infra.OrderedKey](opts ...RBTreeOpt[V]) RBTree[V] {
	tree := &rbTree[V]{
		isDesc: false,
	}

	for _, o := range opts {
		if o == nil {
			continue
		}
		o(tree)
	}
	if tree.isDesc {
		tree.compare = infra.DescCompare[V]
	} else {
		tree.compare = infra.AscCompare[V]
	}
	return tree
}
