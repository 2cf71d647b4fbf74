package tree

import "github.com/benz9527/xrbtree/lib/infra"

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=RBDirection
type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

// RBNode is the read-only view of a tree node.
// A nil child or parent is returned as an untyped nil interface.
type RBNode[V infra.OrderedKey] interface {
	Val() V
	Color() RBColor
	Left() RBNode[V]
	Right() RBNode[V]
	Parent() RBNode[V]
}

// RBTree is an ordered multiset balanced as a red-black tree.
// It is not safe for concurrent use. Guard the whole tree with a single
// lock if it is shared between goroutines.
type RBTree[V infra.OrderedKey] interface {
	Root() RBNode[V]
	Comparator() infra.OrderedKeyComparator[V]
	Add(val V)
	Remove(val V) bool
	Contains(val V) bool
	First() (V, bool)
	Last() (V, bool)
	// Ceiling returns the least value greater than or equal to val.
	Ceiling(val V) (V, bool)
	// Higher returns the least value strictly greater than val.
	Higher(val V) (V, bool)
	// Size counts the nodes on every call, it is O(n).
	Size() int64
	IsEmpty() bool
	Clear()
	String() string
}
