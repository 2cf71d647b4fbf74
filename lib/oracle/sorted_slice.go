package oracle

import (
	"slices"
	"sort"

	"github.com/benz9527/xrbtree/lib/infra"
)

// SortedSlice is a brute-force ordered multiset, the reference the
// red-black tree is checked against. Not thread safe.
type SortedSlice[V infra.OrderedKey] []V

func (s *SortedSlice[V]) Add(v V) {
	idx, _ := slices.BinarySearch(*s, v)
	*s = slices.Insert(*s, idx, v)
}

// Remove deletes one occurrence of v.
func (s *SortedSlice[V]) Remove(v V) bool {
	idx, found := slices.BinarySearch(*s, v)
	if !found {
		return false
	}
	*s = slices.Delete(*s, idx, idx+1)
	return true
}

func (s SortedSlice[V]) Len() int64 {
	return int64(len(s))
}

func (s SortedSlice[V]) Contains(v V) bool {
	_, found := slices.BinarySearch(s, v)
	return found
}

func (s SortedSlice[V]) First() (V, bool) {
	if len(s) == 0 {
		var zero V
		return zero, false
	}
	return s[0], true
}

func (s SortedSlice[V]) Last() (V, bool) {
	if len(s) == 0 {
		var zero V
		return zero, false
	}
	return s[len(s)-1], true
}

// Ceiling returns the least element >= v.
func (s SortedSlice[V]) Ceiling(v V) (V, bool) {
	idx, _ := slices.BinarySearch(s, v)
	return s.at(idx)
}

// Higher returns the least element > v.
func (s SortedSlice[V]) Higher(v V) (V, bool) {
	idx := sort.Search(len(s), func(i int) bool {
		return s[i] > v
	})
	return s.at(idx)
}

func (s SortedSlice[V]) at(idx int) (V, bool) {
	if idx >= len(s) {
		var zero V
		return zero, false
	}
	return s[idx], true
}
