package tree

import (
	"math"
	randv2 "math/rand/v2"
	"slices"
	"sort"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/xrbtree/lib/id"
	"github.com/benz9527/xrbtree/lib/infra"
	"github.com/benz9527/xrbtree/lib/oracle"
)

func collectTestValues[V infra.OrderedKey](tree *rbTree[V]) []V {
	res := make([]V, 0, 16)
	tree.foreach(func(idx int64, color RBColor, val V) bool {
		res = append(res, val)
		return true
	})
	return res
}

func requireValidTree[V infra.OrderedKey](t *testing.T, tree RBTree[V]) {
	t.Helper()
	require.NoError(t, Validate[V](tree))
}

func TestRbtreeLeftAndRightRotate_Pred(t *testing.T) {
	type checkData struct {
		color RBColor
		val   uint64
	}

	tree := NewRBTree[uint64]().(*rbTree[uint64])
	check := func(expected []checkData) {
		count := 0
		tree.foreach(func(idx int64, color RBColor, val uint64) bool {
			require.Equal(t, expected[idx].color, color)
			require.Equal(t, expected[idx].val, val)
			count++
			return true
		})
		require.Len(t, expected, count)
		requireValidTree[uint64](t, tree)
	}

	tree.Add(52)
	check([]checkData{{Black, 52}})

	tree.Add(47)
	check([]checkData{{Red, 47}, {Black, 52}})

	tree.Add(3)
	check([]checkData{{Red, 3}, {Black, 47}, {Red, 52}})

	tree.Add(35)
	check([]checkData{{Black, 3}, {Red, 35}, {Black, 47}, {Black, 52}})

	tree.Add(24)
	check([]checkData{{Red, 3}, {Black, 24}, {Red, 35}, {Black, 47}, {Black, 52}})

	// remove

	require.True(t, tree.Remove(24))
	check([]checkData{{Black, 3}, {Red, 35}, {Black, 47}, {Black, 52}})

	require.True(t, tree.Remove(47))
	check([]checkData{{Black, 3}, {Black, 35}, {Black, 52}})

	require.True(t, tree.Remove(52))
	check([]checkData{{Red, 3}, {Black, 35}})

	require.True(t, tree.Remove(3))
	check([]checkData{{Black, 35}})

	require.True(t, tree.Remove(35))
	require.Equal(t, int64(0), tree.Size())
	require.True(t, tree.IsEmpty())
}

func TestRbtree_RemoveFirst(t *testing.T) {
	type checkData struct {
		color RBColor
		val   uint64
	}

	tree := NewRBTree[uint64]().(*rbTree[uint64])
	for _, v := range []uint64{52, 47, 3, 35, 24} {
		tree.Add(v)
	}

	testcases := []struct {
		first    uint64
		expected []checkData
	}{
		{3, []checkData{{Black, 24}, {Red, 35}, {Black, 47}, {Black, 52}}},
		{24, []checkData{{Black, 35}, {Black, 47}, {Black, 52}}},
		{35, []checkData{{Black, 47}, {Red, 52}}},
		{47, []checkData{{Black, 52}}},
		{52, []checkData{}},
	}
	for _, tc := range testcases {
		first, ok := tree.First()
		require.True(t, ok)
		require.Equal(t, tc.first, first)
		require.True(t, tree.Remove(first))

		count := 0
		tree.foreach(func(idx int64, color RBColor, val uint64) bool {
			require.Equal(t, tc.expected[idx].color, color)
			require.Equal(t, tc.expected[idx].val, val)
			count++
			return true
		})
		require.Len(t, tc.expected, count)
		requireValidTree[uint64](t, tree)
	}
	_, ok := tree.First()
	require.False(t, ok)
}

func TestRbtree_Empty(t *testing.T) {
	tree := NewRBTree[int]()
	require.True(t, tree.IsEmpty())
	require.Equal(t, int64(0), tree.Size())
	require.Nil(t, tree.Root())
	require.False(t, tree.Contains(0))
	require.False(t, tree.Remove(0))

	_, ok := tree.Ceiling(0)
	require.False(t, ok)
	_, ok = tree.Higher(0)
	require.False(t, ok)
	_, ok = tree.First()
	require.False(t, ok)
	_, ok = tree.Last()
	require.False(t, ok)

	require.Equal(t, "RBTree[]", tree.String())
	requireValidTree[int](t, tree)
}

func TestRbtree_AddOneValue(t *testing.T) {
	tree := NewRBTree[int]()
	tree.Add(1)
	require.False(t, tree.IsEmpty())
	require.Equal(t, int64(1), tree.Size())

	first, ok := tree.First()
	require.True(t, ok)
	require.Equal(t, 1, first)
	last, ok := tree.Last()
	require.True(t, ok)
	require.Equal(t, 1, last)
	require.Equal(t, Black, tree.Root().Color())
	require.Equal(t, "RBTree[root: 1(Black), left: nil, right: nil]", tree.String())
}

func TestRbtree_AddThenRemoveRoundTrip(t *testing.T) {
	tree := NewRBTree[int]()
	tree.Add(42)
	require.True(t, tree.Remove(42))
	require.True(t, tree.IsEmpty())
	require.Equal(t, int64(0), tree.Size())
	require.Nil(t, tree.Root())
}

func TestRbtree_Add1To10(t *testing.T) {
	tree := NewRBTree[int]()
	for i := 1; i <= 10; i++ {
		tree.Add(i)
		requireValidTree[int](t, tree)
	}

	require.Equal(t, int64(10), tree.Size())
	require.False(t, tree.Contains(0))
	require.True(t, tree.Contains(1))
	require.True(t, tree.Contains(10))
	require.False(t, tree.Contains(11))

	first, ok := tree.First()
	require.True(t, ok)
	require.Equal(t, 1, first)
	last, ok := tree.Last()
	require.True(t, ok)
	require.Equal(t, 10, last)
	require.Equal(t, lo.RangeFrom(1, 10), collectTestValues[int](tree.(*rbTree[int])))
}

func TestRbtree_Clear(t *testing.T) {
	tree := NewRBTree[int]()
	for i := 1; i <= 10; i++ {
		tree.Add(i)
	}
	require.False(t, tree.IsEmpty())
	require.Greater(t, tree.Size(), int64(0))

	root := tree.(*rbTree[int]).root
	tree.Clear()
	require.True(t, tree.IsEmpty())
	require.Equal(t, int64(0), tree.Size())
	require.Nil(t, tree.Root())
	require.Nil(t, root.left)
	require.Nil(t, root.right)

	tree.Clear()
	tree.Add(3)
	require.Equal(t, int64(1), tree.Size())
	requireValidTree[int](t, tree)
}

func TestRbtree_SizeIsRecounted(t *testing.T) {
	tree := NewRBTree[int]().(*rbTree[int])
	for i := 1; i <= 10; i++ {
		tree.Add(i)
	}
	require.Equal(t, int64(10), tree.Size())

	// Detach the right subtree behind the tree's back.
	right := tree.root.right
	tree.root.right = nil
	require.Equal(t, 1+tree.root.left.size(), tree.Size())

	tree.root.right = right
	require.Equal(t, int64(10), tree.Size())
}

func TestRbtree_Ceiling(t *testing.T) {
	tree := NewRBTree[int64]()
	_, ok := tree.Ceiling(0)
	require.False(t, ok)

	tree.Add(0)
	v, ok := tree.Ceiling(0)
	require.True(t, ok)
	require.Equal(t, int64(0), v)
	_, ok = tree.Ceiling(1)
	require.False(t, ok)

	for i := int64(1); i <= 10; i++ {
		tree.Add(i)
	}

	testcases := []struct {
		name     string
		val      int64
		expected int64
		found    bool
	}{
		{"-1", -1, 0, true},
		{"min int64", math.MinInt64, 0, true},
		{"1", 1, 1, true},
		{"5", 5, 5, true},
		{"10", 10, 10, true},
		{"11", 11, 0, false},
		{"max int64", math.MaxInt64, 0, false},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			v, ok := tree.Ceiling(tc.val)
			require.Equal(tt, tc.found, ok)
			require.Equal(tt, tc.expected, v)
		})
	}
}

func TestRbtree_Higher(t *testing.T) {
	tree := NewRBTree[int64]()
	_, ok := tree.Higher(0)
	require.False(t, ok)

	tree.Add(0)
	v, ok := tree.Higher(-1)
	require.True(t, ok)
	require.Equal(t, int64(0), v)
	_, ok = tree.Higher(0)
	require.False(t, ok)

	for i := int64(1); i <= 10; i++ {
		tree.Add(i)
	}

	testcases := []struct {
		name     string
		val      int64
		expected int64
		found    bool
	}{
		{"-1", -1, 0, true},
		{"min int64", math.MinInt64, 0, true},
		{"1", 1, 2, true},
		{"4", 4, 5, true},
		{"9", 9, 10, true},
		{"10", 10, 0, false},
		{"max int64", math.MaxInt64, 0, false},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			v, ok := tree.Higher(tc.val)
			require.Equal(tt, tc.found, ok)
			require.Equal(tt, tc.expected, v)
		})
	}
}

// The candidate must not be skipped when it still owns a right subtree
// and nothing on its left qualifies.
func TestRbtree_CeilingHigherInnerCandidate(t *testing.T) {
	tree := NewRBTree[int]()
	for _, v := range []int{5, 3, 7} {
		tree.Add(v)
	}
	v, ok := tree.Ceiling(4)
	require.True(t, ok)
	require.Equal(t, 5, v)
	v, ok = tree.Higher(4)
	require.True(t, ok)
	require.Equal(t, 5, v)

	tree = NewRBTree[int]()
	for _, v := range []int{5, 4} {
		tree.Add(v)
	}
	v, ok = tree.Ceiling(4)
	require.True(t, ok)
	require.Equal(t, 4, v)
	v, ok = tree.Higher(4)
	require.True(t, ok)
	require.Equal(t, 5, v)
}

func TestRbtree_RemoveInOrder(t *testing.T) {
	tree := NewRBTree[int]()
	for i := 1; i <= 10; i++ {
		tree.Add(i)
	}
	for i := 1; i <= 10; i++ {
		require.True(t, tree.Contains(i))
	}
	require.Equal(t, int64(10), tree.Size())

	testcases := []struct {
		remove      int
		first, last int
	}{
		{1, 2, 10},
		{5, 2, 10},
		{10, 2, 9},
		{3, 2, 9},
		{7, 2, 9},
		{4, 2, 9},
		{8, 2, 9},
		{2, 6, 9},
		{6, 9, 9},
	}
	size := tree.Size()
	for _, tc := range testcases {
		require.True(t, tree.Remove(tc.remove))
		require.False(t, tree.Remove(tc.remove))
		size--
		require.Equal(t, size, tree.Size())
		require.False(t, tree.Contains(tc.remove))
		first, ok := tree.First()
		require.True(t, ok)
		require.Equal(t, tc.first, first)
		last, ok := tree.Last()
		require.True(t, ok)
		require.Equal(t, tc.last, last)
		requireValidTree[int](t, tree)
	}

	require.True(t, tree.Remove(9))
	require.False(t, tree.Remove(9))
	require.Equal(t, int64(0), tree.Size())
	require.False(t, tree.Contains(9))
	_, ok := tree.First()
	require.False(t, ok)
	_, ok = tree.Last()
	require.False(t, ok)
	require.True(t, tree.IsEmpty())
}

func TestRbtree_Duplicates(t *testing.T) {
	tree := NewRBTree[int]()
	for _, v := range []int{5, 5, 3, 5, 7} {
		tree.Add(v)
		requireValidTree[int](t, tree)
	}
	require.Equal(t, int64(5), tree.Size())
	require.Equal(t, []int{3, 5, 5, 5, 7}, collectTestValues[int](tree.(*rbTree[int])))

	v, ok := tree.Ceiling(5)
	require.True(t, ok)
	require.Equal(t, 5, v)
	v, ok = tree.Higher(4)
	require.True(t, ok)
	require.Equal(t, 5, v)
	v, ok = tree.Higher(5)
	require.True(t, ok)
	require.Equal(t, 7, v)

	for i := 0; i < 3; i++ {
		require.True(t, tree.Contains(5))
		require.True(t, tree.Remove(5))
		requireValidTree[int](t, tree)
	}
	require.False(t, tree.Contains(5))
	require.False(t, tree.Remove(5))
	require.Equal(t, []int{3, 7}, collectTestValues[int](tree.(*rbTree[int])))
}

func TestRbtree_Desc(t *testing.T) {
	tree := NewRBTree[int](WithRBTreeDesc[int](), nil)
	for i := 1; i <= 10; i++ {
		tree.Add(i)
		requireValidTree[int](t, tree)
	}
	require.Equal(t, []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, collectTestValues[int](tree.(*rbTree[int])))

	first, _ := tree.First()
	require.Equal(t, 10, first)
	last, _ := tree.Last()
	require.Equal(t, 1, last)

	v, ok := tree.Ceiling(5)
	require.True(t, ok)
	require.Equal(t, 5, v)
	v, ok = tree.Ceiling(11)
	require.True(t, ok)
	require.Equal(t, 10, v)
	_, ok = tree.Ceiling(0)
	require.False(t, ok)

	v, ok = tree.Higher(5)
	require.True(t, ok)
	require.Equal(t, 4, v)
	_, ok = tree.Higher(1)
	require.False(t, ok)
}

func TestRbtree_StringValues(t *testing.T) {
	tree := NewRBTree[string]()
	for _, v := range []string{"b", "a", "c"} {
		tree.Add(v)
	}
	require.Equal(t, "RBTree[root: b(Black), left: a(Red), right: c(Red)]", tree.String())
	v, ok := tree.Higher("b")
	require.True(t, ok)
	require.Equal(t, "c", v)
	v, ok = tree.Ceiling("aa")
	require.True(t, ok)
	require.Equal(t, "b", v)
}

// 10k values from a bounded range, duplicates permitted.
func TestRbtree_10kRandomValues(t *testing.T) {
	rng := randv2.New(randv2.NewPCG(20240101, 9527))
	tree := NewRBTree[int64]()
	expected := make([]int64, 0, 10_000)
	for i := 0; i < 10_000; i++ {
		v := int64(rng.IntN(10_000)) - 5_000
		tree.Add(v)
		expected = append(expected, v)
	}
	requireValidTree[int64](t, tree)
	require.Equal(t, int64(10_000), tree.Size())

	slices.Sort(expected)
	require.Equal(t, expected, collectTestValues[int64](tree.(*rbTree[int64])))
	first, _ := tree.First()
	require.Equal(t, lo.Min(expected), first)
	last, _ := tree.Last()
	require.Equal(t, lo.Max(expected), last)
}

func rbtreeDifferentialRunCore(t *testing.T, seed uint64, ops int, valueRange int, removeRatio float64) {
	rng := randv2.New(randv2.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	tree := NewRBTree[int64]()
	ref := oracle.SortedSlice[int64]{}

	randValue := func() int64 {
		return int64(rng.IntN(valueRange) - valueRange/2)
	}

	for i := 0; i < ops; i++ {
		v := randValue()
		if rng.Float64() < removeRatio {
			require.Equal(t, ref.Remove(v), tree.Remove(v))
		} else {
			tree.Add(v)
			ref.Add(v)
		}
		requireValidTree[int64](t, tree)
		require.Equal(t, ref.Len(), tree.Size())
		require.Equal(t, len(ref) == 0, tree.IsEmpty())

		target := randValue()
		require.Equal(t, ref.Contains(target), tree.Contains(target))
		expected, expectedOk := ref.Ceiling(target)
		actual, ok := tree.Ceiling(target)
		require.Equalf(t, expectedOk, ok, "ceiling(%d)", target)
		require.Equalf(t, expected, actual, "ceiling(%d)", target)
		expected, expectedOk = ref.Higher(target)
		actual, ok = tree.Higher(target)
		require.Equalf(t, expectedOk, ok, "higher(%d)", target)
		require.Equalf(t, expected, actual, "higher(%d)", target)

		expected, expectedOk = ref.First()
		actual, ok = tree.First()
		require.Equal(t, expectedOk, ok)
		require.Equal(t, expected, actual)
		expected, expectedOk = ref.Last()
		actual, ok = tree.Last()
		require.Equal(t, expectedOk, ok)
		require.Equal(t, expected, actual)
	}
	require.Equal(t, []int64(ref), collectTestValues[int64](tree.(*rbTree[int64])))
}

func TestRbtreeRandomInsertAndRemove_Differential(t *testing.T) {
	testcases := []struct {
		name        string
		seed        uint64
		ops         int
		valueRange  int
		removeRatio float64
	}{
		{"dense duplicates", 1, 3000, 64, 0.45},
		{"sparse", 42, 3000, 100_000, 0.3},
		{"shrinking", 2024, 3000, 500, 0.6},
		{"growing", 9527, 3000, 2000, 0.2},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rbtreeDifferentialRunCore(tt, tc.seed, tc.ops, tc.valueRange, tc.removeRatio)
		})
	}
}

func TestRbtreeRandomInsertAndRemove_Permutation(t *testing.T) {
	rng := randv2.New(randv2.NewPCG(7, 11))
	for round := 0; round < 20; round++ {
		values := lo.RangeFrom(0, 200)
		rng.Shuffle(len(values), func(i, j int) {
			values[i], values[j] = values[j], values[i]
		})
		tree := NewRBTree[int]()
		for _, v := range values {
			tree.Add(v)
		}
		requireValidTree[int](t, tree)

		rng.Shuffle(len(values), func(i, j int) {
			values[i], values[j] = values[j], values[i]
		})
		removed, kept := values[:100], values[100:]
		for _, v := range removed {
			require.True(t, tree.Remove(v))
			requireValidTree[int](t, tree)
		}
		require.Equal(t, int64(len(kept)), tree.Size())

		slices.Sort(kept)
		require.Equal(t, kept, collectTestValues[int](tree.(*rbTree[int])))
		for _, v := range removed {
			require.False(t, tree.Contains(v))
		}
	}
}

func rbtreeRandomInsertAndRemoveSequentialNumberRunCore(t *testing.T, desc bool) {
	total := uint64(1000)
	insertTotal := uint64(float64(total) * 0.8)
	removeTotal := uint64(float64(total) * 0.2)

	opts := []RBTreeOpt[uint64]{}
	if desc {
		opts = append(opts, WithRBTreeDesc[uint64]())
	}
	tree := NewRBTree[uint64](opts...).(*rbTree[uint64])
	expectedAt := func(idx int64, size uint64) uint64 {
		if desc {
			return size - 1 - uint64(idx)
		}
		return uint64(idx)
	}

	for i := uint64(0); i < insertTotal; i++ {
		tree.Add(i)
		requireValidTree[uint64](t, tree)
	}
	tree.foreach(func(idx int64, color RBColor, val uint64) bool {
		require.Equal(t, expectedAt(idx, insertTotal), val)
		return true
	})

	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		tree.Add(i)
		requireValidTree[uint64](t, tree)
	}
	tree.foreach(func(idx int64, color RBColor, val uint64) bool {
		require.Equal(t, expectedAt(idx, total), val)
		return true
	})

	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		require.True(t, tree.Contains(i))
		require.True(t, tree.Remove(i))
		requireValidTree[uint64](t, tree)
	}
	tree.foreach(func(idx int64, color RBColor, val uint64) bool {
		require.Equal(t, expectedAt(idx, insertTotal), val)
		return true
	})
	require.Equal(t, int64(insertTotal), tree.Size())
}

func TestRbtreeRandomInsertAndRemove_SequentialNumber(t *testing.T) {
	testcases := []struct {
		name string
		desc bool
	}{
		{
			name: "asc",
		},
		{
			name: "desc",
			desc: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rbtreeRandomInsertAndRemoveSequentialNumberRunCore(tt, tc.desc)
		})
	}
}

func rbtreeRandomInsertAndRemoveRandomMonoNumberRunCore(t *testing.T, total uint64, violationCheck bool) {
	insertTotal := uint64(float64(total) * 0.8)
	removeTotal := uint64(float64(total) * 0.2)

	idGen := id.NewSequence(0)
	insertElements := make([]uint64, 0, insertTotal)
	removeElements := make([]uint64, 0, removeTotal)

	rng := randv2.New(randv2.NewPCG(total, 0x5eed))
	ignore := uint32(0)
	for {
		num := idGen.Number()
		if ignore > 0 {
			ignore--
			continue
		}
		ignore = rng.Uint32() % 100
		if ignore&0x1 == 0 && uint64(len(insertElements)) < insertTotal {
			insertElements = append(insertElements, num)
		} else if ignore&0x1 == 1 && uint64(len(removeElements)) < removeTotal {
			removeElements = append(removeElements, num)
		}
		if uint64(len(insertElements)) == insertTotal && uint64(len(removeElements)) == removeTotal {
			break
		}
	}

	rng.Shuffle(len(insertElements), func(i, j int) {
		insertElements[i], insertElements[j] = insertElements[j], insertElements[i]
	})
	rng.Shuffle(len(removeElements), func(i, j int) {
		removeElements[i], removeElements[j] = removeElements[j], removeElements[i]
	})

	tree := NewRBTree[uint64]().(*rbTree[uint64])
	for i := uint64(0); i < insertTotal; i++ {
		tree.Add(insertElements[i])
		if violationCheck {
			requireValidTree[uint64](t, tree)
		}
	}
	sort.Slice(insertElements, func(i, j int) bool {
		return insertElements[i] < insertElements[j]
	})
	tree.foreach(func(idx int64, color RBColor, val uint64) bool {
		require.Equal(t, insertElements[idx], val)
		return true
	})

	for i := uint64(0); i < removeTotal; i++ {
		tree.Add(removeElements[i])
		if violationCheck {
			requireValidTree[uint64](t, tree)
		}
	}
	requireValidTree[uint64](t, tree)

	for i := uint64(0); i < removeTotal; i++ {
		require.Truef(t, tree.Remove(removeElements[i]), "value exp: %d\n", removeElements[i])
		if violationCheck {
			requireValidTree[uint64](t, tree)
		}
	}
	requireValidTree[uint64](t, tree)
	tree.foreach(func(idx int64, color RBColor, val uint64) bool {
		require.Equal(t, insertElements[idx], val)
		return true
	})
}

func TestRbtreeRandomInsertAndRemove_RandomMonotonicNumber(t *testing.T) {
	type testcase struct {
		name           string
		total          uint64
		violationCheck bool
	}
	testcases := []testcase{
		{
			name:  "100000",
			total: 100_000,
		},
		{
			name:           "violation check 2000",
			total:          2000,
			violationCheck: true,
		},
		{
			name:           "violation check 5000",
			total:          5000,
			violationCheck: true,
		},
	}
	t.Parallel()
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rbtreeRandomInsertAndRemoveRandomMonoNumberRunCore(tt, tc.total, tc.violationCheck)
		})
	}
}

func BenchmarkRBTree_Random(b *testing.B) {
	b.StopTimer()
	tree := NewRBTree[int]()

	rngArr := make([]int, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, randv2.Int())
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Add(rngArr[i])
	}
}

func BenchmarkRBTree_Serial(b *testing.B) {
	tree := NewRBTree[int]()
	for i := 0; i < b.N; i++ {
		tree.Add(i)
	}
}

func BenchmarkRBTree_Ceiling(b *testing.B) {
	b.StopTimer()
	tree := NewRBTree[int]()
	for i := 0; i < 100_000; i++ {
		tree.Add(i << 1)
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		_, _ = tree.Ceiling(i % 200_000)
	}
}
