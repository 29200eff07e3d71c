package tree

import (
	randv2 "math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAVLTree_FingerSearch_PathCount(t *testing.T) {
	tree := NewAVLTree[int, int]()
	for i := 1; i <= 7; i++ {
		tree.FingerInsert(i, i)
	}
	require.Equal(t, []int{4, 2, 1, 3, 6, 5, 7}, preorderKeys[int, int](tree.Root()))

	testcases := []struct {
		key    int
		found  bool
		visits int
	}{
		{7, true, 1},
		{6, true, 2},
		{5, true, 3},
		{4, true, 3},
		{1, true, 5},
		{8, false, 1},
		{0, false, 5},
	}
	for _, tc := range testcases {
		node, visits := tree.FingerSearch(tc.key)
		if tc.found {
			require.NotNil(t, node)
			require.Equal(t, tc.key, node.Key())
		} else {
			require.Nil(t, node)
		}
		require.Equal(t, tc.visits, visits, "key %d", tc.key)
	}
}

func TestAVLTree_FingerSearch_Equivalence(t *testing.T) {
	tree := NewAVLTree[int, int]()
	for _, key := range randv2.Perm(2048) {
		tree.Insert(key*3, key)
	}
	for key := -3; key < 2048*3+3; key++ {
		expected, _ := tree.Search(key)
		actual, _ := tree.FingerSearch(key)
		if expected == nil {
			require.Nil(t, actual, "key %d", key)
			continue
		}
		require.NotNil(t, actual, "key %d", key)
		require.Equal(t, expected.Key(), actual.Key())
		require.Equal(t, expected.Val(), actual.Val())
	}
}

func TestAVLTree_FingerInsert_SameShape(t *testing.T) {
	keys := make([]int, 0, 3000)
	for i := 0; i < 3000; i++ {
		keys = append(keys, randv2.IntN(1000))
	}
	byRoot, byFinger := NewAVLTree[int, int](), NewAVLTree[int, int]()
	for i, key := range keys {
		n1, _, p1 := byRoot.Insert(key, i)
		n2, _, p2 := byFinger.FingerInsert(key, i)
		require.Equal(t, n1.Key(), n2.Key())
		require.Equal(t, p1, p2)
	}
	requireAVLValid[int, int](t, byFinger)
	require.Equal(t, preorderKeys[int, int](byRoot.Root()), preorderKeys[int, int](byFinger.Root()))
	require.Equal(t, byRoot.ToSortedArray(), byFinger.ToSortedArray())
}

func TestAVLTree_FingerInsert_SortedCost(t *testing.T) {
	total := 1 << 12
	tree := NewAVLTree[int, int]()
	cost := 0
	for i := 0; i < total; i++ {
		_, visits, _ := tree.FingerInsert(i, i)
		cost += visits
	}
	require.Equal(t, total-1, cost)
	requireAVLValid[int, int](t, tree)

	// Upsert through the finger.
	node, visits, promotions := tree.FingerInsert(total-1, -1)
	require.Equal(t, -1, node.Val())
	require.Equal(t, 1, visits)
	require.Zero(t, promotions)
	require.Equal(t, int64(total), tree.Size())
}

func BenchmarkAVLTree_FingerInsert_Serial(b *testing.B) {
	tree := NewAVLTree[int, int]()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.FingerInsert(i, i)
	}
	b.ReportAllocs()
}
