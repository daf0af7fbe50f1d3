package node_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arvindsridhar/sebtree/sebtree/node"
)

func TestSearchHelperRoundTrip(t *testing.T) {
	for i := 0; i < 20; i++ {
		insertionPoint := node.ToInsertionPoint(i)
		require.True(t, node.IsInsertionPoint(insertionPoint))
		require.Equal(t, i, node.ToIndex(insertionPoint))
	}
}

func TestToMinusOneBasedIndex(t *testing.T) {
	// A match at slot i maps to i itself.
	require.Equal(t, 3, node.ToMinusOneBasedIndex(3))

	// A miss encoding "insert before slot 0" maps to -1 (no key <= search key).
	require.Equal(t, -1, node.ToMinusOneBasedIndex(node.ToInsertionPoint(0)))

	// A miss encoding "insert before slot i" maps to i-1.
	require.Equal(t, 2, node.ToMinusOneBasedIndex(node.ToInsertionPoint(3)))
}

func TestIsPrecedingHoldsForAllValidIndices(t *testing.T) {
	for i := 0; i < 20; i++ {
		left := node.ToInsertionPoint(i)
		right := node.ToInsertionPoint(i + 1)
		require.True(t, node.IsPreceding(left, right))
	}
}

func TestIndexOfMatchesAndMisses(t *testing.T) {
	buf := newTestPage(t)
	n := createU32Leaf(t, buf)

	w, err := n.BeginWrite()
	require.NoError(t, err)
	for _, k := range []uint32{10, 20, 30, 40} {
		w.InsertValue(w.IndexOf(k), k, 4, k*10, 4)
	}

	require.Equal(t, 0, w.IndexOf(10))
	require.Equal(t, 2, w.IndexOf(30))

	// A miss must decode back to the unique insertion point preserving order.
	miss := w.IndexOf(25)
	require.True(t, node.IsInsertionPoint(miss))
	require.Equal(t, 2, node.ToIndex(miss))

	w.EndWrite()
}
