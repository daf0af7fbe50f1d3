package node_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternalInsertWithMarker(t *testing.T) {
	buf := newTestPage(t)
	n := createU32Internal(t, buf)

	w, err := n.BeginWrite()
	require.NoError(t, err)

	w.SetLeftPointer(100)
	w.InsertPointer(0, uint32(5), 4, 200, 7, 3)

	require.Equal(t, int64(100), w.PointerAt(w.IndexOf(3)))
	require.Equal(t, int64(200), w.PointerAt(w.IndexOf(5)))

	marker := w.MarkerAt(0)
	require.Equal(t, int64(7), marker.BlockIndex)
	require.Equal(t, int32(3), marker.PagesUsed)

	// nearestMarker for a key below every separator resolves to the
	// leftmost marker; establish it non-empty first per the documented
	// precondition that the leftmost marker is always assigned by the
	// tree that owns this node.
	w.UpdateMarker(-1, 9, 1)
	nearest := w.NearestMarker(w.IndexOf(4))
	require.Equal(t, -1, nearest.Index)
	require.Equal(t, int64(9), nearest.BlockIndex)

	w.EndWrite()
}

func TestNearestMarkerScanWithAllMarkersEmptyPanics(t *testing.T) {
	buf := newTestPage(t)
	n := createU32Internal(t, buf)

	w, err := n.BeginWrite()
	require.NoError(t, err)

	w.SetLeftPointer(1)
	w.InsertPointer(0, uint32(5), 4, 2, 0, 0)

	// No marker anywhere on the page is non-empty; the scan runs off the
	// leftmost marker and must signal the programming-contract breach
	// rather than loop indefinitely.
	require.Panics(t, func() {
		w.NearestMarker(w.IndexOf(4))
	})

	w.EndWrite()
}

func TestRightMostMarkerIndexWithAllMarkersEmpty(t *testing.T) {
	buf := newTestPage(t)
	n := createU32Internal(t, buf)

	w, err := n.BeginWrite()
	require.NoError(t, err)

	w.SetLeftPointer(1)
	w.InsertPointer(0, uint32(5), 4, 2, 0, 0)
	w.InsertPointer(1, uint32(9), 4, 3, 0, 0)

	require.Equal(t, -1, w.RightMostMarkerIndex())

	w.UpdateMarker(0, 11, 2)
	require.Equal(t, 0, w.RightMostMarkerIndex())

	w.EndWrite()
}

func TestUpdatePointerOnLeftPointer(t *testing.T) {
	buf := newTestPage(t)
	n := createU32Internal(t, buf)

	w, err := n.BeginWrite()
	require.NoError(t, err)

	w.SetLeftPointer(1)
	w.UpdatePointer(-1, 42)
	require.Equal(t, int64(42), w.GetLeftPointer())

	w.EndWrite()
}

func TestMarkerOnLeafPanics(t *testing.T) {
	buf := newTestPage(t)
	n := createU32Leaf(t, buf)

	w, err := n.BeginWrite()
	require.NoError(t, err)

	require.Panics(t, func() {
		w.MarkerAt(0)
	})
	require.Panics(t, func() {
		w.GetLeftPointer()
	})

	w.EndWrite()
}
