package node

// Marker links an internal separator to a block residing in a lower LSM
// level. Index -1 is the "leftmost" marker, stored in the node header;
// indices 0..size-1 are attached to the corresponding slot. A marker with
// BlockIndex == 0 is empty (no block assigned).
type Marker struct {
	Index      int
	BlockIndex int64
	PagesUsed  int32
}

func (n *Node[K, V]) navigateToMarker(index int) {
	n.buf.SetPosition(n.recordMarkerPosition(index))
}

func (n *Node[K, V]) requireInternal() {
	if n.isLeaf() {
		panic(ErrMarkerOnLeaf)
	}
}

// MarkerAt decodes the marker at logical index (-1 for the leftmost
// marker, 0..size-1 for a slot's attached marker).
func (n *Node[K, V]) MarkerAt(index int) Marker {
	n.requireInternal()
	n.navigateToMarker(index)
	return Marker{Index: index, BlockIndex: n.decodePointer(), PagesUsed: n.decodePosition()}
}

// MarkerBlockIndexAt decodes just the block index of the marker at index,
// without paying for the pages-used field.
func (n *Node[K, V]) MarkerBlockIndexAt(index int) int64 {
	n.requireInternal()
	n.navigateToMarker(index)
	return n.decodePointer()
}

// NearestMarker scans backward from searchIndex's minus-one-based
// position until it finds a non-empty marker. The leftmost marker (index
// -1) is a precondition of this search: tree construction must ensure it
// is always non-empty. If the scan passes index -1 without finding a
// non-empty marker, NearestMarker panics with ErrNoLeftmostMarker.
func (n *Node[K, V]) NearestMarker(searchIndex int) Marker {
	n.requireInternal()
	index := ToMinusOneBasedIndex(searchIndex)
	for {
		n.navigateToMarker(index)
		blockIndex := n.decodePointer()
		if blockIndex != 0 {
			return Marker{Index: index, BlockIndex: blockIndex, PagesUsed: n.decodePosition()}
		}

		index--
		if index < -1 {
			panic(ErrNoLeftmostMarker)
		}
	}
}

// UpdateMarker overwrites the marker at index with a new block index and
// pages-used count. index must be in [-1, size).
func (n *Node[K, V]) UpdateMarker(index int, blockIndex int64, pagesUsed int32) {
	n.requireInternal()
	if index < -1 || index >= n.GetSize() {
		panic(ErrIndexOutOfRange)
	}

	n.navigateToMarker(index)
	n.encodePointer(blockIndex)
	n.encodePosition(pagesUsed)
}

// UpdateMarkerPagesUsed overwrites only the pages-used counter of the
// marker at index, leaving its block index untouched.
func (n *Node[K, V]) UpdateMarkerPagesUsed(index int, pagesUsed int32) {
	n.requireInternal()
	n.navigateToMarker(index)
	n.buf.Seek(n.pointerEncoder.MaximumSize())
	n.encodePosition(pagesUsed)
}

// LeftMostMarkerIndex is always -1: the logical index of the header's
// leftmost marker.
func (n *Node[K, V]) LeftMostMarkerIndex() int {
	return -1
}

// RightMostMarkerIndex scans slot markers from size-1 downward for the
// first non-empty one, returning -1 if every slot marker is empty. The
// leftmost marker itself is not inspected.
func (n *Node[K, V]) RightMostMarkerIndex() int {
	n.requireInternal()
	for i := n.GetSize() - 1; i >= 0; i-- {
		n.navigateToMarker(i)
		if n.decodePointer() != 0 {
			return i
		}
	}
	return n.LeftMostMarkerIndex()
}
