package node

// PointerAt resolves the child page pointer that guards the key range
// identified by keyIndex, which may be either a matching slot index or an
// insertion-point search result: the left-pointer for the range before
// slot 0, or slot i-1's pointer for the range starting at the insertion
// point before slot i.
func (n *Node[K, V]) PointerAt(keyIndex int) int64 {
	if IsInsertionPoint(keyIndex) {
		index := ToIndex(keyIndex)
		if index == 0 {
			return n.GetLeftPointer()
		}
		return n.getPointer(index - 1)
	}
	return n.getPointer(keyIndex)
}

func (n *Node[K, V]) getPointer(index int) int64 {
	n.buf.SetPosition(n.recordValuePosition(index))
	return n.decodePointer()
}

// UpdatePointer overwrites the child pointer guarding index's key range.
// index == -1 updates the left-pointer.
func (n *Node[K, V]) UpdatePointer(index int, pointer int64) {
	if index == -1 {
		n.SetLeftPointer(pointer)
		return
	}
	n.buf.SetPosition(n.recordValuePosition(index))
	n.encodePointer(pointer)
}

// InsertPointer inserts a new internal separator at the given plain slot
// index (not an insertion-point encoding), with its child pointer and
// initial marker. The caller must have already checked
// DeltaFits(FullEntrySize(keySize, pointerEncoder.MaximumSize())) and
// CheckEntrySize.
func (n *Node[K, V]) InsertPointer(index int, key K, keySize int, pointer, markerBlockIndex int64, markerPagesUsed int32) {
	n.addKeyPointer(index, key, keySize, pointer, markerBlockIndex, markerPagesUsed)
}

func (n *Node[K, V]) addKeyPointer(index int, key K, keySize int, pointer, markerBlockIndex int64, markerPagesUsed int32) {
	n.allocateRecord(index)

	if n.keysInlined {
		if err := n.keyEncoder.Encode(key, n.buf); err != nil {
			panic(err)
		}
	} else {
		dataPosition := n.allocateData(n.GetFreeDataPosition(), keySize)
		n.encodePosition(int32(dataPosition))

		n.buf.SetPosition(dataPosition)
		if err := n.keyEncoder.Encode(key, n.buf); err != nil {
			panic(err)
		}

		n.setFreeDataPosition(dataPosition)
	}

	n.buf.SetPosition(n.recordValuePosition(index))
	n.encodePointer(pointer)
	n.encodePointer(markerBlockIndex)
	n.encodePosition(markerPagesUsed)

	n.setSize(n.GetSize() + 1)
}
