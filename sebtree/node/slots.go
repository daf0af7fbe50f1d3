package node

// recordKeyPosition is the byte offset of slot index's key part.
func (n *Node[K, V]) recordKeyPosition(index int) int {
	return n.recordsOffset() + index*n.recordSize
}

// recordValuePosition is the byte offset of slot index's value part: the
// inline value, out-of-line offset, or (internal) child pointer.
func (n *Node[K, V]) recordValuePosition(index int) int {
	keyWidth := n.positionEncoder.MaximumSize()
	if n.keysInlined {
		keyWidth = n.keyEncoder.MaximumSize()
	}
	return n.recordKeyPosition(index) + keyWidth
}

// recordMarkerPosition is the byte offset of the marker attached to
// internal slot index, or the header's leftmost-marker field for index -1.
func (n *Node[K, V]) recordMarkerPosition(index int) int {
	if index == -1 {
		return n.offsets.leftMarkerBlock
	}
	return n.recordValuePosition(index) + n.pointerEncoder.MaximumSize()
}

func (n *Node[K, V]) navigateToKey(index int) {
	n.buf.SetPosition(n.recordKeyPosition(index))
	if !n.keysInlined {
		n.buf.SetPosition(int(n.decodePosition()))
	}
}

func (n *Node[K, V]) getKey(index int) K {
	n.navigateToKey(index)
	key, err := n.keyEncoder.Decode(n.buf)
	if err != nil {
		panic(err)
	}
	return key
}

// KeyAt decodes the key stored in slot index.
func (n *Node[K, V]) KeyAt(index int) K { return n.getKey(index) }

func (n *Node[K, V]) getKeySize(index int) int {
	if n.keysInlined {
		return n.keyEncoder.MaximumSize()
	}
	n.navigateToKey(index)
	size, err := n.keyEncoder.ExactSizeInStream(n.buf)
	if err != nil {
		panic(err)
	}
	return size
}

// KeySizeAt is the exact encoded byte length of the key stored in slot
// index (the encoder's maximum size, for an inlined key).
func (n *Node[K, V]) KeySizeAt(index int) int { return n.getKeySize(index) }

// GetFreeBytes is the number of unused bytes between the slot directory's
// end and the start of the variable data region.
func (n *Node[K, V]) GetFreeBytes() int {
	return n.GetFreeDataPosition() - n.GetSize()*n.recordSize - n.recordsOffset()
}

// DeltaFits reports whether growing the node's occupied space by
// sizeDelta bytes still leaves the two regions disjoint.
func (n *Node[K, V]) DeltaFits(sizeDelta int) bool {
	return sizeDelta <= n.GetFreeBytes()
}

// FullEntrySize is the total slot-directory-plus-data-region footprint of
// an entry with the given encoded key/value sizes, accounting for
// out-of-line offsets and (internal) marker storage.
func (n *Node[K, V]) FullEntrySize(keySize, valueSize int) int {
	size := keySize + valueSize

	if !n.keysInlined {
		size += n.positionEncoder.MaximumSize()
	}
	if n.isLeaf() {
		if !n.valuesInlined {
			size += n.positionEncoder.MaximumSize()
		}
	} else {
		size += n.markerSize
	}

	return size
}

// CheckEntrySize returns ErrTooLargeEntry if entrySize exceeds the page's
// MAX_ENTRY_SIZE, the limit that guarantees any page holds at least two
// records and that split can always make progress.
func (n *Node[K, V]) CheckEntrySize(entrySize int) error {
	if entrySize > n.maxEntrySize() {
		return ErrTooLargeEntry
	}
	return nil
}

// allocateData carves length bytes off the low end of the free data
// region and returns the new free-data-position.
func (n *Node[K, V]) allocateData(freePosition, length int) int {
	return freePosition - length
}

// deleteData releases the length-byte range starting at position,
// compacting the data region by sliding everything below position up by
// length bytes and patching every out-of-line slot offset that pointed
// below position. Returns the new free-data-position.
func (n *Node[K, V]) deleteData(freePosition, position, length int) int {
	if position > freePosition {
		n.buf.MoveData(freePosition, freePosition+length, position-freePosition)

		leaf := n.isLeaf()

		n.buf.SetPosition(n.recordsOffset())
		size := n.GetSize()
		for i := 0; i < size; i++ {
			if n.keysInlined {
				n.buf.Seek(n.keyEncoder.MaximumSize())
			} else {
				keyPosition := n.buf.GetPosition()
				keyDataPosition := int(n.decodePosition())
				if keyDataPosition < position {
					n.buf.SetPosition(keyPosition)
					n.encodePosition(int32(keyDataPosition+length))
				}
			}

			if !leaf {
				n.buf.Seek(n.pointerEncoder.MaximumSize() + n.markerSize)
			} else if n.valuesInlined {
				n.buf.Seek(n.valueEncoder.MaximumSize())
			} else {
				valuePosition := n.buf.GetPosition()
				valueDataPosition := int(n.decodePosition())
				if valueDataPosition < position {
					n.buf.SetPosition(valuePosition)
					n.encodePosition(int32(valueDataPosition+length))
				}
			}
		}
	}

	return freePosition + length
}

// allocateRecord shifts slots [index, size) one slot width rightward to
// open a gap at index, and positions the cursor at the new slot start. It
// does not change size.
func (n *Node[K, V]) allocateRecord(index int) {
	recordPosition := n.recordKeyPosition(index)

	if index < n.GetSize() {
		n.buf.MoveData(recordPosition, recordPosition+n.recordSize, (n.GetSize()-index)*n.recordSize)
	}

	n.buf.SetPosition(recordPosition)
}

// deleteRecord shifts slots [index+1, size) one slot width leftward,
// closing the gap left by removing slot index. It does not change size.
func (n *Node[K, V]) deleteRecord(index int) {
	recordPosition := n.recordKeyPosition(index)

	if index < n.GetSize()-1 {
		n.buf.MoveData(recordPosition+n.recordSize, recordPosition, (n.GetSize()-index-1)*n.recordSize)
	}
}

// Delete removes the record at index, releasing any out-of-line key/value
// bytes it owned and compacting the slot directory. keySize and valueSize
// must be the record's actual encoded sizes (KeySizeAt / ValueSizeAt).
func (n *Node[K, V]) Delete(index, keySize, valueSize int) {
	if !n.keysInlined {
		n.buf.SetPosition(n.recordKeyPosition(index))
		keyDataPosition := int(n.decodePosition())
		n.setFreeDataPosition(n.deleteData(n.GetFreeDataPosition(), keyDataPosition, keySize))
	}

	if n.isLeaf() && !n.valuesInlined {
		n.buf.SetPosition(n.recordValuePosition(index))
		valueDataPosition := int(n.decodePosition())
		n.setFreeDataPosition(n.deleteData(n.GetFreeDataPosition(), valueDataPosition, valueSize))
	}

	n.deleteRecord(index)

	n.setSize(n.GetSize() - 1)
}
