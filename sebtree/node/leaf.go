package node

// navigateToValue positions the cursor at slot index's value: the inline
// bytes, or (if not inlined) the bytes at the out-of-line offset stored
// in the slot.
func (n *Node[K, V]) navigateToValue(index int) {
	n.buf.SetPosition(n.recordValuePosition(index))
	if !n.valuesInlined {
		n.buf.SetPosition(int(n.decodePosition()))
	}
}

func (n *Node[K, V]) getValue(index int) V {
	n.navigateToValue(index)
	value, err := n.valueEncoder.Decode(n.buf)
	if err != nil {
		panic(err)
	}
	return value
}

// ValueAt decodes the value stored in leaf slot index.
func (n *Node[K, V]) ValueAt(index int) V { return n.getValue(index) }

func (n *Node[K, V]) getValueSize(index int) int {
	if n.valuesInlined {
		return n.valueEncoder.MaximumSize()
	}
	n.navigateToValue(index)
	size, err := n.valueEncoder.ExactSizeInStream(n.buf)
	if err != nil {
		panic(err)
	}
	return size
}

// ValueSizeAt is the exact encoded byte length of the value stored in
// leaf slot index.
func (n *Node[K, V]) ValueSizeAt(index int) int { return n.getValueSize(index) }

// InsertValue inserts a new leaf record at the slot the given search
// result's insertion point names. The caller must have already checked
// DeltaFits(FullEntrySize(keySize, valueSize)) and CheckEntrySize.
func (n *Node[K, V]) InsertValue(searchIndex int, key K, keySize int, value V, valueSize int) {
	n.addKeyValue(ToIndex(searchIndex), key, keySize, value, valueSize)
}

func (n *Node[K, V]) addKeyValue(index int, key K, keySize int, value V, valueSize int) {
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
	if n.valuesInlined {
		if err := n.valueEncoder.Encode(value, n.buf); err != nil {
			panic(err)
		}
	} else {
		dataPosition := n.allocateData(n.GetFreeDataPosition(), valueSize)
		n.encodePosition(int32(dataPosition))

		n.buf.SetPosition(dataPosition)
		if err := n.valueEncoder.Encode(value, n.buf); err != nil {
			panic(err)
		}

		n.setFreeDataPosition(dataPosition)
	}

	n.setSize(n.GetSize() + 1)
}

// UpdateValue overwrites the value stored in leaf slot index. newSize and
// currentSize must be the new and existing encoded byte lengths.
func (n *Node[K, V]) UpdateValue(index int, value V, newSize, currentSize int) {
	n.navigateToValue(index)

	if !n.valuesInlined && currentSize != newSize {
		dataPosition := n.deleteData(n.GetFreeDataPosition(), n.buf.GetPosition(), currentSize)
		dataPosition = n.allocateData(dataPosition, newSize)

		n.buf.SetPosition(n.recordValuePosition(index))
		n.encodePosition(int32(dataPosition))

		n.setFreeDataPosition(dataPosition)
		n.buf.SetPosition(dataPosition)
	}

	if err := n.valueEncoder.Encode(value, n.buf); err != nil {
		panic(err)
	}
}
