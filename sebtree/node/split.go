package node

// MoveTailTo moves the last length records of n to positions [0, length)
// of dest, an empty node of the same shape (leaf or internal), then
// compacts n to retain only its first size-length records. Both nodes are
// rebuilt by decode-then-reinsert, which eliminates any data-region
// fragmentation as a side effect.
func (n *Node[K, V]) MoveTailTo(dest *Node[K, V], length int) {
	if length == 0 {
		return
	}

	if n.isLeaf() {
		n.leafMoveTailTo(dest, length)
	} else {
		n.nonLeafMoveTailTo(dest, length)
	}
}

type leafEntry[K, V any] struct {
	key       K
	keySize   int
	value     V
	valueSize int
}

func (n *Node[K, V]) leafMoveTailTo(dest *Node[K, V], length int) {
	size := n.GetSize()
	remaining := size - length

	for i := 0; i < length; i++ {
		index := remaining + i

		n.navigateToKey(index)
		keyStart := n.buf.GetPosition()
		key, err := n.keyEncoder.Decode(n.buf)
		if err != nil {
			panic(err)
		}
		keySize := n.buf.GetPosition() - keyStart

		n.navigateToValue(index)
		valueStart := n.buf.GetPosition()
		value, err := n.valueEncoder.Decode(n.buf)
		if err != nil {
			panic(err)
		}
		valueSize := n.buf.GetPosition() - valueStart

		dest.addKeyValue(i, key, keySize, value, valueSize)
	}

	kept := make([]leafEntry[K, V], remaining)
	for i := 0; i < remaining; i++ {
		n.navigateToKey(i)
		keyStart := n.buf.GetPosition()
		key, err := n.keyEncoder.Decode(n.buf)
		if err != nil {
			panic(err)
		}
		keySize := n.buf.GetPosition() - keyStart

		n.navigateToValue(i)
		valueStart := n.buf.GetPosition()
		value, err := n.valueEncoder.Decode(n.buf)
		if err != nil {
			panic(err)
		}
		valueSize := n.buf.GetPosition() - valueStart

		kept[i] = leafEntry[K, V]{key: key, keySize: keySize, value: value, valueSize: valueSize}
	}

	n.clear()
	for i, e := range kept {
		n.addKeyValue(i, e.key, e.keySize, e.value, e.valueSize)
	}
}

type internalEntry[K any] struct {
	key              K
	keySize          int
	pointer          int64
	markerBlockIndex int64
	markerPagesUsed  int32
}

func (n *Node[K, V]) nonLeafMoveTailTo(dest *Node[K, V], length int) {
	size := n.GetSize()
	remaining := size - length

	for i := 0; i < length; i++ {
		index := remaining + i

		n.navigateToKey(index)
		keyStart := n.buf.GetPosition()
		key, err := n.keyEncoder.Decode(n.buf)
		if err != nil {
			panic(err)
		}
		keySize := n.buf.GetPosition() - keyStart

		n.buf.SetPosition(n.recordValuePosition(index))
		pointer := n.decodePointer()
		markerBlockIndex := n.decodePointer()
		markerPagesUsed := n.decodePosition()

		dest.addKeyPointer(i, key, keySize, pointer, markerBlockIndex, markerPagesUsed)
	}

	kept := make([]internalEntry[K], remaining)
	for i := 0; i < remaining; i++ {
		n.navigateToKey(i)
		keyStart := n.buf.GetPosition()
		key, err := n.keyEncoder.Decode(n.buf)
		if err != nil {
			panic(err)
		}
		keySize := n.buf.GetPosition() - keyStart

		n.buf.SetPosition(n.recordValuePosition(i))
		pointer := n.decodePointer()
		markerBlockIndex := n.decodePointer()
		markerPagesUsed := n.decodePosition()

		kept[i] = internalEntry[K]{
			key: key, keySize: keySize,
			pointer: pointer, markerBlockIndex: markerBlockIndex, markerPagesUsed: markerPagesUsed,
		}
	}

	n.clear()
	for i, e := range kept {
		n.addKeyPointer(i, e.key, e.keySize, e.pointer, e.markerBlockIndex, e.markerPagesUsed)
	}
}

func (n *Node[K, V]) clear() {
	n.setSize(0)
	n.setFreeDataPosition(n.config.PageBytes)
}

// CountEntriesToMoveUntilHalfFree scans records from the tail, summing
// full entry sizes computed from live (exact, not worst-case) key/value
// sizes, and returns how many must move for at least half the page's
// split budget to be free afterward.
//
// The source this was ported from iterated "for (i = size-1; size >= 0;
// --i)" — a loop condition that tests size, not i, making it loop forever
// whenever size > 0. This iterates i down to 0 instead.
func (n *Node[K, V]) CountEntriesToMoveUntilHalfFree() int {
	size := n.GetSize()
	leaf := n.isLeaf()
	half := n.halfSize()

	entriesToMove := 0
	bytesFree := n.GetFreeBytes()
	for i := size - 1; i >= 0; i-- {
		if bytesFree >= half {
			break
		}

		keySize := n.getKeySize(i)

		var valueSize int
		if leaf {
			valueSize = n.getValueSize(i)
		} else {
			valueSize = n.pointerEncoder.MaximumSize()
		}

		bytesFree += n.FullEntrySize(keySize, valueSize)
		entriesToMove++
	}

	return entriesToMove
}
