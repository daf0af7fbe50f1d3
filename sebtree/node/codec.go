package node

// decodePosition and encodePosition wrap the position encoder's fallible
// contract for the hot paths that can never actually fail against a
// well-formed page: a fixed-width int32 encoder only errors on a short or
// torn buffer, which would mean the page itself is corrupt.
func (n *Node[K, V]) decodePosition() int32 {
	v, err := n.positionEncoder.Decode(n.buf)
	if err != nil {
		panic(err)
	}
	return v
}

func (n *Node[K, V]) encodePosition(v int32) {
	if err := n.positionEncoder.Encode(v, n.buf); err != nil {
		panic(err)
	}
}

func (n *Node[K, V]) decodePointer() int64 {
	v, err := n.pointerEncoder.Decode(n.buf)
	if err != nil {
		panic(err)
	}
	return v
}

func (n *Node[K, V]) encodePointer(v int64) {
	if err := n.pointerEncoder.Encode(v, n.buf); err != nil {
		panic(err)
	}
}
