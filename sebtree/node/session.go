package node

import "fmt"

// BeginRead acquires a shared latch on the page and loads the eagerly
// needed header fields (flags, size). Callers must pair this with EndRead.
func (n *Node[K, V]) BeginRead() (*Node[K, V], error) {
	n.buf.RLock()

	n.flags = n.buf.GetByte(n.offsets.flags)
	n.size = int(n.buf.GetInt(n.offsets.size))

	if err := n.initialize(false); err != nil {
		n.buf.RUnlock()
		return nil, err
	}
	return n, nil
}

// EndRead asserts no header field was mutated during the session, clears
// the loaded-fields cache, and releases the shared latch.
func (n *Node[K, V]) EndRead() *Node[K, V] {
	if n.dirtyFields != 0 {
		panic(ErrDirtyOnReadClose)
	}

	n.loadedFields = 0

	n.buf.RUnlock()
	return n
}

// BeginWrite acquires an exclusive latch on the page and loads the eagerly
// needed header fields. Callers must pair this with EndWrite.
func (n *Node[K, V]) BeginWrite() (*Node[K, V], error) {
	n.buf.Lock()

	n.flags = n.buf.GetByte(n.offsets.flags)
	n.size = int(n.buf.GetInt(n.offsets.size))

	if err := n.initialize(false); err != nil {
		n.buf.Unlock()
		return nil, err
	}
	return n, nil
}

// EndWrite writes back every dirty header field, clears the loaded/dirty
// caches, and releases the exclusive latch.
func (n *Node[K, V]) EndWrite() *Node[K, V] {
	if n.dirtyFields != 0 {
		if n.dirty(freeDataPositionField) {
			n.buf.SetInt(n.offsets.freeDataPosition, int32(n.freeDataPosition))
		}
		if n.dirty(flagsField) {
			n.buf.SetByte(n.offsets.flags, n.flags)
		}
		if n.dirty(sizeField) {
			n.buf.SetInt(n.offsets.size, int32(n.size))
		}
		if n.dirty(treeSizeField) {
			n.buf.SetLong(n.offsets.treeSize, n.treeSize)
		}
	}

	n.loadedFields = 0
	n.dirtyFields = 0

	n.buf.Unlock()
	return n
}

// BeginCreate acquires an exclusive latch on a freshly allocated page. The
// caller must call Create exactly once before the session ends.
func (n *Node[K, V]) BeginCreate() *Node[K, V] {
	n.buf.Lock()
	return n
}

// Create initializes every header field of a freshly allocated page as a
// leaf or internal node with zero records.
func (n *Node[K, V]) Create(leaf bool) error {
	n.setFreeDataPosition(n.config.PageBytes)
	n.setLeaf(leaf)
	n.SetContinuedFrom(false)
	n.SetContinuedTo(false)
	n.setEncodersVersion(n.config.EncodersVersion)
	n.setFlag(extensionFlagMask, false)
	n.setSize(0)
	n.SetTreeSize(0)
	n.SetLeftSibling(0)
	n.SetRightSibling(0)

	return n.initializeForce()
}

// CreateDummy prepares a page that has not been initialized through Create:
// it sets only the free-data-position (to PageBytes) and leaves flags,
// size and the record-layout descriptor untouched.
func (n *Node[K, V]) CreateDummy() *Node[K, V] {
	n.setFreeDataPosition(n.config.PageBytes)
	return n
}

// initialize resolves the encoders for the page's on-disk encoders
// version and computes the record-layout descriptor (recordSize,
// markerSize, keysInlined, valuesInlined). Unless force is set it is a
// no-op once encoders have been resolved for this Node, so a later session
// on the same Node reuses them without re-reading the on-page version or
// leaf flag; Create and ConvertToNonLeaf force re-resolution.
func (n *Node[K, V]) initialize(force bool) error {
	if n.keyEncoder != nil && !force {
		return nil
	}
	return n.initializeForce()
}

func (n *Node[K, V]) initializeForce() error {
	version := n.getEncodersVersion()

	keyEncoder, err := n.keyProvider.Encoder(version)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVersionMismatch, err)
	}
	valueEncoder, err := n.valueProvider.Encoder(version)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVersionMismatch, err)
	}
	positionEncoder, err := n.config.PositionProvider.Encoder(version)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVersionMismatch, err)
	}
	pointerEncoder, err := n.config.PointerProvider.Encoder(version)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVersionMismatch, err)
	}

	n.keyEncoder = keyEncoder
	n.valueEncoder = valueEncoder
	n.positionEncoder = positionEncoder
	n.pointerEncoder = pointerEncoder

	n.keysInlined = keyEncoder.IsOfBoundSize() && keyEncoder.MaximumSize() <= n.config.InlineKeysThreshold
	n.valuesInlined = valueEncoder.IsOfBoundSize() && valueEncoder.MaximumSize() <= n.config.InlineValuesThreshold

	if n.keysInlined {
		n.recordSize = keyEncoder.MaximumSize()
	} else {
		n.recordSize = positionEncoder.MaximumSize()
	}

	if n.isLeaf() {
		if n.valuesInlined {
			n.recordSize += valueEncoder.MaximumSize()
		} else {
			n.recordSize += positionEncoder.MaximumSize()
		}
	} else {
		n.markerSize = pointerEncoder.MaximumSize() + positionEncoder.MaximumSize()
		n.recordSize += pointerEncoder.MaximumSize() + n.markerSize
	}

	return nil
}
