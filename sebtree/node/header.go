// Package node implements the on-disk page layout and in-page record
// manager for a B+tree node: the mutable top tier of an LSM-tree index.
// A Node occupies exactly one fixed-size page handed to it by an external
// buffer cache, and owns everything needed to search, insert, delete, and
// redistribute ordered key/value records together with the markers that
// link internal-node separators to blocks in lower LSM levels.
package node

import (
	"fmt"

	"github.com/arvindsridhar/sebtree/sebtree/encoders"
)

// PageBuffer is the slice of a pinned page frame a Node needs: positional
// and cursor-relative byte access, bulk move, and the per-page
// shared/exclusive latch. *pagecache.Page satisfies this directly.
type PageBuffer interface {
	PageIndex() int64

	GetByte(pos int) byte
	SetByte(pos int, v byte)
	GetInt(pos int) int32
	SetInt(pos int, v int32)
	GetUint32(pos int) uint32
	SetUint32(pos int, v uint32)
	GetLong(pos int) int64
	SetLong(pos int, v int64)

	GetByteValue() byte
	SetByteValue(v byte)
	GetIntValue() int32
	SetIntValue(v int32)
	GetUint32Value() uint32
	SetUint32Value(v uint32)
	GetLongValue() int64
	SetLongValue(v int64)

	Read(n int) []byte
	Write(b []byte)
	MoveData(src, dst, n int)

	GetPosition() int
	SetPosition(pos int)
	Seek(delta int)

	RLock()
	RUnlock()
	Lock()
	Unlock()
}

// Flag byte bit layout (LSB = bit 0): leaf, continued-from, continued-to,
// a 4-bit encoders-version field, and a reserved extension bit.
const (
	leafFlagMask          byte = 0b0000_0001
	continuedFromFlagMask byte = 0b0000_0010
	continuedToFlagMask   byte = 0b0000_0100
	encodersVersionMask   byte = 0b0111_1000
	encodersVersionShift       = 3
	extensionFlagMask     byte = 0b1000_0000
)

// Header field dirty/loaded bitmask bits.
const (
	freeDataPositionField = 1
	flagsField            = 2
	sizeField             = 4
	treeSizeField         = 8
)

// cloneBufferSize is the chunk size cloneFrom copies the page in.
const cloneBufferSize = 4 * 1024

// headerOffsets are the fixed byte offsets of every header field, computed
// once from Config.NextFreePosition at construction time.
type headerOffsets struct {
	freeDataPosition int
	flags            int
	size             int
	treeSize         int
	leftPointer      int
	leftMarkerBlock  int
	leftMarkerUsage  int
	leftSibling      int
	rightSibling     int
	records          int
}

func computeHeaderOffsets(nextFreePosition int) headerOffsets {
	o := headerOffsets{freeDataPosition: nextFreePosition}
	o.flags = o.freeDataPosition + 4
	o.size = o.flags + 1
	o.treeSize = o.size + 4
	o.leftPointer = o.treeSize + 8
	o.leftMarkerBlock = o.leftPointer + 8
	o.leftMarkerUsage = o.leftMarkerBlock + 8
	o.leftSibling = o.leftMarkerUsage + 4
	o.rightSibling = o.leftSibling + 8
	o.records = o.rightSibling + 8
	return o
}

// Config carries the parameters the outer tree fixes for an encoders
// version generation: page geometry and the inline-storage thresholds.
// PositionProvider and PointerProvider default to fixed-width encoders
// when left zero-valued.
type Config struct {
	PageBytes             int
	NextFreePosition      int
	InlineKeysThreshold   int
	InlineValuesThreshold int
	EncodersVersion       int

	PositionProvider encoders.Provider[int32]
	PointerProvider  encoders.Provider[int64]
}

// HalfSize and MaxEntrySize are both (PageBytes - RECORDS_OFFSET) / 2:
// the threshold that forces every page to hold at least two records and
// lets split always make progress.
func (c Config) halfSize(records int) int {
	return (c.PageBytes - records) / 2
}

// Node is a view over one pinned page, bound to a session (read, write, or
// create) for the duration of one access. It is not safe for concurrent
// use by multiple goroutines; callers serialize through the page's latch.
type Node[K, V any] struct {
	buf           PageBuffer
	keyProvider   encoders.Provider[K]
	valueProvider encoders.Provider[V]
	comparator    func(a, b K) int
	config        Config
	offsets       headerOffsets

	loadedFields int
	dirtyFields  int

	freeDataPosition int
	flags            byte
	size             int
	treeSize         int64

	keyEncoder      encoders.Encoder[K]
	valueEncoder    encoders.Encoder[V]
	positionEncoder encoders.Encoder[int32]
	pointerEncoder  encoders.Encoder[int64]

	keysInlined   bool
	valuesInlined bool
	recordSize    int
	markerSize    int
}

// New binds a Node to buf. It acquires no latch and loads no header state;
// call BeginRead, BeginWrite, or BeginCreate before using the node.
func New[K, V any](buf PageBuffer, config Config, keyProvider encoders.Provider[K], valueProvider encoders.Provider[V], comparator func(a, b K) int) *Node[K, V] {
	if config.PositionProvider == nil {
		config.PositionProvider = encoders.NewConstantProvider[int32](encoders.PagePositionEncoder{}, 15)
	}
	if config.PointerProvider == nil {
		config.PointerProvider = encoders.NewConstantProvider[int64](encoders.PageIndexEncoder{}, 15)
	}
	return &Node[K, V]{
		buf:           buf,
		keyProvider:   keyProvider,
		valueProvider: valueProvider,
		comparator:    comparator,
		config:        config,
		offsets:       computeHeaderOffsets(config.NextFreePosition),
	}
}

func (n *Node[K, V]) recordsOffset() int { return n.offsets.records }
func (n *Node[K, V]) maxEntrySize() int  { return n.config.halfSize(n.offsets.records) }
func (n *Node[K, V]) halfSize() int      { return n.config.halfSize(n.offsets.records) }

// PageIndex is the identity of the page this node occupies.
func (n *Node[K, V]) PageIndex() int64 { return n.buf.PageIndex() }

func (n *Node[K, V]) String() string {
	if n.isLeaf() {
		return "Leaf"
	}
	return fmt.Sprintf("Int. %d", n.PageIndex())
}

// --- loaded/dirty bitmask bookkeeping ---

func (n *Node[K, V]) absent(field int) bool { return n.loadedFields&field == 0 }
func (n *Node[K, V]) loaded(field int)      { n.loadedFields |= field }
func (n *Node[K, V]) dirty(field int) bool  { return n.dirtyFields&field != 0 }
func (n *Node[K, V]) changed(field int) {
	n.dirtyFields |= field
	n.loadedFields |= field
}

// --- header field accessors ---

func (n *Node[K, V]) GetFreeDataPosition() int {
	if n.absent(freeDataPositionField) {
		n.freeDataPosition = int(n.buf.GetInt(n.offsets.freeDataPosition))
		n.loaded(freeDataPositionField)
	}
	return n.freeDataPosition
}

func (n *Node[K, V]) setFreeDataPosition(value int) {
	n.changed(freeDataPositionField)
	n.freeDataPosition = value
}

func (n *Node[K, V]) GetSize() int { return n.size }

func (n *Node[K, V]) setSize(value int) {
	n.changed(sizeField)
	n.size = value
}

func (n *Node[K, V]) GetTreeSize() int64 {
	if n.absent(treeSizeField) {
		n.treeSize = n.buf.GetLong(n.offsets.treeSize)
		n.loaded(treeSizeField)
	}
	return n.treeSize
}

func (n *Node[K, V]) SetTreeSize(value int64) {
	n.changed(treeSizeField)
	n.treeSize = value
}

func (n *Node[K, V]) getFlags() byte { return n.flags }

func (n *Node[K, V]) setFlags(value byte) {
	n.changed(flagsField)
	n.flags = value
}

func (n *Node[K, V]) setFlag(mask byte, value bool) {
	if value {
		n.setFlags(n.getFlags() | mask)
	} else {
		n.setFlags(n.getFlags() &^ mask)
	}
}

func (n *Node[K, V]) getFlag(mask byte) bool { return n.getFlags()&mask != 0 }

func (n *Node[K, V]) isLeaf() bool   { return n.getFlag(leafFlagMask) }
func (n *Node[K, V]) setLeaf(v bool) { n.setFlag(leafFlagMask, v) }

// IsLeaf reports whether this node stores (key, value) leaf records rather
// than (key, childPointer, marker) internal separators.
func (n *Node[K, V]) IsLeaf() bool { return n.isLeaf() }

func (n *Node[K, V]) IsContinuedFrom() bool   { return n.getFlag(continuedFromFlagMask) }
func (n *Node[K, V]) SetContinuedFrom(v bool) { n.setFlag(continuedFromFlagMask, v) }
func (n *Node[K, V]) IsContinuedTo() bool     { return n.getFlag(continuedToFlagMask) }
func (n *Node[K, V]) SetContinuedTo(v bool)   { n.setFlag(continuedToFlagMask, v) }

func (n *Node[K, V]) getEncodersVersion() int {
	return int((n.getFlags() & encodersVersionMask) >> encodersVersionShift)
}

func (n *Node[K, V]) setEncodersVersion(value int) {
	n.setFlags(byte(value<<encodersVersionShift)&encodersVersionMask | n.getFlags()&^encodersVersionMask)
}

// GetLeftPointer is the child pointer guarding keys less than slot 0's key.
// Valid only on internal nodes.
func (n *Node[K, V]) GetLeftPointer() int64 {
	if n.isLeaf() {
		panic(ErrLeftPointerOnLeaf)
	}
	return n.buf.GetLong(n.offsets.leftPointer)
}

func (n *Node[K, V]) SetLeftPointer(pointer int64) {
	if n.isLeaf() {
		panic(ErrLeftPointerOnLeaf)
	}
	n.buf.SetLong(n.offsets.leftPointer, pointer)
}

func (n *Node[K, V]) GetLeftSibling() int64   { return n.buf.GetLong(n.offsets.leftSibling) }
func (n *Node[K, V]) SetLeftSibling(p int64)  { n.buf.SetLong(n.offsets.leftSibling, p) }
func (n *Node[K, V]) GetRightSibling() int64  { return n.buf.GetLong(n.offsets.rightSibling) }
func (n *Node[K, V]) SetRightSibling(p int64) { n.buf.SetLong(n.offsets.rightSibling, p) }

func (n *Node[K, V]) KeyEncoder() encoders.Encoder[K]         { return n.keyEncoder }
func (n *Node[K, V]) ValueEncoder() encoders.Encoder[V]       { return n.valueEncoder }
func (n *Node[K, V]) PointerEncoder() encoders.Encoder[int64] { return n.pointerEncoder }
