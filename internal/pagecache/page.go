package pagecache

import (
	"container/list"
	"encoding/binary"
	"sync"
	"time"
)

// PageID identifies a page within a database file.
type PageID uint64

// InvalidPageID marks an unallocated or header page slot.
const InvalidPageID PageID = 0

// LSN is the log sequence number of the last mutation applied to a page.
type LSN uint64

// InvalidLSN is the LSN of a page that has never been touched by the WAL.
const InvalidLSN LSN = 0

// Page is an in-memory frame holding one page-sized byte buffer plus the
// bookkeeping the buffer pool and its callers need: a pin count, a dirty
// flag, the LSN of the last applying log record, and a movable cursor used
// by callers that read/write the buffer sequentially (the node package's
// sessions are the primary such caller).
//
// A shared/exclusive latch protects the buffer's contents across
// goroutines; it carries no opinion about what "shared" vs "exclusive"
// access means beyond the standard reader/writer contract.
type Page struct {
	id       PageID
	data     []byte
	pinCount uint32
	isDirty  bool
	lsn      LSN

	position int

	latch      sync.RWMutex
	lruElement *list.Element
	updatedAt  time.Time
}

// NewPage allocates a zeroed page frame of the given size.
func NewPage(id PageID, size int) *Page {
	return &Page{id: id, data: make([]byte, size)}
}

// Reset clears a frame's identity and contents so it can be reused for a
// different page by the buffer pool.
func (p *Page) Reset() {
	p.id = InvalidPageID
	p.pinCount = 0
	p.isDirty = false
	p.lsn = InvalidLSN
	p.position = 0
	p.lruElement = nil
	for i := range p.data {
		p.data[i] = 0
	}
}

func (p *Page) GetData() []byte     { return p.data }
func (p *Page) PageIndex() int64    { return int64(p.id) }
func (p *Page) GetPageID() PageID   { return p.id }
func (p *Page) SetPageID(id PageID) { p.id = id }
func (p *Page) IsDirty() bool       { return p.isDirty }
func (p *Page) SetDirty(v bool)     { p.isDirty = v }
func (p *Page) GetLSN() LSN         { return p.lsn }
func (p *Page) SetLSN(lsn LSN)      { p.lsn = lsn }

func (p *Page) Pin() { p.pinCount++ }
func (p *Page) Unpin() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}
func (p *Page) GetPinCount() uint32 { return p.pinCount }

// lruElement is the buffer pool's handle into its LRU list for this frame,
// nil when the frame has never been touched since the last eviction. Only
// BufferPoolManager reads or writes it, under bpm.mu.
func (p *Page) GetLruElement() *list.Element     { return p.lruElement }
func (p *Page) SetLruElement(elem *list.Element) { p.lruElement = elem }
func (p *Page) Touch(t time.Time)      { p.updatedAt = t }
func (p *Page) LastTouched() time.Time { return p.updatedAt }

// --- Latch methods: the per-page shared/exclusive lock the node package's
// sessions acquire and release. ---

func (p *Page) RLock()        { p.latch.RLock() }
func (p *Page) RUnlock()      { p.latch.RUnlock() }
func (p *Page) Lock()         { p.latch.Lock() }
func (p *Page) Unlock()       { p.latch.Unlock() }
func (p *Page) TryLock() bool { return p.latch.TryLock() }

// --- Cursor-relative byte-addressed primitives. All multi-byte integers
// are big-endian, per the on-page binary format. ---

func (p *Page) GetPosition() int    { return p.position }
func (p *Page) SetPosition(pos int) { p.position = pos }
func (p *Page) Seek(delta int)      { p.position += delta }

func (p *Page) GetByte(pos int) byte     { return p.data[pos] }
func (p *Page) SetByte(pos int, v byte)  { p.data[pos] = v }
func (p *Page) GetByteValue() byte {
	v := p.data[p.position]
	p.position++
	return v
}
func (p *Page) SetByteValue(v byte) {
	p.data[p.position] = v
	p.position++
}

func (p *Page) GetInt(pos int) int32 {
	return int32(binary.BigEndian.Uint32(p.data[pos : pos+4]))
}
func (p *Page) SetInt(pos int, v int32) {
	binary.BigEndian.PutUint32(p.data[pos:pos+4], uint32(v))
}
func (p *Page) GetIntValue() int32 {
	v := p.GetInt(p.position)
	p.position += 4
	return v
}
func (p *Page) SetIntValue(v int32) {
	p.SetInt(p.position, v)
	p.position += 4
}

func (p *Page) GetUint32(pos int) uint32 {
	return binary.BigEndian.Uint32(p.data[pos : pos+4])
}
func (p *Page) SetUint32(pos int, v uint32) {
	binary.BigEndian.PutUint32(p.data[pos:pos+4], v)
}
func (p *Page) GetUint32Value() uint32 {
	v := p.GetUint32(p.position)
	p.position += 4
	return v
}
func (p *Page) SetUint32Value(v uint32) {
	p.SetUint32(p.position, v)
	p.position += 4
}

func (p *Page) GetLong(pos int) int64 {
	return int64(binary.BigEndian.Uint64(p.data[pos : pos+8]))
}
func (p *Page) SetLong(pos int, v int64) {
	binary.BigEndian.PutUint64(p.data[pos:pos+8], uint64(v))
}
func (p *Page) GetLongValue() int64 {
	v := p.GetLong(p.position)
	p.position += 8
	return v
}
func (p *Page) SetLongValue(v int64) {
	p.SetLong(p.position, v)
	p.position += 8
}

// Read copies n bytes starting at the cursor and advances it.
func (p *Page) Read(n int) []byte {
	out := make([]byte, n)
	copy(out, p.data[p.position:p.position+n])
	p.position += n
	return out
}

// Write copies b into the page at the cursor and advances it.
func (p *Page) Write(b []byte) {
	copy(p.data[p.position:p.position+len(b)], b)
	p.position += len(b)
}

// MoveData relocates an n-byte range within the same page. Overlapping
// ranges are handled correctly (copy semantics, not memcpy semantics).
func (p *Page) MoveData(src, dst, n int) {
	if n <= 0 || src == dst {
		return
	}
	copy(p.data[dst:dst+n], p.data[src:src+n])
}
