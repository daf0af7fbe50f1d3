package pagecache

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Instruments are the optional OpenTelemetry metrics the buffer pool reports
// through. A nil Instruments is valid; every record call becomes a no-op.
type Instruments struct {
	Hits      metric.Int64Counter
	Faults    metric.Int64Counter
	Evictions metric.Int64Counter
}

// NewInstruments builds the buffer-pool counters against meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	hits, err := meter.Int64Counter("sebtree.pagecache.hits",
		metric.WithDescription("pages served from the buffer pool without a disk read"))
	if err != nil {
		return nil, err
	}
	faults, err := meter.Int64Counter("sebtree.pagecache.faults",
		metric.WithDescription("pages read from disk because they were not resident"))
	if err != nil {
		return nil, err
	}
	evictions, err := meter.Int64Counter("sebtree.pagecache.evictions",
		metric.WithDescription("resident pages evicted to make room for a fault"))
	if err != nil {
		return nil, err
	}
	return &Instruments{Hits: hits, Faults: faults, Evictions: evictions}, nil
}

// BufferPoolManager keeps a fixed number of page frames resident, reading
// through to a DiskManager on a miss and writing back dirty frames before
// reuse. It is the "buffer/page cache" collaborator the node package
// consumes through pinned buffers and per-page shared/exclusive latches.
type BufferPoolManager struct {
	dm       *DiskManager
	poolSize int
	pageSize int

	pages     []*Page
	pageTable map[PageID]int
	freeList  []int
	// lru orders resident, touched frames from least to most recently used.
	// Each element's Value is a frame index; victimFrameLocked walks it from
	// the front once freeList is empty, skipping any frame still pinned.
	lru *list.List

	mu sync.Mutex
	sf singleflight.Group

	logger      *zap.Logger
	instruments *Instruments
}

// Option configures optional BufferPoolManager behavior.
type Option func(*BufferPoolManager)

// WithLogger attaches structured logging to pool operations.
func WithLogger(logger *zap.Logger) Option {
	return func(bpm *BufferPoolManager) { bpm.logger = logger }
}

// WithInstruments attaches OpenTelemetry counters to pool operations.
func WithInstruments(instruments *Instruments) Option {
	return func(bpm *BufferPoolManager) { bpm.instruments = instruments }
}

// NewBufferPoolManager creates a pool of poolSize frames backed by dm.
func NewBufferPoolManager(poolSize int, dm *DiskManager, opts ...Option) *BufferPoolManager {
	bpm := &BufferPoolManager{
		dm:        dm,
		poolSize:  poolSize,
		pageSize:  dm.PageSize(),
		pages:     make([]*Page, poolSize),
		pageTable: make(map[PageID]int, poolSize),
		freeList:  make([]int, 0, poolSize),
		lru:       list.New(),
		logger:    zap.NewNop(),
	}
	for i := 0; i < poolSize; i++ {
		bpm.pages[i] = NewPage(InvalidPageID, bpm.pageSize)
		bpm.freeList = append(bpm.freeList, i)
	}
	for _, opt := range opts {
		opt(bpm)
	}
	return bpm
}

func (bpm *BufferPoolManager) PageSize() int { return bpm.pageSize }

// FetchPage pins and returns the frame holding id, reading it from disk if
// it is not already resident. Concurrent fetches of the same id collapse
// into a single disk read via singleflight.
func (bpm *BufferPoolManager) FetchPage(id PageID) (*Page, error) {
	bpm.mu.Lock()
	if frameIdx, ok := bpm.pageTable[id]; ok {
		page := bpm.pages[frameIdx]
		page.Pin()
		bpm.touchLRU(frameIdx)
		bpm.mu.Unlock()
		bpm.recordHit()
		return page, nil
	}
	bpm.mu.Unlock()

	bpm.recordFault()
	v, err, _ := bpm.sf.Do(fmt.Sprintf("%d", id), func() (interface{}, error) {
		return bpm.fetchFromDisk(id)
	})
	if err != nil {
		return nil, err
	}
	page := v.(*Page)

	bpm.mu.Lock()
	defer bpm.mu.Unlock()
	// sf.Do's result is shared by every goroutine that asked for id while
	// the fault was in flight, but fetchFromDisk itself never pins: each
	// of those goroutines is a distinct FetchPage caller and must get its
	// own pin here, whether it led the fault or only waited on it. Re-check
	// the frame still holds id in case it was evicted again between
	// fetchFromDisk returning and this goroutine reacquiring the lock.
	if cur, ok := bpm.pageTable[id]; ok && cur == indexOfPage(bpm.pages, page) {
		frameIdx := cur
		page.Pin()
		bpm.touchLRU(frameIdx)
	}
	return page, nil
}

// touchLRU marks frameIdx as most recently used, moving it to the back of
// the eviction order. Called under bpm.mu.
func (bpm *BufferPoolManager) touchLRU(frameIdx int) {
	page := bpm.pages[frameIdx]
	if elem := page.GetLruElement(); elem != nil {
		bpm.lru.Remove(elem)
	}
	page.SetLruElement(bpm.lru.PushBack(frameIdx))
}

func indexOfPage(pages []*Page, p *Page) int {
	for i, pg := range pages {
		if pg == p {
			return i
		}
	}
	return -1
}

func (bpm *BufferPoolManager) fetchFromDisk(id PageID) (*Page, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	if frameIdx, ok := bpm.pageTable[id]; ok {
		// Another goroutine (outside this singleflight call, since it
		// raced in under a different key grouping) already faulted the
		// page in while we waited for the lock. Leave pinning to FetchPage,
		// which pins exactly once per caller for both the hit and fault
		// paths.
		return bpm.pages[frameIdx], nil
	}

	frameIdx, err := bpm.victimFrameLocked()
	if err != nil {
		return nil, err
	}
	victim := bpm.pages[frameIdx]

	if err := bpm.evictLocked(victim); err != nil {
		return nil, err
	}

	if err := bpm.dm.ReadPage(id, victim.data); err != nil {
		bpm.freeList = append(bpm.freeList, frameIdx)
		return nil, err
	}

	victim.id = id
	victim.pinCount = 0
	victim.isDirty = false
	victim.position = 0
	bpm.pageTable[id] = frameIdx
	bpm.logger.Debug("page fault", zap.Uint64("page_id", uint64(id)))
	return victim, nil
}

// victimFrameLocked picks a frame for reuse: an untouched frame off freeList
// first, then the least-recently-used resident frame that is currently
// unpinned. The returned frame is unlinked from lru; the caller owns
// re-linking it once it holds a new identity.
func (bpm *BufferPoolManager) victimFrameLocked() (int, error) {
	if len(bpm.freeList) > 0 {
		idx := bpm.freeList[0]
		bpm.freeList = bpm.freeList[1:]
		return idx, nil
	}
	for e := bpm.lru.Front(); e != nil; e = e.Next() {
		idx := e.Value.(int)
		page := bpm.pages[idx]
		if page.GetPinCount() == 0 {
			bpm.lru.Remove(e)
			page.SetLruElement(nil)
			return idx, nil
		}
	}
	return -1, ErrBufferPoolFull
}

func (bpm *BufferPoolManager) evictLocked(victim *Page) error {
	if victim.GetPageID() == InvalidPageID {
		return nil
	}
	if victim.IsDirty() {
		if err := bpm.dm.WritePage(victim.GetPageID(), victim.GetData()); err != nil {
			return fmt.Errorf("flushing victim page %d: %w", victim.GetPageID(), err)
		}
	}
	delete(bpm.pageTable, victim.GetPageID())
	if bpm.instruments != nil {
		bpm.instruments.Evictions.Add(context.Background(), 1)
	}
	return nil
}

// UnpinPage releases one pin on id, marking it dirty if isDirty is true.
func (bpm *BufferPoolManager) UnpinPage(id PageID, isDirty bool) error {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameIdx, ok := bpm.pageTable[id]
	if !ok {
		return fmt.Errorf("%w: page %d", ErrPageNotFound, id)
	}
	page := bpm.pages[frameIdx]
	if page.GetPinCount() == 0 {
		return fmt.Errorf("pagecache: page %d unpinned with zero pin count", id)
	}
	page.Unpin()
	if isDirty {
		page.SetDirty(true)
	}
	return nil
}

// NewPage allocates a fresh on-disk page and brings it into the pool,
// pinned once and marked dirty.
func (bpm *BufferPoolManager) NewPage() (*Page, PageID, error) {
	id, err := bpm.dm.AllocatePage()
	if err != nil {
		return nil, InvalidPageID, err
	}

	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameIdx, err := bpm.victimFrameLocked()
	if err != nil {
		return nil, InvalidPageID, err
	}
	victim := bpm.pages[frameIdx]
	if err := bpm.evictLocked(victim); err != nil {
		return nil, InvalidPageID, err
	}

	victim.Reset()
	victim.id = id
	victim.pinCount = 1
	victim.isDirty = true
	bpm.pageTable[id] = frameIdx
	bpm.touchLRU(frameIdx)
	return victim, id, nil
}

// FlushPage writes id's frame to disk if dirty.
func (bpm *BufferPoolManager) FlushPage(id PageID) error {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()
	frameIdx, ok := bpm.pageTable[id]
	if !ok {
		return fmt.Errorf("%w: page %d", ErrPageNotFound, id)
	}
	page := bpm.pages[frameIdx]
	if !page.IsDirty() {
		return nil
	}
	if err := bpm.dm.WritePage(page.GetPageID(), page.GetData()); err != nil {
		return err
	}
	page.SetDirty(false)
	return nil
}

// FlushAllPages writes every resident dirty page to disk and syncs the file.
func (bpm *BufferPoolManager) FlushAllPages() error {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	var firstErr error
	for _, page := range bpm.pages {
		if page.GetPageID() == InvalidPageID || !page.IsDirty() {
			continue
		}
		if err := bpm.dm.WritePage(page.GetPageID(), page.GetData()); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		page.SetDirty(false)
	}
	if err := bpm.dm.Sync(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (bpm *BufferPoolManager) recordHit() {
	if bpm.instruments != nil {
		bpm.instruments.Hits.Add(context.Background(), 1)
	}
}

func (bpm *BufferPoolManager) recordFault() {
	if bpm.instruments != nil {
		bpm.instruments.Faults.Add(context.Background(), 1)
	}
}
