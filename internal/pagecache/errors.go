package pagecache

import "errors"

var (
	ErrPageNotFound     = errors.New("pagecache: page not found in buffer pool")
	ErrBufferPoolFull   = errors.New("pagecache: buffer pool is full and no pages can be evicted")
	ErrPagePinned       = errors.New("pagecache: page is pinned and cannot be evicted")
	ErrIO               = errors.New("pagecache: i/o error")
	ErrChecksumMismatch = errors.New("pagecache: page checksum mismatch, data corruption suspected")
	ErrDBFileExists     = errors.New("pagecache: database file already exists")
	ErrDBFileNotFound   = errors.New("pagecache: database file not found")
	ErrFileNotOpen      = errors.New("pagecache: underlying file is not open")
)
