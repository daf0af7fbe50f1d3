package walbase

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Log is an append-only, checksummed sequence of Records backing the
// durability of a page cache. It owns exactly one file and hands out a
// fresh LSN for every record appended to it. A Log is the "write-ahead
// durability base class" a buffer pool builds on top of; it does not know
// what a page is.
type Log struct {
	streamID uuid.UUID
	path     string
	file     *os.File
	writer   *bufio.Writer

	mu      sync.Mutex
	nextLSN LSN
	closed  bool

	logger *zap.Logger
}

// Open opens (creating if necessary) the log file at path and positions
// the append cursor after the last valid record, recovering the next LSN
// to hand out. A trailing short/corrupt record is treated as a torn write
// from an unclean shutdown and silently truncated.
func Open(path string, logger *zap.Logger) (*Log, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("walbase: opening %s: %w", path, err)
	}

	lastLSN, validSize, err := scanValidPrefix(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if err := file.Truncate(validSize); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("walbase: truncating torn tail of %s: %w", path, err)
	}
	if _, err := file.Seek(validSize, io.SeekStart); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("walbase: seeking %s: %w", path, err)
	}

	l := &Log{
		streamID: uuid.New(),
		path:     path,
		file:     file,
		writer:   bufio.NewWriter(file),
		nextLSN:  lastLSN + 1,
		logger:   logger,
	}
	logger.Debug("log opened", zap.String("path", path), zap.String("stream_id", l.streamID.String()), zap.Uint64("next_lsn", uint64(l.nextLSN)))
	return l, nil
}

// scanValidPrefix reads every record from the start of file and returns the
// last LSN seen plus the byte offset just past the last fully valid record.
func scanValidPrefix(file *os.File) (LSN, int64, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return InvalidLSN, 0, fmt.Errorf("walbase: reading %s: %w", file.Name(), err)
	}

	var offset int64
	lastLSN := InvalidLSN
	for len(data) > 0 {
		rec, n, err := decodeRecord(data)
		if err != nil {
			break
		}
		offset += int64(n)
		lastLSN = rec.LSN
		data = data[n:]
	}
	return lastLSN, offset, nil
}

// StreamID identifies this log instance, e.g. for correlating it with
// readers replaying the same file concurrently.
func (l *Log) StreamID() uuid.UUID { return l.streamID }

// Append assigns the next LSN, writes the record to the buffered writer,
// and returns the assigned LSN. Call Flush to guarantee durability.
func (l *Log) Append(recType RecordType, payload []byte) (LSN, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return InvalidLSN, ErrLogClosed
	}

	rec := Record{LSN: l.nextLSN, Type: recType, Payload: payload}
	if _, err := l.writer.Write(rec.encode()); err != nil {
		return InvalidLSN, fmt.Errorf("walbase: appending record: %w", err)
	}
	l.nextLSN++
	return rec.LSN, nil
}

// Flush pushes buffered records to the OS and fsyncs the file.
func (l *Log) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLogClosed
	}
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("walbase: flushing writer: %w", err)
	}
	return l.file.Sync()
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.writer.Flush(); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("walbase: flushing writer on close: %w", err)
	}
	return l.file.Close()
}

// NewReader opens an independent read-only view of the log for replay,
// identified by its own slot ID so concurrent replays can be told apart in
// logs and metrics.
func (l *Log) NewReader() (*Reader, error) {
	return NewReader(l.path)
}

// Reader replays a log file from the beginning, one record at a time.
type Reader struct {
	slotID uuid.UUID
	file   *os.File
	buf    []byte
	closed bool
}

// NewReader opens path for sequential replay.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("walbase: opening %s for replay: %w", path, err)
	}
	return &Reader{slotID: uuid.New(), file: file}, nil
}

// SlotID identifies this reader among concurrent replays of the same log.
func (r *Reader) SlotID() uuid.UUID { return r.slotID }

// Next returns the next record in the log, or io.EOF once the valid prefix
// is exhausted. A trailing torn write is treated the same as a clean EOF.
func (r *Reader) Next() (Record, error) {
	if r.closed {
		return Record{}, ErrReaderClosed
	}
	for {
		if rec, n, err := decodeRecord(r.buf); err == nil {
			r.buf = r.buf[n:]
			return rec, nil
		}
		chunk := make([]byte, 4096)
		n, err := r.file.Read(chunk)
		if n > 0 {
			r.buf = append(r.buf, chunk[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				if _, _, decodeErr := decodeRecord(r.buf); decodeErr == ErrShortRecord {
					return Record{}, io.EOF
				}
			}
			if len(r.buf) == 0 {
				return Record{}, io.EOF
			}
			return Record{}, fmt.Errorf("walbase: reading log: %w", err)
		}
	}
}

// Close releases the reader's file handle.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// Replay reads every record in the log from the beginning and invokes fn
// for each, stopping at the first error fn returns.
func Replay(path string, fn func(Record) error) error {
	reader, err := NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
