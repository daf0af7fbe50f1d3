package walbase

import "errors"

var (
	ErrShortRecord      = errors.New("walbase: incomplete record in log buffer")
	ErrChecksumMismatch = errors.New("walbase: log record checksum mismatch, possible torn write")
	ErrLogClosed        = errors.New("walbase: log is closed")
	ErrReaderClosed     = errors.New("walbase: reader is closed")
)
