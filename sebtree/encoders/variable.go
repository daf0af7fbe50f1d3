package encoders

// BytesEncoder encodes an arbitrary byte slice as a 4-byte big-endian
// length prefix followed by the raw bytes. It is unbound: two values can
// encode to different sizes, so the record layout must store it
// out-of-line regardless of INLINE_*_THRESHOLD.
type BytesEncoder struct {
	maxSize int
}

// NewBytesEncoder returns a BytesEncoder reporting maxSize as its
// MaximumSize, used by callers sizing worst-case buffers; it has no
// bearing on whether values are stored inline (they never are).
func NewBytesEncoder(maxSize int) BytesEncoder {
	return BytesEncoder{maxSize: maxSize}
}

func (e BytesEncoder) Encode(v []byte, w PageWriter) error {
	w.SetIntValue(int32(len(v)))
	w.Write(v)
	return nil
}

func (e BytesEncoder) Decode(r PageReader) ([]byte, error) {
	n := r.GetIntValue()
	return r.Read(int(n)), nil
}

// ExactSizeInStream probes the length prefix at the reader's current
// position without disturbing it.
func (e BytesEncoder) ExactSizeInStream(r PageReader) (int, error) {
	pos := r.GetPosition()
	n := r.GetIntValue()
	r.SetPosition(pos)
	return 4 + int(n), nil
}

func (e BytesEncoder) MaximumSize() int    { return e.maxSize }
func (e BytesEncoder) IsOfBoundSize() bool { return false }

// StringEncoder encodes a string as UTF-8 bytes through a BytesEncoder.
type StringEncoder struct {
	bytes BytesEncoder
}

// NewStringEncoder returns a StringEncoder reporting maxSize as its
// MaximumSize (in bytes, not runes).
func NewStringEncoder(maxSize int) StringEncoder {
	return StringEncoder{bytes: NewBytesEncoder(maxSize)}
}

func (e StringEncoder) Encode(v string, w PageWriter) error {
	return e.bytes.Encode([]byte(v), w)
}

func (e StringEncoder) Decode(r PageReader) (string, error) {
	b, err := e.bytes.Decode(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (e StringEncoder) ExactSizeInStream(r PageReader) (int, error) {
	return e.bytes.ExactSizeInStream(r)
}

func (e StringEncoder) MaximumSize() int    { return e.bytes.MaximumSize() }
func (e StringEncoder) IsOfBoundSize() bool { return false }
