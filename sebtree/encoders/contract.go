// Package encoders defines the codec contract a node uses to read and
// write typed key, value, page-index, and page-position values at the
// current cursor of a page buffer, and a handful of concrete codecs
// implementing it.
//
// A node never hardcodes a wire format for the values it stores: every
// shape decision (bound vs unbound, maximum size, exact encoded size) is
// asked of the encoder in force for the page's on-disk encoders version.
package encoders

// PageWriter is the subset of a page buffer's cursor-relative API an
// Encoder needs to serialize a value.
type PageWriter interface {
	SetByteValue(v byte)
	SetIntValue(v int32)
	SetUint32Value(v uint32)
	SetLongValue(v int64)
	Write(b []byte)
	GetPosition() int
	SetPosition(pos int)
}

// PageReader is the subset of a page buffer's cursor-relative API an
// Encoder needs to deserialize, or measure, a value.
type PageReader interface {
	GetByteValue() byte
	GetIntValue() int32
	GetUint32Value() uint32
	GetLongValue() int64
	Read(n int) []byte
	GetPosition() int
	SetPosition(pos int)
}

// Encoder reads and writes values of type T at a page buffer's cursor.
//
// Bound encoders (IsOfBoundSize true) always occupy exactly MaximumSize
// bytes; unbound encoders vary per value and must be probed through
// ExactSizeInStream before an out-of-line byte range can be sized.
type Encoder[T any] interface {
	Encode(v T, w PageWriter) error
	Decode(r PageReader) (T, error)

	// ExactSizeInStream returns the number of bytes the next encoded value
	// occupies, without consuming the reader's position permanently:
	// implementations restore the cursor before returning.
	ExactSizeInStream(r PageReader) (int, error)

	// MaximumSize is the largest number of bytes any value of T can encode
	// to. For a bound encoder this is also the exact size of every value.
	MaximumSize() int

	// IsOfBoundSize reports whether every value of T encodes to exactly
	// MaximumSize bytes (a "bound" encoder, fit for inline storage).
	IsOfBoundSize() bool
}

// Provider yields the Encoder bound to a specific on-page encoders
// version, so that a page written under one version can still be read
// correctly after the default version changes.
type Provider[T any] interface {
	Encoder(version int) (Encoder[T], error)
}
