package encoders

// Uint32Encoder encodes a fixed 4-byte big-endian unsigned integer. It is
// the typical natural-order test key/value shape: bound, always inlinable
// at any reasonable INLINE_*_THRESHOLD.
type Uint32Encoder struct{}

func (Uint32Encoder) Encode(v uint32, w PageWriter) error {
	w.SetUint32Value(v)
	return nil
}

func (Uint32Encoder) Decode(r PageReader) (uint32, error) {
	return r.GetUint32Value(), nil
}

func (Uint32Encoder) ExactSizeInStream(PageReader) (int, error) { return 4, nil }
func (Uint32Encoder) MaximumSize() int                          { return 4 }
func (Uint32Encoder) IsOfBoundSize() bool                       { return true }

// Int32Encoder encodes a fixed 4-byte big-endian signed integer, used for
// intra-page positions (out-of-line offsets, pages-used counters).
type Int32Encoder struct{}

func (Int32Encoder) Encode(v int32, w PageWriter) error {
	w.SetIntValue(v)
	return nil
}

func (Int32Encoder) Decode(r PageReader) (int32, error) {
	return r.GetIntValue(), nil
}

func (Int32Encoder) ExactSizeInStream(PageReader) (int, error) { return 4, nil }
func (Int32Encoder) MaximumSize() int                          { return 4 }
func (Int32Encoder) IsOfBoundSize() bool                       { return true }

// Int64Encoder encodes a fixed 8-byte big-endian signed integer, used for
// page pointers and marker block indices.
type Int64Encoder struct{}

func (Int64Encoder) Encode(v int64, w PageWriter) error {
	w.SetLongValue(v)
	return nil
}

func (Int64Encoder) Decode(r PageReader) (int64, error) {
	return r.GetLongValue(), nil
}

func (Int64Encoder) ExactSizeInStream(PageReader) (int, error) { return 8, nil }
func (Int64Encoder) MaximumSize() int                          { return 8 }
func (Int64Encoder) IsOfBoundSize() bool                       { return true }

// PageIndexEncoder is Int64Encoder under the name the node package's
// external interfaces section uses for page pointers and block indices.
type PageIndexEncoder = Int64Encoder

// PagePositionEncoder is Int32Encoder under the name the node package's
// external interfaces section uses for intra-page offsets.
type PagePositionEncoder = Int32Encoder
