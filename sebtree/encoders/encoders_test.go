package encoders_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arvindsridhar/sebtree/sebtree/encoders"
)

// fakeBuf is a minimal in-memory PageReader/PageWriter for exercising
// codecs without a real page buffer.
type fakeBuf struct {
	data []byte
	pos  int
}

func newFakeBuf(size int) *fakeBuf { return &fakeBuf{data: make([]byte, size)} }

func (b *fakeBuf) GetPosition() int    { return b.pos }
func (b *fakeBuf) SetPosition(pos int) { b.pos = pos }

func (b *fakeBuf) SetByteValue(v byte) { b.data[b.pos] = v; b.pos++ }
func (b *fakeBuf) GetByteValue() byte  { v := b.data[b.pos]; b.pos++; return v }

func (b *fakeBuf) SetIntValue(v int32) {
	b.data[b.pos] = byte(v >> 24)
	b.data[b.pos+1] = byte(v >> 16)
	b.data[b.pos+2] = byte(v >> 8)
	b.data[b.pos+3] = byte(v)
	b.pos += 4
}

func (b *fakeBuf) GetIntValue() int32 {
	v := int32(b.data[b.pos])<<24 | int32(b.data[b.pos+1])<<16 | int32(b.data[b.pos+2])<<8 | int32(b.data[b.pos+3])
	b.pos += 4
	return v
}

func (b *fakeBuf) SetUint32Value(v uint32) { b.SetIntValue(int32(v)) }
func (b *fakeBuf) GetUint32Value() uint32  { return uint32(b.GetIntValue()) }

func (b *fakeBuf) SetLongValue(v int64) {
	b.SetIntValue(int32(v >> 32))
	b.SetIntValue(int32(v))
}

func (b *fakeBuf) GetLongValue() int64 {
	hi := int64(b.GetIntValue())
	lo := int64(uint32(b.GetIntValue()))
	return hi<<32 | lo
}

func (b *fakeBuf) Read(n int) []byte {
	out := make([]byte, n)
	copy(out, b.data[b.pos:b.pos+n])
	b.pos += n
	return out
}

func (b *fakeBuf) Write(v []byte) {
	copy(b.data[b.pos:b.pos+len(v)], v)
	b.pos += len(v)
}

func TestUint32EncoderRoundTrip(t *testing.T) {
	enc := encoders.Uint32Encoder{}
	require.True(t, enc.IsOfBoundSize())
	require.Equal(t, 4, enc.MaximumSize())

	buf := newFakeBuf(16)
	require.NoError(t, enc.Encode(42, buf))
	buf.SetPosition(0)
	got, err := enc.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(42), got)
}

func TestInt64EncoderRoundTrip(t *testing.T) {
	enc := encoders.Int64Encoder{}
	buf := newFakeBuf(16)
	require.NoError(t, enc.Encode(-123456789, buf))
	buf.SetPosition(0)
	got, err := enc.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, int64(-123456789), got)
}

func TestBytesEncoderRoundTripAndExactSize(t *testing.T) {
	enc := encoders.NewBytesEncoder(64)
	require.False(t, enc.IsOfBoundSize())

	buf := newFakeBuf(64)
	payload := []byte("hello sebtree")
	require.NoError(t, enc.Encode(payload, buf))

	buf.SetPosition(0)
	size, err := enc.ExactSizeInStream(buf)
	require.NoError(t, err)
	require.Equal(t, 4+len(payload), size)
	require.Equal(t, 0, buf.GetPosition(), "probe must not move the cursor")

	got, err := enc.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestStringEncoderRoundTrip(t *testing.T) {
	enc := encoders.NewStringEncoder(64)
	buf := newFakeBuf(64)
	require.NoError(t, enc.Encode("variable-length leaf payload", buf))
	buf.SetPosition(0)
	got, err := enc.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, "variable-length leaf payload", got)
}

func TestConstantProviderVersionGating(t *testing.T) {
	provider := encoders.NewConstantProvider[uint32](encoders.Uint32Encoder{}, 0)

	enc, err := provider.Encoder(0)
	require.NoError(t, err)
	require.NotNil(t, enc)

	_, err = provider.Encoder(1)
	require.ErrorIs(t, err, encoders.ErrVersionMismatch)
}

func TestVersionedProviderVersionGating(t *testing.T) {
	provider := encoders.NewVersionedProvider(map[int]encoders.Encoder[uint32]{
		0: encoders.Uint32Encoder{},
	})

	_, err := provider.Encoder(0)
	require.NoError(t, err)

	_, err = provider.Encoder(5)
	require.ErrorIs(t, err, encoders.ErrVersionMismatch)
}
