package encoders

import "fmt"

// ConstantProvider serves the same Encoder regardless of requested
// version, as long as the version is in range [0, maxVersion]. It is the
// Provider shape for the common case where a codec has never had to
// change wire format across ENCODERS_VERSION generations.
type ConstantProvider[T any] struct {
	encoder    Encoder[T]
	maxVersion int
}

// NewConstantProvider returns a Provider accepting versions 0..maxVersion
// (inclusive), all resolving to encoder.
func NewConstantProvider[T any](encoder Encoder[T], maxVersion int) ConstantProvider[T] {
	return ConstantProvider[T]{encoder: encoder, maxVersion: maxVersion}
}

func (p ConstantProvider[T]) Encoder(version int) (Encoder[T], error) {
	if version < 0 || version > p.maxVersion {
		return nil, fmt.Errorf("%w: version %d (supported 0..%d)", ErrVersionMismatch, version, p.maxVersion)
	}
	return p.encoder, nil
}

// VersionedProvider serves a distinct Encoder per on-page encoders
// version, for codecs whose wire format has actually changed across
// generations.
type VersionedProvider[T any] struct {
	byVersion map[int]Encoder[T]
}

// NewVersionedProvider returns a Provider keyed by the given version map.
func NewVersionedProvider[T any](byVersion map[int]Encoder[T]) VersionedProvider[T] {
	return VersionedProvider[T]{byVersion: byVersion}
}

func (p VersionedProvider[T]) Encoder(version int) (Encoder[T], error) {
	enc, ok := p.byVersion[version]
	if !ok {
		return nil, fmt.Errorf("%w: version %d", ErrVersionMismatch, version)
	}
	return enc, nil
}
