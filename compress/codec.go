// Package compress provides the compression codecs binio streams may be
// wrapped in.
//
// Serialized streams are already compact but highly regular (field names,
// repeated tags, numeric arrays), which compresses well. A Codec operates
// on whole byte slices; binio.MarshalCompressed prefixes the compressed
// stream with the codec's Type byte so the reader can pick the matching
// decompressor without side-channel configuration.
package compress

import (
	"fmt"

	"github.com/arloliu/binio/errs"
)

// Type identifies a compression codec on the wire.
type Type uint8

const (
	// TypeNone passes data through unmodified.
	TypeNone Type = 0
	// TypeZstd selects Zstandard, the best ratio at moderate speed.
	TypeZstd Type = 1
	// TypeS2 selects S2, the fastest option at a lower ratio.
	TypeS2 Type = 2
	// TypeLZ4 selects LZ4 block compression.
	TypeLZ4 Type = 3
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeZstd:
		return "zstd"
	case TypeS2:
		return "s2"
	case TypeLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Codec compresses and decompresses whole payloads.
//
// Implementations must be safe for concurrent use; the built-in codecs are
// stateless values with pooled internal resources.
type Codec interface {
	// Compress returns the compressed form of data. The returned slice is
	// newly allocated (the no-op codec returns the input as-is) and the
	// input is never modified.
	Compress(data []byte) ([]byte, error)

	// Decompress reverses Compress. It validates the input format and
	// returns an error for corrupted or mismatched data.
	Decompress(data []byte) ([]byte, error)
}

var builtinCodecs = map[Type]Codec{
	TypeNone: NewNoopCodec(),
	TypeZstd: NewZstdCodec(),
	TypeS2:   NewS2Codec(),
	TypeLZ4:  NewLZ4Codec(),
}

// CodecFor returns the built-in codec for the given type.
func CodecFor(t Type) (Codec, error) {
	if c, ok := builtinCodecs[t]; ok {
		return c, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnknownCompression, t)
}
