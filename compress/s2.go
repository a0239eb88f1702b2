package compress

import "github.com/klauspost/compress/s2"

// S2Codec compresses with S2, a Snappy-compatible format tuned for speed.
// The preferred choice when serialization throughput matters more than
// stream size.
type S2Codec struct{}

var _ Codec = (*S2Codec)(nil)

// NewS2Codec creates an S2 codec.
func NewS2Codec() S2Codec {
	return S2Codec{}
}

// Compress compresses data with S2 block encoding.
func (c S2Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decompresses S2 block data.
func (c S2Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}
