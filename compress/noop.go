package compress

// NoopCodec bypasses compression, passing data through unchanged. Useful
// for benchmarking framework overhead and for payloads that are already
// compressed.
type NoopCodec struct{}

var _ Codec = (*NoopCodec)(nil)

// NewNoopCodec creates a pass-through codec.
func NewNoopCodec() NoopCodec {
	return NoopCodec{}
}

// Compress returns data as-is. The result shares the input's backing array.
func (c NoopCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data as-is. The result shares the input's backing array.
func (c NoopCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
