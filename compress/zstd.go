package compress

// ZstdCodec compresses with Zstandard, the best ratio of the built-in
// codecs. Suited to archival and bandwidth-limited transmission of large
// serialized graphs.
//
// Two implementations exist behind build tags: the cgo build uses
// valyala/gozstd (libzstd bindings), the pure-Go build uses
// klauspost/compress/zstd with pooled encoders and decoders. Both produce
// standard zstd frames and interoperate freely.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a Zstd codec.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
