// Package buffer provides position-addressable byte containers backing the
// binio wire format.
//
// Two interchangeable backends implement the IoBuffer interface:
//
//   - ByteBuffer: fixed capacity, every access conservatively bounds-checked.
//     Writes past capacity fail with errs.ErrBufferOverflow.
//   - FastByteBuffer: growable, uses unsafe bulk copies for numeric slices
//     when the engine matches the host's native byte order.
//
// Both backends produce byte-identical output for identical sequences of
// put calls with the same endian engine.
//
// A buffer tracks one cursor (the position) shared by reads and writes, and
// a limit marking the end of valid data. Writing advances both; reading is
// bounded by the limit and fails with errs.ErrBufferUnderflow when fewer
// bytes remain than requested. The buffer performs no I/O of its own; the
// caller fills or drains it around serializer calls.
//
// A buffer must not be shared between goroutines during a serialize or
// deserialize call.
package buffer

// IoBuffer is the byte container contract consumed by the wire protocol.
//
// All multi-byte values go through the buffer's endian engine. Strings are
// length-prefixed ([int32 byte length][utf8 bytes], no terminator). Slice
// accessors move raw element runs without a count prefix; element counts and
// dimension descriptors are a wire-protocol concern.
type IoBuffer interface {
	// Position returns the current cursor offset.
	Position() int
	// SetPosition seeks to an absolute offset within the buffer's capacity.
	SetPosition(pos int) error
	// Reset seeks to offset 0 without touching the limit, switching the
	// buffer from writing to reading.
	Reset()
	// Clear resets both position and limit for writing a fresh stream.
	Clear()
	// Limit returns the offset one past the last valid byte.
	Limit() int
	// Capacity returns the buffer's current capacity in bytes.
	Capacity() int
	// Remaining returns the number of readable bytes, limit - position.
	Remaining() int
	// Bytes returns the valid region [0, limit). The slice aliases the
	// buffer's storage and is invalidated by growth.
	Bytes() []byte
	// EnsureCapacity guarantees room for n more bytes at the current
	// position, growing if the backend supports it.
	EnsureCapacity(n int) error

	PutBool(v bool) error
	PutInt8(v int8) error
	PutInt16(v int16) error
	PutInt32(v int32) error
	PutInt64(v int64) error
	PutFloat32(v float32) error
	PutFloat64(v float64) error
	PutString(v string) error
	PutBytes(v []byte) error

	GetBool() (bool, error)
	GetInt8() (int8, error)
	GetInt16() (int16, error)
	GetInt32() (int32, error)
	GetInt64() (int64, error)
	GetFloat32() (float32, error)
	GetFloat64() (float64, error)
	GetString() (string, error)
	GetBytes(n int) ([]byte, error)

	PutBoolSlice(v []bool) error
	PutInt8Slice(v []int8) error
	PutInt16Slice(v []int16) error
	PutInt32Slice(v []int32) error
	PutInt64Slice(v []int64) error
	PutFloat32Slice(v []float32) error
	PutFloat64Slice(v []float64) error
	PutStringSlice(v []string) error

	GetBoolSlice(n int) ([]bool, error)
	GetInt8Slice(n int) ([]int8, error)
	GetInt16Slice(n int) ([]int16, error)
	GetInt32Slice(n int) ([]int32, error)
	GetInt64Slice(n int) ([]int64, error)
	GetFloat32Slice(n int) ([]float32, error)
	GetFloat64Slice(n int) ([]float64, error)
	GetStringSlice(n int) ([]string, error)
}

// Fixed widths of the primitive wire types, in bytes.
const (
	SizeBool    = 1
	SizeInt8    = 1
	SizeInt16   = 2
	SizeInt32   = 4
	SizeInt64   = 8
	SizeFloat32 = 4
	SizeFloat64 = 8
)
