package buffer

import (
	"math"

	"github.com/arloliu/binio/endian"
	"github.com/arloliu/binio/errs"
)

// ByteBuffer is the conservative IoBuffer backend: fixed capacity with every
// access bounds-checked and all multi-byte values moved element by element
// through the endian engine.
//
// Use it when the stream size is known up front (e.g. a payload received
// from a transport) or when an oversized write must surface as an error
// instead of an allocation.
type ByteBuffer struct {
	data   []byte
	pos    int
	limit  int
	engine endian.EndianEngine
}

var _ IoBuffer = (*ByteBuffer)(nil)

// NewByteBuffer creates a fixed-capacity buffer using the little-endian
// engine.
func NewByteBuffer(capacity int) *ByteBuffer {
	return NewByteBufferWithEngine(capacity, endian.GetLittleEndianEngine())
}

// NewByteBufferWithEngine creates a fixed-capacity buffer with an explicit
// endian engine.
func NewByteBufferWithEngine(capacity int, engine endian.EndianEngine) *ByteBuffer {
	return &ByteBuffer{
		data:   make([]byte, capacity),
		engine: engine,
	}
}

// WrapByteBuffer wraps an existing byte slice for reading. The buffer's
// limit is set to len(data); the slice is not copied.
func WrapByteBuffer(data []byte) *ByteBuffer {
	return &ByteBuffer{
		data:   data,
		limit:  len(data),
		engine: endian.GetLittleEndianEngine(),
	}
}

func (b *ByteBuffer) Position() int { return b.pos }

func (b *ByteBuffer) SetPosition(pos int) error {
	if pos < 0 || pos > len(b.data) {
		return errs.ErrInvalidPosition
	}
	b.pos = pos

	return nil
}

func (b *ByteBuffer) Reset() { b.pos = 0 }

func (b *ByteBuffer) Clear() {
	b.pos = 0
	b.limit = 0
}

func (b *ByteBuffer) Limit() int     { return b.limit }
func (b *ByteBuffer) Capacity() int  { return len(b.data) }
func (b *ByteBuffer) Remaining() int { return b.limit - b.pos }
func (b *ByteBuffer) Bytes() []byte  { return b.data[:b.limit] }

// EnsureCapacity checks that n more bytes fit; a fixed-capacity buffer never
// grows, so a shortfall is an overflow.
func (b *ByteBuffer) EnsureCapacity(n int) error {
	if b.pos+n > len(b.data) {
		return errs.ErrBufferOverflow
	}

	return nil
}

func (b *ByteBuffer) commit(newPos int) {
	b.pos = newPos
	if b.pos > b.limit {
		b.limit = b.pos
	}
}

func (b *ByteBuffer) ensureWritable(n int) error {
	if b.pos+n > len(b.data) {
		return errs.ErrBufferOverflow
	}

	return nil
}

func (b *ByteBuffer) ensureReadable(n int) error {
	if n < 0 || b.pos+n > b.limit {
		return errs.ErrBufferUnderflow
	}

	return nil
}

func (b *ByteBuffer) PutBool(v bool) error {
	if err := b.ensureWritable(SizeBool); err != nil {
		return err
	}
	if v {
		b.data[b.pos] = 1
	} else {
		b.data[b.pos] = 0
	}
	b.commit(b.pos + SizeBool)

	return nil
}

func (b *ByteBuffer) PutInt8(v int8) error {
	if err := b.ensureWritable(SizeInt8); err != nil {
		return err
	}
	b.data[b.pos] = byte(v)
	b.commit(b.pos + SizeInt8)

	return nil
}

func (b *ByteBuffer) PutInt16(v int16) error {
	if err := b.ensureWritable(SizeInt16); err != nil {
		return err
	}
	b.engine.PutUint16(b.data[b.pos:], uint16(v))
	b.commit(b.pos + SizeInt16)

	return nil
}

func (b *ByteBuffer) PutInt32(v int32) error {
	if err := b.ensureWritable(SizeInt32); err != nil {
		return err
	}
	b.engine.PutUint32(b.data[b.pos:], uint32(v))
	b.commit(b.pos + SizeInt32)

	return nil
}

func (b *ByteBuffer) PutInt64(v int64) error {
	if err := b.ensureWritable(SizeInt64); err != nil {
		return err
	}
	b.engine.PutUint64(b.data[b.pos:], uint64(v))
	b.commit(b.pos + SizeInt64)

	return nil
}

func (b *ByteBuffer) PutFloat32(v float32) error {
	return b.PutInt32(int32(math.Float32bits(v)))
}

func (b *ByteBuffer) PutFloat64(v float64) error {
	return b.PutInt64(int64(math.Float64bits(v)))
}

func (b *ByteBuffer) PutString(v string) error {
	if err := b.ensureWritable(SizeInt32 + len(v)); err != nil {
		return err
	}
	b.engine.PutUint32(b.data[b.pos:], uint32(len(v)))
	copy(b.data[b.pos+SizeInt32:], v)
	b.commit(b.pos + SizeInt32 + len(v))

	return nil
}

func (b *ByteBuffer) PutBytes(v []byte) error {
	if err := b.ensureWritable(len(v)); err != nil {
		return err
	}
	copy(b.data[b.pos:], v)
	b.commit(b.pos + len(v))

	return nil
}

func (b *ByteBuffer) GetBool() (bool, error) {
	if err := b.ensureReadable(SizeBool); err != nil {
		return false, err
	}
	v := b.data[b.pos] != 0
	b.pos += SizeBool

	return v, nil
}

func (b *ByteBuffer) GetInt8() (int8, error) {
	if err := b.ensureReadable(SizeInt8); err != nil {
		return 0, err
	}
	v := int8(b.data[b.pos])
	b.pos += SizeInt8

	return v, nil
}

func (b *ByteBuffer) GetInt16() (int16, error) {
	if err := b.ensureReadable(SizeInt16); err != nil {
		return 0, err
	}
	v := int16(b.engine.Uint16(b.data[b.pos:]))
	b.pos += SizeInt16

	return v, nil
}

func (b *ByteBuffer) GetInt32() (int32, error) {
	if err := b.ensureReadable(SizeInt32); err != nil {
		return 0, err
	}
	v := int32(b.engine.Uint32(b.data[b.pos:]))
	b.pos += SizeInt32

	return v, nil
}

func (b *ByteBuffer) GetInt64() (int64, error) {
	if err := b.ensureReadable(SizeInt64); err != nil {
		return 0, err
	}
	v := int64(b.engine.Uint64(b.data[b.pos:]))
	b.pos += SizeInt64

	return v, nil
}

func (b *ByteBuffer) GetFloat32() (float32, error) {
	v, err := b.GetInt32()
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(uint32(v)), nil
}

func (b *ByteBuffer) GetFloat64() (float64, error) {
	v, err := b.GetInt64()
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(uint64(v)), nil
}

func (b *ByteBuffer) GetString() (string, error) {
	n, err := b.GetInt32()
	if err != nil {
		return "", err
	}
	if err := b.ensureReadable(int(n)); err != nil {
		return "", err
	}
	v := string(b.data[b.pos : b.pos+int(n)])
	b.pos += int(n)

	return v, nil
}

func (b *ByteBuffer) GetBytes(n int) ([]byte, error) {
	if err := b.ensureReadable(n); err != nil {
		return nil, err
	}
	v := make([]byte, n)
	copy(v, b.data[b.pos:])
	b.pos += n

	return v, nil
}

func (b *ByteBuffer) PutBoolSlice(v []bool) error {
	if err := b.ensureWritable(len(v) * SizeBool); err != nil {
		return err
	}
	for _, e := range v {
		if e {
			b.data[b.pos] = 1
		} else {
			b.data[b.pos] = 0
		}
		b.pos++
	}
	b.commit(b.pos)

	return nil
}

func (b *ByteBuffer) PutInt8Slice(v []int8) error {
	if err := b.ensureWritable(len(v) * SizeInt8); err != nil {
		return err
	}
	for _, e := range v {
		b.data[b.pos] = byte(e)
		b.pos++
	}
	b.commit(b.pos)

	return nil
}

func (b *ByteBuffer) PutInt16Slice(v []int16) error {
	if err := b.ensureWritable(len(v) * SizeInt16); err != nil {
		return err
	}
	for _, e := range v {
		b.engine.PutUint16(b.data[b.pos:], uint16(e))
		b.pos += SizeInt16
	}
	b.commit(b.pos)

	return nil
}

func (b *ByteBuffer) PutInt32Slice(v []int32) error {
	if err := b.ensureWritable(len(v) * SizeInt32); err != nil {
		return err
	}
	for _, e := range v {
		b.engine.PutUint32(b.data[b.pos:], uint32(e))
		b.pos += SizeInt32
	}
	b.commit(b.pos)

	return nil
}

func (b *ByteBuffer) PutInt64Slice(v []int64) error {
	if err := b.ensureWritable(len(v) * SizeInt64); err != nil {
		return err
	}
	for _, e := range v {
		b.engine.PutUint64(b.data[b.pos:], uint64(e))
		b.pos += SizeInt64
	}
	b.commit(b.pos)

	return nil
}

func (b *ByteBuffer) PutFloat32Slice(v []float32) error {
	if err := b.ensureWritable(len(v) * SizeFloat32); err != nil {
		return err
	}
	for _, e := range v {
		b.engine.PutUint32(b.data[b.pos:], math.Float32bits(e))
		b.pos += SizeFloat32
	}
	b.commit(b.pos)

	return nil
}

func (b *ByteBuffer) PutFloat64Slice(v []float64) error {
	if err := b.ensureWritable(len(v) * SizeFloat64); err != nil {
		return err
	}
	for _, e := range v {
		b.engine.PutUint64(b.data[b.pos:], math.Float64bits(e))
		b.pos += SizeFloat64
	}
	b.commit(b.pos)

	return nil
}

func (b *ByteBuffer) PutStringSlice(v []string) error {
	for _, e := range v {
		if err := b.PutString(e); err != nil {
			return err
		}
	}

	return nil
}

func (b *ByteBuffer) GetBoolSlice(n int) ([]bool, error) {
	if err := b.ensureReadable(n * SizeBool); err != nil {
		return nil, err
	}
	v := make([]bool, n)
	for i := range v {
		v[i] = b.data[b.pos] != 0
		b.pos++
	}

	return v, nil
}

func (b *ByteBuffer) GetInt8Slice(n int) ([]int8, error) {
	if err := b.ensureReadable(n * SizeInt8); err != nil {
		return nil, err
	}
	v := make([]int8, n)
	for i := range v {
		v[i] = int8(b.data[b.pos])
		b.pos++
	}

	return v, nil
}

func (b *ByteBuffer) GetInt16Slice(n int) ([]int16, error) {
	if err := b.ensureReadable(n * SizeInt16); err != nil {
		return nil, err
	}
	v := make([]int16, n)
	for i := range v {
		v[i] = int16(b.engine.Uint16(b.data[b.pos:]))
		b.pos += SizeInt16
	}

	return v, nil
}

func (b *ByteBuffer) GetInt32Slice(n int) ([]int32, error) {
	if err := b.ensureReadable(n * SizeInt32); err != nil {
		return nil, err
	}
	v := make([]int32, n)
	for i := range v {
		v[i] = int32(b.engine.Uint32(b.data[b.pos:]))
		b.pos += SizeInt32
	}

	return v, nil
}

func (b *ByteBuffer) GetInt64Slice(n int) ([]int64, error) {
	if err := b.ensureReadable(n * SizeInt64); err != nil {
		return nil, err
	}
	v := make([]int64, n)
	for i := range v {
		v[i] = int64(b.engine.Uint64(b.data[b.pos:]))
		b.pos += SizeInt64
	}

	return v, nil
}

func (b *ByteBuffer) GetFloat32Slice(n int) ([]float32, error) {
	if err := b.ensureReadable(n * SizeFloat32); err != nil {
		return nil, err
	}
	v := make([]float32, n)
	for i := range v {
		v[i] = math.Float32frombits(b.engine.Uint32(b.data[b.pos:]))
		b.pos += SizeFloat32
	}

	return v, nil
}

func (b *ByteBuffer) GetFloat64Slice(n int) ([]float64, error) {
	if err := b.ensureReadable(n * SizeFloat64); err != nil {
		return nil, err
	}
	v := make([]float64, n)
	for i := range v {
		v[i] = math.Float64frombits(b.engine.Uint64(b.data[b.pos:]))
		b.pos += SizeFloat64
	}

	return v, nil
}

func (b *ByteBuffer) GetStringSlice(n int) ([]string, error) {
	if n < 0 {
		return nil, errs.ErrBufferUnderflow
	}
	v := make([]string, n)
	for i := range v {
		s, err := b.GetString()
		if err != nil {
			return nil, err
		}
		v[i] = s
	}

	return v, nil
}
