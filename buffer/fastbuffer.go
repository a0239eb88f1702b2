package buffer

import (
	"math"
	"unsafe"

	"github.com/arloliu/binio/endian"
	"github.com/arloliu/binio/errs"
)

const (
	// defaultGrowth is the chunk added to small buffers, sized so short
	// streams never regrow more than once.
	defaultGrowth = 16 * 1024

	// growthThreshold is the capacity above which growth switches from
	// fixed chunks to a 25% proportional step.
	growthThreshold = 32 * 1024
)

// FastByteBuffer is the high-throughput IoBuffer backend: it grows on demand
// and moves numeric slices with unsafe bulk copies whenever the configured
// engine matches the host's native byte order.
//
// Output is byte-identical to ByteBuffer for the same sequence of put calls
// with the same engine; only the internal access paths differ.
type FastByteBuffer struct {
	data       []byte
	pos        int
	limit      int
	engine     endian.EndianEngine
	nativeFast bool
}

var _ IoBuffer = (*FastByteBuffer)(nil)

// NewFastByteBuffer creates a growable buffer with the given initial
// capacity using the little-endian engine.
func NewFastByteBuffer(capacity int) *FastByteBuffer {
	return NewFastByteBufferWithEngine(capacity, endian.GetLittleEndianEngine())
}

// NewFastByteBufferWithEngine creates a growable buffer with an explicit
// endian engine.
func NewFastByteBufferWithEngine(capacity int, engine endian.EndianEngine) *FastByteBuffer {
	return &FastByteBuffer{
		data:       make([]byte, capacity),
		engine:     engine,
		nativeFast: endian.CompareNativeEndian(engine),
	}
}

// WrapFastByteBuffer wraps an existing byte slice for reading without
// copying it. Writing past len(data) reallocates.
func WrapFastByteBuffer(data []byte) *FastByteBuffer {
	engine := endian.GetLittleEndianEngine()

	return &FastByteBuffer{
		data:       data,
		limit:      len(data),
		engine:     engine,
		nativeFast: endian.CompareNativeEndian(engine),
	}
}

func (b *FastByteBuffer) Position() int { return b.pos }

func (b *FastByteBuffer) SetPosition(pos int) error {
	if pos < 0 || pos > len(b.data) {
		return errs.ErrInvalidPosition
	}
	b.pos = pos

	return nil
}

func (b *FastByteBuffer) Reset() { b.pos = 0 }

func (b *FastByteBuffer) Clear() {
	b.pos = 0
	b.limit = 0
}

func (b *FastByteBuffer) Limit() int     { return b.limit }
func (b *FastByteBuffer) Capacity() int  { return len(b.data) }
func (b *FastByteBuffer) Remaining() int { return b.limit - b.pos }
func (b *FastByteBuffer) Bytes() []byte  { return b.data[:b.limit] }

// EnsureCapacity grows the backing array so n more bytes fit at the current
// position. Previously written bytes up to the old limit are preserved.
func (b *FastByteBuffer) EnsureCapacity(n int) error {
	b.grow(n)

	return nil
}

// grow expands in fixed chunks while small and proportional steps once past
// the threshold, keeping reallocation churn low for large streams.
func (b *FastByteBuffer) grow(n int) {
	required := b.pos + n
	if required <= len(b.data) {
		return
	}
	newCap := len(b.data)
	if newCap < defaultGrowth {
		newCap = defaultGrowth
	}
	for newCap < required {
		if newCap < growthThreshold {
			newCap += defaultGrowth
		} else {
			newCap += newCap / 4
		}
	}
	grown := make([]byte, newCap)
	copy(grown, b.data[:b.limit])
	b.data = grown
}

func (b *FastByteBuffer) commit(newPos int) {
	b.pos = newPos
	if b.pos > b.limit {
		b.limit = b.pos
	}
}

func (b *FastByteBuffer) ensureReadable(n int) error {
	if n < 0 || b.pos+n > b.limit {
		return errs.ErrBufferUnderflow
	}

	return nil
}

func (b *FastByteBuffer) PutBool(v bool) error {
	b.grow(SizeBool)
	if v {
		b.data[b.pos] = 1
	} else {
		b.data[b.pos] = 0
	}
	b.commit(b.pos + SizeBool)

	return nil
}

func (b *FastByteBuffer) PutInt8(v int8) error {
	b.grow(SizeInt8)
	b.data[b.pos] = byte(v)
	b.commit(b.pos + SizeInt8)

	return nil
}

func (b *FastByteBuffer) PutInt16(v int16) error {
	b.grow(SizeInt16)
	b.engine.PutUint16(b.data[b.pos:], uint16(v))
	b.commit(b.pos + SizeInt16)

	return nil
}

func (b *FastByteBuffer) PutInt32(v int32) error {
	b.grow(SizeInt32)
	b.engine.PutUint32(b.data[b.pos:], uint32(v))
	b.commit(b.pos + SizeInt32)

	return nil
}

func (b *FastByteBuffer) PutInt64(v int64) error {
	b.grow(SizeInt64)
	b.engine.PutUint64(b.data[b.pos:], uint64(v))
	b.commit(b.pos + SizeInt64)

	return nil
}

func (b *FastByteBuffer) PutFloat32(v float32) error {
	return b.PutInt32(int32(math.Float32bits(v)))
}

func (b *FastByteBuffer) PutFloat64(v float64) error {
	return b.PutInt64(int64(math.Float64bits(v)))
}

func (b *FastByteBuffer) PutString(v string) error {
	b.grow(SizeInt32 + len(v))
	b.engine.PutUint32(b.data[b.pos:], uint32(len(v)))
	copy(b.data[b.pos+SizeInt32:], v)
	b.commit(b.pos + SizeInt32 + len(v))

	return nil
}

func (b *FastByteBuffer) PutBytes(v []byte) error {
	b.grow(len(v))
	copy(b.data[b.pos:], v)
	b.commit(b.pos + len(v))

	return nil
}

func (b *FastByteBuffer) GetBool() (bool, error) {
	if err := b.ensureReadable(SizeBool); err != nil {
		return false, err
	}
	v := b.data[b.pos] != 0
	b.pos += SizeBool

	return v, nil
}

func (b *FastByteBuffer) GetInt8() (int8, error) {
	if err := b.ensureReadable(SizeInt8); err != nil {
		return 0, err
	}
	v := int8(b.data[b.pos])
	b.pos += SizeInt8

	return v, nil
}

func (b *FastByteBuffer) GetInt16() (int16, error) {
	if err := b.ensureReadable(SizeInt16); err != nil {
		return 0, err
	}
	v := int16(b.engine.Uint16(b.data[b.pos:]))
	b.pos += SizeInt16

	return v, nil
}

func (b *FastByteBuffer) GetInt32() (int32, error) {
	if err := b.ensureReadable(SizeInt32); err != nil {
		return 0, err
	}
	v := int32(b.engine.Uint32(b.data[b.pos:]))
	b.pos += SizeInt32

	return v, nil
}

func (b *FastByteBuffer) GetInt64() (int64, error) {
	if err := b.ensureReadable(SizeInt64); err != nil {
		return 0, err
	}
	v := int64(b.engine.Uint64(b.data[b.pos:]))
	b.pos += SizeInt64

	return v, nil
}

func (b *FastByteBuffer) GetFloat32() (float32, error) {
	v, err := b.GetInt32()
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(uint32(v)), nil
}

func (b *FastByteBuffer) GetFloat64() (float64, error) {
	v, err := b.GetInt64()
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(uint64(v)), nil
}

func (b *FastByteBuffer) GetString() (string, error) {
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

func (b *FastByteBuffer) GetBytes(n int) ([]byte, error) {
	if err := b.ensureReadable(n); err != nil {
		return nil, err
	}
	v := make([]byte, n)
	copy(v, b.data[b.pos:])
	b.pos += n

	return v, nil
}

// putBulk copies a numeric slice as raw memory when the engine matches the
// native byte order; the caller provides the per-element fallback.
func putBulk[T any](b *FastByteBuffer, v []T, elemSize int, slow func()) {
	total := len(v) * elemSize
	b.grow(total)
	if b.nativeFast && len(v) > 0 {
		src := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v))), total)
		copy(b.data[b.pos:], src)
		b.commit(b.pos + total)

		return
	}
	slow()
}

func getBulk[T any](b *FastByteBuffer, n, elemSize int, slow func(v []T)) ([]T, error) {
	total := n * elemSize
	if err := b.ensureReadable(total); err != nil {
		return nil, err
	}
	v := make([]T, n)
	if b.nativeFast && n > 0 {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v))), total)
		copy(dst, b.data[b.pos:])
		b.pos += total
	} else {
		slow(v)
	}

	return v, nil
}

func (b *FastByteBuffer) PutBoolSlice(v []bool) error {
	b.grow(len(v) * SizeBool)
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

func (b *FastByteBuffer) PutInt8Slice(v []int8) error {
	putBulk(b, v, SizeInt8, func() {
		for _, e := range v {
			b.data[b.pos] = byte(e)
			b.pos++
		}
		b.commit(b.pos)
	})

	return nil
}

func (b *FastByteBuffer) PutInt16Slice(v []int16) error {
	putBulk(b, v, SizeInt16, func() {
		for _, e := range v {
			b.engine.PutUint16(b.data[b.pos:], uint16(e))
			b.pos += SizeInt16
		}
		b.commit(b.pos)
	})

	return nil
}

func (b *FastByteBuffer) PutInt32Slice(v []int32) error {
	putBulk(b, v, SizeInt32, func() {
		for _, e := range v {
			b.engine.PutUint32(b.data[b.pos:], uint32(e))
			b.pos += SizeInt32
		}
		b.commit(b.pos)
	})

	return nil
}

func (b *FastByteBuffer) PutInt64Slice(v []int64) error {
	putBulk(b, v, SizeInt64, func() {
		for _, e := range v {
			b.engine.PutUint64(b.data[b.pos:], uint64(e))
			b.pos += SizeInt64
		}
		b.commit(b.pos)
	})

	return nil
}

func (b *FastByteBuffer) PutFloat32Slice(v []float32) error {
	putBulk(b, v, SizeFloat32, func() {
		for _, e := range v {
			b.engine.PutUint32(b.data[b.pos:], math.Float32bits(e))
			b.pos += SizeFloat32
		}
		b.commit(b.pos)
	})

	return nil
}

func (b *FastByteBuffer) PutFloat64Slice(v []float64) error {
	putBulk(b, v, SizeFloat64, func() {
		for _, e := range v {
			b.engine.PutUint64(b.data[b.pos:], math.Float64bits(e))
			b.pos += SizeFloat64
		}
		b.commit(b.pos)
	})

	return nil
}

func (b *FastByteBuffer) PutStringSlice(v []string) error {
	for _, e := range v {
		if err := b.PutString(e); err != nil {
			return err
		}
	}

	return nil
}

func (b *FastByteBuffer) GetBoolSlice(n int) ([]bool, error) {
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

func (b *FastByteBuffer) GetInt8Slice(n int) ([]int8, error) {
	return getBulk(b, n, SizeInt8, func(v []int8) {
		for i := range v {
			v[i] = int8(b.data[b.pos])
			b.pos++
		}
	})
}

func (b *FastByteBuffer) GetInt16Slice(n int) ([]int16, error) {
	return getBulk(b, n, SizeInt16, func(v []int16) {
		for i := range v {
			v[i] = int16(b.engine.Uint16(b.data[b.pos:]))
			b.pos += SizeInt16
		}
	})
}

func (b *FastByteBuffer) GetInt32Slice(n int) ([]int32, error) {
	return getBulk(b, n, SizeInt32, func(v []int32) {
		for i := range v {
			v[i] = int32(b.engine.Uint32(b.data[b.pos:]))
			b.pos += SizeInt32
		}
	})
}

func (b *FastByteBuffer) GetInt64Slice(n int) ([]int64, error) {
	return getBulk(b, n, SizeInt64, func(v []int64) {
		for i := range v {
			v[i] = int64(b.engine.Uint64(b.data[b.pos:]))
			b.pos += SizeInt64
		}
	})
}

func (b *FastByteBuffer) GetFloat32Slice(n int) ([]float32, error) {
	return getBulk(b, n, SizeFloat32, func(v []float32) {
		for i := range v {
			v[i] = math.Float32frombits(b.engine.Uint32(b.data[b.pos:]))
			b.pos += SizeFloat32
		}
	})
}

func (b *FastByteBuffer) GetFloat64Slice(n int) ([]float64, error) {
	return getBulk(b, n, SizeFloat64, func(v []float64) {
		for i := range v {
			v[i] = math.Float64frombits(b.engine.Uint64(b.data[b.pos:]))
			b.pos += SizeFloat64
		}
	})
}

func (b *FastByteBuffer) GetStringSlice(n int) ([]string, error) {
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
