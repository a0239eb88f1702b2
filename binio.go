// Package binio provides a self-describing binary serialization framework.
//
// Every serialized field carries its name, a type tag, and its payload
// length, so readers can structurally parse a stream without knowing its
// schema, look fields up by name, and skip anything they do not recognize.
// The format is versioned and tolerant: schema evolution on either side of
// the wire degrades to ignored or defaulted fields, never to corruption.
//
// # Layers
//
//   - buffer: position-addressed binary buffers (fixed ByteBuffer, growable
//     FastByteBuffer) with configurable byte order
//   - wire: the field-header protocol (BinarySerialiser, FieldHeader,
//     structural parse)
//   - codec: reflection-driven object graphs with a custom serializer
//     registry (IoClassSerialiser, FieldSerialiser)
//   - dataset: the multi-dimensional dataset model and its wire adapter
//   - compress: whole-stream compression codecs (Zstd, S2, LZ4)
//
// # Basic Usage
//
// Marshaling an object graph:
//
//	type Point struct {
//	    Name string
//	    X, Y float64
//	}
//
//	data, err := binio.Marshal(&Point{Name: "origin"})
//	if err != nil {
//	    return err
//	}
//
//	var p Point
//	if err := binio.Unmarshal(data, &p); err != nil {
//	    return err
//	}
//
// Compressed streams prepend a one-byte codec identifier:
//
//	data, err := binio.MarshalCompressed(&p, compress.TypeZstd)
//	...
//	err = binio.UnmarshalCompressed(data, &p)
//
// This package provides convenient top-level wrappers around the wire and
// codec packages. For fine-grained control (custom serializers, persistent
// buffers, big-endian streams), use those packages directly.
package binio

import (
	"github.com/arloliu/binio/buffer"
	"github.com/arloliu/binio/codec"
	"github.com/arloliu/binio/compress"
	"github.com/arloliu/binio/dataset"
	"github.com/arloliu/binio/endian"
	"github.com/arloliu/binio/errs"
	"github.com/arloliu/binio/internal/pool"
	"github.com/arloliu/binio/wire"
)

type marshalConfig struct {
	capacity int
	engine   endian.EndianEngine
	register []func(*codec.IoClassSerialiser)
}

// Option configures the Marshal and Unmarshal wrappers.
type Option func(*marshalConfig)

// WithInitialCapacity sets the marshal buffer's starting capacity.
func WithInitialCapacity(n int) Option {
	return func(c *marshalConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithBigEndian writes and reads streams in big-endian byte order. Both
// sides of the wire must agree; streams do not record their byte order.
func WithBigEndian() Option {
	return func(c *marshalConfig) { c.engine = endian.GetBigEndianEngine() }
}

// WithLittleEndian selects little-endian byte order, the default.
func WithLittleEndian() Option {
	return func(c *marshalConfig) { c.engine = endian.GetLittleEndianEngine() }
}

// WithClassDefinitions runs register on the class serialiser before use, so
// custom FieldSerialiser registrations apply to one Marshal or Unmarshal
// call.
func WithClassDefinitions(register func(*codec.IoClassSerialiser)) Option {
	return func(c *marshalConfig) { c.register = append(c.register, register) }
}

// WithDataSetSupport registers the dataset wire adapter, so *dataset.DataSet
// values embedded in the object graph serialize through the dataset field
// conventions instead of struct reflection.
func WithDataSetSupport() Option {
	return func(c *marshalConfig) { c.register = append(c.register, dataset.RegisterSerialiser) }
}

func newConfig(opts []Option) marshalConfig {
	cfg := marshalConfig{
		capacity: pool.DefaultScratchSize,
		engine:   endian.GetLittleEndianEngine(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func (c marshalConfig) serialiser(buf buffer.IoBuffer) *codec.IoClassSerialiser {
	cs := codec.NewIoClassSerialiser(wire.New(buf))
	for _, register := range c.register {
		register(cs)
	}

	return cs
}

// Marshal serializes obj into a self-describing binary stream.
//
// obj is serialized through the class serialiser: registered types use
// their custom FieldSerialiser, structs are reflected over, and *dataset.DataSet
// uses the dataset adapter when WithDataSetSupport is given. The returned
// slice is owned by the caller.
func Marshal(obj any, opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)
	buf, release := cfg.marshalBuffer()
	defer release()
	if err := cfg.serialiser(buf).SerialiseObject(obj); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Limit())
	copy(out, buf.Bytes())

	return out, nil
}

// marshalBuffer returns a write buffer and its release function. Default
// configurations write into a pooled scratch slice; the buffer reallocates
// past it transparently and the original returns to the pool either way.
func (c marshalConfig) marshalBuffer() (buffer.IoBuffer, func()) {
	if c.capacity == pool.DefaultScratchSize && c.engine == endian.GetLittleEndianEngine() {
		scratch := pool.GetScratch()
		buf := buffer.WrapFastByteBuffer((*scratch)[:cap(*scratch)])
		buf.Clear()

		return buf, func() { pool.PutScratch(scratch) }
	}

	return buffer.NewFastByteBufferWithEngine(c.capacity, c.engine), func() {}
}

// Unmarshal deserializes a stream produced by Marshal into target, which
// must be a non-nil pointer. Stream fields target does not declare are
// skipped; target fields absent from the stream keep their current values.
func Unmarshal(data []byte, target any, opts ...Option) error {
	cfg := newConfig(opts)
	var buf buffer.IoBuffer
	if cfg.engine == endian.GetLittleEndianEngine() {
		buf = buffer.WrapFastByteBuffer(data)
	} else {
		b := buffer.NewFastByteBufferWithEngine(0, cfg.engine)
		if err := b.PutBytes(data); err != nil {
			return err
		}
		buf = b
	}

	return cfg.serialiser(buf).DeserialiseObject(target)
}

// MarshalCompressed serializes obj and compresses the stream, prepending a
// single byte identifying the codec so UnmarshalCompressed needs no
// side-channel configuration.
func MarshalCompressed(obj any, ct compress.Type, opts ...Option) ([]byte, error) {
	cdc, err := compress.CodecFor(ct)
	if err != nil {
		return nil, err
	}
	raw, err := Marshal(obj, opts...)
	if err != nil {
		return nil, err
	}
	compressed, err := cdc.Compress(raw)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 1+len(compressed))
	out[0] = byte(ct)
	copy(out[1:], compressed)

	return out, nil
}

// UnmarshalCompressed reverses MarshalCompressed: it reads the codec byte,
// decompresses the remainder, and deserializes into target.
func UnmarshalCompressed(data []byte, target any, opts ...Option) error {
	if len(data) == 0 {
		return errs.ErrBufferUnderflow
	}
	cdc, err := compress.CodecFor(compress.Type(data[0]))
	if err != nil {
		return err
	}
	raw, err := cdc.Decompress(data[1:])
	if err != nil {
		return err
	}

	return Unmarshal(raw, target, opts...)
}

// MarshalDataSet serializes a dataset as a standalone stream using the
// dataset field conventions. asFloat stores numeric arrays at single
// precision.
func MarshalDataSet(ds *dataset.DataSet, asFloat bool, opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)
	buf, release := cfg.marshalBuffer()
	defer release()
	if err := dataset.NewSerialiser(wire.New(buf)).Write(ds, asFloat); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Limit())
	copy(out, buf.Bytes())

	return out, nil
}

// UnmarshalDataSet deserializes a stream produced by MarshalDataSet.
func UnmarshalDataSet(data []byte, opts ...Option) (*dataset.DataSet, error) {
	cfg := newConfig(opts)
	var buf buffer.IoBuffer
	if cfg.engine == endian.GetLittleEndianEngine() {
		buf = buffer.WrapFastByteBuffer(data)
	} else {
		b := buffer.NewFastByteBufferWithEngine(0, cfg.engine)
		if err := b.PutBytes(data); err != nil {
			return nil, err
		}
		buf = b
	}

	return dataset.NewSerialiser(wire.New(buf)).Read()
}
