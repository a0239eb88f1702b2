// Package codec bridges arbitrary Go object graphs to the binio wire
// protocol without requiring every type to hand-write buffer code.
//
// Types fall into two groups:
//
//   - Registered types carry a custom FieldSerialiser, a {writer, returner,
//     reader} function triple that moves the type's payload through the
//     wire serialiser directly.
//   - Everything else is derived automatically: the registry reflects over
//     a struct's exported fields once, memoizes the plan, and dispatches
//     per field kind (scalar, array, container, nested object).
//
// Deserialization is structural-parse first: the stream's field header tree
// is built, then each known field is located by name and materialized.
// Stream fields the target does not declare are skipped by their recorded
// length; target fields absent from the stream are left untouched.
package codec

import (
	"reflect"

	"github.com/arloliu/binio/wire"
)

// WriterFunc serializes value's payload through the wire serialiser. The
// framework has already written the field's name, tag, and reserved length;
// the function writes raw payload only, and ordering is load-bearing since
// custom payloads carry no per-element field headers.
type WriterFunc func(io *wire.BinarySerialiser, value reflect.Value) error

// ReturnFunc produces a value from the payload at the current buffer
// position. existing is the target's current value (possibly the zero
// value); implementations should update and return it when it can hold the
// result, preserving object identity, and construct a fresh value otherwise.
type ReturnFunc func(io *wire.BinarySerialiser, existing reflect.Value) (reflect.Value, error)

// ReaderFunc applies the payload at the current buffer position into target.
type ReaderFunc func(io *wire.BinarySerialiser, target reflect.Value) error

// FieldSerialiser binds a type to its custom wire functions.
type FieldSerialiser struct {
	// Type is the Go type this serializer handles. An interface type
	// matches any value implementing it (exact registrations win).
	Type reflect.Type
	// Tag is the wire tag written for fields of this type.
	Tag wire.DataType
	// Writer, Returner and Reader form the serializer triple. Reader may
	// be nil, in which case it is derived from Returner.
	Writer   WriterFunc
	Returner ReturnFunc
	Reader   ReaderFunc
}

// NewFieldSerialiser builds a serializer from a writer and a returner,
// deriving the reader from the returner. Most custom serializers tag their
// fields wire.TypeOther; container serializers may use the container tags.
func NewFieldSerialiser(t reflect.Type, tag wire.DataType, writer WriterFunc, returner ReturnFunc) *FieldSerialiser {
	fs := &FieldSerialiser{Type: t, Tag: tag, Writer: writer, Returner: returner}
	fs.Reader = func(io *wire.BinarySerialiser, target reflect.Value) error {
		nv, err := returner(io, target)
		if err != nil {
			return err
		}
		if nv.IsValid() && target.CanSet() {
			target.Set(nv)
		}

		return nil
	}

	return fs
}

// Register is the typed convenience wrapper around AddClassDefinition.
//
// write serializes a T payload; read receives the existing T (and whether
// one was present) and returns the value to store, so implementations can
// update in place or construct fresh.
func Register[T any](c *IoClassSerialiser, tag wire.DataType,
	write func(io *wire.BinarySerialiser, v T) error,
	read func(io *wire.BinarySerialiser, existing T, present bool) (T, error),
) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	writer := func(io *wire.BinarySerialiser, value reflect.Value) error {
		return write(io, value.Interface().(T))
	}
	returner := func(io *wire.BinarySerialiser, existing reflect.Value) (reflect.Value, error) {
		var prev T
		present := false
		if existing.IsValid() && !existing.IsZero() {
			prev = existing.Interface().(T)
			present = true
		}
		nv, err := read(io, prev, present)
		if err != nil {
			return reflect.Value{}, err
		}

		return reflect.ValueOf(nv), nil
	}
	c.AddClassDefinition(NewFieldSerialiser(t, tag, writer, returner))
}
