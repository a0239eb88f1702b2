// Package errs defines the error taxonomy shared by all binio packages.
//
// Buffer errors (ErrBufferOverflow, ErrBufferUnderflow) indicate that the
// caller must resize or re-supply data; they are never retried internally.
// Protocol and schema errors carry enough context (field name, expected and
// found type tags) for the caller to decide whether to skip a field or abort.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferOverflow indicates a write would exceed the buffer's capacity.
	ErrBufferOverflow = errors.New("binio: buffer overflow")

	// ErrBufferUnderflow indicates a read requires more bytes than remain
	// between the buffer's position and its limit.
	ErrBufferUnderflow = errors.New("binio: buffer underflow")

	// ErrProtocolMismatch indicates the stream header's magic number or
	// major version is not recognized by this reader.
	ErrProtocolMismatch = errors.New("binio: unrecognized stream protocol")

	// ErrInvalidPosition indicates a seek outside the buffer's bounds.
	ErrInvalidPosition = errors.New("binio: invalid buffer position")

	// ErrInvalidArrayDims indicates an array descriptor with a negative or
	// inconsistent dimension vector.
	ErrInvalidArrayDims = errors.New("binio: invalid array dimensions")

	// ErrUnknownCompression indicates a compressed payload tagged with a
	// codec this build does not provide.
	ErrUnknownCompression = errors.New("binio: unknown compression codec")
)

// SchemaMismatchError reports a conflict between a field's declared type tag
// and the tag a reader expected. Both tags are carried so the caller can
// decide to skip the field or abort.
type SchemaMismatchError struct {
	Field    string
	Expected string
	Found    string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("binio: schema mismatch for field %q: expected %s, found %s", e.Field, e.Expected, e.Found)
}

// UnsupportedTypeError reports that no serializer could be derived or found
// for a type. It surfaces at first use of the type, not at registration.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("binio: no serializer for type %s", e.Type)
}
