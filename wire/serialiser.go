// Package wire implements the self-describing binio wire protocol.
//
// A stream is a header followed by framed fields:
//
//	stream := [magic:uint32][major:int8][minor:int8][micro:int8][producer:string] field*
//	field  := [name:string][tag:uint8][length:int32][payload]
//
// Every field carries its payload length, including nested objects
// (StartMarker ... EndMarker), so a reader can skip any field it does not
// recognize without understanding its payload. Scalars, strings and arrays
// precompute their length before writing; nested objects reserve the length
// field and back-patch it when their end marker is written, so a crash
// mid-write never commits a length the payload does not have.
//
// Arrays encode a dimension descriptor ahead of the flat element run:
//
//	array := [nDims:int32][dim:int32 x nDims][flat elements, product(dims)]
//
// Maps encode their key and value tags once, then the entries:
//
//	map := [keyTag:uint8][valueTag:uint8][count:int32][key value]*
package wire

import (
	"fmt"
	"math"

	"github.com/arloliu/binio/buffer"
	"github.com/arloliu/binio/errs"
)

// Stream header constants. The magic spells "BIO1" in little-endian byte
// order. Major version bumps are breaking; minor/micro are informational.
const (
	Magic           uint32 = 0x314F4942
	VersionMajor    int8   = 1
	VersionMinor    int8   = 0
	VersionMicro    int8   = 0
	DefaultProducer        = "binio"
)

// HeaderInfo identifies a stream's producer and format version.
type HeaderInfo struct {
	Producer string
	Major    int8
	Minor    int8
	Micro    int8
}

func (h HeaderInfo) String() string {
	return fmt.Sprintf("%s v%d.%d.%d", h.Producer, h.Major, h.Minor, h.Micro)
}

// BinarySerialiser frames put/get calls into the binio wire format on top of
// an IoBuffer. One serialize-or-deserialize call owns the buffer's cursor
// for its duration; a BinarySerialiser must not be shared between goroutines.
type BinarySerialiser struct {
	buf buffer.IoBuffer
	// patch positions of the length fields of currently open objects
	openObjects []int
}

// New creates a serialiser writing to and reading from buf.
func New(buf buffer.IoBuffer) *BinarySerialiser {
	return &BinarySerialiser{buf: buf}
}

// Buffer returns the underlying buffer.
func (s *BinarySerialiser) Buffer() buffer.IoBuffer { return s.buf }

// PutHeaderInfo writes the stream header at the current position.
func (s *BinarySerialiser) PutHeaderInfo() error {
	if err := s.buf.PutInt32(int32(Magic)); err != nil {
		return err
	}
	if err := s.buf.PutInt8(VersionMajor); err != nil {
		return err
	}
	if err := s.buf.PutInt8(VersionMinor); err != nil {
		return err
	}
	if err := s.buf.PutInt8(VersionMicro); err != nil {
		return err
	}

	return s.buf.PutString(DefaultProducer)
}

// CheckHeaderInfo reads and validates the stream header. It fails with
// errs.ErrProtocolMismatch before any field is touched if the magic number
// or major version is not recognized.
func (s *BinarySerialiser) CheckHeaderInfo() (HeaderInfo, error) {
	magic, err := s.buf.GetInt32()
	if err != nil {
		return HeaderInfo{}, err
	}
	if uint32(magic) != Magic {
		return HeaderInfo{}, fmt.Errorf("%w: bad magic 0x%08x", errs.ErrProtocolMismatch, uint32(magic))
	}
	var info HeaderInfo
	if info.Major, err = s.buf.GetInt8(); err != nil {
		return HeaderInfo{}, err
	}
	if info.Minor, err = s.buf.GetInt8(); err != nil {
		return HeaderInfo{}, err
	}
	if info.Micro, err = s.buf.GetInt8(); err != nil {
		return HeaderInfo{}, err
	}
	if info.Producer, err = s.buf.GetString(); err != nil {
		return HeaderInfo{}, err
	}
	if info.Major > VersionMajor {
		return info, fmt.Errorf("%w: stream version %d newer than supported %d",
			errs.ErrProtocolMismatch, info.Major, VersionMajor)
	}

	return info, nil
}

func (s *BinarySerialiser) putFieldHeader(name string, t DataType, payloadLen int) error {
	if payloadLen < 0 || payloadLen > math.MaxInt32 {
		return fmt.Errorf("binio: field %q payload length %d outside frame range: %w",
			name, payloadLen, errs.ErrBufferOverflow)
	}
	if err := s.buf.PutString(name); err != nil {
		return err
	}
	if err := s.buf.PutInt8(int8(t)); err != nil {
		return err
	}

	return s.buf.PutInt32(int32(payloadLen))
}

// PutStartMarker opens a nested object. Its length field is reserved and
// back-patched by the matching PutEndMarker.
func (s *BinarySerialiser) PutStartMarker(name string) error {
	patch, err := s.PutFieldStart(name, StartMarker)
	if err != nil {
		return err
	}
	s.openObjects = append(s.openObjects, patch)

	return nil
}

// PutEndMarker closes the innermost open object and commits its payload
// length.
func (s *BinarySerialiser) PutEndMarker(name string) error {
	if len(s.openObjects) == 0 {
		return fmt.Errorf("binio: end marker %q without open object", name)
	}
	if err := s.putFieldHeader(name, EndMarker, 0); err != nil {
		return err
	}
	patch := s.openObjects[len(s.openObjects)-1]
	s.openObjects = s.openObjects[:len(s.openObjects)-1]

	return s.PutFieldEnd(patch)
}

// PutFieldStart writes a field header for a payload whose size is not known
// yet, reserving the length field. It returns a patch token for PutFieldEnd.
// This is the two-phase primitive behind nested objects and custom
// serializers: the reserved length stays zero until PutFieldEnd commits it.
func (s *BinarySerialiser) PutFieldStart(name string, t DataType) (int, error) {
	if err := s.buf.PutString(name); err != nil {
		return 0, err
	}
	if err := s.buf.PutInt8(int8(t)); err != nil {
		return 0, err
	}
	patch := s.buf.Position()
	if err := s.buf.PutInt32(0); err != nil {
		return 0, err
	}

	return patch, nil
}

// PutFieldEnd back-patches the length field reserved by PutFieldStart with
// the number of payload bytes written since.
func (s *BinarySerialiser) PutFieldEnd(patch int) error {
	end := s.buf.Position()
	length := end - (patch + buffer.SizeInt32)
	if length > math.MaxInt32 {
		return fmt.Errorf("binio: payload length %d outside frame range: %w",
			length, errs.ErrBufferOverflow)
	}
	if err := s.buf.SetPosition(patch); err != nil {
		return err
	}
	if err := s.buf.PutInt32(int32(length)); err != nil {
		return err
	}

	return s.buf.SetPosition(end)
}

// FieldFrame is one field's frame read sequentially from the stream.
type FieldFrame struct {
	Name      string
	Type      DataType
	Length    int
	DataStart int
}

// ReadFieldFrame reads the next field frame at the current position, leaving
// the cursor at the payload start. It validates that the declared length
// fits within the buffer's limit.
func (s *BinarySerialiser) ReadFieldFrame() (FieldFrame, error) {
	name, err := s.buf.GetString()
	if err != nil {
		return FieldFrame{}, err
	}
	tagByte, err := s.buf.GetInt8()
	if err != nil {
		return FieldFrame{}, err
	}
	length, err := s.buf.GetInt32()
	if err != nil {
		return FieldFrame{}, err
	}
	start := s.buf.Position()
	if length < 0 || start+int(length) > s.buf.Limit() {
		return FieldFrame{}, fmt.Errorf("binio: field %q truncated: %w", name, errs.ErrBufferUnderflow)
	}

	return FieldFrame{Name: name, Type: DataType(uint8(tagByte)), Length: int(length), DataStart: start}, nil
}

// scalar puts

func (s *BinarySerialiser) PutBool(name string, v bool) error {
	if err := s.putFieldHeader(name, TypeBool, buffer.SizeBool); err != nil {
		return err
	}

	return s.buf.PutBool(v)
}

func (s *BinarySerialiser) PutInt8(name string, v int8) error {
	if err := s.putFieldHeader(name, TypeInt8, buffer.SizeInt8); err != nil {
		return err
	}

	return s.buf.PutInt8(v)
}

func (s *BinarySerialiser) PutInt16(name string, v int16) error {
	if err := s.putFieldHeader(name, TypeInt16, buffer.SizeInt16); err != nil {
		return err
	}

	return s.buf.PutInt16(v)
}

func (s *BinarySerialiser) PutInt32(name string, v int32) error {
	if err := s.putFieldHeader(name, TypeInt32, buffer.SizeInt32); err != nil {
		return err
	}

	return s.buf.PutInt32(v)
}

func (s *BinarySerialiser) PutInt64(name string, v int64) error {
	if err := s.putFieldHeader(name, TypeInt64, buffer.SizeInt64); err != nil {
		return err
	}

	return s.buf.PutInt64(v)
}

func (s *BinarySerialiser) PutFloat32(name string, v float32) error {
	if err := s.putFieldHeader(name, TypeFloat32, buffer.SizeFloat32); err != nil {
		return err
	}

	return s.buf.PutFloat32(v)
}

func (s *BinarySerialiser) PutFloat64(name string, v float64) error {
	if err := s.putFieldHeader(name, TypeFloat64, buffer.SizeFloat64); err != nil {
		return err
	}

	return s.buf.PutFloat64(v)
}

func (s *BinarySerialiser) PutString(name, v string) error {
	if err := s.putFieldHeader(name, TypeString, buffer.SizeInt32+len(v)); err != nil {
		return err
	}

	return s.buf.PutString(v)
}

// array puts

func checkDims[T any](v []T, dims []int32) ([]int32, error) {
	if len(dims) == 0 {
		return []int32{int32(len(v))}, nil
	}
	count := 1
	for _, d := range dims {
		if d < 0 {
			return nil, errs.ErrInvalidArrayDims
		}
		count *= int(d)
	}
	if count != len(v) {
		return nil, fmt.Errorf("%w: %d elements vs dims %v", errs.ErrInvalidArrayDims, len(v), dims)
	}

	return dims, nil
}

func putArray[T any](s *BinarySerialiser, name string, t DataType, v []T, dims []int32,
	elemSize int, putSlice func([]T) error,
) error {
	dims, err := checkDims(v, dims)
	if err != nil {
		return err
	}
	payload := buffer.SizeInt32 + len(dims)*buffer.SizeInt32 + len(v)*elemSize
	if err := s.putFieldHeader(name, t, payload); err != nil {
		return err
	}
	if err := s.putArrayDims(dims); err != nil {
		return err
	}

	return putSlice(v)
}

func (s *BinarySerialiser) putArrayDims(dims []int32) error {
	if err := s.buf.PutInt32(int32(len(dims))); err != nil {
		return err
	}

	return s.buf.PutInt32Slice(dims)
}

func (s *BinarySerialiser) PutBoolArray(name string, v []bool, dims ...int32) error {
	return putArray(s, name, TypeBoolArray, v, dims, buffer.SizeBool, s.buf.PutBoolSlice)
}

func (s *BinarySerialiser) PutInt8Array(name string, v []int8, dims ...int32) error {
	return putArray(s, name, TypeInt8Array, v, dims, buffer.SizeInt8, s.buf.PutInt8Slice)
}

func (s *BinarySerialiser) PutInt16Array(name string, v []int16, dims ...int32) error {
	return putArray(s, name, TypeInt16Array, v, dims, buffer.SizeInt16, s.buf.PutInt16Slice)
}

func (s *BinarySerialiser) PutInt32Array(name string, v []int32, dims ...int32) error {
	return putArray(s, name, TypeInt32Array, v, dims, buffer.SizeInt32, s.buf.PutInt32Slice)
}

func (s *BinarySerialiser) PutInt64Array(name string, v []int64, dims ...int32) error {
	return putArray(s, name, TypeInt64Array, v, dims, buffer.SizeInt64, s.buf.PutInt64Slice)
}

func (s *BinarySerialiser) PutFloat32Array(name string, v []float32, dims ...int32) error {
	return putArray(s, name, TypeFloat32Array, v, dims, buffer.SizeFloat32, s.buf.PutFloat32Slice)
}

func (s *BinarySerialiser) PutFloat64Array(name string, v []float64, dims ...int32) error {
	return putArray(s, name, TypeFloat64Array, v, dims, buffer.SizeFloat64, s.buf.PutFloat64Slice)
}

func (s *BinarySerialiser) PutStringArray(name string, v []string, dims ...int32) error {
	dims, err := checkDims(v, dims)
	if err != nil {
		return err
	}
	payload := buffer.SizeInt32 + len(dims)*buffer.SizeInt32
	for _, e := range v {
		payload += buffer.SizeInt32 + len(e)
	}
	if err := s.putFieldHeader(name, TypeStringArray, payload); err != nil {
		return err
	}
	if err := s.putArrayDims(dims); err != nil {
		return err
	}

	return s.buf.PutStringSlice(v)
}

// payload getters: these read a field's payload only; the caller positions
// the buffer via the parsed FieldHeader first.

func (s *BinarySerialiser) GetBool() (bool, error)       { return s.buf.GetBool() }
func (s *BinarySerialiser) GetInt8() (int8, error)       { return s.buf.GetInt8() }
func (s *BinarySerialiser) GetInt16() (int16, error)     { return s.buf.GetInt16() }
func (s *BinarySerialiser) GetInt32() (int32, error)     { return s.buf.GetInt32() }
func (s *BinarySerialiser) GetInt64() (int64, error)     { return s.buf.GetInt64() }
func (s *BinarySerialiser) GetFloat32() (float32, error) { return s.buf.GetFloat32() }
func (s *BinarySerialiser) GetFloat64() (float64, error) { return s.buf.GetFloat64() }
func (s *BinarySerialiser) GetString() (string, error)   { return s.buf.GetString() }

func (s *BinarySerialiser) getArrayDescriptor() (int, []int32, error) {
	nDims, err := s.buf.GetInt32()
	if err != nil {
		return 0, nil, err
	}
	if nDims < 0 {
		return 0, nil, errs.ErrInvalidArrayDims
	}
	dims, err := s.buf.GetInt32Slice(int(nDims))
	if err != nil {
		return 0, nil, err
	}
	count := 1
	for _, d := range dims {
		if d < 0 {
			return 0, nil, errs.ErrInvalidArrayDims
		}
		count *= int(d)
	}

	return count, dims, nil
}

func getArray[T any](s *BinarySerialiser, getSlice func(int) ([]T, error)) ([]T, []int32, error) {
	count, dims, err := s.getArrayDescriptor()
	if err != nil {
		return nil, nil, err
	}
	v, err := getSlice(count)
	if err != nil {
		return nil, nil, err
	}

	return v, dims, nil
}

func (s *BinarySerialiser) GetBoolArray() ([]bool, []int32, error) {
	return getArray(s, s.buf.GetBoolSlice)
}

func (s *BinarySerialiser) GetInt8Array() ([]int8, []int32, error) {
	return getArray(s, s.buf.GetInt8Slice)
}

func (s *BinarySerialiser) GetInt16Array() ([]int16, []int32, error) {
	return getArray(s, s.buf.GetInt16Slice)
}

func (s *BinarySerialiser) GetInt32Array() ([]int32, []int32, error) {
	return getArray(s, s.buf.GetInt32Slice)
}

func (s *BinarySerialiser) GetInt64Array() ([]int64, []int32, error) {
	return getArray(s, s.buf.GetInt64Slice)
}

func (s *BinarySerialiser) GetFloat32Array() ([]float32, []int32, error) {
	return getArray(s, s.buf.GetFloat32Slice)
}

func (s *BinarySerialiser) GetFloat64Array() ([]float64, []int32, error) {
	return getArray(s, s.buf.GetFloat64Slice)
}

func (s *BinarySerialiser) GetStringArray() ([]string, []int32, error) {
	return getArray(s, s.buf.GetStringSlice)
}

// GetFloat64ArrayAs reads a numeric array payload written with the given tag
// and widens single-precision elements to float64. The tag comes from the
// stream's field header, never from a side channel, so a float-written array
// is always decoded as floats first.
func (s *BinarySerialiser) GetFloat64ArrayAs(t DataType) ([]float64, error) {
	switch t {
	case TypeFloat64Array:
		v, _, err := s.GetFloat64Array()

		return v, err
	case TypeFloat32Array:
		v, _, err := s.GetFloat32Array()
		if err != nil {
			return nil, err
		}
		wide := make([]float64, len(v))
		for i, e := range v {
			wide[i] = float64(e)
		}

		return wide, nil
	default:
		return nil, &errs.SchemaMismatchError{
			Expected: TypeFloat64Array.String() + " or " + TypeFloat32Array.String(),
			Found:    t.String(),
		}
	}
}

// ParseIoStream validates the stream header and builds the complete field
// header tree in a single linear pass without materializing any payload.
// The returned root is a synthetic StartMarker named "ROOT" owning the
// stream's top-level fields.
func (s *BinarySerialiser) ParseIoStream() (*FieldHeader, error) {
	s.buf.Reset()
	if _, err := s.CheckHeaderInfo(); err != nil {
		return nil, err
	}
	root := NewFieldHeader("ROOT", StartMarker, s.buf.Position(), 0)
	if err := s.parseFields(root); err != nil {
		return nil, err
	}
	root.DataSize = s.buf.Position() - root.DataStart

	return root, nil
}

// ParseFields parses framed fields from the current position into parent
// until an end marker or the buffer's limit. Container payloads (lists,
// maps with composite values) frame their elements but are skipped as
// opaque by ParseIoStream; readers that descend into them parse the
// element frames on demand with this method.
func (s *BinarySerialiser) ParseFields(parent *FieldHeader) error {
	return s.parseFields(parent)
}

func (s *BinarySerialiser) parseFields(parent *FieldHeader) error {
	for s.buf.Remaining() > 0 {
		f, err := s.ReadFieldFrame()
		if err != nil {
			return err
		}
		end := f.DataStart + f.Length

		switch f.Type {
		case EndMarker:
			return nil
		case StartMarker:
			h := NewFieldHeader(f.Name, f.Type, f.DataStart, f.Length)
			parent.addChild(h)
			if err := s.parseFields(h); err != nil {
				return err
			}
			// normalize: the recorded length is authoritative
			if err := s.buf.SetPosition(end); err != nil {
				return err
			}
		default:
			parent.addChild(NewFieldHeader(f.Name, f.Type, f.DataStart, f.Length))
			if err := s.buf.SetPosition(end); err != nil {
				return err
			}
		}
	}

	return nil
}
