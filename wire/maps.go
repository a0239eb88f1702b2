package wire

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/arloliu/binio/buffer"
	"github.com/arloliu/binio/errs"
)

// tagOf resolves the wire tag of a scalar value, TypeOther when the value is
// not a supported scalar.
func tagOf(v any) DataType {
	switch v.(type) {
	case bool:
		return TypeBool
	case int8:
		return TypeInt8
	case int16:
		return TypeInt16
	case int32:
		return TypeInt32
	case int64:
		return TypeInt64
	case float32:
		return TypeFloat32
	case float64:
		return TypeFloat64
	case string:
		return TypeString
	default:
		return TypeOther
	}
}

func scalarSize(v any) int {
	switch e := v.(type) {
	case bool, int8:
		return 1
	case int16:
		return buffer.SizeInt16
	case int32, float32:
		return buffer.SizeInt32
	case int64, float64:
		return buffer.SizeInt64
	case string:
		return buffer.SizeInt32 + len(e)
	default:
		return 0
	}
}

func putScalar(buf buffer.IoBuffer, v any) error {
	switch e := v.(type) {
	case bool:
		return buf.PutBool(e)
	case int8:
		return buf.PutInt8(e)
	case int16:
		return buf.PutInt16(e)
	case int32:
		return buf.PutInt32(e)
	case int64:
		return buf.PutInt64(e)
	case float32:
		return buf.PutFloat32(e)
	case float64:
		return buf.PutFloat64(e)
	case string:
		return buf.PutString(e)
	default:
		return &errs.UnsupportedTypeError{Type: fmt.Sprintf("%T", v)}
	}
}

func getScalar(buf buffer.IoBuffer, t DataType) (any, error) {
	switch t {
	case TypeBool:
		return buf.GetBool()
	case TypeInt8:
		return buf.GetInt8()
	case TypeInt16:
		return buf.GetInt16()
	case TypeInt32:
		return buf.GetInt32()
	case TypeInt64:
		return buf.GetInt64()
	case TypeFloat32:
		return buf.GetFloat32()
	case TypeFloat64:
		return buf.GetFloat64()
	case TypeString:
		return buf.GetString()
	default:
		return nil, &errs.UnsupportedTypeError{Type: t.String()}
	}
}

// PutMap writes a map field with scalar keys and values. Entries are written
// in ascending key order so identical logical input always yields identical
// bytes, independent of Go's map iteration order.
func PutMap[K cmp.Ordered, V any](s *BinarySerialiser, name string, m map[K]V) error {
	var zeroK K
	var zeroV V
	keyTag := tagOf(zeroK)
	valTag := tagOf(zeroV)
	if keyTag == TypeOther {
		return &errs.UnsupportedTypeError{Type: fmt.Sprintf("map key %T", zeroK)}
	}
	if valTag == TypeOther {
		return &errs.UnsupportedTypeError{Type: fmt.Sprintf("map value %T", zeroV)}
	}

	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	payload := 2*buffer.SizeInt8 + buffer.SizeInt32
	for _, k := range keys {
		payload += scalarSize(k) + scalarSize(m[k])
	}
	if err := s.putFieldHeader(name, TypeMap, payload); err != nil {
		return err
	}
	if err := s.buf.PutInt8(int8(keyTag)); err != nil {
		return err
	}
	if err := s.buf.PutInt8(int8(valTag)); err != nil {
		return err
	}
	if err := s.buf.PutInt32(int32(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		if err := putScalar(s.buf, k); err != nil {
			return err
		}
		if err := putScalar(s.buf, m[k]); err != nil {
			return err
		}
	}

	return nil
}

// GetMap reads a map payload written by PutMap. The key and value tags found
// in the stream must match the requested Go types.
func GetMap[K cmp.Ordered, V any](s *BinarySerialiser) (map[K]V, error) {
	var zeroK K
	var zeroV V
	wantKey := tagOf(zeroK)
	wantVal := tagOf(zeroV)

	keyByte, err := s.buf.GetInt8()
	if err != nil {
		return nil, err
	}
	valByte, err := s.buf.GetInt8()
	if err != nil {
		return nil, err
	}
	keyTag := DataType(uint8(keyByte))
	valTag := DataType(uint8(valByte))
	if keyTag != wantKey {
		return nil, &errs.SchemaMismatchError{Field: "<map key>", Expected: wantKey.String(), Found: keyTag.String()}
	}
	if valTag != wantVal {
		return nil, &errs.SchemaMismatchError{Field: "<map value>", Expected: wantVal.String(), Found: valTag.String()}
	}

	count, err := s.buf.GetInt32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, errs.ErrBufferUnderflow
	}
	m := make(map[K]V, count)
	for i := int32(0); i < count; i++ {
		k, err := getScalar(s.buf, keyTag)
		if err != nil {
			return nil, err
		}
		v, err := getScalar(s.buf, valTag)
		if err != nil {
			return nil, err
		}
		m[k.(K)] = v.(V)
	}

	return m, nil
}

// PutValue is the generic entry point overloaded over every supported wire
// type. Unsupported types fail with errs.UnsupportedTypeError.
func PutValue(s *BinarySerialiser, name string, v any) error {
	switch e := v.(type) {
	case bool:
		return s.PutBool(name, e)
	case int8:
		return s.PutInt8(name, e)
	case int16:
		return s.PutInt16(name, e)
	case int32:
		return s.PutInt32(name, e)
	case int64:
		return s.PutInt64(name, e)
	case float32:
		return s.PutFloat32(name, e)
	case float64:
		return s.PutFloat64(name, e)
	case string:
		return s.PutString(name, e)
	case []bool:
		return s.PutBoolArray(name, e)
	case []int8:
		return s.PutInt8Array(name, e)
	case []int16:
		return s.PutInt16Array(name, e)
	case []int32:
		return s.PutInt32Array(name, e)
	case []int64:
		return s.PutInt64Array(name, e)
	case []float32:
		return s.PutFloat32Array(name, e)
	case []float64:
		return s.PutFloat64Array(name, e)
	case []string:
		return s.PutStringArray(name, e)
	case map[string]string:
		return PutMap(s, name, e)
	case map[int32]string:
		return PutMap(s, name, e)
	case map[string]float64:
		return PutMap(s, name, e)
	default:
		return &errs.UnsupportedTypeError{Type: fmt.Sprintf("%T", v)}
	}
}
