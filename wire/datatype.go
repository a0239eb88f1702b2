package wire

import "fmt"

// DataType is the one-byte type tag written ahead of every field payload.
//
// Tag values are stable across format versions; new types may only be added,
// never renumbered, so an older reader can always skip an unknown tag by its
// declared payload length.
type DataType uint8

const (
	// StartMarker opens a nested object's field list.
	StartMarker DataType = 0

	TypeBool    DataType = 1
	TypeInt8    DataType = 2
	TypeInt16   DataType = 3
	TypeInt32   DataType = 4
	TypeInt64   DataType = 5
	TypeFloat32 DataType = 6
	TypeFloat64 DataType = 7
	// value 8 is reserved (UTF-16 character type in sibling implementations)
	TypeString DataType = 9

	TypeBoolArray    DataType = 101
	TypeInt8Array    DataType = 102
	TypeInt16Array   DataType = 103
	TypeInt32Array   DataType = 104
	TypeInt64Array   DataType = 105
	TypeFloat32Array DataType = 106
	TypeFloat64Array DataType = 107
	// value 108 is reserved, matching the scalar gap
	TypeStringArray DataType = 109

	TypeCollection DataType = 200
	TypeEnum       DataType = 201
	TypeList       DataType = 202
	TypeMap        DataType = 203
	TypeQueue      DataType = 204
	TypeSet        DataType = 205
	TypeOther      DataType = 206

	// EndMarker closes a nested object's field list. It is a reserved
	// sentinel, never a payload type.
	EndMarker DataType = 250
)

var typeNames = map[DataType]string{
	StartMarker:      "START_MARKER",
	TypeBool:         "BOOL",
	TypeInt8:         "BYTE",
	TypeInt16:        "SHORT",
	TypeInt32:        "INT",
	TypeInt64:        "LONG",
	TypeFloat32:      "FLOAT",
	TypeFloat64:      "DOUBLE",
	TypeString:       "STRING",
	TypeBoolArray:    "BOOL_ARRAY",
	TypeInt8Array:    "BYTE_ARRAY",
	TypeInt16Array:   "SHORT_ARRAY",
	TypeInt32Array:   "INT_ARRAY",
	TypeInt64Array:   "LONG_ARRAY",
	TypeFloat32Array: "FLOAT_ARRAY",
	TypeFloat64Array: "DOUBLE_ARRAY",
	TypeStringArray:  "STRING_ARRAY",
	TypeCollection:   "COLLECTION",
	TypeEnum:         "ENUM",
	TypeList:         "LIST",
	TypeMap:          "MAP",
	TypeQueue:        "QUEUE",
	TypeSet:          "SET",
	TypeOther:        "OTHER",
	EndMarker:        "END_MARKER",
}

func (t DataType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("DataType(%d)", uint8(t))
}

// IsArray reports whether the tag is one of the *_ARRAY variants.
func (t DataType) IsArray() bool {
	return t >= TypeBoolArray && t <= TypeStringArray
}

// ArrayOf returns the *_ARRAY variant of a scalar tag, or TypeOther when the
// tag has no array form.
func (t DataType) ArrayOf() DataType {
	if t >= TypeBool && t <= TypeString {
		return t + 100
	}

	return TypeOther
}

// ScalarOf returns the scalar variant of an *_ARRAY tag, or TypeOther.
func (t DataType) ScalarOf() DataType {
	if t.IsArray() {
		return t - 100
	}

	return TypeOther
}
