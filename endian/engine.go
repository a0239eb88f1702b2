// Package endian provides byte order utilities for the binio wire format.
//
// It combines the ByteOrder and AppendByteOrder interfaces from the standard
// encoding/binary package into a single EndianEngine interface so that buffer
// backends can both patch bytes in place and append to growing slices through
// one value.
//
// The binio wire format is little-endian by default; big-endian engines are
// supported for deployments that interoperate with big-endian producers, but
// the byte order is fixed per stream and is not recorded in the stream
// itself.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// It is satisfied by binary.LittleEndian and binary.BigEndian, so any code
// written against the standard library interfaces keeps working unchanged.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness determines the host's native byte order.
func CheckEndianness() binary.ByteOrder {
	// 256 stored in memory: a little-endian host puts the 0x00 byte first,
	// a big-endian host puts the 0x01 byte first.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// CompareNativeEndian reports whether the given engine matches the host's
// native byte order. Buffer backends use this to decide whether bulk memory
// copies of numeric slices are byte-order safe.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == CheckEndianness()
}

// GetLittleEndianEngine returns the little-endian engine, the default for
// binio streams.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
