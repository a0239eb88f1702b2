// Package hash provides 64-bit identifiers for wire field names.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given field name. Field lookup in parsed
// header trees compares these IDs before falling back to string comparison.
func ID(name string) uint64 {
	return xxhash.Sum64String(name)
}
