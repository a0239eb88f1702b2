// Package pool provides pooled byte slices for scratch buffers.
//
// Serialization and compression both need short-lived byte slices whose size
// varies with the payload. Pooling them keeps GC pressure flat when many
// streams are produced in sequence.
package pool

import "sync"

const (
	// DefaultScratchSize is the initial capacity of pooled scratch slices,
	// sized to hold a typical serialized object without regrowing.
	DefaultScratchSize = 16 * 1024

	// maxPooledSize is the largest slice returned to the pool; anything
	// bigger is dropped so one oversized payload cannot pin memory.
	maxPooledSize = 1024 * 1024
)

var scratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, DefaultScratchSize)
		return &b
	},
}

// GetScratch returns a pooled, zero-length byte slice with at least
// DefaultScratchSize capacity.
func GetScratch() *[]byte {
	return scratchPool.Get().(*[]byte)
}

// PutScratch returns a slice to the pool. Slices that grew past the pooling
// threshold are discarded.
func PutScratch(b *[]byte) {
	if b == nil || cap(*b) > maxPooledSize {
		return
	}
	*b = (*b)[:0]
	scratchPool.Put(b)
}
