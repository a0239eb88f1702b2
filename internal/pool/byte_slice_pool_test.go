package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetScratch(t *testing.T) {
	b := GetScratch()
	require.NotNil(t, b)
	require.Empty(t, *b)
	require.GreaterOrEqual(t, cap(*b), DefaultScratchSize)
	PutScratch(b)
}

func TestPutScratch_ResetsLength(t *testing.T) {
	b := GetScratch()
	*b = append(*b, 1, 2, 3)
	PutScratch(b)
	require.Empty(t, *b)
}

func TestPutScratch_DropsOversized(t *testing.T) {
	big := make([]byte, 0, maxPooledSize+1)
	// must not panic; the slice is simply not pooled
	PutScratch(&big)
	PutScratch(nil)
}
