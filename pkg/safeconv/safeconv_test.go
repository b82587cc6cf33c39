package safeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustUintToInt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 42, MustUintToInt(42))
	assert.Equal(t, math.MaxInt, MustUintToInt(math.MaxInt))

	assert.PanicsWithValue(t, "safeconv: uint to int overflow", func() {
		MustUintToInt(uint(math.MaxInt) + 1)
	})
}

func TestMustIntToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(7), MustIntToUint32(7))

	assert.Panics(t, func() { MustIntToUint32(-1) })
	assert.Panics(t, func() { MustIntToUint32(math.MaxUint32 + 1) })
}

func TestClampToUint64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0), ClampToUint64(-5))
	assert.Equal(t, uint64(1024), ClampToUint64(1024))
}
