package membench

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrixLayout(t *testing.T) {
	m := NewMatrix(3)
	assert.Equal(t, 3, m.N)
	assert.Len(t, m.Data, 9)
	assert.Equal(t, make([]float64, 9), m.Data)
}

func TestMatrixZero(t *testing.T) {
	m := &Matrix{N: 2, Data: []float64{1, 2, 3, 4}}
	m.Zero()
	assert.Equal(t, []float64{0, 0, 0, 0}, m.Data)
}

func TestFillSmallIntegers(t *testing.T) {
	m := NewMatrix(32)
	m.Fill(rand.New(rand.NewPCG(1, 1)))
	for i, v := range m.Data {
		require.Truef(t, v >= 0 && v < 10 && v == math.Trunc(v), "element %d = %v", i, v)
	}
}

// A and B come from one stream: A first, then B continuing where A stopped.
func TestInitializeSharedStream(t *testing.T) {
	const n = 16
	bufs, err := NewBuffers(n)
	require.NoError(t, err)
	bufs.Initialize(42)

	assert.NotEqual(t, bufs.A.Data, bufs.B.Data, "A and B should receive different values")

	rng := rand.New(rand.NewPCG(42, 42))
	wantA, wantB := NewMatrix(n), NewMatrix(n)
	wantA.Fill(rng)
	wantB.Fill(rng)
	assert.Equal(t, wantA.Data, bufs.A.Data)
	assert.Equal(t, wantB.Data, bufs.B.Data)

	again, err := NewBuffers(n)
	require.NoError(t, err)
	again.Initialize(42)
	assert.Equal(t, bufs.A.Data, again.A.Data, "same seed must reproduce A")
}

func TestNewBuffersSizes(t *testing.T) {
	bufs, err := NewBuffers(8)
	require.NoError(t, err)
	assert.Len(t, bufs.A.Data, 64)
	assert.Len(t, bufs.B.Data, 64)
	assert.Len(t, bufs.C.Data, 64)

	bufs.Release()
	assert.Nil(t, bufs.A)
	assert.Nil(t, bufs.C)
}

func TestNewBuffersOverflow(t *testing.T) {
	_, err := NewBuffers(math.MaxInt / 2)
	require.Error(t, err)
	assert.True(t, IsResourceError(err))

	_, err = NewBuffers(0)
	assert.True(t, IsConfigError(err))
}

func TestNewBuffersExceedsMemory(t *testing.T) {
	total := physicalMemory()
	if total == 0 {
		t.Skip("physical memory size unknown on this platform")
	}
	// Smallest n whose buffers exceed RAM but still fit in an int.
	n := int(math.Sqrt(float64(total)/24)) + 1024
	if _, ok := bytesPerBuffers(n); !ok {
		t.Skip("address space smaller than physical memory")
	}
	_, err := NewBuffers(n)
	require.Error(t, err)
	assert.True(t, IsResourceError(err))
}
