package membench

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Matrix is a square n×n matrix of float64 stored contiguously in row-major
// order. Element (i, j) lives at Data[i*N+j].
type Matrix struct {
	N    int
	Data []float64
}

// NewMatrix allocates a zeroed n×n matrix.
func NewMatrix(n int) *Matrix {
	return &Matrix{N: n, Data: make([]float64, n*n)}
}

// Zero overwrites every element with 0.
func (m *Matrix) Zero() {
	clear(m.Data)
}

// Fill draws every element from rng as a small integer in [0, 10), row by
// row. Filling several matrices from the same rng continues one stream, so
// they receive different values.
func (m *Matrix) Fill(rng *rand.Rand) {
	for i := range m.Data {
		m.Data[i] = float64(rng.IntN(10))
	}
}

// Buffers is the operand set owned by one benchmark run: A and B are read-only
// after initialization, C is the accumulator reset before every measurement.
type Buffers struct {
	A, B, C *Matrix
}

// bytesPerBuffers returns the bytes needed for three n×n float64 matrices and
// false if the product overflows.
func bytesPerBuffers(n int) (uint64, bool) {
	if n <= 0 {
		return 0, false
	}
	// 3 * n * n * 8 must fit in an int so make() can honour it.
	limit := uint64(math.MaxInt) / 24
	nn := uint64(n)
	if nn > limit/nn {
		return 0, false
	}
	return nn * nn * 24, true
}

// checkMemory fails with a resource error when need bytes exceed the
// machine's physical memory. Unknown memory sizes pass.
func checkMemory(op string, need uint64, what string) error {
	if total := physicalMemory(); total > 0 && need > total {
		return NewResourceError(op, fmt.Sprintf("need %d bytes for %s, machine has %d", need, what, total), ErrOutOfMemory)
	}
	return nil
}

// NewBuffers allocates A, B and C for an n×n run. It fails with a resource
// error when the request overflows or exceeds physical memory.
func NewBuffers(n int) (*Buffers, error) {
	if n <= 0 {
		return nil, NewConfigError("NewBuffers", fmt.Sprintf("dimension must be positive, got %d", n))
	}
	need, ok := bytesPerBuffers(n)
	if !ok {
		return nil, ErrSizeOverflow
	}
	if err := checkMemory("NewBuffers", need, fmt.Sprintf("N=%d", n)); err != nil {
		return nil, err
	}
	return &Buffers{
		A: NewMatrix(n),
		B: NewMatrix(n),
		C: NewMatrix(n),
	}, nil
}

// Initialize fills A and then B from a single stream seeded once.
func (b *Buffers) Initialize(seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	b.A.Fill(rng)
	b.B.Fill(rng)
}

// Release drops the buffers so the memory can be reclaimed.
func (b *Buffers) Release() {
	b.A, b.B, b.C = nil, nil, nil
}
