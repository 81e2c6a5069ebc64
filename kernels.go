package membench

import "fmt"

// Kernel is one matrix-multiplication variant. Multiply computes C += A×B
// over n×n row-major buffers; callers zero C first. A and B are never written.
type Kernel interface {
	Name() string
	Multiply(a, b, c []float64, n int)
}

// LoopOrder is a naive triple loop with a fixed nesting of i, j and k.
// All six orders produce the same product; only the memory access strides
// differ.
type LoopOrder int

const (
	IJK LoopOrder = iota
	IKJ
	JIK
	JKI
	KIJ
	KJI
)

// LoopOrders lists the six naive kernels in reporting order.
var LoopOrders = []LoopOrder{IJK, IKJ, JIK, JKI, KIJ, KJI}

// Name returns the nesting order, outermost first.
func (o LoopOrder) Name() string {
	switch o {
	case IJK:
		return "IJK"
	case IKJ:
		return "IKJ"
	case JIK:
		return "JIK"
	case JKI:
		return "JKI"
	case KIJ:
		return "KIJ"
	case KJI:
		return "KJI"
	default:
		return fmt.Sprintf("LoopOrder(%d)", int(o))
	}
}

func (o LoopOrder) String() string {
	return o.Name()
}

// Multiply dispatches to the loop nest for o.
func (o LoopOrder) Multiply(a, b, c []float64, n int) {
	switch o {
	case IJK:
		multiplyIJK(a, b, c, n)
	case IKJ:
		multiplyIKJ(a, b, c, n)
	case JIK:
		multiplyJIK(a, b, c, n)
	case JKI:
		multiplyJKI(a, b, c, n)
	case KIJ:
		multiplyKIJ(a, b, c, n)
	case KJI:
		multiplyKJI(a, b, c, n)
	default:
		panic(fmt.Sprintf("membench: unknown loop order %d", int(o)))
	}
}

// A row-wise, B column-wise: stride-n walks down B.
func multiplyIJK(a, b, c []float64, n int) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				c[i*n+j] += a[i*n+k] * b[k*n+j]
			}
		}
	}
}

// Innermost j streams rows of B and C.
func multiplyIKJ(a, b, c []float64, n int) {
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			for j := 0; j < n; j++ {
				c[i*n+j] += a[i*n+k] * b[k*n+j]
			}
		}
	}
}

func multiplyJIK(a, b, c []float64, n int) {
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			for k := 0; k < n; k++ {
				c[i*n+j] += a[i*n+k] * b[k*n+j]
			}
		}
	}
}

// Innermost i walks columns of A and C: the worst locality of the six.
func multiplyJKI(a, b, c []float64, n int) {
	for j := 0; j < n; j++ {
		for k := 0; k < n; k++ {
			for i := 0; i < n; i++ {
				c[i*n+j] += a[i*n+k] * b[k*n+j]
			}
		}
	}
}

func multiplyKIJ(a, b, c []float64, n int) {
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				c[i*n+j] += a[i*n+k] * b[k*n+j]
			}
		}
	}
}

func multiplyKJI(a, b, c []float64, n int) {
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				c[i*n+j] += a[i*n+k] * b[k*n+j]
			}
		}
	}
}

// Blocked is the single-level tiled kernel. The index space of i, j and k is
// cut into Tile-sized ranges; edge tiles are clipped to n.
type Blocked struct {
	Tile int
}

// NewBlocked returns a blocked kernel, substituting DefaultBlock for a
// non-positive tile.
func NewBlocked(tile int) Blocked {
	if tile <= 0 {
		tile = DefaultBlock
	}
	return Blocked{Tile: tile}
}

// Name embeds the tile size, e.g. BLOCKED_64.
func (bk Blocked) Name() string {
	return fmt.Sprintf("BLOCKED_%d", bk.Tile)
}

// Multiply visits tile origins (ii, jj, kk) and, inside each tile, runs the
// i, k, j nest.
func (bk Blocked) Multiply(a, b, c []float64, n int) {
	tile := bk.Tile
	if tile <= 0 {
		tile = DefaultBlock
	}
	for ii := 0; ii < n; ii += tile {
		iEnd := min(ii+tile, n)
		for jj := 0; jj < n; jj += tile {
			jEnd := min(jj+tile, n)
			for kk := 0; kk < n; kk += tile {
				kEnd := min(kk+tile, n)

				for i := ii; i < iEnd; i++ {
					for k := kk; k < kEnd; k++ {
						aik := a[i*n+k]
						for j := jj; j < jEnd; j++ {
							c[i*n+j] += aik * b[k*n+j]
						}
					}
				}
			}
		}
	}
}

// Kernels returns the seven kernels in their fixed reporting order: the six
// loop orders followed by the blocked kernel with cfg.Block.
func Kernels(cfg RunConfig) []Kernel {
	kernels := make([]Kernel, 0, len(LoopOrders)+1)
	for _, o := range LoopOrders {
		kernels = append(kernels, o)
	}
	return append(kernels, NewBlocked(cfg.Block))
}
