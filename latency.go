package membench

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog"
)

// nodeStride is the number of int32 slots per chain node; each node fills a
// cache line so every hop touches a new line.
const nodeStride = CacheLineSize / 4

// latencySink keeps the chase result observable.
var latencySink int32

// chainNodes is the node count of a chain covering blockSize bytes.
func chainNodes(blockSize int) int {
	return max(blockSize/CacheLineSize, 2)
}

// checkChainSize rejects chains whose slots cannot be addressed by an int32
// or that do not fit in physical memory.
func checkChainSize(op string, blockSize int) error {
	nodes := chainNodes(blockSize)
	if nodes > math.MaxInt32/nodeStride {
		return NewResourceError(op, fmt.Sprintf("chain of %d nodes overflows int32 indices", nodes), nil)
	}
	return checkMemory(op, uint64(nodes)*nodeStride*4, fmt.Sprintf("a %d node chain", nodes))
}

// BuildChain links max(blockSize/CacheLineSize, 2) nodes into one random
// cycle. Node i lives at index i*nodeStride and holds the index of the next
// node's slot. blockSize must pass checkChainSize.
func BuildChain(blockSize int, rng *rand.Rand) []int32 {
	nodes := chainNodes(blockSize)
	order := make([]int, nodes)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(nodes, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	chain := make([]int32, nodes*nodeStride)
	for i := 0; i < nodes-1; i++ {
		chain[order[i]*nodeStride] = int32(order[i+1] * nodeStride)
	}
	chain[order[nodes-1]*nodeStride] = int32(order[0] * nodeStride)
	return chain
}

// MeasureLatency chases a random pointer chain of blockSize bytes for
// accesses dependent loads and returns nanoseconds per access.
func MeasureLatency(clock Clock, rng *rand.Rand, blockSize, accesses int) (float64, error) {
	if blockSize <= 0 {
		return 0, NewConfigError("MeasureLatency", fmt.Sprintf("block size must be positive, got %d", blockSize))
	}
	if accesses <= 0 {
		accesses = LatencyAccesses
	}
	if err := checkChainSize("MeasureLatency", blockSize); err != nil {
		return 0, err
	}
	chain := BuildChain(blockSize, rng)

	var current int32
	start := clock.Now()
	for i := 0; i < accesses; i++ {
		current = chain[current]
	}
	end := clock.Now()
	latencySink = current

	return float64(end-start) / float64(accesses), nil
}

// SweepLatency measures every block size of cfg with a chain shuffled from
// seed and emits one row per size.
func SweepLatency(cfg SweepConfig, clock Clock, seed uint64, out RowWriter, log zerolog.Logger) ([]Row, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return sweep(cfg, out, log, "ns", func(blockSize int) (float64, error) {
		return MeasureLatency(clock, rng, blockSize, LatencyAccesses)
	})
}
