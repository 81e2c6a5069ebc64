// Package membench configuration constants
package membench

import (
	"fmt"
	"strconv"
	"strings"
)

// Matrix benchmark defaults
const (
	// Matrix dimension
	DefaultN = 512

	// Tile edge for the blocked kernel (64 doubles = 8 cache lines)
	DefaultBlock = 64

	// Trials averaged per kernel
	DefaultRepeats = 3
)

// Sweep defaults shared by the bandwidth and latency benchmarks
const (
	DefaultMinKB = 1
	DefaultMaxKB = 8192

	// Copies per block in the bandwidth sweep
	CopyRepeats = 2000

	// Dependent loads per block in the latency sweep
	LatencyAccesses = 1000000

	// Bytes per latency chain node
	CacheLineSize = 64
)

// RunConfig is the immutable configuration of one matrix benchmark run.
type RunConfig struct {
	N       int // Matrix dimension
	Block   int // Tile size of the blocked kernel
	Repeats int // Trials per kernel
}

// DefaultRunConfig returns the configuration used when nothing is supplied.
func DefaultRunConfig() RunConfig {
	return RunConfig{N: DefaultN, Block: DefaultBlock, Repeats: DefaultRepeats}
}

// Substitution records a configuration value that was replaced by a default.
// Err is a configuration error describing the rejected value.
type Substitution struct {
	Field    string
	Rejected int
	Default  int
	Err      error
}

func (s Substitution) String() string {
	return fmt.Sprintf("%s=%d replaced by default %d", s.Field, s.Rejected, s.Default)
}

// ResolveRunConfig builds a RunConfig, replacing every non-positive value with
// its default. The substitutions made are returned so callers can report them;
// they are never failures.
func ResolveRunConfig(n, block, repeats int) (RunConfig, []Substitution) {
	var subs []Substitution
	fix := func(field string, v, def int) int {
		if v > 0 {
			return v
		}
		subs = append(subs, Substitution{
			Field:    field,
			Rejected: v,
			Default:  def,
			Err:      NewConfigError("ResolveRunConfig", fmt.Sprintf("%s must be positive, got %d", field, v)),
		})
		return def
	}
	cfg := RunConfig{
		N:       fix("N", n, DefaultN),
		Block:   fix("BLOCK", block, DefaultBlock),
		Repeats: fix("REPEATS", repeats, DefaultRepeats),
	}
	return cfg, subs
}

// ParseRunArgs reads the positional N, BLOCK and REPEATS arguments. Missing or
// unparseable values count as zero and therefore resolve to defaults.
func ParseRunArgs(args []string) (RunConfig, []Substitution) {
	return ResolveRunConfig(argInt(args, 0), argInt(args, 1), argInt(args, 2))
}

// SweepConfig bounds the block sizes visited by the bandwidth and latency
// sweeps. Sizes double from MinKB up to and including MaxKB.
type SweepConfig struct {
	MinKB int
	MaxKB int
}

// ResolveSweepConfig applies the sweep fallbacks: a non-positive minimum
// becomes 1 KB and a maximum below the minimum is raised to it.
func ResolveSweepConfig(minKB, maxKB int) (SweepConfig, []Substitution) {
	var subs []Substitution
	if minKB <= 0 {
		subs = append(subs, Substitution{
			Field:    "MIN_KB",
			Rejected: minKB,
			Default:  DefaultMinKB,
			Err:      NewConfigError("ResolveSweepConfig", fmt.Sprintf("MIN_KB must be positive, got %d", minKB)),
		})
		minKB = DefaultMinKB
	}
	if maxKB < minKB {
		subs = append(subs, Substitution{
			Field:    "MAX_KB",
			Rejected: maxKB,
			Default:  minKB,
			Err:      NewConfigError("ResolveSweepConfig", fmt.Sprintf("MAX_KB %d below MIN_KB %d", maxKB, minKB)),
		})
		maxKB = minKB
	}
	return SweepConfig{MinKB: minKB, MaxKB: maxKB}, subs
}

// ParseSweepArgs reads the positional MIN_KB and MAX_KB arguments. A missing
// MAX_KB means the default maximum; an unparseable one counts as zero.
func ParseSweepArgs(args []string) (SweepConfig, []Substitution) {
	minKB, maxKB := DefaultMinKB, DefaultMaxKB
	if len(args) > 0 {
		minKB = argInt(args, 0)
	}
	if len(args) > 1 {
		maxKB = argInt(args, 1)
	}
	return ResolveSweepConfig(minKB, maxKB)
}

// Sizes lists the block sizes in KB visited by the sweep.
func (c SweepConfig) Sizes() []int {
	var sizes []int
	for kb := c.MinKB; kb > 0 && kb <= c.MaxKB; kb *= 2 {
		sizes = append(sizes, kb)
	}
	return sizes
}

func argInt(args []string, i int) int {
	if i >= len(args) {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(args[i]))
	if err != nil {
		return 0
	}
	return v
}
