package membench

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances by a fixed step on every reading.
type stepClock struct {
	now  int64
	step int64
}

func (c *stepClock) Now() int64 {
	c.now += c.step
	return c.now
}

// scriptClock returns readings from a fixed script.
type scriptClock struct {
	readings []int64
	i        int
}

func (c *scriptClock) Now() int64 {
	v := c.readings[c.i]
	c.i++
	return v
}

// countingKernel records invocations and what it found in C on entry.
type countingKernel struct {
	inner  Kernel
	calls  int
	cDirty bool
}

func (k *countingKernel) Name() string { return "COUNT" }

func (k *countingKernel) Multiply(a, b, c []float64, n int) {
	k.calls++
	for _, v := range c {
		if v != 0 {
			k.cDirty = true
		}
	}
	k.inner.Multiply(a, b, c, n)
}

func newTestBuffers(t *testing.T, n int) *Buffers {
	t.Helper()
	bufs, err := NewBuffers(n)
	require.NoError(t, err)
	bufs.Initialize(7)
	return bufs
}

func TestMeasureElapsed(t *testing.T) {
	bufs := newTestBuffers(t, 4)
	h := NewHarness(&scriptClock{readings: []int64{1_000, 2_501_000}}, bufs, 1)
	assert.InDelta(t, 2.5, h.Measure(IJK), 1e-12)
}

func TestMeasureNeverNegative(t *testing.T) {
	bufs := newTestBuffers(t, 4)
	h := NewHarness(&scriptClock{readings: []int64{10, 5}}, bufs, 1)
	assert.Equal(t, 0.0, h.Measure(IJK))
}

func TestMeasureSystemClock(t *testing.T) {
	bufs := newTestBuffers(t, 32)
	h := NewHarness(SystemClock(), bufs, 2)
	for _, k := range allKernels(8) {
		ms := h.Measure(k)
		assert.False(t, math.IsNaN(ms) || math.IsInf(ms, 0), "%s: %v", k.Name(), ms)
		assert.GreaterOrEqual(t, ms, 0.0, k.Name())
	}
}

// Each measurement resets C, so repeating reset-then-invoke yields the same
// product and no trial sees the previous trial's sums.
func TestMeasureResetsAccumulator(t *testing.T) {
	bufs := newTestBuffers(t, 12)
	k := &countingKernel{inner: NewBlocked(5)}
	h := NewHarness(&stepClock{step: 1}, bufs, 1)

	h.Measure(k)
	first := append([]float64(nil), bufs.C.Data...)
	h.Measure(k)
	if diff := cmp.Diff(first, bufs.C.Data); diff != "" {
		t.Errorf("second trial differs (-first +second):\n%s", diff)
	}
	assert.False(t, k.cDirty, "kernel saw a non-zero accumulator")
	assert.Equal(t, 2, k.calls)
}

func TestRunAndAverage(t *testing.T) {
	bufs := newTestBuffers(t, 4)
	// Trials of 1, 2 and 6 ms.
	clock := &scriptClock{readings: []int64{0, 1e6, 10e6, 12e6, 20e6, 26e6}}
	k := &countingKernel{inner: KIJ}
	res := NewHarness(clock, bufs, 3).RunAndAverage(k)

	assert.Equal(t, 3, k.calls)
	assert.Equal(t, "COUNT", res.Kernel)
	assert.Equal(t, []float64{1, 2, 6}, res.Samples)
	assert.InDelta(t, 3.0, res.MeanMillis, 1e-12)
	assert.InDelta(t, math.Sqrt(7), res.StdDevMillis, 1e-12)
	assert.Nil(t, res.Counters)
}

func TestRunAndAverageSingleRepeat(t *testing.T) {
	bufs := newTestBuffers(t, 4)
	res := NewHarness(&stepClock{step: 500_000}, bufs, 1).RunAndAverage(IJK)
	assert.Equal(t, 0.5, res.MeanMillis)
	assert.Equal(t, 0.0, res.StdDevMillis)
}

func TestHarnessRepeatsDefault(t *testing.T) {
	bufs := newTestBuffers(t, 2)
	assert.Equal(t, DefaultRepeats, NewHarness(&stepClock{}, bufs, 0).Repeats())
}

// fakeMonitor returns fixed counters.
type fakeMonitor struct {
	starts, stops int
	startErr      error
}

func (m *fakeMonitor) Start() error {
	m.starts++
	return m.startErr
}

func (m *fakeMonitor) Stop() (PerfCounters, error) {
	m.stops++
	return PerfCounters{Cycles: 100, Instructions: 200, L1DReadMisses: uint64(10 * m.stops)}, nil
}

func (m *fakeMonitor) Close() error { return nil }

func TestRunAndAverageCounters(t *testing.T) {
	bufs := newTestBuffers(t, 4)
	m := &fakeMonitor{}
	res := NewHarness(&stepClock{step: 1}, bufs, 2).WithCounters(m).RunAndAverage(IJK)

	require.NotNil(t, res.Counters)
	assert.Equal(t, 2, m.starts)
	assert.Equal(t, uint64(15), res.Counters.L1DReadMisses)
	assert.Equal(t, 2.0, res.Counters.IPC)
}

func TestCountersDisabledOnError(t *testing.T) {
	bufs := newTestBuffers(t, 4)
	m := &fakeMonitor{startErr: NewCounterError("Start", "denied", nil)}
	res := NewHarness(&stepClock{step: 1}, bufs, 3).WithCounters(m).RunAndAverage(IJK)

	assert.Nil(t, res.Counters)
	assert.Equal(t, 1, m.starts, "monitor should be dropped after the first failure")
	assert.Len(t, res.Samples, 3)
}

func TestColdCacheFlushes(t *testing.T) {
	bufs := newTestBuffers(t, 4)
	f := NewCacheFlusher(4096)
	NewHarness(&stepClock{step: 1}, bufs, 1).WithColdCache(f).Measure(IJK)
	assert.NotZero(t, f.buf[CacheLineSize])
}
