package membench

import (
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// TrialResult is the outcome of one kernel over the configured repeats.
type TrialResult struct {
	Kernel       string        `json:"kernel"`
	MeanMillis   float64       `json:"mean_ms"`
	StdDevMillis float64       `json:"stddev_ms"`
	Samples      []float64     `json:"samples_ms"`
	Counters     *PerfCounters `json:"counters,omitempty"`
}

// Harness times kernels against one buffer set. It owns no buffers; the
// driver passes them in and keeps them alive for the run.
type Harness struct {
	clock   Clock
	bufs    *Buffers
	repeats int
	monitor CounterMonitor
	flusher *CacheFlusher
	log     zerolog.Logger
}

// NewHarness creates a harness averaging over repeats trials. A non-positive
// repeat count falls back to DefaultRepeats.
func NewHarness(clock Clock, bufs *Buffers, repeats int) *Harness {
	if repeats <= 0 {
		repeats = DefaultRepeats
	}
	return &Harness{
		clock:   clock,
		bufs:    bufs,
		repeats: repeats,
		log:     zerolog.Nop(),
	}
}

// WithLogger sets the logger used for per-trial debug output.
func (h *Harness) WithLogger(log zerolog.Logger) *Harness {
	h.log = log
	return h
}

// WithCounters brackets every measured invocation with hardware counters.
// The monitor is started before the first clock read and stopped after the
// second, so its setup cost stays outside the timed region.
func (h *Harness) WithCounters(m CounterMonitor) *Harness {
	h.monitor = m
	return h
}

// WithColdCache evicts the caches before every measured invocation instead of
// letting A and B stay warm from the previous trial.
func (h *Harness) WithColdCache(f *CacheFlusher) *Harness {
	h.flusher = f
	return h
}

// Repeats returns the number of trials averaged per kernel.
func (h *Harness) Repeats() int {
	return h.repeats
}

// Measure zeroes C, runs k exactly once and returns the elapsed milliseconds.
func (h *Harness) Measure(k Kernel) float64 {
	ms, _ := h.measure(k)
	return ms
}

func (h *Harness) measure(k Kernel) (float64, *PerfCounters) {
	b := h.bufs
	n := b.C.N
	b.C.Zero()
	if h.flusher != nil {
		h.flusher.Flush()
	}

	counting := false
	if h.monitor != nil {
		if err := h.monitor.Start(); err != nil {
			h.log.Warn().Err(err).Msg("hardware counters disabled")
			h.monitor = nil
		} else {
			counting = true
		}
	}

	start := h.clock.Now()
	k.Multiply(b.A.Data, b.B.Data, b.C.Data, n)
	end := h.clock.Now()

	var pc *PerfCounters
	if counting {
		c, err := h.monitor.Stop()
		if err != nil {
			h.log.Warn().Err(err).Msg("hardware counters disabled")
			h.monitor = nil
		} else {
			pc = &c
		}
	}

	ms := ElapsedMillis(start, end)
	if ms < 0 {
		ms = 0
	}
	return ms, pc
}

// RunAndAverage measures k Repeats() times, each with its own reset of C, and
// returns the arithmetic mean together with the individual samples.
func (h *Harness) RunAndAverage(k Kernel) TrialResult {
	samples := make([]float64, 0, h.repeats)
	var counters []PerfCounters
	for r := 0; r < h.repeats; r++ {
		ms, pc := h.measure(k)
		h.log.Debug().Str("kernel", k.Name()).Int("trial", r).Float64("ms", ms).Msg("trial")
		samples = append(samples, ms)
		if pc != nil {
			counters = append(counters, *pc)
		}
	}

	res := TrialResult{
		Kernel:     k.Name(),
		MeanMillis: stat.Mean(samples, nil),
		Samples:    samples,
	}
	if len(samples) > 1 {
		res.StdDevMillis = stat.StdDev(samples, nil)
	}
	if len(counters) == len(samples) {
		mean := meanCounters(counters)
		res.Counters = &mean
	}
	return res
}
