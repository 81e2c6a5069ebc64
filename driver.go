package membench

import (
	"runtime"

	"github.com/rs/zerolog"
)

// MatrixOptions carries the collaborators of a matrix run. Zero values are
// usable: the system clock, seed 0, no output and a no-op logger.
//
// OpenOut, when set and Out is nil, is called once the operands are
// allocated, so a run that cannot allocate never touches its outputs.
type MatrixOptions struct {
	Clock    Clock
	Seed     uint64
	Out      RowWriter
	OpenOut  func() (RowWriter, error)
	Log      *zerolog.Logger
	Counters bool // Collect hardware counters where supported
	Cold     bool // Evict caches before every trial
}

func (o MatrixOptions) logger() zerolog.Logger {
	if o.Log == nil {
		return zerolog.Nop()
	}
	return *o.Log
}

// RunMatrix allocates and initializes the operands once, then measures each
// of the seven kernels in fixed order and emits one row per kernel. The only
// failures are buffer allocation and output errors.
func RunMatrix(cfg RunConfig, opts MatrixOptions) ([]TrialResult, error) {
	log := opts.logger()
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}

	bufs, err := prepareBuffers(cfg.N, opts.Seed)
	if err != nil {
		return nil, err
	}
	defer bufs.Release()

	out := opts.Out
	if out == nil && opts.OpenOut != nil {
		if out, err = opts.OpenOut(); err != nil {
			return nil, err
		}
	}

	h := NewHarness(clock, bufs, cfg.Repeats).WithLogger(log)
	if opts.Counters {
		// perf events count the opening thread only.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		m, err := NewCounterMonitor()
		if err != nil {
			log.Warn().Err(err).Msg("hardware counters unavailable, timing only")
		} else {
			defer m.Close()
			h.WithCounters(m)
		}
	}

	if opts.Cold {
		h.WithColdCache(NewCacheFlusher(DefaultFlushBytes))
	}

	kernels := Kernels(cfg)
	results := make([]TrialResult, 0, len(kernels))
	for _, k := range kernels {
		log.Info().Str("kernel", k.Name()).Msg("testing")
		res := h.RunAndAverage(k)
		results = append(results, res)

		ev := log.Info().Str("kernel", res.Kernel).Float64("mean_ms", res.MeanMillis).Float64("stddev_ms", res.StdDevMillis)
		if res.Counters != nil {
			ev = ev.Uint64("l1d_misses", res.Counters.L1DReadMisses).Uint64("llc_misses", res.Counters.LLCReadMisses).Float64("ipc", res.Counters.IPC)
		}
		ev.Msg("done")

		if out != nil {
			if err := out.WriteRow(Row{Label: res.Kernel, Value: res.MeanMillis, Trial: &res}); err != nil {
				return results, err
			}
		}
	}
	if out != nil {
		if err := out.Flush(); err != nil {
			return results, err
		}
	}
	return results, nil
}

// prepareBuffers allocates the operands for an n×n run and fills them from
// seed. Every seed, 0 included, selects its own stream.
func prepareBuffers(n int, seed uint64) (*Buffers, error) {
	bufs, err := NewBuffers(n)
	if err != nil {
		return nil, err
	}
	bufs.Initialize(seed)
	return bufs, nil
}
