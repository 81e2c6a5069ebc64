package membench

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

const bytesPerMB = 1024.0 * 1024.0

// MeasureBandwidth copies a block of blockSize bytes repeats times and returns
// the throughput in MB/s (MB = 2^20 bytes).
func MeasureBandwidth(clock Clock, blockSize, repeats int) (float64, error) {
	if blockSize <= 0 {
		return 0, NewConfigError("MeasureBandwidth", fmt.Sprintf("block size must be positive, got %d", blockSize))
	}
	if repeats <= 0 {
		repeats = CopyRepeats
	}
	if err := checkMemory("MeasureBandwidth", 2*uint64(blockSize), fmt.Sprintf("a %d byte copy", blockSize)); err != nil {
		return 0, err
	}
	src := make([]byte, blockSize)
	dst := make([]byte, blockSize)
	for i := range src {
		src[i] = byte(i % 256)
	}

	start := clock.Now()
	for r := 0; r < repeats; r++ {
		copy(dst, src)
	}
	end := clock.Now()

	seconds := float64(end-start) / 1e9
	if seconds <= 0 {
		// Below clock resolution; report one tick.
		seconds = 1e-9
	}
	totalMB := float64(blockSize) * float64(repeats) / bytesPerMB
	return totalMB / seconds, nil
}

// SweepBandwidth measures every block size of cfg and emits one row per size.
func SweepBandwidth(cfg SweepConfig, clock Clock, out RowWriter, log zerolog.Logger) ([]Row, error) {
	return sweep(cfg, out, log, "MB/s", func(blockSize int) (float64, error) {
		return MeasureBandwidth(clock, blockSize, CopyRepeats)
	})
}

// sweep runs measure over the doubling sizes of cfg, passing each size in
// bytes. Rows are labelled in KB.
func sweep(cfg SweepConfig, out RowWriter, log zerolog.Logger, unit string, measure func(blockSize int) (float64, error)) ([]Row, error) {
	var rows []Row
	for _, kb := range cfg.Sizes() {
		if kb > math.MaxInt/1024 {
			return rows, NewResourceError("sweep", fmt.Sprintf("block of %d KB overflows the address space", kb), nil)
		}
		v, err := measure(kb * 1024)
		if err != nil {
			return rows, err
		}
		row := Row{Label: fmt.Sprint(kb), Value: v}
		rows = append(rows, row)
		log.Info().Int("block_kb", kb).Float64(unit, v).Msg("measured")
		if out != nil {
			if err := out.WriteRow(row); err != nil {
				return rows, err
			}
		}
	}
	if out != nil {
		if err := out.Flush(); err != nil {
			return rows, err
		}
	}
	return rows, nil
}
