// Package membench hardware counter integration for per-kernel cache analysis
package membench

import (
	"fmt"
	"strings"
)

// PerfCounters holds hardware counter readings for one measured region.
type PerfCounters struct {
	Cycles        uint64
	Instructions  uint64
	L1DReadMisses uint64
	LLCReadMisses uint64
	IPC           float64 // Instructions per cycle
}

// CounterMonitor brackets a region of code with hardware counters.
type CounterMonitor interface {
	Start() error
	Stop() (PerfCounters, error)
	Close() error
}

func (pc *PerfCounters) derive() {
	if pc.Cycles > 0 {
		pc.IPC = float64(pc.Instructions) / float64(pc.Cycles)
	}
}

// meanCounters averages a set of readings.
func meanCounters(samples []PerfCounters) PerfCounters {
	if len(samples) == 0 {
		return PerfCounters{}
	}
	var sum PerfCounters
	for _, s := range samples {
		sum.Cycles += s.Cycles
		sum.Instructions += s.Instructions
		sum.L1DReadMisses += s.L1DReadMisses
		sum.LLCReadMisses += s.LLCReadMisses
	}
	n := uint64(len(samples))
	mean := PerfCounters{
		Cycles:        sum.Cycles / n,
		Instructions:  sum.Instructions / n,
		L1DReadMisses: sum.L1DReadMisses / n,
		LLCReadMisses: sum.LLCReadMisses / n,
	}
	mean.derive()
	return mean
}

// String formats counters for display
func (pc PerfCounters) String() string {
	var sb strings.Builder
	if pc.Cycles > 0 {
		sb.WriteString(fmt.Sprintf("cycles=%d instructions=%d ipc=%.2f", pc.Cycles, pc.Instructions, pc.IPC))
	}
	if pc.L1DReadMisses > 0 {
		sb.WriteString(fmt.Sprintf(" l1d_misses=%d", pc.L1DReadMisses))
	}
	if pc.LLCReadMisses > 0 {
		sb.WriteString(fmt.Sprintf(" llc_misses=%d", pc.LLCReadMisses))
	}
	return strings.TrimSpace(sb.String())
}
