//go:build linux

// Package membench provides Linux-specific performance counter implementation
package membench

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

type perfEventConfig struct {
	name   string
	typ    uint32
	config uint64
}

// newPerfAttr describes one user-space-only counter that starts disabled.
func newPerfAttr(ev perfEventConfig) *unix.PerfEventAttr {
	return &unix.PerfEventAttr{
		Type:   ev.typ,
		Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
		Config: ev.config,
		Bits:   unix.PerfBitDisabled | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
	}
}

// cacheConfig creates a cache event configuration
func cacheConfig(cache, op, result uint64) uint64 {
	return cache | (op << 8) | (result << 16)
}

var perfEvents = []perfEventConfig{
	{"cycles", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES},
	{"instructions", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS},
	{"L1-dcache-misses", unix.PERF_TYPE_HW_CACHE, cacheConfig(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
	{"LLC-misses", unix.PERF_TYPE_HW_CACHE, cacheConfig(unix.PERF_COUNT_HW_CACHE_LL, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
}

// LinuxPerfMonitor reads hardware counters through perf_event_open. The
// events are opened once and reset/enabled around each region.
type LinuxPerfMonitor struct {
	fds []int
}

// NewCounterMonitor opens the counter set for the calling thread. The caller
// should lock the goroutine to its OS thread while measuring.
func NewCounterMonitor() (CounterMonitor, error) {
	pm := &LinuxPerfMonitor{}
	for _, ev := range perfEvents {
		fd, err := unix.PerfEventOpen(newPerfAttr(ev), 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			pm.Close()
			return nil, NewCounterError("PerfEventOpen", fmt.Sprintf("event %s", ev.name), err)
		}
		pm.fds = append(pm.fds, fd)
	}
	return pm, nil
}

// Start resets and enables every counter.
func (pm *LinuxPerfMonitor) Start() error {
	for _, fd := range pm.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0); err != nil {
			return NewCounterError("Start", "reset", err)
		}
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
			return NewCounterError("Start", "enable", err)
		}
	}
	return nil
}

// Stop disables the counters and reads them.
func (pm *LinuxPerfMonitor) Stop() (PerfCounters, error) {
	for _, fd := range pm.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0); err != nil {
			return PerfCounters{}, NewCounterError("Stop", "disable", err)
		}
	}

	var pc PerfCounters
	buf := make([]byte, 8)
	for i, fd := range pm.fds {
		n, err := unix.Read(fd, buf)
		if err != nil || n != 8 {
			return PerfCounters{}, NewCounterError("Stop", fmt.Sprintf("read %s", perfEvents[i].name), err)
		}
		value := binary.NativeEndian.Uint64(buf)
		switch perfEvents[i].name {
		case "cycles":
			pc.Cycles = value
		case "instructions":
			pc.Instructions = value
		case "L1-dcache-misses":
			pc.L1DReadMisses = value
		case "LLC-misses":
			pc.LLCReadMisses = value
		}
	}
	pc.derive()
	return pc, nil
}

// Close releases the counter file descriptors.
func (pm *LinuxPerfMonitor) Close() error {
	var first error
	for _, fd := range pm.fds {
		if err := unix.Close(fd); err != nil && first == nil {
			first = err
		}
	}
	pm.fds = nil
	return first
}
