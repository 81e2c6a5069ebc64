//go:build !linux

// Package membench provides performance counter stubs for non-Linux platforms
package membench

// NewCounterMonitor is unavailable off Linux.
func NewCounterMonitor() (CounterMonitor, error) {
	return nil, ErrCountersUnsupported
}
