package membench

import "time"

// Clock supplies monotonic timestamps in nanoseconds. Only differences between
// two readings are meaningful; wall-clock adjustments never affect them.
type Clock interface {
	Now() int64
}

// SystemClock returns the most precise monotonic clock the platform offers.
func SystemClock() Clock {
	return newSystemClock()
}

// runtimeClock measures against the Go runtime's monotonic reading.
type runtimeClock struct {
	epoch time.Time
}

func newRuntimeClock() runtimeClock {
	return runtimeClock{epoch: time.Now()}
}

func (c runtimeClock) Now() int64 {
	return int64(time.Since(c.epoch))
}

// ElapsedMillis converts two clock readings to milliseconds, keeping the
// nanosecond resolution in the fraction.
func ElapsedMillis(start, end int64) float64 {
	return float64(end-start) / 1e6
}
