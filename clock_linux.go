//go:build linux

package membench

import "golang.org/x/sys/unix"

// rawMonotonicClock reads CLOCK_MONOTONIC_RAW, which is not slewed by NTP.
type rawMonotonicClock struct{}

func (rawMonotonicClock) Now() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		// Kernels older than 2.6.28 lack the raw clock.
		if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
			panic("membench: no monotonic clock: " + err.Error())
		}
	}
	return ts.Nano()
}

func newSystemClock() Clock {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return newRuntimeClock()
	}
	return rawMonotonicClock{}
}
