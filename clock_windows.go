//go:build windows

package membench

import "golang.org/x/sys/windows"

// qpcClock reads the performance counter and scales ticks to nanoseconds.
type qpcClock struct {
	freq int64
}

func (c qpcClock) Now() int64 {
	var count int64
	if err := windows.QueryPerformanceCounter(&count); err != nil {
		panic("membench: QueryPerformanceCounter: " + err.Error())
	}
	// Split to avoid overflowing count*1e9 on long uptimes.
	sec := count / c.freq
	rem := count % c.freq
	return sec*1e9 + rem*1e9/c.freq
}

func newSystemClock() Clock {
	var freq int64
	if err := windows.QueryPerformanceFrequency(&freq); err != nil || freq <= 0 {
		return newRuntimeClock()
	}
	return qpcClock{freq: freq}
}
