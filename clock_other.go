//go:build !linux && !windows

package membench

func newSystemClock() Clock {
	return newRuntimeClock()
}
