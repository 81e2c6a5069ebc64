package membench

import (
	"runtime"
	"strings"
	"testing"
)

func TestCPUInfo(t *testing.T) {
	info := CPUInfo()
	if !strings.HasPrefix(info, runtime.GOARCH+" ") {
		t.Errorf("CPUInfo() = %q, want prefix %q", info, runtime.GOARCH)
	}
	if !strings.Contains(info, "cores [") {
		t.Errorf("CPUInfo() = %q, missing core count", info)
	}
}
