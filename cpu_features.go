package membench

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// CPUInfo returns the architecture, core count and the vector extensions that
// bear on the kernels' throughput, e.g. "amd64 16 cores [SSE4 AVX AVX2 FMA]".
func CPUInfo() string {
	features := []string{}

	switch runtime.GOARCH {
	case "amd64", "386":
		if cpu.X86.HasSSE41 || cpu.X86.HasSSE42 {
			features = append(features, "SSE4")
		}
		if cpu.X86.HasAVX {
			features = append(features, "AVX")
		}
		if cpu.X86.HasAVX2 {
			features = append(features, "AVX2")
		}
		if cpu.X86.HasFMA {
			features = append(features, "FMA")
		}
		if cpu.X86.HasAVX512F {
			features = append(features, "AVX512F")
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			features = append(features, "NEON")
		}
		if cpu.ARM64.HasSVE {
			features = append(features, "SVE")
		}
	}

	return fmt.Sprintf("%s %d cores [%s]", runtime.GOARCH, runtime.NumCPU(), strings.Join(features, " "))
}
