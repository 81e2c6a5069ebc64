// Package membench measures machine-level memory and compute behavior:
// sequential copy bandwidth, random-access latency and dense float64 matrix
// multiplication under the six loop orders and a single-level tiled kernel.
//
// A matrix run allocates A, B and C once, fills A and then B from one seeded
// random stream, and times every kernel over a number of repeats, zeroing C
// before each trial:
//
//	cfg, _ := membench.ResolveRunConfig(512, 64, 3)
//	results, err := membench.RunMatrix(cfg, membench.MatrixOptions{})
//	if err != nil {
//		return err
//	}
//	for _, r := range results {
//		fmt.Printf("%s %.2f ms\n", r.Kernel, r.MeanMillis)
//	}
//
// Everything runs on the calling goroutine; no kernel is parallelized.
package membench
