package membench

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// Comparison statuses
const (
	StatusSame    = "SAME"
	StatusSlower  = "SLOWER"
	StatusFaster  = "FASTER"
	StatusMissing = "MISSING"
	StatusInvalid = "INVALID"
)

// Comparison relates one row of a baseline session to the current session.
type Comparison struct {
	Label    string
	Status   string
	Baseline float64
	Current  float64
	Ratio    float64 // Current / Baseline in the row's unit
	Message  string
}

// CompareSessions matches rows by label. For time units (ms, ns) a larger
// value is slower; for throughput units (MB/s) a smaller one is. A row is
// flagged once the ratio crosses threshold (1.1 = 10%).
func CompareSessions(baseline, current []SessionRecord, threshold float64) []Comparison {
	if threshold <= 1 {
		threshold = 1.1
	}
	currentMap := lo.KeyBy(current, func(r SessionRecord) string { return r.Label })

	comparisons := make([]Comparison, 0, len(baseline))
	for _, base := range baseline {
		comp := Comparison{Label: base.Label, Baseline: base.Value}
		curr, ok := currentMap[base.Label]
		if !ok {
			comp.Status = StatusMissing
			comp.Message = "missing in current session"
			comparisons = append(comparisons, comp)
			continue
		}
		comp.Current = curr.Value
		// A non-positive baseline has no meaningful ratio.
		if base.Value <= 0 {
			comp.Status = StatusInvalid
			comp.Message = fmt.Sprintf("baseline value %.2f not positive", base.Value)
			comparisons = append(comparisons, comp)
			continue
		}
		comp.Ratio = curr.Value / base.Value

		slowdown := comp.Ratio
		if base.Unit == "MB/s" {
			slowdown = math.Inf(1)
			if comp.Ratio > 0 {
				slowdown = 1 / comp.Ratio
			}
		}
		switch {
		case slowdown > threshold:
			comp.Status = StatusSlower
			comp.Message = fmt.Sprintf("%.2fx slower", slowdown)
		case slowdown < 1/threshold:
			comp.Status = StatusFaster
			comp.Message = fmt.Sprintf("%.2fx faster", 1/slowdown)
		default:
			comp.Status = StatusSame
		}
		comparisons = append(comparisons, comp)
	}
	return comparisons
}
