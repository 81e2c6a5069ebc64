package membench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareSessions(t *testing.T) {
	baseline := []SessionRecord{
		{Label: "IJK", Value: 100, Unit: "ms"},
		{Label: "KIJ", Value: 100, Unit: "ms"},
		{Label: "JKI", Value: 100, Unit: "ms"},
		{Label: "BLOCKED_64", Value: 10, Unit: "ms"},
		{Label: "1", Value: 1000, Unit: "MB/s"},
	}
	current := []SessionRecord{
		{Label: "IJK", Value: 150, Unit: "ms"},
		{Label: "KIJ", Value: 50, Unit: "ms"},
		{Label: "JKI", Value: 105, Unit: "ms"},
		{Label: "1", Value: 500, Unit: "MB/s"},
	}

	got := CompareSessions(baseline, current, 1.1)
	require.Len(t, got, 5)
	assert.Equal(t, StatusSlower, got[0].Status)
	assert.Equal(t, StatusFaster, got[1].Status)
	assert.Equal(t, StatusSame, got[2].Status)
	assert.Equal(t, StatusMissing, got[3].Status)
	assert.Equal(t, StatusSlower, got[4].Status, "halved bandwidth is a regression")
	assert.InDelta(t, 1.5, got[0].Ratio, 1e-12)
}

func TestCompareSessionsNonPositiveBaseline(t *testing.T) {
	tests := []struct {
		name     string
		baseline float64
		current  float64
		unit     string
		want     string
	}{
		{"zero baseline", 0, 120, "ms", StatusInvalid},
		{"negative baseline", -3, 1, "ns", StatusInvalid},
		{"zero bandwidth baseline", 0, 800, "MB/s", StatusInvalid},
		{"bandwidth dropped to zero", 1000, 0, "MB/s", StatusSlower},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareSessions(
				[]SessionRecord{{Label: "X", Value: tt.baseline, Unit: tt.unit}},
				[]SessionRecord{{Label: "X", Value: tt.current, Unit: tt.unit}},
				1.1,
			)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Status)
			assert.Equal(t, tt.current, got[0].Current)
			if tt.want == StatusInvalid {
				assert.Contains(t, got[0].Message, "not positive")
				assert.Zero(t, got[0].Ratio)
			}
		})
	}
}

func TestCompareSessionsDuplicateLabels(t *testing.T) {
	// The last current row for a label wins.
	got := CompareSessions(
		[]SessionRecord{{Label: "IJK", Value: 100, Unit: "ms"}},
		[]SessionRecord{{Label: "IJK", Value: 300, Unit: "ms"}, {Label: "IJK", Value: 100, Unit: "ms"}},
		1.1,
	)
	require.Len(t, got, 1)
	assert.Equal(t, StatusSame, got[0].Status)
}
