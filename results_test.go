package membench

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVWriterFormat(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf, MatrixHeader)
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(Row{Label: "IJK", Value: 12.345}))
	require.NoError(t, w.WriteRow(Row{Label: "BLOCKED_64", Value: 3}))
	require.NoError(t, w.Flush())

	assert.Equal(t, "Version,Time_ms\nIJK,12.35\nBLOCKED_64,3.00\n", buf.String())
}

func TestCreateCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results_bandwidth.csv")
	w, err := CreateCSV(path, BandwidthHeader)
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(Row{Label: "1", Value: 1024.5}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "BlockKB,Bandwidth_MBps\n1,1024.50\n", string(data))
}

func TestCreateCSVBadPath(t *testing.T) {
	_, err := CreateCSV(filepath.Join(t.TempDir(), "missing", "x.csv"), LatencyHeader)
	require.Error(t, err)
	assert.True(t, IsOutputError(err))
}

func TestConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewConsoleWriter(&buf, LatencyHeader)
	require.NoError(t, w.WriteRow(Row{Label: "4", Value: 1.5}))
	require.NoError(t, w.WriteRow(Row{Label: "8", Value: 2}))
	assert.Equal(t, "BlockKB\t\tLatency_ns\n4\t\t1.50\n8\t\t2.00\n", buf.String())
}

func TestMultiWriter(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := MultiWriter{a, b}
	require.NoError(t, m.WriteRow(Row{Label: "x", Value: 1}))
	require.NoError(t, m.Flush())
	assert.Len(t, a.rows, 1)
	assert.Len(t, b.rows, 1)
	assert.Equal(t, 1, b.flushes)
}

func TestSessionLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sl, err := NewSessionLog(dir, "matrix", "ms")
	require.NoError(t, err)

	// The file exists and parses before any row is written.
	records, err := ReadSessionLog(sl.Path())
	require.NoError(t, err)
	assert.Empty(t, records)

	trial := &TrialResult{Kernel: "IJK", MeanMillis: 2, Samples: []float64{1, 3}}
	require.NoError(t, sl.WriteRow(Row{Label: "IJK", Value: 2, Trial: trial}))

	records, err = ReadSessionLog(sl.Path())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "matrix", records[0].Benchmark)
	assert.Equal(t, "ms", records[0].Unit)
	assert.Equal(t, []float64{1, 3}, records[0].Trial.Samples)
	assert.Len(t, sl.Records(), 1)
}
