package membench

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// CSV headers written by each benchmark.
var (
	MatrixHeader    = []string{"Version", "Time_ms"}
	BandwidthHeader = []string{"BlockKB", "Bandwidth_MBps"}
	LatencyHeader   = []string{"BlockKB", "Latency_ns"}
)

// Row is one line of a result table. Trial is set for matrix rows only.
type Row struct {
	Label string
	Value float64
	Trial *TrialResult
}

// RowWriter receives result rows as they are produced.
type RowWriter interface {
	WriteRow(Row) error
	Flush() error
}

// CSVWriter writes a header line followed by "label,value" rows with the
// value rounded to two decimals.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter writes header to w immediately.
func NewCSVWriter(w io.Writer, header []string) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if err := cw.w.Write(header); err != nil {
		return nil, NewOutputError("NewCSVWriter", "write header", err)
	}
	return cw, nil
}

// CreateCSV creates (or truncates) path and writes header to it.
func CreateCSV(path string, header []string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, NewOutputError("CreateCSV", fmt.Sprintf("could not open %s", path), err)
	}
	cw, err := NewCSVWriter(f, header)
	if err != nil {
		f.Close()
		return nil, err
	}
	cw.closer = f
	return cw, nil
}

func (cw *CSVWriter) WriteRow(r Row) error {
	if err := cw.w.Write([]string{r.Label, strconv.FormatFloat(r.Value, 'f', 2, 64)}); err != nil {
		return NewOutputError("WriteRow", r.Label, err)
	}
	return nil
}

func (cw *CSVWriter) Flush() error {
	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		return NewOutputError("Flush", "csv", err)
	}
	return nil
}

// Close flushes and closes the underlying file, if any.
func (cw *CSVWriter) Close() error {
	err := cw.Flush()
	if cw.closer != nil {
		if cerr := cw.closer.Close(); cerr != nil && err == nil {
			err = NewOutputError("Close", "csv", cerr)
		}
	}
	return err
}

// ConsoleWriter prints rows as a tab-separated table.
type ConsoleWriter struct {
	w      io.Writer
	header []string
	once   sync.Once
}

func NewConsoleWriter(w io.Writer, header []string) *ConsoleWriter {
	return &ConsoleWriter{w: w, header: header}
}

func (c *ConsoleWriter) WriteRow(r Row) error {
	var err error
	c.once.Do(func() {
		_, err = fmt.Fprintf(c.w, "%s\t\t%s\n", c.header[0], c.header[1])
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.w, "%s\t\t%.2f\n", r.Label, r.Value)
	return err
}

func (c *ConsoleWriter) Flush() error { return nil }

// MultiWriter fans rows out to several writers, stopping at the first error.
type MultiWriter []RowWriter

func (m MultiWriter) WriteRow(r Row) error {
	for _, w := range m {
		if err := w.WriteRow(r); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiWriter) Flush() error {
	for _, w := range m {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// SessionRecord is one entry of a JSON session log.
type SessionRecord struct {
	Benchmark string       `json:"benchmark"`
	Label     string       `json:"label"`
	Value     float64      `json:"value"`
	Unit      string       `json:"unit"`
	Trial     *TrialResult `json:"trial,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// SessionLog accumulates records and rewrites its JSON file after every row,
// so a crash mid-run keeps what was measured so far.
type SessionLog struct {
	mu        sync.Mutex
	benchmark string
	unit      string
	path      string
	records   []SessionRecord
}

// NewSessionLog creates dir if needed and starts a session file named after
// the benchmark and the current time.
func NewSessionLog(dir, benchmark, unit string) (*SessionLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, NewOutputError("NewSessionLog", "create log directory", err)
	}
	timestamp := time.Now().Format("20060102_150405")
	sl := &SessionLog{
		benchmark: benchmark,
		unit:      unit,
		path:      filepath.Join(dir, fmt.Sprintf("%s_%s.json", benchmark, timestamp)),
		records:   []SessionRecord{},
	}
	return sl, sl.flush()
}

// Path returns the session file path.
func (sl *SessionLog) Path() string {
	return sl.path
}

func (sl *SessionLog) WriteRow(r Row) error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.records = append(sl.records, SessionRecord{
		Benchmark: sl.benchmark,
		Label:     r.Label,
		Value:     r.Value,
		Unit:      sl.unit,
		Trial:     r.Trial,
		Timestamp: time.Now(),
	})
	return sl.flush()
}

func (sl *SessionLog) Flush() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.flush()
}

// Records returns a copy of the records written so far.
func (sl *SessionLog) Records() []SessionRecord {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return append([]SessionRecord(nil), sl.records...)
}

func (sl *SessionLog) flush() error {
	data, err := json.MarshalIndent(sl.records, "", "  ")
	if err != nil {
		return NewOutputError("SessionLog", "marshal records", err)
	}
	if err := os.WriteFile(sl.path, data, 0644); err != nil {
		return NewOutputError("SessionLog", "write "+sl.path, err)
	}
	return nil
}

// ReadSessionLog loads a session file written by SessionLog.
func ReadSessionLog(path string) ([]SessionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []SessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}
