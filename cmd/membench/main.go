// Copyright ©2024 The membench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command membench runs the memory bandwidth, random-access latency and
// matrix-multiplication loop-order benchmarks and writes CSV results.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/LynnColeArt/membench"
)

type globalFlags struct {
	logLevel string
	jsonDir  string
	seed     uint64
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "membench",
		Short:         "Cache and memory microbenchmarks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.jsonDir, "json-dir", "", "Directory for JSON session logs (disabled if empty)")
	root.PersistentFlags().Uint64Var(&g.seed, "seed", 1, "Seed of the random stream")

	root.AddCommand(
		newMatrixCmd(g),
		newBandwidthCmd(g),
		newLatencyCmd(g),
		newAllCmd(g),
		newCompareCmd(),
	)
	return root
}

func newLogger(g *globalFlags, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(g.logLevel)
	if err != nil {
		return zerolog.Nop(), membench.NewConfigError("log-level", err.Error())
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger(), nil
}

func logSubstitutions(log zerolog.Logger, subs []membench.Substitution) {
	for _, s := range subs {
		log.Warn().Str("field", s.Field).Int("rejected", s.Rejected).Int("default", s.Default).Msg("using default")
	}
}

// openOutputs builds the console, CSV and optional JSON writers for one
// benchmark. The returned close func flushes and closes the files.
func openOutputs(cmd *cobra.Command, g *globalFlags, csvPath, benchmark, unit string, header []string) (membench.RowWriter, func() error, *membench.SessionLog, error) {
	csvw, err := membench.CreateCSV(csvPath, header)
	if err != nil {
		return nil, nil, nil, err
	}
	writers := membench.MultiWriter{membench.NewConsoleWriter(cmd.OutOrStdout(), header), csvw}

	var session *membench.SessionLog
	if g.jsonDir != "" {
		session, err = membench.NewSessionLog(g.jsonDir, benchmark, unit)
		if err != nil {
			csvw.Close()
			return nil, nil, nil, err
		}
		writers = append(writers, session)
	}
	return writers, csvw.Close, session, nil
}

func newMatrixCmd(g *globalFlags) *cobra.Command {
	var (
		out      string
		counters bool
		cold     bool
	)
	cmd := &cobra.Command{
		Use:   "matrix [N] [BLOCK] [REPEATS]",
		Short: "Time the six loop orders and the blocked kernel",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, subs := membench.ParseRunArgs(args)
			logSubstitutions(log, subs)
			return runMatrix(cmd, g, log, cfg, out, counters, cold)
		},
	}
	cmd.Flags().StringVar(&out, "out", "results_matrix.csv", "CSV output path")
	cmd.Flags().BoolVar(&counters, "counters", false, "Collect hardware cache counters (Linux)")
	cmd.Flags().BoolVar(&cold, "cold", false, "Evict caches before every trial")
	return cmd
}

func runMatrix(cmd *cobra.Command, g *globalFlags, log zerolog.Logger, cfg membench.RunConfig, out string, counters, cold bool) error {
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "Running Matrix Benchmark with N=%d, BLOCK=%d, REPEATS=%d\n", cfg.N, cfg.Block, cfg.Repeats)
	fmt.Fprintf(stdout, "CPU: %s\n", membench.CPUInfo())

	// Outputs are opened only after the operands are allocated so a run that
	// fails with ResourceExhaustion leaves an earlier CSV intact.
	var (
		closeCSV func() error
		session  *membench.SessionLog
	)
	_, err := membench.RunMatrix(cfg, membench.MatrixOptions{
		Clock: membench.SystemClock(),
		Seed:  g.seed,
		OpenOut: func() (membench.RowWriter, error) {
			var (
				w   membench.RowWriter
				err error
			)
			w, closeCSV, session, err = openOutputs(cmd, g, out, "matrix", "ms", membench.MatrixHeader)
			return w, err
		},
		Log:      &log,
		Counters: counters,
		Cold:     cold,
	})
	if closeCSV != nil {
		if cerr := closeCSV(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Saved: %s\n", out)
	if session != nil {
		fmt.Fprintf(stdout, "Session log: %s\n", session.Path())
	}
	return nil
}

func newBandwidthCmd(g *globalFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "bandwidth [MIN_KB] [MAX_KB]",
		Short: "Sequential copy bandwidth over doubling block sizes",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, subs := membench.ParseSweepArgs(args)
			logSubstitutions(log, subs)
			return runBandwidth(cmd, g, log, cfg, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "results_bandwidth.csv", "CSV output path")
	return cmd
}

func runBandwidth(cmd *cobra.Command, g *globalFlags, log zerolog.Logger, cfg membench.SweepConfig, out string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Running Bandwidth Benchmark: %d KB to %d KB\n", cfg.MinKB, cfg.MaxKB)
	w, closeCSV, _, err := openOutputs(cmd, g, out, "bandwidth", "MB/s", membench.BandwidthHeader)
	if err != nil {
		return err
	}
	_, err = membench.SweepBandwidth(cfg, membench.SystemClock(), w, log)
	if cerr := closeCSV(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nSaved: %s\n", out)
	return nil
}

func newLatencyCmd(g *globalFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "latency [MIN_KB] [MAX_KB]",
		Short: "Random pointer-chasing latency over doubling block sizes",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, subs := membench.ParseSweepArgs(args)
			logSubstitutions(log, subs)
			return runLatency(cmd, g, log, cfg, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "results_latency.csv", "CSV output path")
	return cmd
}

func runLatency(cmd *cobra.Command, g *globalFlags, log zerolog.Logger, cfg membench.SweepConfig, out string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Running Random Latency Benchmark: %d KB to %d KB\n", cfg.MinKB, cfg.MaxKB)
	w, closeCSV, _, err := openOutputs(cmd, g, out, "latency", "ns", membench.LatencyHeader)
	if err != nil {
		return err
	}
	// The chain layout changes per run unless --seed is given.
	seed := uint64(time.Now().UnixNano())
	if f := cmd.Flag("seed"); f != nil && f.Changed {
		seed = g.seed
	}
	_, err = membench.SweepLatency(cfg, membench.SystemClock(), seed, w, log)
	if cerr := closeCSV(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nSaved: %s\n", out)
	return nil
}

func newAllCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run bandwidth, latency and matrix benchmarks with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			sweep, _ := membench.ResolveSweepConfig(membench.DefaultMinKB, membench.DefaultMaxKB)
			if err := runBandwidth(cmd, g, log, sweep, "results_bandwidth.csv"); err != nil {
				return err
			}
			if err := runLatency(cmd, g, log, sweep, "results_latency.csv"); err != nil {
				return err
			}
			return runMatrix(cmd, g, log, membench.DefaultRunConfig(), "results_matrix.csv", false, false)
		},
	}
}

func newCompareCmd() *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "compare BASELINE.json CURRENT.json",
		Short: "Compare two JSON session logs row by row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := membench.ReadSessionLog(args[0])
			if err != nil {
				return fmt.Errorf("load baseline: %w", err)
			}
			current, err := membench.ReadSessionLog(args[1])
			if err != nil {
				return fmt.Errorf("load current: %w", err)
			}

			comps := membench.CompareSessions(baseline, current, threshold)
			for _, c := range comps {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-16s %12.2f %12.2f %s\n",
					c.Status, c.Label, c.Baseline, c.Current, c.Message)
			}
			regressed := lo.CountBy(comps, func(c membench.Comparison) bool {
				return c.Status != membench.StatusSame && c.Status != membench.StatusFaster
			})
			if regressed > 0 {
				return fmt.Errorf("%d rows regressed or could not be compared", regressed)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "perf-regress", 1.1, "Regression threshold (1.1 = 10% slower)")
	return cmd
}
