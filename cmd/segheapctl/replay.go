package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/joshuapare/segheap/arena"
	"github.com/joshuapare/segheap/arena/alloc"
	"github.com/joshuapare/segheap/arena/alloc/metrics"
	"github.com/joshuapare/segheap/arena/dirty"
	"github.com/joshuapare/segheap/cmd/segheapctl/logger"
	"github.com/joshuapare/segheap/internal/buf"
	"github.com/joshuapare/segheap/internal/replay"
	"github.com/joshuapare/segheap/internal/trace"
)

const (
	// heapFactor multiplies a trace's suggested heap size to size the arena
	// when --max-heap is not given.
	heapFactor = 8

	// maxAutoHeap caps the derived arena size.
	maxAutoHeap = 256 << 20
)

var (
	replayAllocator string
	replayConfig    string
	replayChunk     uint32
	replayMaxHeap   int
	replayCheck     bool
	replayStats     bool
	replayMetrics   string
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().StringVar(&replayAllocator, "allocator", "seg", "Allocator to replay against (seg, bump)")
	cmd.Flags().StringVar(&replayConfig, "config", "classic", "Seg allocator preset (classic, page, single)")
	cmd.Flags().Uint32Var(&replayChunk, "chunk", 0, "Override the heap growth chunk in bytes")
	cmd.Flags().IntVar(&replayMaxHeap, "max-heap", 0, "Arena size in bytes (default: derived from the trace)")
	cmd.Flags().BoolVar(&replayCheck, "check", false, "Check heap consistency after every operation")
	cmd.Flags().BoolVar(&replayStats, "stats", false, "Print allocator statistics after each trace")
	cmd.Flags().StringVar(&replayMetrics, "metrics", "", "Write Prometheus metrics for every trace to this file")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>...",
		Short: "Replay allocation traces and report utilization",
		Long: `The replay command runs each trace against a fresh heap, validating
every block the allocator returns, and prints a summary per trace.

Example:
  segheapctl replay short1.rep
  segheapctl replay traces/*.rep --allocator bump
  segheapctl replay random.rep --config single --check --json
  segheapctl replay traces/*.rep --metrics metrics.prom`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args)
		},
	}
	return cmd
}

// TraceReport is the per-trace outcome of a replay.
type TraceReport struct {
	Trace        string  `json:"trace"`
	Allocator    string  `json:"allocator"`
	Ops          int     `json:"ops"`
	HeapSize     int     `json:"heap_size"`
	PeakLive     int64   `json:"peak_live"`
	Utilization  float64 `json:"utilization"`
	Grows        int     `json:"grows"`
	Splits       int     `json:"splits"`
	Coalesces    int     `json:"coalesces"`
	PagesTouched int     `json:"pages_touched"`
	Error        string  `json:"error,omitempty"`
}

// replayOptions bundles the flags one trace run depends on.
type replayOptions struct {
	allocator string
	config    string
	chunk     uint32
	maxHeap   int
	check     bool
	stats     bool
	registry  *prometheus.Registry // nil unless --metrics is set
}

func currentReplayOptions() replayOptions {
	return replayOptions{
		allocator: replayAllocator,
		config:    replayConfig,
		chunk:     replayChunk,
		maxHeap:   replayMaxHeap,
		check:     replayCheck,
		stats:     replayStats,
	}
}

func runReplay(ctx context.Context, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := currentReplayOptions()
	if opts.check && opts.allocator == "bump" {
		return fmt.Errorf("--check needs the seg allocator: %w", alloc.ErrNoChecker)
	}
	if replayMetrics != "" {
		opts.registry = prometheus.NewRegistry()
	}

	reports := make([]TraceReport, 0, len(paths))
	failed := 0
	for _, path := range paths {
		rep, err := replayFile(ctx, path, opts)
		if err != nil {
			var oe *replay.OpError
			if !errors.As(err, &oe) {
				return err
			}
			failed++
			rep.Error = err.Error()
			logger.Error("replay failed", "trace", path, "error", err)
		}
		reports = append(reports, rep)
	}

	if jsonOut {
		if err := printJSON(reports); err != nil {
			return err
		}
	} else {
		printReports(reports)
	}

	if opts.registry != nil {
		if err := writeMetrics(opts.registry, replayMetrics); err != nil {
			return err
		}
		printVerbose("Metrics written to %s\n", replayMetrics)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d traces failed", failed, len(paths))
	}
	return nil
}

// replayFile parses one trace and replays it against a fresh heap. Parse and
// setup failures are returned as is; replay failures come back as a
// *replay.OpError alongside the partial report.
func replayFile(ctx context.Context, path string, opts replayOptions) (TraceReport, error) {
	tr, err := trace.ParseFile(path)
	if err != nil {
		return TraceReport{}, err
	}
	printVerbose("Replaying %s: %d ops over %d ids\n", tr.Name, len(tr.Ops), tr.NumIDs)

	ar := arena.New(arenaSize(tr, opts.maxHeap))
	tracker := dirty.NewTracker(arena.PageSize())

	a, err := newAllocator(ar, tracker, opts)
	if err != nil {
		return TraceReport{}, err
	}
	upstream := a
	if opts.registry != nil {
		m, err := metrics.NewMetrics(opts.registry, prometheus.Labels{"allocator": opts.allocator, "trace": tr.Name})
		if err != nil {
			return TraceReport{}, fmt.Errorf("register metrics for %s: %w", tr.Name, err)
		}
		a = metrics.NewMetricsAllocator(a, m)
	}

	res, runErr := replay.Run(ctx, tr, a, replay.Options{
		Check: opts.check,
		OnOp: func(i int, op trace.Op, p alloc.Ptr) {
			logger.Debug("op", "trace", tr.Name, "index", i, "kind", op.Kind.String(), "id", op.ID, "size", op.Size, "block", uint32(p))
		},
	})

	rep := TraceReport{
		Trace:        tr.Name,
		Allocator:    opts.allocator,
		Ops:          res.Ops,
		HeapSize:     res.HeapSize,
		PeakLive:     res.PeakLive,
		Utilization:  res.Utilization,
		PagesTouched: tracker.PagesTouched(),
	}
	if seg, ok := upstream.(*alloc.SegAllocator); ok {
		s := seg.Stats()
		rep.Grows = s.GrowCalls
		rep.Splits = s.SplitCount
		rep.Coalesces = s.CoalesceForward + s.CoalesceBackward
		if opts.stats && !jsonOut && !quiet {
			seg.PrintStats(os.Stdout)
		}
	}
	logger.Info("replay finished", "trace", tr.Name, "ops", rep.Ops, "heap", rep.HeapSize, "util", rep.Utilization)
	return rep, runErr
}

// newAllocator builds the allocator selected by opts over p.
func newAllocator(p alloc.Provider, dt alloc.DirtyTracker, opts replayOptions) (alloc.Allocator, error) {
	switch opts.allocator {
	case "seg":
		cfg, err := configFor(opts.config)
		if err != nil {
			return nil, err
		}
		if opts.chunk != 0 {
			cfg.ChunkSize = opts.chunk
			cfg.Name += "+chunk"
		}
		return alloc.New(p, dt, &cfg)
	case "bump":
		return alloc.NewBump(p, dt)
	default:
		return nil, fmt.Errorf("unknown allocator: %s (must be seg or bump)", opts.allocator)
	}
}

func configFor(name string) (alloc.Config, error) {
	switch name {
	case "classic":
		return alloc.ConfigClassic, nil
	case "page":
		return alloc.ConfigPageChunk, nil
	case "single":
		return alloc.ConfigSingleList, nil
	default:
		return alloc.Config{}, fmt.Errorf("unknown config preset: %s (must be classic, page, or single)", name)
	}
}

// arenaSize picks the arena reservation for tr: the explicit size if given,
// otherwise a multiple of the trace's suggested heap, never below the default.
func arenaSize(tr *trace.Trace, explicit int) int {
	if explicit > 0 {
		return explicit
	}
	n, ok := buf.MulOverflowSafe(tr.SuggestedHeap, heapFactor)
	if !ok || n > maxAutoHeap {
		return maxAutoHeap
	}
	return max(n, arena.DefaultMaxHeap)
}

// writeMetrics writes every series gathered from reg to path in the
// Prometheus text format.
func writeMetrics(reg *prometheus.Registry, path string) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			f.Close()
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return f.Close()
}

func printReports(reports []TraceReport) {
	printInfo("\n%-20s %-6s %8s %10s %10s %7s %6s %7s %9s %6s\n",
		"TRACE", "ALLOC", "OPS", "HEAP", "PEAK", "UTIL", "GROWS", "SPLITS", "COALESCE", "PAGES")
	printInfo("%s\n", strings.Repeat("-", 98))

	var utilSum float64
	for _, r := range reports {
		status := ""
		if r.Error != "" {
			status = "  FAILED"
		}
		printInfo("%-20s %-6s %8d %10d %10d %6.1f%% %6d %7d %9d %6d%s\n",
			r.Trace, r.Allocator, r.Ops, r.HeapSize, r.PeakLive, r.Utilization*100,
			r.Grows, r.Splits, r.Coalesces, r.PagesTouched, status)
		utilSum += r.Utilization
	}
	if len(reports) > 1 {
		printInfo("%s\n", strings.Repeat("-", 98))
		printInfo("%-20s %-6s %8s %10s %10s %6.1f%%\n", "average", "", "", "", "", utilSum*100/float64(len(reports)))
	}

	for _, r := range reports {
		if r.Error != "" {
			printError("%s: %s\n", r.Trace, r.Error)
		}
	}
}
