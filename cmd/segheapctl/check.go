package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/joshuapare/segheap/arena"
	"github.com/joshuapare/segheap/arena/alloc"
	"github.com/joshuapare/segheap/arena/verify"
	"github.com/joshuapare/segheap/cmd/segheapctl/logger"
	"github.com/joshuapare/segheap/internal/replay"
	"github.com/joshuapare/segheap/internal/trace"
)

var checkConfig string

func init() {
	cmd := newCheckCmd()
	cmd.Flags().StringVar(&checkConfig, "config", "classic", "Seg allocator preset (classic, page, single)")
	rootCmd.AddCommand(cmd)
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <trace>",
		Short: "Replay a trace with the heap checker after every operation",
		Long: `The check command replays a trace against the segregated-fit allocator
and validates the whole heap and every free list after each operation.
It stops at the first violation and exits non-zero.

Example:
  segheapctl check short1.rep
  segheapctl check random.rep --config single --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), args)
		},
	}
	return cmd
}

// CheckReport is the outcome of a checked replay.
type CheckReport struct {
	Trace      string                 `json:"trace"`
	Config     string                 `json:"config"`
	Ops        int                    `json:"ops"`
	Valid      bool                   `json:"valid"`
	Error      string                 `json:"error,omitempty"`
	Line       int                    `json:"line,omitempty"`
	Violation  string                 `json:"violation,omitempty"`
	Offset     int                    `json:"offset,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Blocks     int                    `json:"blocks"`
	FreeBlocks int                    `json:"free_blocks"`
	FreeBytes  int                    `json:"free_bytes"`
	FreeLists  []int                  `json:"free_lists,omitempty"`
}

func runCheck(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	path := args[0]

	printVerbose("Checking trace: %s\n", path)

	tr, err := trace.ParseFile(path)
	if err != nil {
		return err
	}
	cfg, err := configFor(checkConfig)
	if err != nil {
		return err
	}

	ar := arena.New(arenaSize(tr, 0))
	a, err := alloc.New(ar, nil, &cfg)
	if err != nil {
		return err
	}

	res, runErr := replay.Run(ctx, tr, a, replay.Options{Check: true})
	rep := CheckReport{
		Trace:  tr.Name,
		Config: cfg.Name,
		Ops:    res.Ops,
		Valid:  runErr == nil,
	}

	if runErr != nil {
		rep.Error = runErr.Error()
		var oe *replay.OpError
		if errors.As(runErr, &oe) {
			rep.Line = oe.Op.Line
		}
		var verr *verify.ValidationError
		if errors.As(runErr, &verr) {
			rep.Violation = verr.Type
			rep.Offset = verr.Offset
			rep.Details = verr.Details
		}
		logger.Error("heap check failed", "trace", tr.Name, "error", runErr)
	} else {
		// The checker passed; summarize the final image with the raw verifier.
		if err := verify.Heap(ar.Bytes()); err != nil {
			return fmt.Errorf("final heap: %w", err)
		}
		s, err := verify.Summarize(ar.Bytes())
		if err != nil {
			return fmt.Errorf("final heap: %w", err)
		}
		rep.Blocks = s.Blocks
		rep.FreeBlocks = s.FreeBlocks
		rep.FreeBytes = s.FreeBytes
		rep.FreeLists = a.FreeListLengths()
	}

	if jsonOut {
		if err := printJSON(rep); err != nil {
			return err
		}
	} else {
		printCheckReport(rep)
	}

	if !rep.Valid {
		return fmt.Errorf("heap check failed for %s", tr.Name)
	}
	return nil
}

func printCheckReport(rep CheckReport) {
	printInfo("\nChecking %s (%s)...\n\n", rep.Trace, rep.Config)

	if !rep.Valid {
		printInfo("✗ Heap check failed after %d operations\n", rep.Ops)
		if rep.Line > 0 {
			printInfo("  Trace line: %d\n", rep.Line)
		}
		if rep.Violation != "" {
			printInfo("  Violation: %s at offset %d\n", rep.Violation, rep.Offset)
		}
		keys := make([]string, 0, len(rep.Details))
		for k := range rep.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			printInfo("  %s: %v\n", k, rep.Details[k])
		}
		printError("%s\n", rep.Error)
		return
	}

	printInfo("✓ Heap consistent after all %d operations\n", rep.Ops)
	printInfo("  Blocks: %d (%d free, %d free bytes)\n", rep.Blocks, rep.FreeBlocks, rep.FreeBytes)
	for i, n := range rep.FreeLists {
		if n > 0 {
			printVerbose("  List %2d: %d blocks\n", i, n)
		}
	}
}
