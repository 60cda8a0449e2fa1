package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/heaplab/gckit/heap"
	"github.com/heaplab/gckit/heap/alloc"
	"github.com/heaplab/gckit/heap/barrier"
	"github.com/heaplab/gckit/heap/collect"
	"github.com/heaplab/gckit/heap/handle"
	"github.com/heaplab/gckit/layout"
	"github.com/heaplab/gckit/pkg/types"
	"github.com/spf13/cobra"
)

var (
	stressObjects int
	stressReserve uint64
	stressNursery uint64
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressObjects, "objects", 1_000_000, "Number of objects to allocate")
	cmd.Flags().Uint64Var(&stressReserve, "reserve", 0, "Reserve size in bytes (0 = default)")
	cmd.Flags().Uint64Var(&stressNursery, "nursery", 0, "Nursery size in bytes (0 = default)")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run an allocation storm against a live heap",
		Long: `The stress command keeps one object alive through a strong handle
and allocates a stream of short-lived objects, storing each into the
survivor's field through the write barrier. The nursery overflows
repeatedly, driving minor collections from the allocation slow path; a
final full collection compacts the old space. Heap and collector
statistics are reported at the end.

Example:
  heapctl stress
  heapctl stress --objects 5000000 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
	return cmd
}

type stressReport struct {
	Objects   int           `json:"objects"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Heap      heap.Stats    `json:"heap"`
	Collector collect.Stats `json:"collector"`
}

func runStress() error {
	h, err := heap.New(heap.Config{
		ReserveSize: stressReserve,
		NurserySize: stressNursery,
	})
	if err != nil {
		return fmt.Errorf("creating heap: %w", err)
	}
	defer h.Close()

	reg := layout.NewRegistry()
	node, err := reg.Describe(2*layout.WordSize, 0, []uint64{0})
	if err != nil {
		return fmt.Errorf("registering layout: %w", err)
	}

	handles := handle.NewTable(0)
	gc := collect.New(h, handles, reg)
	h.SetCollector(gc)
	w := barrier.New(h)
	ctx := h.NewContext()

	printVerbose("Allocating %d objects of %d bytes\n", stressObjects, node.InstanceSize())
	start := time.Now()

	survivor, err := alloc.Object(ctx, node)
	if err != nil {
		return fmt.Errorf("allocating survivor: %w", err)
	}
	st, err := handles.Create(handle.KindStrong, survivor)
	if err != nil {
		return fmt.Errorf("creating handle: %w", err)
	}

	for i := 0; i < stressObjects; i++ {
		n, aerr := alloc.Object(ctx, node)
		if aerr != nil {
			return fmt.Errorf("allocation %d: %w", i, aerr)
		}
		// Collections relocate; the handle is the survivor's only
		// stable name.
		w.Store(handles.Read(st)+layout.WordSize, n)
	}

	if err := h.Collect(types.GenFull); err != nil {
		return fmt.Errorf("full collection: %w", err)
	}
	elapsed := time.Since(start)

	col := h.Stats()
	cs := gc.Stats()

	report := stressReport{
		Objects:   stressObjects,
		Elapsed:   elapsed,
		Heap:      col,
		Collector: cs,
	}
	if jsonOut {
		return printJSON(report)
	}

	printInfo("Allocated %s objects in %s\n",
		humanize.Comma(int64(report.Objects)), elapsed.Round(time.Millisecond))
	printInfo("\nHeap:\n")
	printInfo("  Slow paths: %s\n", humanize.Comma(int64(col.SlowPaths)))
	printInfo("  Regions carved: %s\n", humanize.Comma(int64(col.Regions)))
	printInfo("  Collections: %s\n", humanize.Comma(int64(col.Collections)))
	printInfo("  Grows: %d\n", col.Grows)
	printInfo("  Old space used: %s\n", humanize.IBytes(col.OldUsed))
	printInfo("  Committed: %s of %s\n", humanize.IBytes(col.Committed), humanize.IBytes(col.Reserved))
	printInfo("\nCollector:\n")
	printInfo("  Minor: %d, full: %d\n", cs.Minor, cs.Full)
	printInfo("  Promoted: %s objects (%s)\n",
		humanize.Comma(int64(cs.Promoted)), humanize.IBytes(cs.PromotedBytes))
	printInfo("  Freed: %s\n", humanize.IBytes(cs.FreedBytes))
	printInfo("  Weak handles cleared: %d\n", cs.WeaksCleared)
	return nil
}
