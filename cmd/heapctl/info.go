package main

import (
	"github.com/dustin/go-humanize"
	"github.com/heaplab/gckit/heap"
	"github.com/heaplab/gckit/heap/card"
	"github.com/heaplab/gckit/layout"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Report platform layout constants and heap defaults",
		Long: `The info command prints the layout constants the heap was compiled
with (word size, card granularity, base address) and the default space sizes.

Example:
  heapctl info
  heapctl info --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}
	return cmd
}

type platformInfo struct {
	WordSize        uint64 `json:"word_size"`
	CardByteShift   uint64 `json:"card_byte_shift"`
	CardSize        uint64 `json:"card_size"`
	HeapBase        uint64 `json:"heap_base"`
	ReserveSize     uint64 `json:"default_reserve_size"`
	OldSize         uint64 `json:"default_old_size"`
	NurserySize     uint64 `json:"default_nursery_size"`
	RegionSize      uint64 `json:"default_region_size"`
	LargeObjectSize uint64 `json:"default_large_object_size"`
}

func runInfo() error {
	info := platformInfo{
		WordSize:        layout.WordSize,
		CardByteShift:   card.ByteShift,
		CardSize:        card.CardSize(),
		HeapBase:        uint64(heap.Base),
		ReserveSize:     heap.DefaultReserveSize,
		OldSize:         heap.DefaultOldSize,
		NurserySize:     heap.DefaultNurserySize,
		RegionSize:      heap.DefaultRegionSize,
		LargeObjectSize: heap.DefaultLargeObjectSize,
	}

	if jsonOut {
		return printJSON(info)
	}

	printInfo("Platform layout:\n")
	printInfo("  Word size: %d bytes\n", info.WordSize)
	printInfo("  Card byte shift: %d\n", info.CardByteShift)
	printInfo("  Card size: %s\n", humanize.IBytes(info.CardSize))
	printInfo("  Heap base: %#x\n", info.HeapBase)

	printInfo("\nDefault configuration:\n")
	printInfo("  Reserve: %s\n", humanize.IBytes(info.ReserveSize))
	printInfo("  Old space: %s\n", humanize.IBytes(info.OldSize))
	printInfo("  Nursery: %s\n", humanize.IBytes(info.NurserySize))
	printInfo("  Bump region: %s\n", humanize.IBytes(info.RegionSize))
	printInfo("  Large object threshold: %s\n", humanize.IBytes(info.LargeObjectSize))
	return nil
}
