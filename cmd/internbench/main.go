// Command internbench times interning against an InternTab and prints a latency
// histogram along with the table's statistics.
package main

import (
	"fmt"
	"log"
	"runtime"
	"strconv"
	"time"

	"github.com/loov/hrtime"
	"github.com/philpearl/interntab"
	"github.com/philpearl/interntab/arena"
	"github.com/philpearl/interntab/hashing"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type options struct {
	count     int
	size      int
	release   int
	gcEvery   int
	allocator string
	hasher    string
	prefix    string
	naive     bool
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:   "internbench",
		Short: "Time string interning",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.naive {
				runNaive(opts)
				return nil
			}
			return run(opts)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.count, "count", 1e7, "number of distinct symbols")
	flags.IntVar(&opts.size, "size", interntab.DefaultSize, "initial table size")
	flags.IntVar(&opts.release, "release", 2, "release the reference to every nth symbol (0 keeps all)")
	flags.IntVar(&opts.gcEvery, "gc-every", 0, "collect garbage explicitly every n operations (0 leaves it to the table)")
	flags.StringVar(&opts.allocator, "allocator", "slab", "allocator for long strings: slab, bank or heap")
	flags.StringVar(&opts.hasher, "hasher", "xxh3", "hash functions: xxh3 or aes")
	flags.StringVar(&opts.prefix, "prefix", "", "prefix added to each symbol, to test long strings")
	flags.BoolVar(&opts.naive, "naive", false, "time the map based table instead")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newAllocator(name string) (arena.Allocator, error) {
	switch name {
	case "slab":
		return &arena.Slab{}, nil
	case "bank":
		return &arena.Bank{}, nil
	case "heap":
		return &arena.Heap{}, nil
	}
	return nil, errors.Errorf("unknown allocator %q", name)
}

func newHasher(name string) (hashing.Hasher, error) {
	switch name {
	case "xxh3":
		return hashing.XXH3{}, nil
	case "aes":
		return hashing.AES{}, nil
	}
	return nil, errors.Errorf("unknown hasher %q", name)
}

func symbols(opts options) [][]byte {
	symbols := make([][]byte, opts.count)
	for i := range symbols {
		symbols[i] = []byte(opts.prefix + strconv.Itoa(i))
	}
	return symbols
}

func run(opts options) error {
	alloc, err := newAllocator(opts.allocator)
	if err != nil {
		return err
	}
	hasher, err := newHasher(opts.hasher)
	if err != nil {
		return err
	}

	symbols := symbols(opts)
	it := interntab.New(opts.size, interntab.WithAllocator(alloc), interntab.WithHasher(hasher))
	defer it.Finalize()

	runtime.GC()

	b := hrtime.NewBenchmarkTSC(opts.count)
	for i := 0; b.Next(); i++ {
		if i >= opts.count {
			i = 0
		}
		t := hrtime.TSC()
		s := it.Intern(symbols[i])
		if opts.release != 0 && i%opts.release == 0 {
			it.Release(s)
		}
		if opts.gcEvery != 0 && i%opts.gcEvery == 0 {
			it.GC()
		}
		dur := hrtime.TSC() - t
		if dur.ApproxDuration() > time.Millisecond*100 {
			// Rebuilding large tables is slow
			fmt.Printf("big number at %d\n", i)
		}
	}

	printHistogram(b)
	stats := it.Stats()
	fmt.Printf("used %d size %d tombstones %d empty %d\n", stats.Used, stats.Size, stats.Tombstones, stats.Empty)
	fmt.Printf("grows %d shrinks %d rehashes %d\n", stats.Grows, stats.Shrinks, stats.Rehashes)
	fmt.Printf("collections %d reclaimed %d compactions %d\n", stats.Collections, stats.Reclaimed, stats.Compactions)
	fmt.Printf("allocator bytes allocated %d claimed %d\n", stats.BytesAllocated, stats.BytesClaimed)
	return nil
}

func runNaive(opts options) {
	symbols := symbols(opts)
	n := interntab.NewNaive(opts.size)

	runtime.GC()

	b := hrtime.NewBenchmarkTSC(opts.count)
	for i := 0; b.Next(); i++ {
		if i >= opts.count {
			i = 0
		}
		s := n.GetOrCreate(symbols[i])
		s.IncRef()
		if opts.release != 0 && i%opts.release == 0 {
			s.DecRef()
		}
		if opts.gcEvery != 0 && i%opts.gcEvery == 0 {
			n.GC()
		}
	}

	printHistogram(b)
	fmt.Printf("used %d\n", n.Len())
}

func printHistogram(b *hrtime.BenchmarkTSC) {
	hopts := hrtime.HistogramOptions{
		BinCount:        20,
		NiceRange:       true,
		ClampMaximum:    0,
		ClampPercentile: 0.999999,
	}
	fmt.Println(hrtime.NewDurationHistogram(b.Laps(), &hopts))
}
