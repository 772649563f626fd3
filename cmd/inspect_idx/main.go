// Inspect a B+ tree index file (.idx).
// Usage: go run ./cmd/inspect_idx [-page-size 4096] [-v] <path-to-.idx>
// Example: go run ./cmd/inspect_idx data/indexes/main.idx
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	bplus "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/access/indexfile_manager/bplustree"
	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/bufferpool"
	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
	"github.com/junyoungkim22/educosmos-Btree-manager/types"
)

func main() {
	pageSize := flag.Int("page-size", types.PageSize, "page size the index was written with")
	verbose := flag.Bool("v", false, "print every page, not only the per-level totals")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-page-size N] [-v] <index.idx>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s data/indexes/main.idx\n", os.Args[0])
		os.Exit(1)
	}
	if err := inspect(flag.Arg(0), *pageSize, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type levelTotals struct {
	pages    int
	leaf     bool
	slots    int
	used     int
	unused   int
	capacity int
}

func inspect(path string, pageSize int, verbose bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "stat index file")
	}

	dm, err := diskmanager.NewDiskManager(diskmanager.Options{PageSize: pageSize})
	if err != nil {
		return err
	}
	defer dm.CloseAll()
	bp := bufferpool.NewBufferPool(64, dm, nil)

	tree, err := bplus.OpenBPlusTree(path, 1, bp, dm, bplus.Options{})
	if err != nil {
		return err
	}
	defer tree.Close()

	fmt.Printf("file:      %s (%s, %s pages of %s)\n", path, humanize.IBytes(uint64(info.Size())),
		humanize.Comma(info.Size()/int64(pageSize)), humanize.IBytes(uint64(pageSize)))
	fmt.Printf("root page: %d\n", diskmanager.LocalPageID(tree.RootPageID()))
	fmt.Printf("max key:   %d bytes\n\n", bplus.MaxKeyLen(pageSize))

	var levels []levelTotals
	err = tree.Inspect(func(s bplus.PageSummary) error {
		for len(levels) <= s.Level {
			levels = append(levels, levelTotals{})
		}
		lt := &levels[s.Level]
		lt.pages++
		lt.leaf = s.Leaf
		lt.slots += s.Slots
		lt.used += s.Used
		lt.unused += s.Unused
		lt.capacity += s.Capacity

		if verbose {
			kind := "internal"
			if s.Leaf {
				kind = "leaf"
			}
			fmt.Printf("page %-6d L%d %-8s slots=%-4d used=%-9s unused=%-9s p0=%-6d next=%-6d prev=%-6d keys=[%q .. %q]\n",
				s.PageNo, s.Level, kind, s.Slots, humanize.IBytes(uint64(s.Used)), humanize.IBytes(uint64(s.Unused)),
				s.P0, s.Next, s.Prev, s.FirstKey, s.LastKey)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if verbose {
		fmt.Println()
	}
	for i, lt := range levels {
		kind := "internal"
		if lt.leaf {
			kind = "leaf"
		}
		fill := 0.0
		if lt.capacity > 0 {
			fill = float64(lt.used) / float64(lt.capacity) * 100
		}
		fmt.Printf("level %d  %-8s %6s pages %9s entries  %s used (%.1f%% full), %s reclaimable\n",
			i, kind, humanize.Comma(int64(lt.pages)), humanize.Comma(int64(lt.slots)),
			humanize.IBytes(uint64(lt.used)), fill, humanize.IBytes(uint64(lt.unused)))
	}

	leaves, err := tree.CheckRing()
	if err != nil {
		return errors.Wrap(err, "leaf ring")
	}
	fmt.Printf("\nleaf ring ok: %d leaves\n", leaves)
	return nil
}
