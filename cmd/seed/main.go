// Seed program: fills an index with generated keys.
// Run: go run ./cmd/seed -count 10000
// Then inspect: go run ./cmd/inspect_idx data/indexes/main.idx
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junyoungkim22/educosmos-Btree-manager/config"
	"github.com/junyoungkim22/educosmos-Btree-manager/logger"
	storageengine "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine"
	bplus "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/access/indexfile_manager/bplustree"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults when empty)")
	indexName := flag.String("index", "main", "index to fill")
	count := flag.Int("count", 1000, "number of keys to insert")
	shuffle := flag.Bool("shuffle", true, "insert in random order")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := seed(cfg, log, *indexName, *count, *shuffle); err != nil {
		log.Error("seed failed", zap.Error(err))
		os.Exit(1)
	}
}

func seed(cfg config.Config, log *zap.Logger, name string, count int, shuffle bool) (err error) {
	se, err := storageengine.NewStorageEngine(cfg.Storage, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := se.Close(); err == nil {
			err = cerr
		}
	}()

	tree, err := se.Index(name)
	if err != nil {
		return err
	}

	order := make([]int, count)
	for i := range order {
		order[i] = i
	}
	if shuffle {
		rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	start := time.Now()
	inserted, skipped := 0, 0
	for _, i := range order {
		key := fmt.Sprintf("key-%08d", i)
		oid := bplus.ObjectID{PageNo: uint32(i / 64), SlotNo: uint16(i % 64), VolNo: 1, Unique: uint32(i)}
		switch err := tree.Insert([]byte(key), oid); {
		case err == nil:
			inserted++
		case errors.Is(err, bplus.ErrDuplicateKey):
			skipped++
		default:
			return errors.Wrapf(err, "insert %s", key)
		}
	}
	if err := tree.Flush(); err != nil {
		return err
	}

	leaves, err := tree.CheckRing()
	if err != nil {
		return err
	}
	s := se.Stats()
	fmt.Printf("inserted %s keys (%s already present) into %q in %s\n",
		humanize.Comma(int64(inserted)), humanize.Comma(int64(skipped)), name, time.Since(start).Round(time.Millisecond))
	fmt.Printf("%d leaves, %s on disk, pool hit rate %.1f%%\n",
		leaves, humanize.IBytes(uint64(s.FilePages)*uint64(s.PageSize)), s.Pool.HitRate*100)
	return nil
}
