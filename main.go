package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junyoungkim22/educosmos-Btree-manager/config"
	"github.com/junyoungkim22/educosmos-Btree-manager/logger"
	storageengine "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine"
	bplus "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/access/indexfile_manager/bplustree"
)

const help = `commands:
  put <key> [page slot]   insert key (object id defaults to a counter)
  get <key>               look up key
  del <key>               delete key
  scan [from] [to]        list keys in [from, to]
  check                   verify the leaf ring
  stats                   buffer pool and file statistics
  exit`

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults when empty)")
	indexName := flag.String("index", "main", "index to open")
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

	se, err := storageengine.NewStorageEngine(cfg.Storage, log)
	if err != nil {
		log.Fatal("open storage", zap.Error(err))
	}
	defer func() {
		if err := se.Close(); err != nil {
			log.Error("close storage", zap.Error(err))
		}
	}()

	tree, err := se.Index(*indexName)
	if err != nil {
		log.Error("open index", zap.String("index", *indexName), zap.Error(err))
		return
	}

	r := &repl{se: se, tree: tree}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("idx> ")
		if !scanner.Scan() { // Ctrl+D pressed
			break
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if strings.EqualFold(fields[0], "exit") {
			break
		}
		if err := r.run(fields); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

type repl struct {
	se   *storageengine.StorageEngine
	tree *bplus.BPlusTree
	seq  uint32
}

func (r *repl) run(fields []string) error {
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "put":
		if len(args) != 1 && len(args) != 3 {
			return errors.New("usage: put <key> [page slot]")
		}
		oid, err := r.objectID(args[1:])
		if err != nil {
			return err
		}
		if err := r.tree.Insert([]byte(args[0]), oid); err != nil {
			return err
		}
		fmt.Printf("ok %s -> %s\n", args[0], formatOID(oid))

	case "get":
		if len(args) != 1 {
			return errors.New("usage: get <key>")
		}
		oids, err := r.tree.Lookup([]byte(args[0]))
		if err != nil {
			return err
		}
		for _, oid := range oids {
			fmt.Printf("%s -> %s\n", args[0], formatOID(oid))
		}

	case "del":
		if len(args) != 1 {
			return errors.New("usage: del <key>")
		}
		if err := r.tree.Delete([]byte(args[0])); err != nil {
			return err
		}
		fmt.Println("ok")

	case "scan":
		var from, to []byte
		if len(args) > 0 {
			from = []byte(args[0])
		}
		if len(args) > 1 {
			to = []byte(args[1])
		}
		n := 0
		err := r.tree.Scan(from, to, func(key []byte, oids []bplus.ObjectID) bool {
			n++
			fmt.Printf("%s -> %s\n", key, formatOID(oids[0]))
			return true
		})
		if err != nil {
			return err
		}
		fmt.Printf("(%s keys)\n", humanize.Comma(int64(n)))

	case "check":
		leaves, err := r.tree.CheckRing()
		if err != nil {
			return err
		}
		fmt.Printf("leaf ring ok: %d leaves\n", leaves)

	case "stats":
		s := r.se.Stats()
		fmt.Printf("indexes:     %s\n", strings.Join(s.OpenIndexes, ", "))
		fmt.Printf("file pages:  %s (%s)\n", humanize.Comma(s.FilePages), humanize.IBytes(uint64(s.FilePages)*uint64(s.PageSize)))
		fmt.Printf("pool:        %d/%d frames, %d pinned, %d dirty\n", s.Pool.TotalPages, s.Pool.Capacity, s.Pool.PinnedPages, s.Pool.DirtyPages)
		fmt.Printf("hit rate:    %.1f%% (%s hits, %s misses)\n", s.Pool.HitRate*100, humanize.Comma(int64(s.Pool.Hits)), humanize.Comma(int64(s.Pool.Misses)))

	case "help":
		fmt.Println(help)

	default:
		return errors.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func (r *repl) objectID(args []string) (bplus.ObjectID, error) {
	if len(args) == 0 {
		r.seq++
		return bplus.ObjectID{PageNo: r.seq, Unique: r.seq}, nil
	}
	pageNo, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return bplus.ObjectID{}, errors.Wrap(err, "page")
	}
	slotNo, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		return bplus.ObjectID{}, errors.Wrap(err, "slot")
	}
	return bplus.ObjectID{PageNo: uint32(pageNo), SlotNo: uint16(slotNo)}, nil
}

func formatOID(oid bplus.ObjectID) string {
	return fmt.Sprintf("(vol %d, page %d, slot %d, unique %d)", oid.VolNo, oid.PageNo, oid.SlotNo, oid.Unique)
}
