package bplus

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/bufferpool"
	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"
)

// smallPage gives a 420 byte capacity: half is 210, ten 40 byte leaf entries fill it.
const smallPage = 452

type testEnv struct {
	tree *BPlusTree
	dm   *diskmanager.DiskManager
	bp   *bufferpool.BufferPool
	path string
}

func newTestEnv(t *testing.T, pageSize, poolPages int, maxPages int64) *testEnv {
	t.Helper()
	dm, err := diskmanager.NewDiskManager(diskmanager.Options{PageSize: pageSize, MaxPagesPerFile: maxPages})
	require.NoError(t, err)
	t.Cleanup(func() { dm.CloseAll() })

	bp := bufferpool.NewBufferPool(poolPages, dm, nil)
	path := filepath.Join(t.TempDir(), "test.idx")
	tree, err := OpenBPlusTree(path, 1, bp, dm, Options{})
	require.NoError(t, err)
	return &testEnv{tree: tree, dm: dm, bp: bp, path: path}
}

// key24 is a 24 byte key ordered by n.
func key24(n int) []byte {
	return []byte(fmt.Sprintf("key-%020d", n))
}

func oidFor(n int) ObjectID {
	return ObjectID{PageNo: uint32(n), VolNo: 1, SlotNo: uint16(n % 100), Unique: uint32(n * 7)}
}

func leafItem(key []byte, n int) *LeafItem {
	return &LeafItem{Key: key, Oids: []ObjectID{oidFor(n)}}
}

// newNodePage allocates and formats a page and returns it pinned.
func newNodePage(t *testing.T, tree *BPlusTree, kind pageFlags) (int64, *page.Page) {
	t.Helper()
	pid, err := tree.allocPage(0)
	require.NoError(t, err)
	require.NoError(t, tree.initNode(pid, kind, false, false))
	pg, err := tree.bufferPool.FetchPage(pid)
	require.NoError(t, err)
	return pid, pg
}

func fillLeaf(t *testing.T, pg *page.Page, items ...*LeafItem) {
	t.Helper()
	p := viewOf(pg)
	for _, it := range items {
		require.NoError(t, appendTo(p, it.encode()))
	}
}

func fillInternal(t *testing.T, pg *page.Page, items ...*InternalItem) {
	t.Helper()
	p := viewOf(pg)
	for _, it := range items {
		require.NoError(t, appendTo(p, it.encode()))
	}
}

// link makes the given leaves a ring in argument order.
func link(pages ...*page.Page) {
	for i, pg := range pages {
		next := pages[(i+1)%len(pages)]
		prev := pages[(i+len(pages)-1)%len(pages)]
		viewOf(pg).setNext(next.LocalID())
		viewOf(pg).setPrev(prev.LocalID())
	}
}

func keysOf(p nodePage) [][]byte {
	keys := make([][]byte, p.slotCount())
	for i := range keys {
		keys[i] = append([]byte(nil), p.key(i)...)
	}
	return keys
}

func entryBytes(p nodePage) int {
	sum := 0
	for i := 0; i < p.slotCount(); i++ {
		sum += len(p.entryAt(i))
	}
	return sum
}

// insertAt returns s with v inserted at index i, leaving s untouched.
func insertAt[T any](s []T, i int, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, v)
	return append(out, s[i:]...)
}
