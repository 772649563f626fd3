package indexfile

import (
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bplus "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/access/indexfile_manager/bplustree"
	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/bufferpool"
	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
)

func newManager(t *testing.T, dir string) (*IndexFileManager, *bufferpool.BufferPool) {
	t.Helper()
	dm, err := diskmanager.NewDiskManager(diskmanager.Options{PageSize: 512})
	require.NoError(t, err)
	t.Cleanup(func() { dm.CloseAll() })

	bp := bufferpool.NewBufferPool(32, dm, nil)
	ifm, err := NewIndexFileManager(dir, dm, bp, bplus.Options{})
	require.NoError(t, err)
	return ifm, bp
}

func TestGetOrCreateIndexCachesTrees(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "indexes")
	ifm, _ := newManager(t, dir)

	users, err := ifm.GetOrCreateIndex("users")
	require.NoError(t, err)
	again, err := ifm.GetOrCreateIndex("users")
	require.NoError(t, err)
	assert.Same(t, users, again)
	assert.FileExists(t, filepath.Join(dir, "users.idx"))

	orders, err := ifm.GetOrCreateIndex("orders")
	require.NoError(t, err)
	assert.NotEqual(t, users.FileID(), orders.FileID())

	names := ifm.Open()
	sort.Strings(names)
	assert.Equal(t, []string{"orders", "users"}, names)
	require.NoError(t, ifm.CloseAll())
	assert.Empty(t, ifm.Open())
}

func TestIndexesSurviveClose(t *testing.T) {
	dir := t.TempDir()
	ifm, bp := newManager(t, dir)

	tree, err := ifm.GetOrCreateIndex("accounts")
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		require.NoError(t, tree.Insert([]byte(fmt.Sprintf("acct-%05d", i)), bplus.ObjectID{PageNo: uint32(i), VolNo: 1}))
	}
	require.NoError(t, ifm.CloseIndex("accounts"))
	require.NoError(t, ifm.CloseIndex("accounts"), "closing twice is a no-op")
	assert.Zero(t, bp.Size())

	tree, err = ifm.LoadIndex("accounts")
	require.NoError(t, err)
	oids, err := tree.Lookup([]byte("acct-00123"))
	require.NoError(t, err)
	assert.Equal(t, []bplus.ObjectID{{PageNo: 123, VolNo: 1}}, oids)

	leaves, err := tree.CheckRing()
	require.NoError(t, err)
	assert.Greater(t, leaves, 1)
	require.NoError(t, ifm.CloseAll())
}

func TestLoadIndexRequiresFile(t *testing.T) {
	ifm, _ := newManager(t, t.TempDir())

	_, err := ifm.LoadIndex("missing")
	assert.True(t, errors.Is(err, ErrIndexNotFound), "%v", err)
	assert.Empty(t, ifm.Open())
}
