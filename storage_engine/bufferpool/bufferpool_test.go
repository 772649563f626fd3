package bufferpool

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
	"github.com/junyoungkim22/educosmos-Btree-manager/types"
)

func newTestPool(t *testing.T, capacity int) (*BufferPool, *diskmanager.DiskManager, uint32) {
	t.Helper()
	dm, err := diskmanager.NewDiskManager(diskmanager.Options{PageSize: 512})
	require.NoError(t, err)
	t.Cleanup(func() { dm.CloseAll() })

	fileID, err := dm.OpenFile(filepath.Join(t.TempDir(), "bp.idx"))
	require.NoError(t, err)
	return NewBufferPool(capacity, dm, nil), dm, fileID
}

func TestNewPageIsPinnedAndDirty(t *testing.T) {
	bp, _, fileID := newTestPool(t, 4)

	pg, err := bp.NewPage(fileID, types.PageTypeBPlusNode, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), pg.PinCount)
	assert.True(t, pg.IsDirty)
	assert.Len(t, pg.Data, 512)
	assert.Equal(t, uint32(1), pg.LocalID())

	require.NoError(t, bp.UnpinPage(pg.ID, false))
	assert.Equal(t, int32(0), bp.PinCount(pg.ID))
	assert.Equal(t, int32(-1), bp.PinCount(pg.ID+100))
}

func TestFetchHitsAndMisses(t *testing.T) {
	bp, _, fileID := newTestPool(t, 4)

	pg, err := bp.NewPage(fileID, types.PageTypeBPlusNode, 0)
	require.NoError(t, err)
	copy(pg.Data[32:], "payload")
	require.NoError(t, bp.UnpinPage(pg.ID, true))
	require.NoError(t, bp.FlushAllPages())
	require.NoError(t, bp.DeletePage(pg.ID))

	got, err := bp.FetchPage(pg.ID) // miss, from disk
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got.Data[32:39]))
	assert.Equal(t, types.PageTypeBPlusNode, got.PageType)

	again, err := bp.FetchPage(pg.ID) // hit
	require.NoError(t, err)
	assert.Same(t, got, again)
	assert.Equal(t, int32(2), again.PinCount)

	stats := bp.GetStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.PinnedPages)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestEvictionWritesBackDirtyPage(t *testing.T) {
	bp, dm, fileID := newTestPool(t, 2)

	first, err := bp.NewPage(fileID, types.PageTypeBPlusNode, 0)
	require.NoError(t, err)
	first.Data[40] = 0xAB
	require.NoError(t, bp.UnpinPage(first.ID, true))

	for i := 0; i < 2; i++ {
		pg, err := bp.NewPage(fileID, types.PageTypeBPlusNode, 0)
		require.NoError(t, err)
		require.NoError(t, bp.UnpinPage(pg.ID, true))
	}
	assert.Nil(t, bp.GetPage(first.ID), "least recently used frame should be gone")
	assert.Equal(t, 2, bp.Size())

	onDisk, err := dm.ReadPage(first.ID)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), onDisk.Data[40])
}

func TestAllPinnedFailsWithoutAllocating(t *testing.T) {
	bp, dm, fileID := newTestPool(t, 2)

	for i := 0; i < 2; i++ {
		_, err := bp.NewPage(fileID, types.PageTypeBPlusNode, 0)
		require.NoError(t, err)
	}
	before := dm.TotalPages()

	_, err := bp.NewPage(fileID, types.PageTypeBPlusNode, 0)
	assert.True(t, errors.Is(err, ErrAllPagesPinned), "got %v", err)
	_, err = bp.FetchPage(diskmanager.GlobalPageID(fileID, 9))
	assert.True(t, errors.Is(err, ErrAllPagesPinned), "got %v", err)
	assert.Equal(t, before, dm.TotalPages())
}

func TestDropFilePages(t *testing.T) {
	bp, _, fileID := newTestPool(t, 4)

	pg, err := bp.NewPage(fileID, types.PageTypeBPlusNode, 0)
	require.NoError(t, err)
	assert.True(t, errors.Is(bp.DropFilePages(fileID), ErrPagePinned))
	assert.True(t, errors.Is(bp.DeletePage(pg.ID), ErrPagePinned))

	require.NoError(t, bp.UnpinPage(pg.ID, false))
	require.NoError(t, bp.FlushAllPages(fileID))
	require.NoError(t, bp.DropFilePages(fileID))
	assert.Equal(t, 0, bp.Size())
	assert.True(t, errors.Is(bp.UnpinPage(pg.ID, false), ErrPageNotResident))
}

func TestMarkDirtyAndReset(t *testing.T) {
	bp, dm, fileID := newTestPool(t, 4)

	pg, err := bp.NewPage(fileID, types.PageTypeBPlusNode, 0)
	require.NoError(t, err)
	require.NoError(t, bp.UnpinPage(pg.ID, false))
	require.NoError(t, bp.FlushPage(pg.ID))
	assert.False(t, pg.IsDirty)

	pg.Data[100] = 7
	require.NoError(t, bp.MarkDirty(pg.ID))
	assert.Equal(t, 1, bp.GetStats().DirtyPages)

	require.NoError(t, bp.Reset())
	assert.Equal(t, 0, bp.Size())
	onDisk, err := dm.ReadPage(pg.ID)
	require.NoError(t, err)
	assert.Equal(t, byte(7), onDisk.Data[100])
}
