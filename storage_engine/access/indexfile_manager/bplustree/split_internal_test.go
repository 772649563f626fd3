package bplus

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
)

// twelveInternalItems are 32 byte entries; twelve of them with slots take 408 of 420 bytes.
func twelveInternalItems() []*InternalItem {
	var items []*InternalItem
	for n := 1; n <= 12; n++ {
		items = append(items, &InternalItem{Spid: uint32(100 + n), Key: key24(n * 10)})
	}
	return items
}

func TestSplitInternalEveryPosition(t *testing.T) {
	originals := twelveInternalItems()

	for high := -1; high < len(originals); high++ {
		env := newTestEnv(t, smallPage, 16, 0)
		fPid, f := newNodePage(t, env.tree, flagInternal)
		fp := viewOf(f)
		fp.setFlags(flagInternal | flagRoot)
		fp.setP0(99)
		fillInternal(t, f, originals...)
		before := entryBytes(fp)

		item := &InternalItem{Spid: 555, Key: key24((high+1)*10 + 5)}
		require.False(t, fp.fits(item.size()), "page must be full")

		ritem, err := env.tree.SplitInternal(f, high, item)
		require.NoError(t, err, "high %d", high)

		rPid := env.tree.globalID(ritem.Spid)
		_, right, err := env.tree.fetchNode(rPid)
		require.NoError(t, err)

		merged := insertAt(originals, high+1, item)
		l := fp.slotCount()
		require.Less(t, l, len(merged)-1, "high %d", high)
		promoted := merged[l]

		var wantLeft, wantRight [][]byte
		for _, it := range merged[:l] {
			wantLeft = append(wantLeft, it.Key)
		}
		for _, it := range merged[l+1:] {
			wantRight = append(wantRight, it.Key)
		}
		assert.Equal(t, wantLeft, keysOf(fp), "high %d: left", high)
		assert.Equal(t, wantRight, keysOf(right), "high %d: right", high)
		for i := 0; i < l; i++ {
			assert.Equal(t, merged[i].Spid, fp.child(i))
		}
		for i := 0; i < right.slotCount(); i++ {
			assert.Equal(t, merged[l+1+i].Spid, right.child(i))
		}

		assert.Equal(t, promoted.Key, ritem.Key, "high %d: separator", high)
		assert.Equal(t, promoted.Spid, right.p0(), "high %d: right p0", high)
		assert.Equal(t, uint32(99), fp.p0())
		assert.Equal(t, right.pid(), ritem.Spid)

		assert.Positive(t, l)
		assert.Positive(t, right.slotCount())
		assert.Equal(t, before+item.size(), entryBytes(fp)+entryBytes(right)+promoted.size(), "high %d: bytes", high)
		assert.Equal(t, entryBytes(fp), fp.free(), "left is compacted")
		assert.Zero(t, fp.unused())
		assert.False(t, fp.isRoot())
		assert.True(t, right.isInternal())

		// the left part is the shortest prefix reaching half the page
		half := fp.capacity() / 2
		sum := 0
		for _, it := range merged[:l-1] {
			sum += it.size() + slotSize
		}
		assert.Less(t, sum, half, "high %d", high)
		sum += merged[l-1].size() + slotSize
		assert.GreaterOrEqual(t, sum, half, "high %d", high)

		env.tree.releaseNode(rPid, false)
		require.NoError(t, env.bp.UnpinPage(fPid, true))
		assert.Zero(t, env.bp.GetStats().PinnedPages)
	}
}

func TestSplitInternalMinimalPage(t *testing.T) {
	env := newTestEnv(t, smallPage, 16, 0)
	fPid, f := newNodePage(t, env.tree, flagInternal)
	defer env.bp.UnpinPage(fPid, true)
	fp := viewOf(f)
	fp.setP0(7)
	fillInternal(t, f, &InternalItem{Spid: 8, Key: []byte("m")}, &InternalItem{Spid: 9, Key: []byte("t")})

	ritem, err := env.tree.SplitInternal(f, 0, &InternalItem{Spid: 10, Key: []byte("p")})
	require.NoError(t, err)

	rPid := env.tree.globalID(ritem.Spid)
	_, right, err := env.tree.fetchNode(rPid)
	require.NoError(t, err)
	defer env.tree.releaseNode(rPid, false)

	assert.Equal(t, [][]byte{[]byte("m")}, keysOf(fp))
	assert.Equal(t, []byte("p"), ritem.Key)
	assert.Equal(t, uint32(10), right.p0())
	assert.Equal(t, [][]byte{[]byte("t")}, keysOf(right))
}

func TestSplitInternalRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, smallPage, 16, 0)
	fPid, f := newNodePage(t, env.tree, flagInternal)
	defer env.bp.UnpinPage(fPid, true)
	item := &InternalItem{Spid: 1, Key: []byte("k")}

	// two entries cannot feed left, separator and right
	fillInternal(t, f, &InternalItem{Spid: 2, Key: []byte("a")})
	_, err := env.tree.SplitInternal(f, 0, item)
	assert.True(t, errors.Is(err, ErrSplitInvariant), "%v", err)

	fillInternal(t, f, &InternalItem{Spid: 3, Key: []byte("z")})
	for _, high := range []int{-3, 2, 100} {
		_, err := env.tree.SplitInternal(f, high, item)
		assert.True(t, errors.Is(err, ErrSplitInvariant), "high %d: %v", high, err)
	}
}

func TestSplitInternalAllocationFailure(t *testing.T) {
	// metadata, root and the internal page use all three pages
	env := newTestEnv(t, smallPage, 16, 3)
	fPid, f := newNodePage(t, env.tree, flagInternal)
	defer env.bp.UnpinPage(fPid, true)
	fillInternal(t, f, twelveInternalItems()...)
	snapshot := bytes.Clone(f.Data)

	_, err := env.tree.SplitInternal(f, 3, &InternalItem{Spid: 555, Key: key24(45)})
	assert.True(t, errors.Is(err, diskmanager.ErrNoFreePage), "%v", err)
	assert.Equal(t, snapshot, f.Data)
}
