package bplus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageViewSlots(t *testing.T) {
	env := newTestEnv(t, smallPage, 8, 0)
	pid, pg := newNodePage(t, env.tree, flagLeaf)
	defer env.bp.UnpinPage(pid, true)
	p := viewOf(pg)

	assert.True(t, p.isLeaf())
	assert.Equal(t, pg.LocalID(), p.pid())
	assert.Equal(t, smallPage-headerSize, p.capacity())
	assert.Equal(t, p.capacity(), p.available())

	// 10 then 30 then 20, slots kept in key order
	for _, n := range []int{10, 30} {
		require.NoError(t, appendTo(p, leafItem(key24(n), n).encode()))
	}
	p.insertSlot(1, p.appendEntry(leafItem(key24(20), 20).encode()))

	assert.Equal(t, [][]byte{key24(10), key24(20), key24(30)}, keysOf(p))
	assert.Equal(t, 3*(40+slotSize), p.usedBytes())
	assert.Equal(t, p.capacity()-p.usedBytes(), p.contiguousFree())
	assert.Equal(t, []ObjectID{oidFor(20)}, leafEntry(p.entryAt(1)).oids())
}

func TestCompactReclaimsRemovedEntries(t *testing.T) {
	env := newTestEnv(t, smallPage, 8, 0)
	pid, pg := newNodePage(t, env.tree, flagLeaf)
	defer env.bp.UnpinPage(pid, true)
	p := viewOf(pg)

	for n := 0; n < 5; n++ {
		require.NoError(t, appendTo(p, leafItem(key24(n), n).encode()))
	}
	p.removeSlot(1)
	p.removeSlot(2) // originally key 3
	assert.Equal(t, 80, p.unused())
	assert.Equal(t, 200, p.free())

	compactLeafPage(p, noSlot)

	assert.Equal(t, 0, p.unused())
	assert.Equal(t, 120, p.free())
	assert.Equal(t, [][]byte{key24(0), key24(2), key24(4)}, keysOf(p))
	for i := 0; i < p.slotCount(); i++ {
		assert.Equal(t, i*40, p.slot(i), "slot %d", i)
	}
	assert.Equal(t, []ObjectID{oidFor(4)}, leafEntry(p.entryAt(2)).oids())
}

func TestCompactPlacesExcludedSlotLast(t *testing.T) {
	env := newTestEnv(t, smallPage, 8, 0)
	pid, pg := newNodePage(t, env.tree, flagInternal)
	defer env.bp.UnpinPage(pid, true)
	p := viewOf(pg)

	fillInternal(t, pg,
		&InternalItem{Spid: 11, Key: []byte("a")},
		&InternalItem{Spid: 12, Key: []byte("bbbbbbbbbb")},
		&InternalItem{Spid: 13, Key: []byte("cc")},
	)
	sizeB := internalEntrySize(10)
	total := entryBytes(p)

	compactInternalPage(p, 1)

	assert.Equal(t, total, p.free())
	assert.Equal(t, total-sizeB, p.slot(1), "excluded entry sits at the end")
	assert.Equal(t, 0, p.slot(0))
	assert.Equal(t, internalEntrySize(1), p.slot(2))
	assert.Equal(t, [][]byte{[]byte("a"), []byte("bbbbbbbbbb"), []byte("cc")}, keysOf(p))
	assert.Equal(t, uint32(12), p.child(1))
}

func TestTruncateThenCompact(t *testing.T) {
	env := newTestEnv(t, smallPage, 8, 0)
	pid, pg := newNodePage(t, env.tree, flagInternal)
	defer env.bp.UnpinPage(pid, true)
	p := viewOf(pg)

	for n := 0; n < 6; n++ {
		fillInternal(t, pg, &InternalItem{Spid: uint32(100 + n), Key: key24(n)})
	}
	p.truncate(3)
	compactInternalPage(p, noSlot)

	assert.Equal(t, 3*internalEntrySize(24), p.free())
	assert.Equal(t, [][]byte{key24(0), key24(1), key24(2)}, keysOf(p))
	assert.Equal(t, p.capacity()-p.usedBytes(), p.contiguousFree())
}

func TestEntrySizes(t *testing.T) {
	assert.Equal(t, 40, leafEntrySize(24, 1))
	assert.Equal(t, 32, internalEntrySize(24))
	assert.Equal(t, 8, internalEntrySize(1))
	assert.Equal(t, 20, leafEntrySize(1, 1))

	assert.Equal(t, 996, MaxKeyLen(4096))
	assert.Equal(t, 84, MaxKeyLen(smallPage))
	// the longest key's leaf entry and slot fill at most a quarter of the page
	assert.LessOrEqual(t, leafEntrySize(84, 1)+slotSize, (smallPage-headerSize)/4)
	assert.LessOrEqual(t, leafEntrySize(996, 1)+slotSize, (4096-headerSize)/4)
}
