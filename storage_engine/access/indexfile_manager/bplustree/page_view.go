package bplus

import (
	"encoding/binary"

	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"
	"github.com/junyoungkim22/educosmos-Btree-manager/types"
)

/*
Layout of a B+ tree page inside a buffer pool frame:

	0..8    checksum + page type, owned by the disk manager
	9       flags (INTERNAL, LEAF, ROOT, TEMPORARY)
	10..11  nSlots
	12..13  free     first free byte of the entry region
	14..15  unused   bytes of dead entries below free
	16..19  pid      local page number of this page
	20..23  p0       leftmost child (internal)
	24..27  nextPage (leaf ring)
	28..31  prevPage (leaf ring)
	32..    entry region, growing up
	   ...  slot array, growing down: slot i is the uint16 at pageSize-2*(i+1)

Entry offsets stored in slots are relative to the start of the entry region.
*/

const (
	offFlags  = types.PageTypeOffset + 1
	offNSlots = 10
	offFree   = 12
	offUnused = 14
	offPID    = 16
	offP0     = 20
	offNext   = 24
	offPrev   = 28

	headerSize = 32
	slotSize   = 2

	noSlot = -1

	// local page 0 is the metadata page, so it never names a node
	nilPage uint32 = 0
)

type pageFlags uint8

const (
	flagInternal  pageFlags = 0x01
	flagLeaf      pageFlags = 0x02
	flagRoot      pageFlags = 0x04
	flagTemporary pageFlags = 0x08
)

// nodePage is a view over the bytes of a pinned frame. It never owns the memory.
type nodePage struct {
	data []byte
}

func viewOf(pg *page.Page) nodePage {
	return nodePage{data: pg.Data}
}

func (p nodePage) u16(off int) int          { return int(binary.LittleEndian.Uint16(p.data[off:])) }
func (p nodePage) putU16(off, v int)        { binary.LittleEndian.PutUint16(p.data[off:], uint16(v)) }
func (p nodePage) u32(off int) uint32       { return binary.LittleEndian.Uint32(p.data[off:]) }
func (p nodePage) putU32(off int, v uint32) { binary.LittleEndian.PutUint32(p.data[off:], v) }

func (p nodePage) flags() pageFlags      { return pageFlags(p.data[offFlags]) }
func (p nodePage) setFlags(f pageFlags)  { p.data[offFlags] = byte(f) }
func (p nodePage) has(f pageFlags) bool  { return p.flags()&f != 0 }
func (p nodePage) clearFlag(f pageFlags) { p.setFlags(p.flags() &^ f) }
func (p nodePage) isLeaf() bool          { return p.has(flagLeaf) }
func (p nodePage) isInternal() bool      { return p.has(flagInternal) }
func (p nodePage) isRoot() bool          { return p.has(flagRoot) }

func (p nodePage) slotCount() int     { return p.u16(offNSlots) }
func (p nodePage) setSlotCount(n int) { p.putU16(offNSlots, n) }
func (p nodePage) free() int          { return p.u16(offFree) }
func (p nodePage) setFree(n int)      { p.putU16(offFree, n) }
func (p nodePage) unused() int        { return p.u16(offUnused) }
func (p nodePage) setUnused(n int)    { p.putU16(offUnused, n) }
func (p nodePage) pid() uint32        { return p.u32(offPID) }
func (p nodePage) setPid(v uint32)    { p.putU32(offPID, v) }
func (p nodePage) p0() uint32         { return p.u32(offP0) }
func (p nodePage) setP0(v uint32)     { p.putU32(offP0, v) }
func (p nodePage) next() uint32       { return p.u32(offNext) }
func (p nodePage) setNext(v uint32)   { p.putU32(offNext, v) }
func (p nodePage) prev() uint32       { return p.u32(offPrev) }
func (p nodePage) setPrev(v uint32)   { p.putU32(offPrev, v) }

// init turns the page into an empty node. Bytes 0..8 are left alone.
func (p nodePage) init(pid uint32, flags pageFlags) {
	clear(p.data[offFlags:])
	p.setFlags(flags)
	p.setPid(pid)
}

// capacity is the number of bytes shared by the entry region and the slot array.
func (p nodePage) capacity() int {
	return len(p.data) - headerSize
}

func (p nodePage) region() []byte {
	return p.data[headerSize:]
}

func (p nodePage) slotPos(i int) int {
	return len(p.data) - slotSize*(i+1)
}

func (p nodePage) slot(i int) int     { return p.u16(p.slotPos(i)) }
func (p nodePage) setSlot(i, off int) { p.putU16(p.slotPos(i), off) }

// entrySizeAt decodes the length of the entry stored at region offset off.
func (p nodePage) entrySizeAt(off int) int {
	r := p.region()
	if p.isInternal() {
		return internalEntrySize(int(binary.LittleEndian.Uint16(r[off+4:])))
	}
	n := int(binary.LittleEndian.Uint16(r[off:]))
	klen := int(binary.LittleEndian.Uint16(r[off+2:]))
	return leafEntrySize(klen, n)
}

func (p nodePage) entryAt(i int) []byte {
	off := p.slot(i)
	return p.region()[off : off+p.entrySizeAt(off)]
}

func (p nodePage) key(i int) []byte {
	if p.isInternal() {
		return internalEntry(p.entryAt(i)).key()
	}
	return leafEntry(p.entryAt(i)).key()
}

// child returns the page followed for slot i, p0 for i == -1.
func (p nodePage) child(i int) uint32 {
	if i < 0 {
		return p.p0()
	}
	return internalEntry(p.entryAt(i)).spid()
}

// contiguousFree is the gap between the end of the entries and the slot array.
func (p nodePage) contiguousFree() int {
	return p.capacity() - p.free() - slotSize*p.slotCount()
}

// available counts the gap plus what a compaction would reclaim.
func (p nodePage) available() int {
	return p.contiguousFree() + p.unused()
}

// usedBytes sums the live entries and their slots.
func (p nodePage) usedBytes() int {
	used := slotSize * p.slotCount()
	for i := 0; i < p.slotCount(); i++ {
		used += len(p.entryAt(i))
	}
	return used
}

// appendEntry copies b at free and returns its region offset. The caller checks room.
func (p nodePage) appendEntry(b []byte) int {
	off := p.free()
	copy(p.region()[off:], b)
	p.setFree(off + len(b))
	return off
}

// insertSlot opens slot pos, shifting pos..n-1 up by one.
func (p nodePage) insertSlot(pos, off int) {
	n := p.slotCount()
	for i := n; i > pos; i-- {
		p.setSlot(i, p.slot(i-1))
	}
	p.setSlot(pos, off)
	p.setSlotCount(n + 1)
}

// removeSlot drops slot pos and accounts its entry as unused.
func (p nodePage) removeSlot(pos int) {
	n := p.slotCount()
	p.setUnused(p.unused() + len(p.entryAt(pos)))
	for i := pos; i < n-1; i++ {
		p.setSlot(i, p.slot(i+1))
	}
	p.setSlotCount(n - 1)
}

// truncate keeps the first n slots. Entries of dropped slots stay until compaction.
func (p nodePage) truncate(n int) {
	p.setSlotCount(n)
}

// fits reports whether an entry of size bytes plus its slot can go in without compaction.
func (p nodePage) fits(size int) bool {
	return p.contiguousFree() >= size+slotSize
}
