package bplus

import "encoding/binary"

/*
Entry formats, all little endian:

	internal: spid uint32 | klen uint16 | kval            size 4 + align(2+klen)
	leaf:     nObjects uint16 | klen uint16 | kval | oids size 4 + align(klen + 12*nObjects)
*/

const (
	alignment    = 4
	ObjectIDSize = 12
)

func align(n int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}

// ObjectID references a stored record.
type ObjectID struct {
	PageNo uint32
	VolNo  uint16
	SlotNo uint16
	Unique uint32
}

func (o ObjectID) put(b []byte) {
	binary.LittleEndian.PutUint32(b[0:], o.PageNo)
	binary.LittleEndian.PutUint16(b[4:], o.VolNo)
	binary.LittleEndian.PutUint16(b[6:], o.SlotNo)
	binary.LittleEndian.PutUint32(b[8:], o.Unique)
}

func readObjectID(b []byte) ObjectID {
	return ObjectID{
		PageNo: binary.LittleEndian.Uint32(b[0:]),
		VolNo:  binary.LittleEndian.Uint16(b[4:]),
		SlotNo: binary.LittleEndian.Uint16(b[6:]),
		Unique: binary.LittleEndian.Uint32(b[8:]),
	}
}

func internalEntrySize(klen int) int {
	return 4 + align(2+klen)
}

func leafEntrySize(klen, nObjects int) int {
	return 4 + align(klen+ObjectIDSize*nObjects)
}

// InternalItem is an internal entry held outside a page: the separator a split
// hands to the parent, or the entry being inserted into an internal page.
type InternalItem struct {
	Spid uint32 // local page number of the child holding keys >= Key
	Key  []byte
}

func (it *InternalItem) size() int {
	return internalEntrySize(len(it.Key))
}

func (it *InternalItem) encode() []byte {
	b := make([]byte, it.size())
	binary.LittleEndian.PutUint32(b[0:], it.Spid)
	binary.LittleEndian.PutUint16(b[4:], uint16(len(it.Key)))
	copy(b[6:], it.Key)
	return b
}

// LeafItem is a leaf entry held outside a page. Inserts carry exactly one ObjectID.
type LeafItem struct {
	Key  []byte
	Oids []ObjectID
}

func (it *LeafItem) size() int {
	return leafEntrySize(len(it.Key), len(it.Oids))
}

func (it *LeafItem) encode() []byte {
	b := make([]byte, it.size())
	binary.LittleEndian.PutUint16(b[0:], uint16(len(it.Oids)))
	binary.LittleEndian.PutUint16(b[2:], uint16(len(it.Key)))
	copy(b[4:], it.Key)
	for i, oid := range it.Oids {
		oid.put(b[4+len(it.Key)+i*ObjectIDSize:])
	}
	return b
}

type internalEntry []byte

func (e internalEntry) spid() uint32 { return binary.LittleEndian.Uint32(e[0:]) }
func (e internalEntry) klen() int    { return int(binary.LittleEndian.Uint16(e[4:])) }
func (e internalEntry) key() []byte  { return e[6 : 6+e.klen()] }

type leafEntry []byte

func (e leafEntry) nObjects() int { return int(binary.LittleEndian.Uint16(e[0:])) }
func (e leafEntry) klen() int     { return int(binary.LittleEndian.Uint16(e[2:])) }
func (e leafEntry) key() []byte   { return e[4 : 4+e.klen()] }

func (e leafEntry) oids() []ObjectID {
	base := 4 + e.klen()
	out := make([]ObjectID, e.nObjects())
	for i := range out {
		out[i] = readObjectID(e[base+i*ObjectIDSize:])
	}
	return out
}

// MaxKeyLen is the longest key a page of pageSize bytes accepts: a one-object leaf
// entry plus its slot stays within a quarter of the page capacity, so both halves
// of any split fit their pages.
func MaxKeyLen(pageSize int) int {
	quarter := (pageSize - headerSize) / 4
	return (quarter-4-slotSize)&^(alignment-1) - ObjectIDSize
}
