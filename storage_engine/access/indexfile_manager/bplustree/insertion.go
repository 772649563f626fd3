package bplus

import (
	"github.com/pkg/errors"

	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"
)

// Insert adds key -> oid. Keys are unique; an existing key is ErrDuplicateKey.
func (t *BPlusTree) Insert(key []byte, oid ObjectID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit := MaxKeyLen(t.diskManager.PageSize()); len(key) > limit {
		return errors.Wrapf(ErrKeyTooLong, "%d bytes, limit %d", len(key), limit)
	}

	item := &LeafItem{Key: key, Oids: []ObjectID{oid}}
	ritem, err := t.insert(t.root, item)
	if err != nil {
		return errors.Wrap(err, "Insert")
	}
	if ritem != nil {
		return t.rootInsert(ritem)
	}
	return nil
}

// insert puts item into the subtree under pid and returns the separator for
// pid's parent when pid had to split.
func (t *BPlusTree) insert(pid int64, item *LeafItem) (*InternalItem, error) {
	pg, p, err := t.fetchNode(pid)
	if err != nil {
		return nil, err
	}
	dirty := false
	defer func() { t.releaseNode(pid, dirty) }()

	if p.isLeaf() {
		ritem, err := t.insertLeaf(pid, pg, item)
		dirty = err == nil
		return ritem, err
	}

	idx := searchInternal(p, item.Key, t.cmp)
	ritem, err := t.insert(t.globalID(p.child(idx)), item)
	if err != nil || ritem == nil {
		return nil, err
	}
	dirty = true
	return t.insertIntoParent(pg, idx, ritem)
}

func (t *BPlusTree) insertLeaf(pid int64, pg *page.Page, item *LeafItem) (*InternalItem, error) {
	p := viewOf(pg)
	high, found := searchLeaf(p, item.Key, t.cmp)
	if found {
		return nil, errors.Wrapf(ErrDuplicateKey, "%q", item.Key)
	}

	if placeEntry(p, high+1, item.encode()) {
		return nil, nil
	}
	return t.SplitLeaf(pid, pg, high, item)
}

// placeEntry inserts e at slot pos when the page has room, compacting first if
// only the dead bytes make room.
func placeEntry(p nodePage, pos int, e []byte) bool {
	if !p.fits(len(e)) {
		if p.available() < len(e)+slotSize {
			return false
		}
		compact(p, noSlot)
	}
	p.insertSlot(pos, p.appendEntry(e))
	return true
}
