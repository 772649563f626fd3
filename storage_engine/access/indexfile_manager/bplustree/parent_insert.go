package bplus

import "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"

// insertIntoParent adds the separator of a split child that hangs off slot idx
// (-1 for p0) of the internal page pg. If pg overflows it splits in turn and
// the separator for its own parent is returned.
func (t *BPlusTree) insertIntoParent(pg *page.Page, idx int, ritem *InternalItem) (*InternalItem, error) {
	if placeEntry(viewOf(pg), idx+1, ritem.encode()) {
		return nil, nil
	}
	return t.SplitInternal(pg, idx, ritem)
}
