package bplus

import (
	"github.com/pkg/errors"

	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"
)

// findLeaf descends from the root to the leaf covering key, nil key meaning the
// leftmost leaf. The leaf comes back pinned; the caller must releaseNode.
func (t *BPlusTree) findLeaf(key []byte) (int64, *page.Page, error) {
	pid := t.root
	for {
		pg, p, err := t.fetchNode(pid)
		if err != nil {
			return 0, nil, errors.Wrap(err, "findLeaf")
		}
		if p.isLeaf() {
			return pid, pg, nil
		}

		idx := -1
		if key != nil {
			idx = searchInternal(p, key, t.cmp)
		}
		child := p.child(idx)
		t.releaseNode(pid, false)
		if child == nilPage {
			return 0, nil, errors.Wrapf(ErrBadIndexFile, "internal page %d has no child at slot %d", pid, idx)
		}
		pid = t.globalID(child)
	}
}

// leftmostLeaf returns the local page number of the first leaf in key order.
func (t *BPlusTree) leftmostLeaf() (uint32, error) {
	pid, _, err := t.findLeaf(nil)
	if err != nil {
		return 0, err
	}
	t.releaseNode(pid, false)
	return diskmanager.LocalPageID(pid), nil
}
