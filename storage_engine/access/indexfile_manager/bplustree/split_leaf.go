package bplus

import (
	"bytes"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"
)

// SplitLeaf splits the full leaf fpage (global id pid) while inserting item after slot high.
//
// The merged sequence is cut where the left part first reaches half the page; the
// left part is rebuilt in fpage, the rest goes to a new right page which is spliced
// into the leaf ring right after fpage. The returned item carries a copy of the
// right page's first key and the right page number. fpage loses the ROOT flag.
//
// If the successor leaf cannot be pinned nothing in fpage or the ring has changed,
// but the right page stays allocated.
//
// fpage must be pinned by the caller, who also marks it dirty and unpins it.
func (t *BPlusTree) SplitLeaf(pid int64, fpage *page.Page, high int, item *LeafItem) (*InternalItem, error) {
	fp := viewOf(fpage)
	if err := checkHigh(fp, high); err != nil {
		return nil, err
	}
	n := fp.slotCount() + 1
	if n < 2 {
		return nil, errors.Wrapf(ErrSplitInvariant, "leaf %d has %d entries to split", pid, n)
	}

	oldNext := fp.next()
	if oldNext == nilPage {
		return nil, errors.Wrapf(ErrBrokenRing, "leaf %d has no successor", pid)
	}

	itemBytes := item.encode()
	left := min(max(halfFill(fp, high, itemBytes), 1), n-1)

	newPid, err := t.allocPage(pid)
	if err != nil {
		return nil, errors.Wrap(err, "SplitLeaf")
	}
	if err := t.initLeaf(newPid, false, t.temporary); err != nil {
		return nil, errors.Wrap(err, "SplitLeaf")
	}
	rpage, err := t.bufferPool.FetchPage(newPid)
	if err != nil {
		return nil, errors.Wrapf(err, "SplitLeaf: pin new page %d", newPid)
	}
	defer t.releaseNode(newPid, true)
	rp := viewOf(rpage)

	nextPid := t.globalID(oldNext)
	npage, err := t.bufferPool.FetchPage(nextPid)
	if err != nil {
		return nil, errors.Wrapf(err, "SplitLeaf: pin successor %d", nextPid)
	}
	defer t.releaseNode(nextPid, true)

	// read from a snapshot, write the left half into scratch, then swap it in
	snapshot := nodePage{data: bytes.Clone(fpage.Data)}
	scratch := nodePage{data: make([]byte, len(fpage.Data))}
	copy(scratch.data[:headerSize], fpage.Data[:headerSize])
	scratch.setSlotCount(0)
	scratch.setFree(0)
	scratch.setUnused(0)

	for i := 0; i < left; i++ {
		if err := appendTo(scratch, mergedEntry(snapshot, high, itemBytes, i)); err != nil {
			return nil, err
		}
	}
	for i := left; i < n; i++ {
		if err := appendTo(rp, mergedEntry(snapshot, high, itemBytes, i)); err != nil {
			return nil, err
		}
	}
	copy(fpage.Data, scratch.data)

	// splice: fpage -> right -> old successor. The successor is fpage itself
	// when fpage was the only leaf; then npage shares fpage's frame.
	rp.setNext(oldNext)
	rp.setPrev(fp.pid())
	fp.setNext(rp.pid())
	viewOf(npage).setPrev(rp.pid())

	ritem := &InternalItem{Spid: rp.pid(), Key: bytes.Clone(rp.key(0))}
	fp.clearFlag(flagRoot)

	if err := t.bufferPool.MarkDirty(pid); err != nil {
		return nil, errors.Wrap(err, "SplitLeaf")
	}

	t.log.Debug("split leaf",
		zap.Uint32("page", fp.pid()),
		zap.Uint32("right", rp.pid()),
		zap.Uint32("next", oldNext),
		zap.Int("left_slots", fp.slotCount()),
		zap.Int("right_slots", rp.slotCount()))
	return ritem, nil
}
