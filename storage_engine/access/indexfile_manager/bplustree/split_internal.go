package bplus

import (
	"bytes"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"
)

// SplitInternal splits the full internal page fpage while inserting item after slot high.
//
// fpage keeps the left part of the merged sequence. The entry right after it is
// promoted: its child becomes p0 of the new right page and its key goes to the
// parent through the returned item, so it ends up in neither page. The rest moves
// to the right page. fpage loses the ROOT flag.
//
// fpage must be pinned by the caller, who also marks it dirty and unpins it.
func (t *BPlusTree) SplitInternal(fpage *page.Page, high int, item *InternalItem) (*InternalItem, error) {
	fp := viewOf(fpage)
	if err := checkHigh(fp, high); err != nil {
		return nil, err
	}
	n := fp.slotCount() + 1
	if n < 3 {
		return nil, errors.Wrapf(ErrSplitInvariant, "internal page %d has %d entries to split", fpage.ID, n)
	}

	itemBytes := item.encode()
	// j is the last merged position kept on the left; one entry is promoted
	// and at least one goes right.
	j := min(max(halfFill(fp, high, itemBytes)-1, 0), n-3)

	newPid, err := t.allocPage(fpage.ID)
	if err != nil {
		return nil, errors.Wrap(err, "SplitInternal")
	}
	if err := t.initInternal(newPid, false, t.temporary); err != nil {
		return nil, errors.Wrap(err, "SplitInternal")
	}
	rpage, err := t.bufferPool.FetchPage(newPid)
	if err != nil {
		return nil, errors.Wrapf(err, "SplitInternal: pin new page %d", newPid)
	}
	defer t.releaseNode(newPid, true)
	rp := viewOf(rpage)

	promoted := internalEntry(mergedEntry(fp, high, itemBytes, j+1))
	rp.setP0(promoted.spid())
	ritem := &InternalItem{Spid: rp.pid(), Key: bytes.Clone(promoted.key())}

	for i := j + 2; i < n; i++ {
		if err := appendTo(rp, mergedEntry(fp, high, itemBytes, i)); err != nil {
			return nil, err
		}
	}

	if high+1 <= j {
		fp.truncate(j)
		compactInternalPage(fp, noSlot)
		if !fp.fits(len(itemBytes)) {
			return nil, errors.Wrapf(ErrSplitInvariant, "item does not fit left page %d", fpage.ID)
		}
		fp.insertSlot(high+1, fp.appendEntry(itemBytes))
	} else {
		fp.truncate(j + 1)
		compactInternalPage(fp, noSlot)
	}
	fp.clearFlag(flagRoot)

	if err := t.bufferPool.MarkDirty(fpage.ID); err != nil {
		return nil, errors.Wrap(err, "SplitInternal")
	}

	t.log.Debug("split internal",
		zap.Uint32("page", fp.pid()),
		zap.Uint32("right", rp.pid()),
		zap.Int("left_slots", fp.slotCount()),
		zap.Int("right_slots", rp.slotCount()))
	return ritem, nil
}
