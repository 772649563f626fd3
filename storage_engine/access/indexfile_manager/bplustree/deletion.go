package bplus

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Delete removes key from its leaf. Underfull pages are left as they are: the
// freed bytes are counted as unused and reclaimed by the next compaction, and an
// emptied leaf stays in the ring.
func (t *BPlusTree) Delete(key []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pid, pg, err := t.findLeaf(key)
	if err != nil {
		return errors.Wrap(err, "Delete")
	}

	p := viewOf(pg)
	high, found := searchLeaf(p, key, t.cmp)
	if !found {
		t.releaseNode(pid, false)
		return errors.Wrapf(ErrNotFound, "%q", key)
	}
	p.removeSlot(high + 1)
	t.log.Debug("delete", zap.Uint32("page", p.pid()), zap.Int("slots", p.slotCount()))
	t.releaseNode(pid, true)
	return nil
}
