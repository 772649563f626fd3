package bplus

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// rootInsert grows the tree by one level after the root split. The root page id
// never changes: the old root's contents move to a fresh page, and the root is
// rebuilt as an internal page with p0 = moved page and the single entry ritem.
func (t *BPlusTree) rootInsert(ritem *InternalItem) error {
	rootPg, root, err := t.fetchNode(t.root)
	if err != nil {
		return errors.Wrap(err, "rootInsert")
	}
	defer t.releaseNode(t.root, true)

	newPid, err := t.allocPage(t.root)
	if err != nil {
		return errors.Wrap(err, "rootInsert")
	}
	movedPg, err := t.bufferPool.FetchPage(newPid)
	if err != nil {
		return errors.Wrapf(err, "rootInsert: pin %d", newPid)
	}
	defer t.releaseNode(newPid, true)

	moved := viewOf(movedPg)
	copy(movedPg.Data[offFlags:], rootPg.Data[offFlags:])
	movedPg.PageType = rootPg.PageType
	moved.setPid(movedPg.LocalID())
	moved.clearFlag(flagRoot)

	if moved.isLeaf() {
		if err := t.relinkMovedLeaf(root.pid(), moved); err != nil {
			return err
		}
	}

	flags := flagInternal | flagRoot
	if t.temporary {
		flags |= flagTemporary
	}
	root.init(root.pid(), flags)
	root.setP0(moved.pid())
	root.insertSlot(0, root.appendEntry(ritem.encode()))

	t.log.Debug("root grown", zap.Uint32("moved_to", moved.pid()), zap.Uint32("right", ritem.Spid))
	return nil
}

// relinkMovedLeaf points the ring neighbours of the old root leaf at its new page.
func (t *BPlusTree) relinkMovedLeaf(oldPid uint32, moved nodePage) error {
	if moved.next() == oldPid {
		moved.setNext(moved.pid())
	} else {
		pid := t.globalID(moved.next())
		_, next, err := t.fetchNode(pid)
		if err != nil {
			return errors.Wrap(err, "rootInsert: successor")
		}
		next.setPrev(moved.pid())
		t.releaseNode(pid, true)
	}

	if moved.prev() == oldPid {
		moved.setPrev(moved.pid())
	} else {
		pid := t.globalID(moved.prev())
		_, prev, err := t.fetchNode(pid)
		if err != nil {
			return errors.Wrap(err, "rootInsert: predecessor")
		}
		prev.setNext(moved.pid())
		t.releaseNode(pid, true)
	}
	return nil
}
