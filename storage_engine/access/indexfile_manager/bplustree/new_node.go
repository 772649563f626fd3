package bplus

import (
	"github.com/pkg/errors"

	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"
	"github.com/junyoungkim22/educosmos-Btree-manager/types"
)

// allocPage reserves a fresh page of the index file near the given page.
// The page comes back unpinned; initLeaf/initInternal give it a shape.
func (t *BPlusTree) allocPage(near int64) (int64, error) {
	pg, err := t.bufferPool.NewPage(t.fileID, types.PageTypeBPlusNode, near)
	if err != nil {
		return 0, errors.Wrap(err, "allocPage")
	}
	pid := pg.ID
	if err := t.bufferPool.UnpinPage(pid, true); err != nil {
		return 0, errors.Wrapf(err, "allocPage: unpin %d", pid)
	}
	return pid, nil
}

func (t *BPlusTree) initLeaf(pid int64, root, temporary bool) error {
	return t.initNode(pid, flagLeaf, root, temporary)
}

func (t *BPlusTree) initInternal(pid int64, root, temporary bool) error {
	return t.initNode(pid, flagInternal, root, temporary)
}

// initNode formats pid as an empty page of the given kind. Leaf links start at nilPage.
func (t *BPlusTree) initNode(pid int64, kind pageFlags, root, temporary bool) error {
	pg, err := t.bufferPool.FetchPage(pid)
	if err != nil {
		return errors.Wrapf(err, "init page %d", pid)
	}
	defer t.releaseNode(pid, true)

	flags := kind
	if root {
		flags |= flagRoot
	}
	if temporary {
		flags |= flagTemporary
	}
	pg.PageType = types.PageTypeBPlusNode
	viewOf(pg).init(pg.LocalID(), flags)
	return nil
}

// fetchNode pins pid and checks that it holds a node.
// The returned page is pinned; the caller must releaseNode when done.
func (t *BPlusTree) fetchNode(pid int64) (*page.Page, nodePage, error) {
	pg, err := t.bufferPool.FetchPage(pid)
	if err != nil {
		return nil, nodePage{}, errors.Wrapf(err, "fetch page %d", pid)
	}
	p := viewOf(pg)
	if !p.isLeaf() && !p.isInternal() {
		t.releaseNode(pid, false)
		return nil, nodePage{}, errors.Wrapf(ErrBadIndexFile, "page %d is not a node (flags %#x)", pid, p.flags())
	}
	return pg, p, nil
}

func (t *BPlusTree) releaseNode(pid int64, dirty bool) {
	_ = t.bufferPool.UnpinPage(pid, dirty)
}
