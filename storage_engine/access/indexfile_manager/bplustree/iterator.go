package bplus

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"
)

// iterator walks the leaf ring forward from a starting key. It stops once the
// ring comes back around to the leftmost leaf.
type iterator struct {
	tree  *BPlusTree
	pid   int64
	pg    *page.Page
	index int
	stop  uint32 // leftmost leaf
	valid bool
	err   error
}

// seekGE positions the iterator at the first key >= target (nil = first key).
// The iterator holds a pinned leaf; call close() when done to release it.
func (t *BPlusTree) seekGE(target []byte) *iterator {
	it := &iterator{tree: t}

	stop, err := t.leftmostLeaf()
	if err != nil {
		it.err = err
		return it
	}
	it.stop = stop

	pid, pg, err := t.findLeaf(target)
	if err != nil {
		it.err = err
		return it
	}
	it.pid, it.pg, it.valid = pid, pg, true
	if target != nil {
		it.index = lowerBound(viewOf(pg), target, t.cmp)
	}
	it.settle()
	return it
}

// settle moves forward past exhausted (or emptied) leaves.
func (it *iterator) settle() {
	for it.valid && it.index >= viewOf(it.pg).slotCount() {
		next := viewOf(it.pg).next()
		it.tree.releaseNode(it.pid, false)
		it.pg = nil
		if next == it.stop || next == nilPage {
			it.valid = false
			return
		}
		it.pid = it.tree.globalID(next)
		pg, _, err := it.tree.fetchNode(it.pid)
		if err != nil {
			it.err, it.valid = err, false
			return
		}
		it.pg, it.index = pg, 0
	}
}

func (it *iterator) next() bool {
	if !it.valid {
		return false
	}
	it.index++
	it.settle()
	return it.valid
}

func (it *iterator) key() []byte {
	return viewOf(it.pg).key(it.index)
}

func (it *iterator) oids() []ObjectID {
	return leafEntry(viewOf(it.pg).entryAt(it.index)).oids()
}

// close releases the pinned leaf.
func (it *iterator) close() {
	if it.pg != nil {
		it.tree.releaseNode(it.pid, false)
		it.pg = nil
	}
	it.valid = false
}

// Scan calls fn for every key in [from, to] in key order; nil bounds are open.
// fn returning false stops the scan. The key slice is only valid during the call.
func (t *BPlusTree) Scan(from, to []byte, fn func(key []byte, oids []ObjectID) bool) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	it := t.seekGE(from)
	defer it.close()

	for ok := it.valid; ok; ok = it.next() {
		k := it.key()
		if to != nil && t.cmp(k, to) > 0 {
			break
		}
		if !fn(k, it.oids()) {
			break
		}
	}
	return errors.Wrap(it.err, "Scan")
}

// Keys returns copies of all keys in order.
func (t *BPlusTree) Keys() ([][]byte, error) {
	var keys [][]byte
	err := t.Scan(nil, nil, func(key []byte, _ []ObjectID) bool {
		keys = append(keys, bytes.Clone(key))
		return true
	})
	return keys, err
}
