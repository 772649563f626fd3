package bplus

import "github.com/pkg/errors"

// Lookup returns the object ids stored under key.
func (t *BPlusTree) Lookup(key []byte) ([]ObjectID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pid, pg, err := t.findLeaf(key)
	if err != nil {
		return nil, errors.Wrap(err, "Lookup")
	}
	defer t.releaseNode(pid, false)

	p := viewOf(pg)
	high, found := searchLeaf(p, key, t.cmp)
	if !found {
		return nil, errors.Wrapf(ErrNotFound, "%q", key)
	}
	return leafEntry(p.entryAt(high + 1)).oids(), nil
}
