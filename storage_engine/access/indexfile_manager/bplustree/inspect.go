package bplus

import (
	"bytes"

	"github.com/pkg/errors"

	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
)

// PageSummary describes one page of the tree for tooling.
type PageSummary struct {
	PageNo    uint32
	Level     int // 0 is the root
	Leaf      bool
	Root      bool
	Temporary bool
	Slots     int
	Used      int // live entries plus their slots
	Unused    int
	Capacity  int
	P0        uint32
	Next      uint32
	Prev      uint32
	FirstKey  []byte
	LastKey   []byte
}

func summarize(p nodePage, level int) PageSummary {
	s := PageSummary{
		PageNo:    p.pid(),
		Level:     level,
		Leaf:      p.isLeaf(),
		Root:      p.isRoot(),
		Temporary: p.has(flagTemporary),
		Slots:     p.slotCount(),
		Used:      p.usedBytes(),
		Unused:    p.unused(),
		Capacity:  p.capacity(),
		P0:        p.p0(),
		Next:      p.next(),
		Prev:      p.prev(),
	}
	if n := p.slotCount(); n > 0 {
		s.FirstKey = bytes.Clone(p.key(0))
		s.LastKey = bytes.Clone(p.key(n - 1))
	}
	return s
}

// Inspect calls fn for every page reachable from the root, level by level.
func (t *BPlusTree) Inspect(fn func(PageSummary) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	type pending struct {
		local uint32
		level int
	}
	queue := []pending{{diskmanager.LocalPageID(t.root), 0}}
	seen := make(map[uint32]bool)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur.local] {
			return errors.Wrapf(ErrBadIndexFile, "page %d reached twice", cur.local)
		}
		seen[cur.local] = true

		pid := t.globalID(cur.local)
		_, p, err := t.fetchNode(pid)
		if err != nil {
			return errors.Wrap(err, "Inspect")
		}
		s := summarize(p, cur.level)
		if p.isInternal() {
			for i := -1; i < p.slotCount(); i++ {
				queue = append(queue, pending{p.child(i), cur.level + 1})
			}
		}
		t.releaseNode(pid, false)

		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// CheckRing walks the leaf ring forward and backward from the leftmost leaf and
// returns the number of leaves. Every next link must be mirrored by a prev link,
// both walks must visit the same leaves, and keys must ascend along the ring.
func (t *BPlusTree) CheckRing() (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	start, err := t.leftmostLeaf()
	if err != nil {
		return 0, errors.Wrap(err, "CheckRing")
	}
	limit := int(t.diskManager.TotalPages())

	forward, err := t.walkRing(start, limit, true)
	if err != nil {
		return 0, err
	}
	backward, err := t.walkRing(start, limit, false)
	if err != nil {
		return 0, err
	}
	if len(forward) != len(backward) {
		return 0, errors.Wrapf(ErrBrokenRing, "%d leaves forward, %d backward", len(forward), len(backward))
	}
	for i := 1; i < len(forward); i++ {
		if forward[i] != backward[len(backward)-i] {
			return 0, errors.Wrapf(ErrBrokenRing, "forward leaf %d is %d, backward has %d", i, forward[i], backward[len(backward)-i])
		}
	}
	return len(forward), nil
}

// walkRing follows next (or prev) links from start until it is back at start.
func (t *BPlusTree) walkRing(start uint32, limit int, forward bool) ([]uint32, error) {
	var (
		visited []uint32
		lastKey []byte
	)
	cur := start
	for {
		pid := t.globalID(cur)
		_, p, err := t.fetchNode(pid)
		if err != nil {
			return nil, errors.Wrap(err, "CheckRing")
		}
		if !p.isLeaf() {
			t.releaseNode(pid, false)
			return nil, errors.Wrapf(ErrBrokenRing, "page %d in the ring is not a leaf", cur)
		}
		if forward && p.slotCount() > 0 {
			if lastKey != nil && t.cmp(lastKey, p.key(0)) >= 0 {
				t.releaseNode(pid, false)
				return nil, errors.Wrapf(ErrBrokenRing, "keys descend entering page %d", cur)
			}
			lastKey = bytes.Clone(p.key(p.slotCount() - 1))
		}
		step := p.prev()
		if forward {
			step = p.next()
		}
		t.releaseNode(pid, false)

		if err := t.checkMirror(cur, step, forward); err != nil {
			return nil, err
		}
		visited = append(visited, cur)
		if step == start {
			return visited, nil
		}
		if len(visited) > limit {
			return nil, errors.Wrapf(ErrBrokenRing, "walk from %d never returns", start)
		}
		cur = step
	}
}

// checkMirror verifies that the page cur links to links back to cur.
func (t *BPlusTree) checkMirror(cur, step uint32, forward bool) error {
	if step == nilPage {
		return errors.Wrapf(ErrBrokenRing, "page %d has a nil link", cur)
	}
	pid := t.globalID(step)
	_, p, err := t.fetchNode(pid)
	if err != nil {
		return errors.Wrap(err, "CheckRing")
	}
	back := p.next()
	if forward {
		back = p.prev()
	}
	t.releaseNode(pid, false)
	if back != cur {
		return errors.Wrapf(ErrBrokenRing, "%d links to %d but %d links back to %d", cur, step, step, back)
	}
	return nil
}
