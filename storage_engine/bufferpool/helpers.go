package bufferpool

import (
	"container/list"

	"github.com/pkg/errors"

	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"
)

/*
This file holds helper functions for the bufferpool
*/

// GetStats returns current buffer pool statistics
func (bp *BufferPool) GetStats() BufferPoolStats {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	stats := BufferPoolStats{
		TotalPages: len(bp.pages),
		Capacity:   bp.capacity,
		Hits:       bp.hits,
		Misses:     bp.misses,
	}
	if total := bp.hits + bp.misses; total > 0 {
		stats.HitRate = float64(bp.hits) / float64(total)
	}

	for _, e := range bp.pages {
		pg := frame(e)
		pg.RLock()
		if pg.PinCount > 0 {
			stats.PinnedPages++
		}
		if pg.IsDirty {
			stats.DirtyPages++
		}
		pg.RUnlock()
	}

	return stats
}

// Reset flushes and clears all pages from the buffer pool
func (bp *BufferPool) Reset() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for e := bp.lru.Front(); e != nil; e = e.Next() {
		if err := bp.writeBack(frame(e)); err != nil {
			return errors.Wrap(err, "reset")
		}
	}

	bp.pages = make(map[int64]*list.Element, bp.capacity)
	bp.lru.Init()
	bp.hits, bp.misses = 0, 0
	return nil
}

// Size returns the current number of pages in the buffer pool
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.pages)
}

// Capacity returns the maximum capacity of the buffer pool
func (bp *BufferPool) Capacity() int {
	return bp.capacity
}

// GetPage returns a page from the buffer pool without loading from disk or pinning it.
// Returns nil if page is not in buffer pool
func (bp *BufferPool) GetPage(pageID int64) *page.Page {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if e, ok := bp.pages[pageID]; ok {
		return frame(e)
	}
	return nil
}

// PinCount returns the pin count of a resident page, -1 if it is not resident.
func (bp *BufferPool) PinCount(pageID int64) int32 {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	e, ok := bp.pages[pageID]
	if !ok {
		return -1
	}
	pg := frame(e)
	pg.RLock()
	defer pg.RUnlock()
	return pg.PinCount
}

// MarkDirty marks a page as dirty (modified)
func (bp *BufferPool) MarkDirty(pageID int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	e, exists := bp.pages[pageID]
	if !exists {
		return errors.Wrapf(ErrPageNotResident, "mark dirty %d", pageID)
	}

	pg := frame(e)
	pg.Lock()
	pg.IsDirty = true
	pg.Unlock()
	return nil
}
