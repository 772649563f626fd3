package bufferpool

import (
	"container/list"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junyoungkim22/educosmos-Btree-manager/logger"
	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"
	"github.com/junyoungkim22/educosmos-Btree-manager/types"
)

/*
This file is the main file of the bufferpool
The buffer pool keeps index pages in memory frames and evicts the least recently used
unpinned frame when full. Dirty frames are written through the disk manager on eviction
or flush; on a miss the disk manager loads the page image.

Every FetchPage/NewPage pins the frame; the caller must UnpinPage it exactly once.
Pages are identified by globalPageID
*/

// NewBufferPool creates a new buffer pool with the given capacity
func NewBufferPool(capacity int, diskManager *diskmanager.DiskManager, log *zap.Logger) *BufferPool {
	return &BufferPool{
		pages:       make(map[int64]*list.Element, capacity),
		lru:         list.New(),
		capacity:    capacity,
		diskManager: diskManager,
		log:         logger.OrNop(log).Named("bufferpool"),
	}
}

// FetchPage returns the frame of pageID with its pin count incremented,
// loading it from disk on a miss.
func (bp *BufferPool) FetchPage(pageID int64) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if e, exists := bp.pages[pageID]; exists {
		bp.hits++
		bp.lru.MoveToBack(e)
		pg := frame(e)
		pg.Lock()
		pg.PinCount++
		pg.Unlock()
		return pg, nil
	}

	bp.misses++
	if err := bp.makeRoom(); err != nil {
		return nil, errors.Wrapf(err, "fetch page %d", pageID)
	}

	pg, err := bp.diskManager.ReadPage(pageID)
	if err != nil {
		return nil, errors.Wrapf(err, "read page %d", pageID)
	}
	bp.log.Debug("miss", zap.Int64("page", pageID), zap.Stringer("type", pg.PageType))

	pg.PinCount = 1
	bp.pages[pageID] = bp.lru.PushBack(pg)
	return pg, nil
}

// NewPage allocates the next page of fileID on disk, builds a zeroed dirty frame
// for it and returns it pinned. near is forwarded to the allocator as a placement hint.
func (bp *BufferPool) NewPage(fileID uint32, pageType types.PageType, near int64) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	// room first, so a full pool does not leak an allocated page number
	if err := bp.makeRoom(); err != nil {
		return nil, errors.Wrap(err, "new page")
	}

	pageID, err := bp.diskManager.AllocatePage(fileID, near)
	if err != nil {
		return nil, errors.Wrap(err, "allocate page")
	}

	pg := &page.Page{
		ID:       pageID,
		FileID:   fileID,
		Data:     make([]byte, bp.diskManager.PageSize()),
		IsDirty:  true,
		PinCount: 1,
		PageType: pageType,
	}
	bp.pages[pageID] = bp.lru.PushBack(pg)
	bp.log.Debug("new page", zap.Int64("page", pageID), zap.Uint32("file", fileID))
	return pg, nil
}

// UnpinPage decrements the pin count for a page
func (bp *BufferPool) UnpinPage(pageID int64, isDirty bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	e, exists := bp.pages[pageID]
	if !exists {
		return errors.Wrapf(ErrPageNotResident, "unpin %d", pageID)
	}

	pg := frame(e)
	pg.Lock()
	defer pg.Unlock()

	if pg.PinCount > 0 {
		pg.PinCount--
	} else {
		bp.log.Warn("unpin of unpinned page", zap.Int64("page", pageID))
	}
	if isDirty {
		pg.IsDirty = true
	}
	return nil
}

// FlushPage writes a specific page to disk if dirty
func (bp *BufferPool) FlushPage(pageID int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	e, exists := bp.pages[pageID]
	if !exists {
		return errors.Wrapf(ErrPageNotResident, "flush %d", pageID)
	}
	return bp.writeBack(frame(e))
}

// FlushAllPages writes all dirty pages to disk, or only those of fileID when given.
func (bp *BufferPool) FlushAllPages(fileID ...uint32) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	flushed := 0
	for e := bp.lru.Front(); e != nil; e = e.Next() {
		pg := frame(e)
		if len(fileID) > 0 && pg.FileID != fileID[0] {
			continue
		}
		if pg.IsDirty {
			flushed++
		}
		if err := bp.writeBack(pg); err != nil {
			return err
		}
	}
	bp.log.Debug("flush all", zap.Int("pool", len(bp.pages)), zap.Int("written", flushed))
	return nil
}

// DropFilePages removes every frame of fileID from the pool without writing it.
// Callers flush first; a pinned frame of the file is an error and nothing is dropped.
func (bp *BufferPool) DropFilePages(fileID uint32) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	var victims []*list.Element
	for _, e := range bp.pages {
		pg := frame(e)
		if pg.FileID != fileID {
			continue
		}
		if pg.PinCount > 0 {
			return errors.Wrapf(ErrPagePinned, "drop file %d: page %d pin=%d", fileID, pg.ID, pg.PinCount)
		}
		victims = append(victims, e)
	}
	for _, e := range victims {
		delete(bp.pages, frame(e).ID)
		bp.lru.Remove(e)
	}
	return nil
}

// DeletePage removes a page from the buffer pool without writing it
func (bp *BufferPool) DeletePage(pageID int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	e, exists := bp.pages[pageID]
	if !exists {
		return nil
	}
	if pg := frame(e); pg.PinCount > 0 {
		return errors.Wrapf(ErrPagePinned, "delete page %d", pageID)
	}
	delete(bp.pages, pageID)
	bp.lru.Remove(e)
	return nil
}

// writeBack expects bp.mu held.
func (bp *BufferPool) writeBack(pg *page.Page) error {
	pg.Lock()
	defer pg.Unlock()

	if !pg.IsDirty {
		return nil
	}
	if err := bp.diskManager.WritePage(pg); err != nil {
		return errors.Wrapf(err, "flush page %d", pg.ID)
	}
	pg.IsDirty = false
	return nil
}

// makeRoom evicts the least recently used unpinned frame when the pool is full.
// Assumes lock is already held
func (bp *BufferPool) makeRoom() error {
	if len(bp.pages) < bp.capacity {
		return nil
	}

	for e := bp.lru.Front(); e != nil; e = e.Next() {
		pg := frame(e)
		if pg.PinCount > 0 {
			continue
		}
		if err := bp.writeBack(pg); err != nil {
			return errors.Wrap(err, "evict")
		}
		bp.log.Debug("evict", zap.Int64("page", pg.ID))
		delete(bp.pages, pg.ID)
		bp.lru.Remove(e)
		return nil
	}

	return errors.Wrapf(ErrAllPagesPinned, "capacity %d", bp.capacity)
}
