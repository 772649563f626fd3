package bufferpool

import (
	"container/list"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"
)

var (
	ErrAllPagesPinned = errors.New("all pages are pinned, cannot evict")
	ErrPageNotResident  = errors.New("page not in buffer pool")
	ErrPagePinned     = errors.New("page is pinned")
)

// ############################################# BUFFER POOL #############################################

// BufferPool manages cached index pages in memory with LRU eviction of unpinned frames
type BufferPool struct {
	pages       map[int64]*list.Element // pageID -> element holding *page.Page
	lru         *list.List              // front = least recently used
	capacity    int
	diskManager *diskmanager.DiskManager
	log         *zap.Logger
	hits        uint64
	misses      uint64
	mu          sync.Mutex
}

// BufferPoolStats is a point-in-time snapshot of the pool
type BufferPoolStats struct {
	TotalPages  int
	PinnedPages int
	DirtyPages  int
	Capacity    int
	Hits        uint64
	Misses      uint64
	HitRate     float64
}

func frame(e *list.Element) *page.Page {
	return e.Value.(*page.Page)
}
