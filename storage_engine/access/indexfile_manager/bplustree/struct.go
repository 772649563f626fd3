// Structure of B+ Tree
/*
Tree (root page id never changes once the index is created)
 ├── Internal page: p0 + (key, child) entries
 │      └── Child internal pages ...
 │             └── Leaf pages: (key, object ids) entries
 │
 └── leaves form a doubly linked ring through nextPage/prevPage, in key order

- every page is a slotted page: slot i holds the offset of the i-th entry in key order
- the entry of slot i in an internal page points at keys >= key(i); p0 holds keys < key(0)
- pages split by accumulated bytes, not by key count
- all leaf pages at same depth
*/
package bplus

import (
	"sync"

	"go.uber.org/zap"

	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/bufferpool"
	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
)

type BPlusTree struct {
	fileID      uint32                   // DiskManager file ID for this index
	root        int64                    // global page ID of the root, fixed for the life of the index
	temporary   bool                     // pages are initialised with the TEMPORARY flag
	bufferPool  *bufferpool.BufferPool   // shared buffer pool
	diskManager *diskmanager.DiskManager // shared disk manager
	cmp         func(a, b []byte) int    // key comparator (typically bytes.Compare)
	log         *zap.Logger
	mu          sync.RWMutex // serialises Insert/Delete against readers
}

type Options struct {
	Compare   func(a, b []byte) int // nil means bytes.Compare
	Logger    *zap.Logger
	Temporary bool
}

// RootPageID returns the global page id of the root page.
func (t *BPlusTree) RootPageID() int64 {
	return t.root
}

func (t *BPlusTree) FileID() uint32 {
	return t.fileID
}

func (t *BPlusTree) globalID(local uint32) int64 {
	return diskmanager.GlobalPageID(t.fileID, local)
}
