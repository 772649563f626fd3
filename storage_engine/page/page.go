package page

import (
	"sync"

	"github.com/junyoungkim22/educosmos-Btree-manager/types"
)

/*
This contains the page frame struct shared by the disk manager and the buffer pool.

The frame only knows about raw bytes. The layout of an index page (header, slot array,
entry region) lives in the bplustree package, which reads and writes Data in place
while the frame is pinned.

Every page written by the disk manager carries:
	bytes 0..7  xxhash64 checksum of bytes 8..end
	byte  8     page type (types.PageType)
*/

type Page struct {
	ID       int64 // global page id: fileID<<32 | local page number
	FileID   uint32
	Data     []byte
	IsDirty  bool
	PinCount int32
	PageType types.PageType
	mu       sync.RWMutex
}

// LocalID returns the page number within its file.
func (p *Page) LocalID() uint32 {
	return uint32(p.ID & 0xFFFFFFFF)
}

func (p *Page) Lock() {
	p.mu.Lock()
}

func (p *Page) Unlock() {
	p.mu.Unlock()
}

func (p *Page) RLock() {
	p.mu.RLock()
}

func (p *Page) RUnlock() {
	p.mu.RUnlock()
}
