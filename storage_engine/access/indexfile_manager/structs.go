package indexfile

import (
	"sync"

	"go.uber.org/zap"

	bplus "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/access/indexfile_manager/bplustree"
	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/bufferpool"
	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
)

type IndexFileManager struct {
	baseDir     string                      // e.g., /data/indexes
	indexes     map[string]*bplus.BPlusTree // index name → open tree
	nextFileID  uint32                      // DiskManager file id for the next opened index
	opts        bplus.Options               // applied to every tree opened here
	bufferPool  *bufferpool.BufferPool      // shared by all indexes
	diskManager *diskmanager.DiskManager    // shared by all indexes
	log         *zap.Logger
	mu          sync.RWMutex
}
