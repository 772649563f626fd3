package storageengine

import (
	"go.uber.org/zap"

	indexfile "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/access/indexfile_manager"
	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/bufferpool"
	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
)

type StorageEngine struct {
	BufferPool   *bufferpool.BufferPool
	DiskManager  *diskmanager.DiskManager
	IndexManager *indexfile.IndexFileManager

	Dir string // directory holding the .idx files
	log *zap.Logger
}

// Stats is a point-in-time view of the shared page caches.
type Stats struct {
	Pool        bufferpool.BufferPoolStats
	FilePages   int64 // pages across all open index files
	PageSize    int
	OpenIndexes []string
}
