package storageengine

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junyoungkim22/educosmos-Btree-manager/config"
	"github.com/junyoungkim22/educosmos-Btree-manager/logger"
	indexfile "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/access/indexfile_manager"
	bplus "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/access/indexfile_manager/bplustree"
	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/bufferpool"
	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
)

/*
The main file of storage engine: builds the disk manager, the buffer pool and the
index file manager from the storage config. Indexes are opened on first use.
*/

func NewStorageEngine(cfg config.Storage, log *zap.Logger) (*StorageEngine, error) {
	log = logger.OrNop(log)

	dm, err := diskmanager.NewDiskManager(diskmanager.Options{
		PageSize:        cfg.PageSize,
		CacheBytes:      cfg.PageCacheBytes,
		MaxPagesPerFile: cfg.MaxPagesPerFile,
		Logger:          log,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init disk manager")
	}
	bp := bufferpool.NewBufferPool(cfg.BufferPoolPages, dm, log)

	ifm, err := indexfile.NewIndexFileManager(cfg.Dir, dm, bp, bplus.Options{Logger: log})
	if err != nil {
		_ = dm.CloseAll()
		return nil, errors.Wrap(err, "init index file manager")
	}

	log.Info("storage engine ready",
		zap.String("dir", cfg.Dir),
		zap.Int("page_size", dm.PageSize()),
		zap.Int("pool_pages", cfg.BufferPoolPages))

	return &StorageEngine{
		BufferPool:   bp,
		DiskManager:  dm,
		IndexManager: ifm,
		Dir:          cfg.Dir,
		log:          log,
	}, nil
}

// Index opens (or creates) the index called name.
func (se *StorageEngine) Index(name string) (*bplus.BPlusTree, error) {
	return se.IndexManager.GetOrCreateIndex(name)
}

func (se *StorageEngine) Stats() Stats {
	open := se.IndexManager.Open()
	sort.Strings(open)
	return Stats{
		Pool:        se.BufferPool.GetStats(),
		FilePages:   se.DiskManager.TotalPages(),
		PageSize:    se.DiskManager.PageSize(),
		OpenIndexes: open,
	}
}

// Close flushes and closes every index, then releases the remaining files.
func (se *StorageEngine) Close() error {
	err := se.IndexManager.CloseAll()
	if cerr := se.DiskManager.CloseAll(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "close storage engine")
}
