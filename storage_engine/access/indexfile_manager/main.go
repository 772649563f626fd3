package indexfile

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junyoungkim22/educosmos-Btree-manager/logger"
	bplus "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/access/indexfile_manager/bplustree"
	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/bufferpool"
	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
)

/*
Index File Manager: one B+ tree per index file, all of them sharing the disk
manager and the buffer pool. Index "name" lives in <baseDir>/<name>.idx.

File ids are handed out in open order, they are not stored in the index file.
*/

var ErrIndexNotFound = errors.New("index file not found")

func NewIndexFileManager(baseDir string, diskManager *diskmanager.DiskManager, bufferPool *bufferpool.BufferPool, opts bplus.Options) (*IndexFileManager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errors.Wrap(err, "create indexes directory")
	}

	log := logger.OrNop(opts.Logger)
	opts.Logger = log
	return &IndexFileManager{
		baseDir:     baseDir,
		indexes:     make(map[string]*bplus.BPlusTree),
		nextFileID:  1,
		opts:        opts,
		bufferPool:  bufferPool,
		diskManager: diskManager,
		log:         log.Named("indexfile"),
	}, nil
}

// IndexPath is where the index called name is stored.
func (ifm *IndexFileManager) IndexPath(name string) string {
	return filepath.Join(ifm.baseDir, name+".idx")
}

// GetOrCreateIndex returns the open tree for name, opening the index file or
// creating a fresh one when it does not exist yet.
func (ifm *IndexFileManager) GetOrCreateIndex(name string) (*bplus.BPlusTree, error) {
	ifm.mu.RLock()
	btree, exists := ifm.indexes[name]
	ifm.mu.RUnlock()
	if exists {
		return btree, nil
	}

	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	// another goroutine may have opened it while we waited
	if btree, exists := ifm.indexes[name]; exists {
		return btree, nil
	}
	return ifm.open(name)
}

// LoadIndex opens an existing index file. A missing file is ErrIndexNotFound.
func (ifm *IndexFileManager) LoadIndex(name string) (*bplus.BPlusTree, error) {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	if btree, exists := ifm.indexes[name]; exists {
		return btree, nil
	}
	if _, err := os.Stat(ifm.IndexPath(name)); os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrIndexNotFound, "index %q at %s", name, ifm.IndexPath(name))
	}
	return ifm.open(name)
}

// open expects ifm.mu held.
func (ifm *IndexFileManager) open(name string) (*bplus.BPlusTree, error) {
	fileID := ifm.nextFileID
	btree, err := bplus.OpenBPlusTree(ifm.IndexPath(name), fileID, ifm.bufferPool, ifm.diskManager, ifm.opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open index %q", name)
	}
	ifm.nextFileID++
	ifm.indexes[name] = btree

	ifm.log.Info("index opened", zap.String("index", name), zap.Uint32("file", fileID))
	return btree, nil
}

// CloseIndex flushes and closes the tree for name. Closing an index that is not
// open does nothing.
func (ifm *IndexFileManager) CloseIndex(name string) error {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	btree, exists := ifm.indexes[name]
	if !exists {
		return nil
	}
	if err := btree.Close(); err != nil {
		return errors.Wrapf(err, "close index %q", name)
	}
	delete(ifm.indexes, name)
	return nil
}

// CloseAll closes every open index, reporting the last failure.
// Called when shutting down the storage engine.
func (ifm *IndexFileManager) CloseAll() error {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	var lastErr error
	for name, btree := range ifm.indexes {
		if err := btree.Close(); err != nil {
			lastErr = errors.Wrapf(err, "close index %q", name)
			ifm.log.Warn("close failed", zap.String("index", name), zap.Error(err))
		}
		delete(ifm.indexes, name)
	}
	return lastErr
}

// Open lists the names of the open indexes.
func (ifm *IndexFileManager) Open() []string {
	ifm.mu.RLock()
	defer ifm.mu.RUnlock()

	names := make([]string, 0, len(ifm.indexes))
	for name := range ifm.indexes {
		names = append(names, name)
	}
	return names
}
