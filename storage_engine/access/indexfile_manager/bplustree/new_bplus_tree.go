package bplus

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junyoungkim22/educosmos-Btree-manager/logger"
	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/bufferpool"
	diskmanager "github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/disk_manager"
)

/*
Metadata record on page 0 of an index file:

	0..3   magic "EBTM"
	4..5   format version
	6..9   local page number of the root
	10     1 if the index is temporary
*/

const (
	metaMagic   = "EBTM"
	metaVersion = 1
	metaSize    = 11
)

// OpenBPlusTree opens the index stored in indexPath under fileID, creating it
// (metadata page plus an empty root leaf whose ring points at itself) when the
// file holds no index yet.
func OpenBPlusTree(indexPath string, fileID uint32, bufferPool *bufferpool.BufferPool, diskManager *diskmanager.DiskManager, opts Options) (*BPlusTree, error) {
	if _, err := diskManager.OpenFileWithID(indexPath, fileID); err != nil {
		return nil, errors.Wrapf(err, "OpenBPlusTree: open index file %s", indexPath)
	}

	t := &BPlusTree{
		fileID:      fileID,
		root:        -1,
		temporary:   opts.Temporary,
		bufferPool:  bufferPool,
		diskManager: diskManager,
		cmp:         opts.Compare,
		log:         logger.OrNop(opts.Logger).Named("btree").With(zap.Uint32("file", fileID)),
	}
	if t.cmp == nil {
		t.cmp = bytes.Compare
	}

	abandon := func() {
		_ = bufferPool.DropFilePages(fileID)
		_ = diskManager.CloseFile(fileID)
	}

	meta, err := diskManager.ReadMetadata(fileID)
	if err != nil {
		abandon()
		return nil, errors.Wrap(err, "OpenBPlusTree")
	}

	if meta == nil {
		err = t.create()
	} else {
		err = t.load(meta)
	}
	if err != nil {
		abandon()
		return nil, errors.Wrapf(err, "OpenBPlusTree %s", indexPath)
	}
	return t, nil
}

// CreateBPlusTree is OpenBPlusTree for a path that must not exist yet.
func CreateBPlusTree(indexPath string, fileID uint32, bufferPool *bufferpool.BufferPool, diskManager *diskmanager.DiskManager, opts Options) (*BPlusTree, error) {
	if _, err := os.Stat(indexPath); err == nil {
		return nil, errors.Errorf("CreateBPlusTree: %s already exists", indexPath)
	}
	return OpenBPlusTree(indexPath, fileID, bufferPool, diskManager, opts)
}

func (t *BPlusTree) create() error {
	pid, err := t.allocPage(0)
	if err != nil {
		return err
	}
	if err := t.initLeaf(pid, true, t.temporary); err != nil {
		return err
	}
	_, root, err := t.fetchNode(pid)
	if err != nil {
		return err
	}
	local := root.pid()
	root.setNext(local)
	root.setPrev(local)
	t.releaseNode(pid, true)
	t.root = pid

	// the root must reach disk before the metadata naming it
	if err := t.bufferPool.FlushPage(pid); err != nil {
		return err
	}

	meta := make([]byte, metaSize)
	copy(meta, metaMagic)
	binary.LittleEndian.PutUint16(meta[4:], metaVersion)
	binary.LittleEndian.PutUint32(meta[6:], local)
	if t.temporary {
		meta[10] = 1
	}
	if err := t.diskManager.WriteMetadata(t.fileID, meta); err != nil {
		return err
	}

	t.log.Debug("new tree", zap.Int64("root", t.root))
	return nil
}

func (t *BPlusTree) load(meta []byte) error {
	if len(meta) < metaSize || string(meta[:4]) != metaMagic {
		return errors.Wrap(ErrBadIndexFile, "bad magic")
	}
	if v := binary.LittleEndian.Uint16(meta[4:]); v != metaVersion {
		return errors.Wrapf(ErrBadIndexFile, "format version %d", v)
	}
	local := binary.LittleEndian.Uint32(meta[6:])
	if local == nilPage {
		return errors.Wrap(ErrBadIndexFile, "no root page")
	}
	t.root = t.globalID(local)
	t.temporary = meta[10] == 1

	_, root, err := t.fetchNode(t.root)
	if err != nil {
		return err
	}
	isRoot := root.isRoot()
	t.releaseNode(t.root, false)
	if !isRoot {
		return errors.Wrapf(ErrBadIndexFile, "page %d is not flagged as root", local)
	}

	t.log.Debug("loaded tree", zap.Int64("root", t.root), zap.Bool("temporary", t.temporary))
	return nil
}

// Flush writes this index's dirty pages and syncs the files.
func (t *BPlusTree) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flush()
}

func (t *BPlusTree) flush() error {
	if err := t.bufferPool.FlushAllPages(t.fileID); err != nil {
		return errors.Wrap(err, "Flush")
	}
	return errors.Wrap(t.diskManager.Sync(), "Flush: sync")
}

// Close flushes the tree, drops its frames from the BufferPool and closes the
// file handle in DiskManager.
//
// Call this when switching databases or on shutdown to avoid leaking file
// descriptors and to ensure all changes are persisted.
func (t *BPlusTree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.flush(); err != nil {
		return errors.Wrap(err, "Close")
	}
	if err := t.bufferPool.DropFilePages(t.fileID); err != nil {
		return errors.Wrap(err, "Close")
	}
	return errors.Wrap(t.diskManager.CloseFile(t.fileID), "Close")
}
