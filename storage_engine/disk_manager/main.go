package diskmanager

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/junyoungkim22/educosmos-Btree-manager/logger"
	"github.com/junyoungkim22/educosmos-Btree-manager/storage_engine/page"
	"github.com/junyoungkim22/educosmos-Btree-manager/types"
)

/*
This is main file for disk manager
It owns:
File descriptors (os.File) and the exclusive lock on each index file
Reading/writing raw page images at page-aligned offsets
Page allocation (tracking NextPageID per file, page 0 is always the metadata page)
Checksums: every page written carries xxhash64(bytes 8..end) in bytes 0..7
A clean page-image cache in front of ReadAt

Page ID encoding:
globalPageID = int64(fileID) << 32 | localPageNum
The file id is recovered from the global id itself, nothing has to be registered on reopen.
*/

const maxLocalPages = int64(1) << 32

func NewDiskManager(opts Options) (*DiskManager, error) {
	if opts.PageSize == 0 {
		opts.PageSize = types.PageSize
	}
	if opts.PageSize%4 != 0 || opts.PageSize <= types.PageChecksumSize+1 {
		return nil, errors.Wrapf(ErrBadPageSize, "%d", opts.PageSize)
	}
	maxPages := opts.MaxPagesPerFile
	if maxPages <= 0 || maxPages > maxLocalPages {
		maxPages = maxLocalPages
	}

	dm := &DiskManager{
		files:      make(map[uint32]*FileDescriptor),
		nextFileID: 1,
		pageSize:   opts.PageSize,
		maxPages:   maxPages,
		log:        logger.OrNop(opts.Logger).Named("disk"),
	}

	if opts.CacheBytes > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[int64, []byte]{
			NumCounters:        max(10*(opts.CacheBytes/int64(opts.PageSize)), 1024),
			MaxCost:            opts.CacheBytes,
			BufferItems:        64,
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, errors.Wrap(err, "page cache")
		}
		dm.cache = cache
	}
	return dm, nil
}

func (dm *DiskManager) PageSize() int {
	return dm.pageSize
}

func GlobalPageID(fileID uint32, local uint32) int64 {
	return int64(fileID)<<32 | int64(local)
}

// LocalPageID is the page number of a global page id inside its file.
func LocalPageID(globalPageID int64) uint32 {
	return uint32(globalPageID & 0xFFFFFFFF)
}

func splitPageID(globalPageID int64) (uint32, int64) {
	return uint32(globalPageID >> 32), globalPageID & 0xFFFFFFFF
}

/*
Two OpenFile variants:
OpenFileWithID: index files whose id is fixed by the caller (stable across restarts)
OpenFile: scratch files, id handed out by the DiskManager counter
*/
func (dm *DiskManager) OpenFileWithID(filePath string, fileID uint32) (uint32, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if id, ok := dm.lookupPath(filePath); ok {
		return id, nil
	}
	if _, taken := dm.files[fileID]; taken {
		return 0, errors.Errorf("file id %d already in use", fileID)
	}
	if err := dm.open(filePath, fileID); err != nil {
		return 0, err
	}
	if fileID >= dm.nextFileID {
		dm.nextFileID = fileID + 1
	}
	return fileID, nil
}

// OpenFile opens or creates a file and returns its file ID
func (dm *DiskManager) OpenFile(filePath string) (uint32, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if id, ok := dm.lookupPath(filePath); ok {
		return id, nil
	}
	fileID := dm.nextFileID
	for {
		if _, taken := dm.files[fileID]; !taken {
			break
		}
		fileID++
	}
	if err := dm.open(filePath, fileID); err != nil {
		return 0, err
	}
	dm.nextFileID = fileID + 1
	return fileID, nil
}

// lookupPath expects dm.mu held.
func (dm *DiskManager) lookupPath(filePath string) (uint32, bool) {
	for id, fd := range dm.files {
		if fd.FilePath == filePath {
			return id, true
		}
	}
	return 0, false
}

// open expects dm.mu held.
func (dm *DiskManager) open(filePath string, fileID uint32) error {
	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return errors.Wrapf(err, "open %s", filePath)
	}
	if err := lockFile(file); err != nil {
		file.Close()
		return err
	}

	stat, err := file.Stat()
	if err != nil {
		unlockFile(file)
		file.Close()
		return errors.Wrapf(err, "stat %s", filePath)
	}

	numPages := stat.Size() / int64(dm.pageSize)
	// page 0 is reserved for metadata even before anything was written
	if numPages < 1 {
		numPages = 1
	}

	dm.files[fileID] = &FileDescriptor{
		FileID:     fileID,
		FilePath:   filePath,
		File:       file,
		NextPageID: numPages,
	}
	dm.log.Debug("file opened",
		zap.String("path", filePath),
		zap.Uint32("file", fileID),
		zap.Int64("pages", numPages))
	return nil
}

func (dm *DiskManager) descriptor(fileID uint32) (*FileDescriptor, error) {
	dm.mu.RLock()
	fd, exists := dm.files[fileID]
	dm.mu.RUnlock()
	if !exists {
		return nil, errors.Wrapf(ErrFileNotFound, "file %d", fileID)
	}
	return fd, nil
}

// AllocatePage reserves the next local page number of a file. Nothing is written;
// the buffer pool flushes the page when it is evicted or flushed.
// near is a placement hint; pages are always appended.
func (dm *DiskManager) AllocatePage(fileID uint32, near int64) (int64, error) {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return 0, err
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return 0, errors.Wrapf(ErrFileClosed, "file %d", fileID)
	}
	if fd.NextPageID >= dm.maxPages {
		return 0, errors.Wrapf(ErrNoFreePage, "file %d has %d pages", fileID, fd.NextPageID)
	}

	local := fd.NextPageID
	fd.NextPageID++

	dm.log.Debug("page allocated",
		zap.Uint32("file", fileID),
		zap.Int64("page", local),
		zap.Int64("near", near))
	return int64(fileID)<<32 | local, nil
}

// ReadPage reads a page image. Pages past the end of the file come back zeroed.
func (dm *DiskManager) ReadPage(globalPageID int64) (*page.Page, error) {
	fileID, local := splitPageID(globalPageID)
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return nil, err
	}

	pg := &page.Page{
		ID:     globalPageID,
		FileID: fileID,
		Data:   make([]byte, dm.pageSize),
	}

	if dm.cache != nil {
		if img, ok := dm.cache.Get(globalPageID); ok && len(img) == dm.pageSize {
			copy(pg.Data, img)
			pg.PageType = types.PageType(pg.Data[types.PageTypeOffset])
			return pg, nil
		}
	}

	fd.mu.RLock()
	defer fd.mu.RUnlock()

	if fd.File == nil {
		return nil, errors.Wrapf(ErrFileClosed, "file %d", fileID)
	}

	// allocated but never flushed pages read back short, the tail stays zero
	if _, err := fd.File.ReadAt(pg.Data, local*int64(dm.pageSize)); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "read page %d in file %d", local, fileID)
	}

	if err := verifyChecksum(pg.Data); err != nil {
		return nil, errors.Wrapf(err, "page %d in file %d", local, fileID)
	}
	pg.PageType = types.PageType(pg.Data[types.PageTypeOffset])

	if dm.cache != nil && pg.PageType != types.PageTypeUnknown {
		img := make([]byte, dm.pageSize)
		copy(img, pg.Data)
		dm.cache.Set(globalPageID, img, int64(len(img)))
	}
	return pg, nil
}

// WritePage stamps the page type and checksum into the image and writes it.
func (dm *DiskManager) WritePage(pg *page.Page) error {
	fd, err := dm.descriptor(pg.FileID)
	if err != nil {
		return err
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return errors.Wrapf(ErrFileClosed, "file %d", pg.FileID)
	}
	if len(pg.Data) != dm.pageSize {
		return errors.Wrapf(ErrBadPageSize, "page data is %d bytes, want %d", len(pg.Data), dm.pageSize)
	}

	pg.Data[types.PageTypeOffset] = byte(pg.PageType)
	sealChecksum(pg.Data)

	_, local := splitPageID(pg.ID)
	if _, err := fd.File.WriteAt(pg.Data, local*int64(dm.pageSize)); err != nil {
		return errors.Wrapf(err, "write page %d to file %d", local, pg.FileID)
	}

	if local >= fd.NextPageID {
		fd.NextPageID = local + 1
	}
	if dm.cache != nil {
		dm.cache.Del(pg.ID)
	}

	pg.IsDirty = false
	return nil
}

func sealChecksum(data []byte) {
	binary.LittleEndian.PutUint64(data[:types.PageChecksumSize], xxhash.Sum64(data[types.PageChecksumSize:]))
}

// verifyChecksum skips images whose type byte was never stamped.
func verifyChecksum(data []byte) error {
	if data[types.PageTypeOffset] == byte(types.PageTypeUnknown) {
		return nil
	}
	want := binary.LittleEndian.Uint64(data[:types.PageChecksumSize])
	if got := xxhash.Sum64(data[types.PageChecksumSize:]); got != want {
		return errors.Wrapf(ErrChecksumMismatch, "stored %x computed %x", want, got)
	}
	return nil
}

// Sync flushes all file buffers to disk
func (dm *DiskManager) Sync() error {
	dm.mu.RLock()
	fds := make([]*FileDescriptor, 0, len(dm.files))
	for _, fd := range dm.files {
		fds = append(fds, fd)
	}
	dm.mu.RUnlock()

	var g errgroup.Group
	for _, fd := range fds {
		g.Go(func() error {
			fd.mu.Lock()
			defer fd.mu.Unlock()
			if fd.File == nil {
				return nil
			}
			return errors.Wrapf(fd.File.Sync(), "sync file %d", fd.FileID)
		})
	}
	return g.Wait()
}

// CloseFile closes a specific file and drops its cached images
func (dm *DiskManager) CloseFile(fileID uint32) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	fd, exists := dm.files[fileID]
	if !exists {
		return errors.Wrapf(ErrFileNotFound, "file %d", fileID)
	}
	delete(dm.files, fileID)
	dm.forget(fd)
	return closeDescriptor(fd)
}

// CloseAll closes all open files
func (dm *DiskManager) CloseAll() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	var lastErr error
	for fileID, fd := range dm.files {
		if err := closeDescriptor(fd); err != nil {
			lastErr = err
		}
		delete(dm.files, fileID)
	}
	if dm.cache != nil {
		dm.cache.Clear()
	}
	return lastErr
}

// forget evicts every cached image of fd.
func (dm *DiskManager) forget(fd *FileDescriptor) {
	if dm.cache == nil {
		return
	}
	fd.mu.RLock()
	n := fd.NextPageID
	fd.mu.RUnlock()
	for local := int64(0); local < n; local++ {
		dm.cache.Del(int64(fd.FileID)<<32 | local)
	}
}

func closeDescriptor(fd *FileDescriptor) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return nil
	}
	if err := fd.File.Sync(); err != nil {
		return errors.Wrapf(err, "sync file %d before close", fd.FileID)
	}
	unlockFile(fd.File)
	if err := fd.File.Close(); err != nil {
		return errors.Wrapf(err, "close file %d", fd.FileID)
	}
	fd.File = nil
	return nil
}

// GetFileDescriptor returns the file descriptor for a given file ID
func (dm *DiskManager) GetFileDescriptor(fileID uint32) (*FileDescriptor, error) {
	return dm.descriptor(fileID)
}

// TotalPages returns the number of pages across all open files, metadata pages included.
func (dm *DiskManager) TotalPages() int64 {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	total := int64(0)
	for _, fd := range dm.files {
		fd.mu.RLock()
		total += fd.NextPageID
		fd.mu.RUnlock()
	}
	return total
}

// WriteMetadata writes page 0 of a file directly, bypassing the buffer pool.
// The record starts right after the page type byte.
func (dm *DiskManager) WriteMetadata(fileID uint32, metadata []byte) error {
	if len(metadata) > dm.pageSize-types.PageTypeOffset-1 {
		return errors.Errorf("metadata of %d bytes does not fit a page", len(metadata))
	}
	meta := &page.Page{
		ID:       GlobalPageID(fileID, 0),
		FileID:   fileID,
		Data:     make([]byte, dm.pageSize),
		PageType: types.PageTypeMetadata,
	}
	copy(meta.Data[types.PageTypeOffset+1:], metadata)
	return errors.Wrap(dm.WritePage(meta), "write metadata")
}

// ReadMetadata returns the record stored on page 0, nil if the file has none yet.
func (dm *DiskManager) ReadMetadata(fileID uint32) ([]byte, error) {
	pg, err := dm.ReadPage(GlobalPageID(fileID, 0))
	if err != nil {
		return nil, errors.Wrap(err, "read metadata")
	}
	if pg.PageType != types.PageTypeMetadata {
		return nil, nil
	}
	return pg.Data[types.PageTypeOffset+1:], nil
}
