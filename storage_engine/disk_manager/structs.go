package diskmanager

import (
	"os"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrFileNotFound     = errors.New("file not open in disk manager")
	ErrFileClosed       = errors.New("file is closed")
	ErrFileLocked       = errors.New("file is locked by another handle")
	ErrNoFreePage       = errors.New("no free page left in file")
	ErrChecksumMismatch = errors.New("page checksum mismatch")
	ErrBadPageSize      = errors.New("bad page size")
)

// ############################################# FILE DESCRIPTOR ###########################################

// FileDescriptor represents an open file managed by the disk manager
type FileDescriptor struct {
	FileID     uint32
	FilePath   string
	File       *os.File
	NextPageID int64 // Next available local page number within this file
	mu         sync.RWMutex
}

// ############################################# DISK MANAGER #############################################

type Options struct {
	PageSize        int
	CacheBytes      int64 // budget of the clean page-image cache, 0 disables it
	MaxPagesPerFile int64 // 0 means the whole 32-bit page number space
	Logger          *zap.Logger
}

// DiskManager manages all disk I/O operations and file handles
type DiskManager struct {
	files      map[uint32]*FileDescriptor // fileID -> file descriptor
	nextFileID uint32                     // used by OpenFile; OpenFileWithID forces the id
	pageSize   int
	maxPages   int64
	cache      *ristretto.Cache[int64, []byte] // global page id -> last written/read image
	log        *zap.Logger
	mu         sync.RWMutex
}
