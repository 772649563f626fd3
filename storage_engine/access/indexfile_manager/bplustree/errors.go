package bplus

import "github.com/pkg/errors"

var (
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrKeyTooLong     = errors.New("key too long")
	ErrNotFound       = errors.New("key not found")
	ErrSplitInvariant = errors.New("split invariant violated")
	ErrBadIndexFile   = errors.New("not a btree index file")
	ErrBrokenRing     = errors.New("leaf ring is broken")
)
