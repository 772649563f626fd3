//go:build unix

package diskmanager

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// lockFile takes a non-blocking exclusive flock so two handles never split pages of
// the same index file underneath each other.
func lockFile(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return errors.Wrap(ErrFileLocked, f.Name())
	}
	if err != nil {
		return errors.Wrapf(err, "flock %s", f.Name())
	}
	return nil
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
