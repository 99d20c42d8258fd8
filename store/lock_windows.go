//go:build windows

package store

import (
	"os"

	"golang.org/x/sys/windows"
)

func lockExclusiveBlocking(f *os.File) error {
	h := windows.Handle(f.Fd())
	var ol windows.Overlapped
	// Locks the first byte only.
	return windows.LockFileEx(h, windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, &ol)
}

func unlockFile(f *os.File) error {
	h := windows.Handle(f.Fd())
	var ol windows.Overlapped
	return windows.UnlockFileEx(h, 0, 1, 0, &ol)
}
