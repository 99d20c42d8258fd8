package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/afs/url"
)

// acquireLock takes an exclusive file lock on the store directory so that a
// snapshot overwrite is never interleaved with another writer. Non-local
// store URLs are not lockable and return a no-op release.
func acquireLock(baseURL string) (release func(), err error) {
	if strings.Contains(baseURL, "://") && !strings.HasPrefix(baseURL, "file:") {
		return func() {}, nil
	}
	dir := url.Path(baseURL)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, ".lock"), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := lockExclusiveBlocking(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("lock store directory: %w", err)
	}
	return func() {
		_ = unlockFile(f)
		_ = f.Close()
	}, nil
}
