//go:build windows

package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"javachain/internal/errors"
)

const lockFile = "run.lock"

// Lock is the per-project run lock. Windows has no flock, so the lock is
// the exclusive creation of run.lock; a file left behind by a crashed run
// must be removed by hand.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock creates run.lock in dir. It fails with PROJECT_LOCKED if the
// file already exists.
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	path := filepath.Join(dir, lockFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("opening lock file: %w", err)
		}
		msg := "project is locked by another run"
		if content, readErr := os.ReadFile(path); readErr == nil && len(content) > 0 {
			msg = fmt.Sprintf("project is locked by another run (PID %s)", strings.TrimSpace(string(content)))
		}
		return nil, errors.NewChainError(errors.ProjectLocked, msg, err, nil).
			WithDetails(map[string]string{"lockFile": path})
	}

	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("writing PID to lock file: %w", err)
	}
	return &Lock{path: path, file: file}, nil
}

// Release closes and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.file.Close()
	_ = os.Remove(l.path)
}
