//go:build !windows

package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"javachain/internal/errors"
)

const lockFile = "run.lock"

// Lock is an exclusive per-project run lock. Two review runs against the
// same workspace race on the checked-out tree, so the pipeline holds this
// for the whole run.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock attempts to acquire the run lock in dir without blocking.
// It fails with PROJECT_LOCKED if another process holds it.
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	path := filepath.Join(dir, lockFile)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	err = syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		_ = file.Close()

		msg := "project is locked by another run"
		if content, readErr := os.ReadFile(path); readErr == nil && len(content) > 0 {
			msg = fmt.Sprintf("project is locked by another run (PID %s)", strings.TrimSpace(string(content)))
		}
		return nil, errors.NewChainError(errors.ProjectLocked, msg, err, nil).
			WithDetails(map[string]string{"lockFile": path})
	}

	if err := file.Truncate(0); err != nil {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, fmt.Errorf("truncating lock file: %w", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, fmt.Errorf("seeking lock file: %w", err)
	}

	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, fmt.Errorf("writing PID to lock file: %w", err)
	}

	return &Lock{path: path, file: file}, nil
}

// Release releases the lock and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}

	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()

	// best effort
	_ = os.Remove(l.path)
}
