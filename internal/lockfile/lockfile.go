// Package lockfile guards shared cache state against concurrent runs
// with a stale-aware exclusive lock file.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StaleAfter is the age past which a held lock is considered abandoned
// and may be forcibly reacquired.
const StaleAfter = 10 * time.Minute

// ErrLockHeld is returned when another process holds a fresh lock.
// There is no retry or backoff; the caller decides what to do.
var ErrLockHeld = errors.New("another scan is already running")

// Lock is an exclusive run lock backed by a file whose content is a
// millisecond epoch timestamp. It is not a true distributed lock: two
// processes racing within the staleness window are arbitrated by the
// exclusive-create, and the loser is refused.
type Lock struct {
	path string
	held bool
	log  *zap.SugaredLogger
}

// New creates an unheld lock at path.
func New(path string, log *zap.SugaredLogger) *Lock {
	return &Lock{path: path, log: log}
}

// Acquire takes the lock. It succeeds when no lock file exists or the
// existing lock is older than StaleAfter (abandoned, overwritten).
// A fresh lock held by another process returns ErrLockHeld immediately.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	stamp := strconv.FormatInt(time.Now().UnixMilli(), 10)

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		_, werr := f.WriteString(stamp)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			os.Remove(l.path)
			return fmt.Errorf("write lock file: %w", werr)
		}
		l.held = true
		return nil
	}
	if !os.IsExist(err) {
		return fmt.Errorf("create lock file: %w", err)
	}

	age, ok := l.age()
	if ok && age < StaleAfter {
		return fmt.Errorf("%w (lock age %s)", ErrLockHeld, age.Round(time.Second))
	}
	// Stale or unreadable lock: treat as abandoned and take it over.
	l.log.Infow("reclaiming stale lock", "path", l.path, "age", age)
	if err := os.WriteFile(l.path, []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("overwrite stale lock: %w", err)
	}
	l.held = true
	return nil
}

// Release deletes the lock file. It is a no-op when the lock was never
// acquired by this process; a failed delete is logged, not fatal.
func (l *Lock) Release() {
	if !l.held {
		return
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		l.log.Warnw("failed to remove lock file", "path", l.path, "error", err)
	}
}

// Held reports whether this process currently holds the lock.
func (l *Lock) Held() bool {
	return l.held
}

// age reads the existing lock's timestamp. ok is false when the file
// is missing or its content does not parse, in which case the lock is
// treated as abandoned.
func (l *Lock) age() (time.Duration, bool) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, false
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false
	}
	return time.Since(time.UnixMilli(ms)), true
}
