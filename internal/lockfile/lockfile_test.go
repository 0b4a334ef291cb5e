package lockfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLock(t *testing.T) (*Lock, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".scanline", "run.lock")
	return New(path, zap.NewNop().Sugar()), path
}

func TestAcquireRelease(t *testing.T) {
	l, path := newLock(t)

	require.NoError(t, l.Acquire())
	assert.True(t, l.Held())
	_, err := os.Stat(path)
	require.NoError(t, err)

	l.Release()
	assert.False(t, l.Held())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestContention(t *testing.T) {
	a, path := newLock(t)
	require.NoError(t, a.Acquire())

	// Second process: fresh lock refused without blocking.
	b := New(path, zap.NewNop().Sugar())
	err := b.Acquire()
	require.ErrorIs(t, err, ErrLockHeld)
	assert.False(t, b.Held())

	// Force the lock's timestamp past the staleness threshold.
	old := time.Now().Add(-StaleAfter - time.Minute).UnixMilli()
	require.NoError(t, os.WriteFile(path, []byte(strconv.FormatInt(old, 10)), 0o644))

	require.NoError(t, b.Acquire())
	assert.True(t, b.Held())
}

func TestCorruptLockTreatedAsAbandoned(t *testing.T) {
	l, path := newLock(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not a timestamp"), 0o644))

	require.NoError(t, l.Acquire())
	assert.True(t, l.Held())
}

func TestReleaseWithoutAcquireIsNoOp(t *testing.T) {
	l, _ := newLock(t)
	l.Release() // must not panic or create anything
	assert.False(t, l.Held())
}

func TestLockContentIsMillisecondTimestamp(t *testing.T) {
	l, path := newLock(t)
	before := time.Now().UnixMilli()
	require.NoError(t, l.Acquire())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	ms, err := strconv.ParseInt(string(data), 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ms, before)
	assert.LessOrEqual(t, ms, time.Now().UnixMilli())
}
