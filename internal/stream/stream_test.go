package stream

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func collect(t *testing.T, l *Lines) ([]string, []int) {
	t.Helper()
	var texts []string
	var nums []int
	for l.Next() {
		texts = append(texts, l.Text())
		nums = append(nums, l.Line())
	}
	require.NoError(t, l.Err())
	require.NoError(t, l.Close())
	return texts, nums
}

func TestLinesAcrossChunkBoundaries(t *testing.T) {
	// Tiny chunks force lines to straddle read boundaries.
	path := writeFile(t, "alpha\nbeta gamma delta\nepsilon\n")
	l, err := openSize(path, 4)
	require.NoError(t, err)

	texts, nums := collect(t, l)
	assert.Equal(t, []string{"alpha", "beta gamma delta", "epsilon"}, texts)
	assert.Equal(t, []int{1, 2, 3}, nums)
}

func TestFinalUnterminatedLine(t *testing.T) {
	path := writeFile(t, "one\ntwo")
	l, err := openSize(path, 3)
	require.NoError(t, err)

	texts, _ := collect(t, l)
	assert.Equal(t, []string{"one", "two"}, texts)
}

func TestCRLF(t *testing.T) {
	path := writeFile(t, "a\r\nb\r\n")
	l, err := Open(path)
	require.NoError(t, err)

	texts, _ := collect(t, l)
	assert.Equal(t, []string{"a", "b"}, texts)
}

func TestEmptyFile(t *testing.T) {
	path := writeFile(t, "")
	l, err := Open(path)
	require.NoError(t, err)

	texts, _ := collect(t, l)
	assert.Empty(t, texts)
}

func TestNotRestartable(t *testing.T) {
	path := writeFile(t, "a\nb\n")
	l, err := Open(path)
	require.NoError(t, err)
	for l.Next() {
	}
	assert.False(t, l.Next())
	require.NoError(t, l.Close())
}

func TestHashFileMatchesHashBytes(t *testing.T) {
	content := strings.Repeat("the quick brown fox\n", 10_000) // > one chunk
	path := writeFile(t, content)

	fromFile, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashBytes([]byte(content)), fromFile)

	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), fromFile)
}
