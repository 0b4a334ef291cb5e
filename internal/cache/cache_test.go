package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanline/internal/model"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".scanline", "cache.json")
	findings := []model.Finding{{File: "a.go", Line: 3, Column: 1, RuleName: "no-todo", Severity: model.SevInfo}}

	c := New(path, "hash-v1")
	c.Set("/abs/a.go", "c0ffee", findings)
	require.NoError(t, c.Save())

	c2 := New(path, "hash-v1")
	assert.True(t, c2.Load())

	got, ok := c2.Get("/abs/a.go", "c0ffee")
	require.True(t, ok)
	assert.Equal(t, findings, got)
}

func TestMissOnChangedContent(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache.json"), "h")
	c.Set("/abs/a.go", "old", nil)

	_, ok := c.Get("/abs/a.go", "new")
	assert.False(t, ok)
}

func TestCachedEmptyFindingsIsAHit(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache.json"), "h")
	c.Set("/abs/clean.go", "abc", nil)

	got, ok := c.Get("/abs/clean.go", "abc")
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestRuleSetHashMismatchDiscardsDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c := New(path, "rules-v1")
	c.Set("/abs/a.go", "abc", nil)
	require.NoError(t, c.Save())

	// Same document, different active rule set: everything is a miss.
	c2 := New(path, "rules-v2")
	assert.False(t, c2.Load())
	_, ok := c2.Get("/abs/a.go", "abc")
	assert.False(t, ok)
	assert.Zero(t, c2.Len())
}

func TestCorruptDocumentFallsBackToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c := New(path, "h")
	assert.False(t, c.Load())
	assert.Zero(t, c.Len())
}

func TestSetIsLastWriteWins(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache.json"), "h")
	c.Set("/abs/a.go", "v1", []model.Finding{{RuleName: "r1"}})
	c.Set("/abs/a.go", "v2", []model.Finding{{RuleName: "r2"}})

	got, ok := c.Get("/abs/a.go", "v2")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].RuleName)
}
