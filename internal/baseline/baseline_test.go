package baseline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanline/internal/model"
)

func sample() []model.Finding {
	return []model.Finding{
		{File: "src/app/main.go", Line: 10, RuleName: "no-todo", Severity: model.SevInfo},
		{File: "src/app/main.go", Line: 42, RuleName: "no-eval", Severity: model.SevError},
		{File: "lib/util.go", Line: 7, RuleName: "no-print", Severity: model.SevWarning},
	}
}

func TestGenerateThenLoadBaselinesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	findings := sample()

	b := New(path)
	require.NoError(t, b.Generate(findings))

	b2 := New(path)
	found, err := b2.Load()
	require.NoError(t, err)
	assert.True(t, found)

	stats := b2.Stats(findings)
	assert.Equal(t, len(findings), stats.Total)
	assert.Equal(t, len(findings), stats.Baselined)
	assert.Zero(t, stats.New)
	assert.Empty(t, b2.FilterNew(findings))
}

func TestFilterNewIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	b := New(path)
	require.NoError(t, b.Generate(sample()[:1]))

	findings := sample()
	once := b.FilterNew(findings)
	twice := b.FilterNew(once)
	assert.Equal(t, once, twice)
	assert.Len(t, once, 2)
}

func TestHashStableAcrossRelocation(t *testing.T) {
	// Only the last three path segments feed the hash, so moving the
	// repository (a longer prefix) keeps hashes identical.
	h1 := HashFor("home/alice/work/src/app/main.go", 10, "no-todo")
	h2 := HashFor("mnt/ci/checkout/src/app/main.go", 10, "no-todo")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 16)

	// A different line breaks the match.
	assert.NotEqual(t, h1, HashFor("src/app/main.go", 11, "no-todo"))
}

func TestShortPathsHashWhole(t *testing.T) {
	assert.Equal(t, HashFor("main.go", 1, "r"), HashFor("main.go", 1, "r"))
	assert.NotEqual(t, HashFor("a/main.go", 1, "r"), HashFor("b/main.go", 1, "r"))
}

func TestMissingFileIsNotAnError(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "nope.json"))
	found, err := b.Load()
	require.NoError(t, err)
	assert.False(t, found)
	// With nothing loaded, every finding is new.
	assert.Len(t, b.FilterNew(sample()), len(sample()))
}

func TestMalformedBaselineTreatedAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	b := New(path)
	found, err := b.Load()
	assert.False(t, found)
	assert.Error(t, err)
	assert.Len(t, b.FilterNew(sample()), len(sample()))
}

func TestGenerateReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	b := New(path)
	require.NoError(t, b.Generate(sample()))
	require.NoError(t, b.Generate(sample()[:1]))

	// No temp file left behind and the document reflects the last write.
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	b2 := New(path)
	_, err = b2.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, b2.Len())
}
