package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsExcludeBuildOutput(t *testing.T) {
	s := Resolve(t.TempDir(), nil)

	assert.True(t, s.Matches("node_modules/react/index.js"))
	assert.True(t, s.Matches(".git/HEAD"))
	assert.True(t, s.Matches("dist"))
	assert.False(t, s.Matches("src/main.go"))
}

func TestGitignorePatternsAreMerged(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"),
		[]byte("# comment\n\ngenerated\n*.min.js\n"), 0o644))

	s := Resolve(root, nil)
	assert.True(t, s.Matches("generated/api.go"))
	assert.True(t, s.Matches("assets/app.min.js"))
	assert.False(t, s.Matches("src/app.js"))
}

func TestGlobAgainstPathAndBasename(t *testing.T) {
	s := Resolve(t.TempDir(), []string{"*.snap", "testdata/*"})

	assert.True(t, s.Matches("components/Button.snap"))
	assert.True(t, s.Matches("testdata/fixture.go"))
	assert.False(t, s.Matches("src/testdata.go"))
}

func TestAnchoredPattern(t *testing.T) {
	s := Resolve(t.TempDir(), []string{"/docs"})

	assert.True(t, s.Matches("docs/readme.md"))
}

func TestMatchingIsCaseSensitive(t *testing.T) {
	s := Resolve(t.TempDir(), []string{"Generated"})

	assert.True(t, s.Matches("Generated/x.go"))
	assert.False(t, s.Matches("generated/x.go"))
}

// Negation patterns are unsupported by design: they are dropped at
// load time (a no-op), never matched, so they can never exclude a
// file the pattern author meant to re-include.
func TestIgnoreNegationUnsupported(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"),
		[]byte("logs\n!logs/keep.log\n"), 0o644))

	s := Resolve(root, nil)
	assert.True(t, s.Matches("logs/app.log"))
	// The negated pattern neither matches nor un-matches.
	assert.True(t, s.Matches("logs/keep.log"))
	assert.NotContains(t, s.Patterns(), "!logs/keep.log")
}
