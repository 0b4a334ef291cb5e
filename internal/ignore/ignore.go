package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// defaultPatterns are always excluded, matching the usual build and
// dependency output directories.
var defaultPatterns = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"vendor",
	"__pycache__",
	".idea",
	".vscode",
	".scanline",
	"dist",
	"build",
	"coverage",
}

// ignoreFiles are read from the scan root, in order, when present.
var ignoreFiles = []string{".gitignore", ".scanlineignore"}

// Set matches candidate paths against the merged ignore patterns.
// Matching is case-sensitive and evaluated against both the full
// relative path and the basename. Negation patterns (leading "!") are
// explicitly unsupported and skipped at load time, never matched.
type Set struct {
	patterns []string
}

// Resolve merges the default patterns, patterns read from ignore files
// under root, and any extra patterns from configuration.
func Resolve(root string, extra []string) *Set {
	patterns := make([]string, 0, len(defaultPatterns)+len(extra))
	patterns = append(patterns, defaultPatterns...)
	for _, name := range ignoreFiles {
		patterns = append(patterns, readPatterns(filepath.Join(root, name))...)
	}
	patterns = append(patterns, extra...)

	kept := patterns[:0]
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			continue // negation unsupported, must not silently match
		}
		kept = append(kept, p)
	}
	return &Set{patterns: kept}
}

// Matches reports whether the relative path should be excluded.
func (s *Set) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	base := rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		base = rel[i+1:]
	}

	for _, p := range s.patterns {
		switch {
		case strings.HasPrefix(p, "/"):
			// Anchored to the scan root.
			if strings.HasPrefix(rel, strings.TrimPrefix(p, "/")) {
				return true
			}
		case strings.ContainsRune(p, '*'):
			if ok, _ := filepath.Match(p, rel); ok {
				return true
			}
			if ok, _ := filepath.Match(p, base); ok {
				return true
			}
		default:
			p = strings.TrimSuffix(p, "/")
			if base == p || rel == p || strings.Contains(rel, p) {
				return true
			}
		}
	}
	return false
}

// Patterns returns the merged pattern list, for diagnostics.
func (s *Set) Patterns() []string {
	return s.patterns
}

func readPatterns(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}
