// Package baseline suppresses previously-accepted findings so CI can
// enforce a "no new issues" policy.
package baseline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"scanline/internal/model"
)

const version = "1"

// Issue is one accepted finding in the baseline document.
type Issue struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Rule string `json:"rule"`
	Hash string `json:"hash"`
}

type document struct {
	Version     string  `json:"version"`
	GeneratedAt string  `json:"generatedAt"`
	Issues      []Issue `json:"issues"`
}

// Stats summarizes how a finding set splits against the baseline.
type Stats struct {
	Total     int `json:"total"`
	Baselined int `json:"baselined"`
	New       int `json:"new"`
}

// Baseline is an immutable snapshot of accepted finding hashes.
// Regeneration replaces the file atomically.
type Baseline struct {
	path   string
	hashes map[string]struct{}
}

// New creates an empty baseline bound to the document at path.
func New(path string) *Baseline {
	return &Baseline{path: path, hashes: make(map[string]struct{})}
}

// HashFor computes the stable identity of a finding. The path is
// truncated to its last three segments so hashes survive repository
// relocation; callers must apply the same truncation to match.
func HashFor(file string, line int, rule string) string {
	key := lastSegments(file, 3) + ":" + strconv.Itoa(line) + ":" + rule
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

func lastSegments(path string, n int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > n {
		parts = parts[len(parts)-n:]
	}
	return strings.Join(parts, "/")
}

// Load reads the baseline document. A missing file is not an error and
// returns false; a malformed document returns false with the parse
// error so the caller can warn and continue with an empty baseline.
func (b *Baseline) Load() (bool, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("parse baseline %s: %w", b.path, err)
	}
	for _, is := range doc.Issues {
		b.hashes[is.Hash] = struct{}{}
	}
	return true, nil
}

// Generate writes a new baseline covering all given findings. The
// write is atomic: a temp file is renamed over the target so a crash
// never leaves a partial document.
func (b *Baseline) Generate(findings []model.Finding) error {
	doc := document{
		Version:     version,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Issues:      make([]Issue, 0, len(findings)),
	}
	hashes := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		h := HashFor(f.File, f.Line, f.RuleName)
		doc.Issues = append(doc.Issues, Issue{File: f.File, Line: f.Line, Rule: f.RuleName, Hash: h})
		hashes[h] = struct{}{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(b.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return err
	}
	b.hashes = hashes
	return nil
}

// FilterNew returns only findings absent from the baseline. Applying
// it twice is idempotent.
func (b *Baseline) FilterNew(findings []model.Finding) []model.Finding {
	out := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		if _, ok := b.hashes[HashFor(f.File, f.Line, f.RuleName)]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// Stats splits findings into baselined and new counts.
func (b *Baseline) Stats(findings []model.Finding) Stats {
	s := Stats{Total: len(findings)}
	for _, f := range findings {
		if _, ok := b.hashes[HashFor(f.File, f.Line, f.RuleName)]; ok {
			s.Baselined++
		}
	}
	s.New = s.Total - s.Baselined
	return s
}

// Len returns the number of accepted hashes currently loaded.
func (b *Baseline) Len() int {
	return len(b.hashes)
}
