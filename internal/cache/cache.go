// Package cache persists per-file findings keyed by content hash so
// unchanged files skip rule evaluation on the next run.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"scanline/internal/model"
)

const version = "1"

type entry struct {
	Hash     string          `json:"hash"`
	Findings []model.Finding `json:"findings"`
}

type document struct {
	Version   string           `json:"version"`
	RulesHash string           `json:"rulesHash"`
	Files     map[string]entry `json:"files"`
}

// Cache is an in-process map of file path to (content hash, findings),
// persisted as a single JSON document tagged with the rule-set hash.
// A document written under a different rule set is discarded wholesale
// at load time so stale findings never outlive a rule change.
type Cache struct {
	mu        sync.Mutex
	path      string
	rulesHash string
	files     map[string]entry
}

// New creates an empty cache bound to the document at path and the
// current rule-set hash.
func New(path, rulesHash string) *Cache {
	return &Cache{
		path:      path,
		rulesHash: rulesHash,
		files:     make(map[string]entry),
	}
}

// Load reads the persisted document. It returns false, leaving the
// cache empty, when the document is missing, unreadable, corrupt, or
// was written under a different rule-set hash.
func (c *Cache) Load() bool {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return false
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	if doc.Version != version || doc.RulesHash != c.rulesHash || doc.Files == nil {
		return false
	}

	c.mu.Lock()
	c.files = doc.Files
	c.mu.Unlock()
	return true
}

// Get returns the cached findings for path when the stored content
// hash matches. The second return distinguishes a cached empty finding
// list from a miss.
func (c *Cache) Get(path, hash string) ([]model.Finding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.files[path]
	if !ok || e.Hash != hash {
		return nil, false
	}
	return e.Findings, true
}

// Set records findings for a path. Idempotent, last write wins.
func (c *Cache) Set(path, hash string, findings []model.Finding) {
	if findings == nil {
		findings = []model.Finding{}
	}
	c.mu.Lock()
	c.files[path] = entry{Hash: hash, Findings: findings}
	c.mu.Unlock()
}

// Len returns the number of cached files.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}

// Save writes the document atomically (temp file then rename).
func (c *Cache) Save() error {
	c.mu.Lock()
	doc := document{Version: version, RulesHash: c.rulesHash, Files: c.files}
	data, err := json.Marshal(doc)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
