package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"

	"scanline/internal/model"
)

// Rule is one compiled lint rule. Rules are immutable once loaded;
// severity overrides are applied at match time, never written back.
type Rule struct {
	ID         int64
	Name       string
	Pattern    *regexp.Regexp
	Category   string
	Scope      string
	Suggestion string
	Severity   model.Severity
	Enabled    bool
}

// Set is the active rule set for a run plus the database handle it
// was loaded from. The slice order matches the database row order.
type Set struct {
	rules  []Rule
	hash   string
	closer func() error
}

// NewSet builds a Set from already-compiled rules. Load uses it
// internally; it is also the entry point for programmatic rule sets.
func NewSet(rs []Rule) *Set {
	return &Set{rules: rs, hash: hashRules(rs)}
}

// Rules returns the active rules in load order.
func (s *Set) Rules() []Rule {
	return s.rules
}

// Hash returns a deterministic digest over the (name, pattern) pairs
// of the active rules, sorted by name. Any change to a rule's pattern
// changes the hash, which invalidates the content cache.
func (s *Set) Hash() string {
	return s.hash
}

// Infos returns the reportable view of the rule set.
func (s *Set) Infos() []model.RuleInfo {
	infos := make([]model.RuleInfo, len(s.rules))
	for i, r := range s.rules {
		infos[i] = model.RuleInfo{
			ID:         r.ID,
			Name:       r.Name,
			Category:   r.Category,
			Severity:   r.Severity,
			Suggestion: r.Suggestion,
		}
	}
	return infos
}

// Close releases the underlying database handle, if any.
func (s *Set) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func hashRules(rs []Rule) string {
	pairs := make([][2]string, len(rs))
	for i, r := range rs {
		pairs[i] = [2]string{r.Name, r.Pattern.String()}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })

	h := sha256.New()
	for _, p := range pairs {
		h.Write([]byte(p[0]))
		h.Write([]byte{0})
		h.Write([]byte(p[1]))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Level is a per-rule override from configuration.
type Level string

const (
	LevelOff   Level = "off"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Overrides maps rule names to override levels. Missing entries keep
// the rule's own severity.
type Overrides map[string]Level

// ParseOverrides validates a raw name→level map from configuration.
func ParseOverrides(raw map[string]string) (Overrides, error) {
	ov := make(Overrides, len(raw))
	for name, lvl := range raw {
		switch Level(lvl) {
		case LevelOff, LevelWarn, LevelError:
			ov[name] = Level(lvl)
		default:
			return nil, &LoadError{Problems: []string{"invalid override level " + lvl + " for rule " + name}}
		}
	}
	return ov, nil
}

// Severity resolves the effective severity for a rule name: the
// override level if one exists, else fallback. The second return is
// false when the rule is overridden off and must not be evaluated.
func (o Overrides) Severity(name string, fallback model.Severity) (model.Severity, bool) {
	lvl, ok := o[name]
	if !ok {
		return fallback, true
	}
	switch lvl {
	case LevelOff:
		return fallback, false
	case LevelWarn:
		return model.SevWarning, true
	case LevelError:
		return model.SevError, true
	}
	return fallback, true
}
