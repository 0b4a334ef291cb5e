package rules

import (
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"scanline/internal/model"
)

// LoadError aggregates every problem found while loading the rule
// database. Loading is all-or-nothing: a single bad pattern fails the
// whole load rather than silently dropping the rule.
type LoadError struct {
	Problems []string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("rule database load failed: %s", strings.Join(e.Problems, "; "))
}

// Load opens the SQLite rule database at dbPath and returns the set of
// enabled rules in row order, with every pattern compiled as a
// multiline regex. The returned Set owns the database handle.
func Load(dbPath string) (*Set, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, &LoadError{Problems: []string{err.Error()}}
	}

	// go-sqlite3 only honors query parameters on file: URIs; a bare
	// path would silently open read-write.
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, &LoadError{Problems: []string{err.Error()}}
	}

	rows, err := db.Query(`
		SELECT id, name, pattern, category, scope, suggestion, severity
		FROM rules
		WHERE enabled = 1
		ORDER BY id
	`)
	if err != nil {
		db.Close()
		return nil, &LoadError{Problems: []string{err.Error()}}
	}
	defer rows.Close()

	var (
		loaded   []Rule
		problems []string
	)
	for rows.Next() {
		var r Rule
		var pattern, severity string
		if err := rows.Scan(&r.ID, &r.Name, &pattern, &r.Category, &r.Scope, &r.Suggestion, &severity); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		r.Enabled = true
		r.Severity = model.Severity(severity)
		if !r.Severity.Valid() {
			problems = append(problems, fmt.Sprintf("rule %q: unknown severity %q", r.Name, severity))
			continue
		}
		re, err := regexp.Compile("(?m)" + pattern)
		if err != nil {
			problems = append(problems, fmt.Sprintf("rule %q: %v", r.Name, err))
			continue
		}
		r.Pattern = re
		loaded = append(loaded, r)
	}
	if err := rows.Err(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		db.Close()
		return nil, &LoadError{Problems: problems}
	}

	set := NewSet(loaded)
	set.closer = db.Close
	return set, nil
}
