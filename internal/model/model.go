package model

// Severity classifies how serious a rule violation is.
type Severity string

const (
	SevError   Severity = "error"
	SevWarning Severity = "warning"
	SevInfo    Severity = "info"
)

// Valid reports whether s is one of the known severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SevError, SevWarning, SevInfo:
		return true
	}
	return false
}

// Finding is a single rule violation at a specific location.
// Line and Column are 1-based. Findings are never mutated after creation.
type Finding struct {
	File      string   `json:"file"`
	Line      int      `json:"line"`
	Column    int      `json:"column"`
	EndColumn int      `json:"endColumn"`
	RuleName  string   `json:"ruleName"`
	Category  string   `json:"category"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
}

// FileResult is the outcome of scanning one file.
type FileResult struct {
	Path        string    `json:"path"`
	LineCount   int       `json:"lineCount"`
	Findings    []Finding `json:"findings"`
	Score       int       `json:"score"`
	Cached      bool      `json:"cached"`
	ParseTimeMs int64     `json:"parseTimeMs"`
}

// Score computes the 0-100 quality score for a set of findings:
// 100 minus 20 per error, 10 per warning, 5 per info, floored at 0.
func Score(findings []Finding) int {
	score := 100
	for _, f := range findings {
		switch f.Severity {
		case SevError:
			score -= 20
		case SevWarning:
			score -= 10
		case SevInfo:
			score -= 5
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

// RuleInfo is the reportable view of an active rule, carried on the
// report so formatters (SARIF in particular) can emit rule metadata
// without reaching back into the rule store.
type RuleInfo struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Totals aggregates per-severity counts across a run.
type Totals struct {
	Files    int `json:"files"`
	Cached   int `json:"cached"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

// BaselineStats summarizes how the baseline applied to a run.
type BaselineStats struct {
	Total     int `json:"total"`
	Baselined int `json:"baselined"`
	New       int `json:"new"`
}

// Report is the fully aggregated result of one scan run, handed to
// the output formatters after baseline filtering.
type Report struct {
	RunID       string        `json:"runId"`
	Root        string        `json:"root"`
	Mode        string        `json:"mode"`
	GeneratedAt string        `json:"generatedAt"`
	DurationMs  int64         `json:"durationMs"`
	Files       []FileResult  `json:"files"`
	Findings    []Finding     `json:"findings"`
	Totals      Totals        `json:"totals"`
	Baseline    BaselineStats `json:"baseline"`
	Rules       []RuleInfo    `json:"rules"`
}

// Tally recomputes the report's totals from its files and findings.
func (r *Report) Tally() {
	r.Totals = Totals{Files: len(r.Files)}
	for _, fr := range r.Files {
		if fr.Cached {
			r.Totals.Cached++
		}
	}
	for _, f := range r.Findings {
		switch f.Severity {
		case SevError:
			r.Totals.Errors++
		case SevWarning:
			r.Totals.Warnings++
		case SevInfo:
			r.Totals.Infos++
		}
	}
}
