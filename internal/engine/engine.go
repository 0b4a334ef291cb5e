// Package engine evaluates the active rule set against a single file,
// consulting the content cache to skip unchanged files.
package engine

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"scanline/internal/cache"
	"scanline/internal/model"
	"scanline/internal/rules"
	"scanline/internal/stream"
)

// suppressMarker anywhere on a line exempts that line from rule
// evaluation entirely.
const suppressMarker = "scanline-ignore"

// commentPrefixes mark lines that are skipped for rule evaluation.
var commentPrefixes = []string{"//", "#", "/*", "*", "<!--"}

// Engine scans files against an immutable rule set. Severity
// overrides are resolved at match time; the rule set is never mutated.
type Engine struct {
	rules     *rules.Set
	overrides rules.Overrides
	cache     *cache.Cache
	useCache  bool
	threshold int64
	log       *zap.SugaredLogger
}

// Options configures a scan engine.
type Options struct {
	Rules     *rules.Set
	Overrides rules.Overrides
	Cache     *cache.Cache
	UseCache  bool
	// StreamingThreshold is the file size above which content is
	// consumed through the chunked line reader instead of one read.
	StreamingThreshold int64
	Log                *zap.SugaredLogger
}

// New creates an engine. A nil cache disables caching regardless of
// UseCache.
func New(opts Options) *Engine {
	return &Engine{
		rules:     opts.Rules,
		overrides: opts.Overrides,
		cache:     opts.Cache,
		useCache:  opts.UseCache && opts.Cache != nil,
		threshold: opts.StreamingThreshold,
		log:       opts.Log,
	}
}

// Scan evaluates one file. path is the absolute location on disk and
// doubles as the cache key; rel is the root-relative path stamped on
// findings. Per-file errors are returned to the caller, which logs
// and omits the file without aborting the run.
func (e *Engine) Scan(path, rel string) (model.FileResult, error) {
	start := time.Now()

	info, err := os.Stat(path)
	if err != nil {
		return model.FileResult{}, err
	}
	streaming := e.threshold > 0 && info.Size() > e.threshold

	var (
		hash    string
		content []byte
	)
	if streaming {
		hash, err = stream.HashFile(path)
		if err != nil {
			return model.FileResult{}, err
		}
	} else {
		content, err = os.ReadFile(path)
		if err != nil {
			return model.FileResult{}, err
		}
		hash = stream.HashBytes(content)
	}

	if e.useCache {
		if findings, ok := e.cache.Get(path, hash); ok {
			return model.FileResult{
				Path:        rel,
				LineCount:   0,
				Findings:    findings,
				Score:       model.Score(findings),
				Cached:      true,
				ParseTimeMs: time.Since(start).Milliseconds(),
			}, nil
		}
	}

	var (
		findings  []model.Finding
		lineCount int
	)
	if streaming {
		it, err := stream.Open(path)
		if err != nil {
			return model.FileResult{}, err
		}
		for it.Next() {
			findings = e.evalLine(findings, rel, it.Text(), it.Line())
			lineCount = it.Line()
		}
		closeErr := it.Close()
		if err := it.Err(); err != nil {
			return model.FileResult{}, err
		}
		if closeErr != nil {
			e.log.Debugw("close after streaming scan", "file", rel, "error", closeErr)
		}
	} else {
		lines := strings.Split(string(content), "\n")
		for i, line := range lines {
			// Split leaves one trailing empty element for files
			// ending in a newline; it holds no line of its own.
			if i == len(lines)-1 && line == "" {
				break
			}
			findings = e.evalLine(findings, rel, strings.TrimSuffix(line, "\r"), i+1)
			lineCount = i + 1
		}
	}

	// Always refresh the entry so the next run hits.
	if e.cache != nil {
		e.cache.Set(path, hash, findings)
	}

	if findings == nil {
		findings = []model.Finding{}
	}
	return model.FileResult{
		Path:        rel,
		LineCount:   lineCount,
		Findings:    findings,
		Score:       model.Score(findings),
		ParseTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// evalLine matches every enabled rule against one line and appends
// the resulting findings. Comment lines and lines carrying the inline
// suppression marker are skipped entirely.
func (e *Engine) evalLine(findings []model.Finding, rel, text string, line int) []model.Finding {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || isComment(trimmed) {
		return findings
	}
	if strings.Contains(text, suppressMarker) {
		return findings
	}

	for _, r := range e.rules.Rules() {
		sev, enabled := e.overrides.Severity(r.Name, r.Severity)
		if !enabled {
			continue
		}
		for _, loc := range r.Pattern.FindAllStringIndex(text, -1) {
			findings = append(findings, model.Finding{
				File:      rel,
				Line:      line,
				Column:    loc[0] + 1,
				EndColumn: loc[1] + 1,
				RuleName:  r.Name,
				Category:  r.Category,
				Message:   message(r),
				Severity:  sev,
			})
		}
	}
	return findings
}

func isComment(trimmed string) bool {
	for _, p := range commentPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

func message(r rules.Rule) string {
	if r.Suggestion != "" {
		return r.Suggestion
	}
	return "matched rule " + r.Name
}
