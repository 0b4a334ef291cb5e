// Package runner drives a full scan: lock, discovery, bounded
// concurrent rule evaluation, baseline filtering, and output.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scanline/internal/baseline"
	"scanline/internal/cache"
	"scanline/internal/config"
	"scanline/internal/engine"
	"scanline/internal/gate"
	"scanline/internal/ignore"
	"scanline/internal/lockfile"
	"scanline/internal/model"
	"scanline/internal/report"
	"scanline/internal/rules"
)

// workDirName holds the lock, cache, and default rule database under
// the scan root.
const workDirName = ".scanline"

// Options configures one run.
type Options struct {
	Root             string
	Config           *config.Config
	GenerateBaseline bool
	Quiet            int
	Progress         bool
	Out              io.Writer
	Log              *zap.SugaredLogger
}

// Run executes the scan and returns the process exit code. A non-nil
// error is fatal (lock contention, rule database failure); enforcement
// failures return code 1 with a nil error after the report is written.
func Run(ctx context.Context, opts Options) (int, error) {
	cfg := opts.Config
	log := opts.Log
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	start := time.Now()

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return 1, err
	}
	workDir := filepath.Join(root, workDirName)

	lock := lockfile.New(filepath.Join(workDir, "run.lock"), log)
	if err := lock.Acquire(); err != nil {
		return 1, err
	}
	defer lock.Release()

	ruleSet, err := rules.Load(rulesPath(root, cfg))
	if err != nil {
		return 1, err
	}
	defer ruleSet.Close()

	overrides, err := rules.ParseOverrides(cfg.Overrides)
	if err != nil {
		return 1, err
	}

	ign := ignore.Resolve(root, cfg.Ignores)

	c := cache.New(filepath.Join(workDir, "cache.json"), ruleSet.Hash())
	if cfg.CacheEnabled {
		if !c.Load() {
			log.Debugw("starting with empty cache", "path", filepath.Join(workDir, "cache.json"))
		}
	}

	bl := baseline.New(baselinePath(root, cfg))
	if !opts.GenerateBaseline {
		if _, err := bl.Load(); err != nil {
			log.Warnw("baseline unreadable, treating as absent", "error", err)
		}
	}

	candidates, err := discover(root, cfg.ExtensionSet(), ign)
	if err != nil {
		return 1, fmt.Errorf("discover files: %w", err)
	}

	eng := engine.New(engine.Options{
		Rules:              ruleSet,
		Overrides:          overrides,
		Cache:              c,
		UseCache:           cfg.CacheEnabled,
		StreamingThreshold: cfg.StreamingThreshold,
		Log:                log,
	})

	results := scanAll(ctx, opts, candidates, eng)

	if cfg.CacheEnabled {
		if err := c.Save(); err != nil {
			log.Warnw("failed to persist cache", "error", err)
		}
	}

	files, all := aggregate(results)

	if opts.GenerateBaseline {
		// Baseline generation never fails the run.
		if err := bl.Generate(all); err != nil {
			log.Warnw("failed to write baseline", "error", err)
		} else if opts.Quiet == 0 {
			fmt.Fprintf(out, "baseline written: %d findings accepted\n", len(all))
		}
		return 0, nil
	}

	reportFindings := all
	if cfg.Mode != config.ModeAudit {
		reportFindings = bl.FilterNew(all)
	}
	stats := bl.Stats(all)

	rep := &model.Report{
		RunID:       uuid.NewString(),
		Root:        root,
		Mode:        cfg.Mode,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		DurationMs:  time.Since(start).Milliseconds(),
		Files:       files,
		Findings:    reportFindings,
		Baseline:    model.BaselineStats{Total: stats.Total, Baselined: stats.Baselined, New: stats.New},
		Rules:       ruleSet.Infos(),
	}
	rep.Tally()

	fmtr, err := report.New(cfg.Format, opts.Quiet)
	if err != nil {
		return 1, err
	}
	if err := fmtr.Write(out, rep); err != nil {
		return 1, fmt.Errorf("write report: %w", err)
	}

	if cfg.Mode == config.ModeEnforce && rep.Totals.Errors > 0 {
		return 1, nil
	}
	return 0, nil
}

// scanAll submits one engine task per candidate through the gate.
// Admission stops once ctx is cancelled; in-flight tasks finish.
// Per-file errors are logged and that file's slot stays nil.
func scanAll(ctx context.Context, opts Options, candidates []candidate, eng *engine.Engine) []*model.FileResult {
	g := gate.New(opts.Config.Concurrency)
	results := make([]*model.FileResult, len(candidates))

	var (
		wg   sync.WaitGroup
		done atomic.Int64
	)
	for i, cand := range candidates {
		if ctx.Err() != nil {
			opts.Log.Infow("shutdown requested, skipping remaining files",
				"remaining", len(candidates)-i)
			break
		}
		wg.Add(1)
		go func(i int, cand candidate) {
			defer wg.Done()
			err := g.Run(ctx, func() error {
				res, err := eng.Scan(cand.path, cand.rel)
				if err != nil {
					return err
				}
				results[i] = &res
				return nil
			})
			if err != nil && ctx.Err() == nil {
				opts.Log.Debugw("skipping unreadable file", "file", cand.rel, "error", err)
			}
			n := done.Add(1)
			if opts.Progress {
				fmt.Fprintf(os.Stderr, "\rscanned %d/%d", n, len(candidates))
			}
		}(i, cand)
	}
	wg.Wait()
	if opts.Progress && len(candidates) > 0 {
		fmt.Fprintln(os.Stderr)
	}
	return results
}

// aggregate flattens per-file results into a deterministic order.
// Completion order is nondeterministic, so both files and findings are
// sorted before any consumer sees them.
func aggregate(results []*model.FileResult) ([]model.FileResult, []model.Finding) {
	files := make([]model.FileResult, 0, len(results))
	var findings []model.Finding
	for _, r := range results {
		if r == nil {
			continue
		}
		files = append(files, *r)
		findings = append(findings, r.Findings...)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.RuleName < b.RuleName
	})
	return files, findings
}

func rulesPath(root string, cfg *config.Config) string {
	p := cfg.RulesDB
	if p == "" {
		p = filepath.Join(workDirName, "rules.db")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return p
}

func baselinePath(root string, cfg *config.Config) string {
	p := cfg.BaselineFile
	if p == "" {
		p = ".scanline-baseline.json"
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return p
}
