package cmd

import (
	"context"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"scanline/internal/config"
	"scanline/internal/ignore"
	"scanline/internal/logging"
	"scanline/internal/runner"
)

// rescans are debounced so editor save bursts trigger one scan.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Rescan on file changes (audit semantics, never exits non-zero on findings)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		log, err := logging.New(flagVerbose)
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)
		cfg.Mode = config.ModeAudit
		if err := cfg.Validate(); err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()

		ign := ignore.Resolve(root, cfg.Ignores)
		if err := addDirs(watcher, root, ign); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		exts := cfg.ExtensionSet()
		scan := func() {
			if _, err := runner.Run(ctx, runner.Options{
				Root:   root,
				Config: cfg,
				Quiet:  flagQuiet,
				Log:    log,
			}); err != nil {
				log.Warnw("scan failed", "error", err)
			}
		}

		scan()
		log.Infow("watching for changes", "root", root)

		var timer *time.Timer
		pending := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !relevant(ev, root, exts, ign) {
					continue
				}
				// New directories need their own watch.
				if ev.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						_ = addDirs(watcher, ev.Name, ign)
						continue
					}
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Warnw("watch error", "error", err)
			case <-pending:
				scan()
			}
		}
	},
}

// addDirs registers dir and every non-ignored subdirectory.
func addDirs(watcher *fsnotify.Watcher, dir string, ign *ignore.Set) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr == nil && rel != "." && ign.Matches(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// relevant filters events down to writes and creates of scannable files.
func relevant(ev fsnotify.Event, root string, exts map[string]bool, ign *ignore.Set) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, ev.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if ign.Matches(rel) {
		return false
	}
	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		return true
	}
	ext := filepath.Ext(ev.Name)
	return ext != "" && exts[ext[1:]]
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
