package runner

import (
	"io/fs"
	"path/filepath"
	"strings"

	"scanline/internal/ignore"
)

// candidate is a discovered file eligible for scanning.
type candidate struct {
	path string // absolute
	rel  string // slash-separated, relative to the scan root
}

// discover walks the tree rooted at root and returns files passing the
// extension filter and the ignore set. Symlinks and empty files are
// skipped; unreadable entries are skipped without failing the walk.
func discover(root string, exts map[string]bool, ign *ignore.Set) ([]candidate, error) {
	var out []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // keep walking
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if ign.Matches(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if !exts[ext] {
			return nil
		}
		if ign.Matches(rel) {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil || info.Size() == 0 {
			return nil
		}

		out = append(out, candidate{path: path, rel: rel})
		return nil
	})
	return out, err
}
