// Package report renders an aggregated scan report through one of the
// supported output protocols.
package report

import (
	"fmt"
	"io"

	"scanline/internal/config"
	"scanline/internal/model"
)

// Formatter writes a complete report to w.
type Formatter interface {
	Write(w io.Writer, r *model.Report) error
}

// New returns the formatter for the given format name.
func New(format string, quiet int) (Formatter, error) {
	switch format {
	case config.FormatTable:
		return &Table{Quiet: quiet}, nil
	case config.FormatJSON:
		return &JSON{}, nil
	case config.FormatSARIF:
		return &SARIF{}, nil
	case config.FormatGitHub:
		return &GitHub{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}
