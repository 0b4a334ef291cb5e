package report

import (
	"encoding/json"
	"io"

	"scanline/internal/model"
)

// JSON emits the full report document, machine-readable.
type JSON struct{}

func (JSON) Write(w io.Writer, r *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
