package report

import (
	"fmt"
	"io"

	"scanline/internal/model"
)

// GitHub emits one workflow annotation command per finding.
type GitHub struct{}

func (GitHub) Write(w io.Writer, r *model.Report) error {
	for _, f := range r.Findings {
		fmt.Fprintf(w, "::%s file=%s,line=%d,col=%d::%s [%s]\n",
			annotationLevel(f.Severity), f.File, f.Line, f.Column, f.Message, f.Category)
	}
	return nil
}

// annotationLevel maps info to notice; error and warning pass through.
func annotationLevel(sev model.Severity) string {
	if sev == model.SevInfo {
		return "notice"
	}
	return string(sev)
}
