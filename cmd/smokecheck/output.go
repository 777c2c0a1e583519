package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"smokecheck/pkg/compliance"
	"smokecheck/pkg/domain"
)

// response is the JSON envelope written in --format json.
type response struct {
	Status string         `json:"status"`
	Data   any            `json:"data,omitempty"`
	Error  *responseError `json:"error,omitempty"`
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type printer struct {
	format string
	w      io.Writer
}

func (o *rootOptions) printer(cmd *cobra.Command) printer {
	return printer{format: o.format, w: cmd.OutOrStdout()}
}

// emit writes data as a JSON envelope, or calls text for human output.
func (p printer) emit(data any, text func(w io.Writer)) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(response{Status: "ok", Data: data})
	}
	text(p.w)
	return nil
}

func table(w io.Writer, header string, rows func(tw io.Writer)) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, header)
	rows(tw)
	_ = tw.Flush()
}

func opt(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func formatDeviation(r compliance.Result) string {
	if !r.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", r.Deviation)
}

func shutterLine(sh domain.Shutter) string {
	r := compliance.ClassifyShutter(sh)
	return fmt.Sprintf("%s [%s] ref=%g measured=%g %s %s (%s)",
		sh.Name, sh.Type, sh.ReferenceFlow, sh.MeasuredFlow, formatDeviation(r), r.Label, sh.ID)
}

func printTree(w io.Writer, p domain.Project) {
	_, _ = fmt.Fprintf(w, "%s (%s) city=%s\n", p.Name, p.ID, opt(p.City))
	for _, b := range p.Buildings {
		_, _ = fmt.Fprintf(w, "  %s (%s)\n", b.Name, b.ID)
		for _, z := range b.FunctionalZones {
			_, _ = fmt.Fprintf(w, "    %s (%s)\n", z.Name, z.ID)
			for _, sh := range z.Shutters {
				_, _ = fmt.Fprintf(w, "      %s\n", shutterLine(sh))
			}
		}
	}
}

func summaryLine(s compliance.Summary) string {
	return fmt.Sprintf("%d shutters: %d compliant, %d acceptable, %d non-compliant, %d invalid, rate %.1f%%",
		s.Total, s.Compliant, s.Acceptable, s.NonCompliant, s.Invalid, s.ComplianceRate())
}
