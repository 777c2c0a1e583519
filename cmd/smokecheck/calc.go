package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"smokecheck/internal/core"
	"smokecheck/pkg/compliance"
	"smokecheck/pkg/domain"
)

func newSearchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Find shutters whose names, city or remarks contain every keyword",
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			matches := s.store.SearchShutters(cmd.Context(), strings.Join(args, " "))
			return s.out.emit(matches, func(w io.Writer) {
				for _, m := range matches {
					_, _ = fmt.Fprintf(w, "%s / %s / %s / %s\n", m.ProjectName, m.BuildingName, m.ZoneName, shutterLine(m.Shutter))
				}
				_, _ = fmt.Fprintf(w, "%d match(es)\n", len(matches))
			})
		}),
	}
}

type classification struct {
	Result compliance.Result      `json:"result"`
	Entry  *domain.QuickCalcEntry `json:"entry,omitempty"`
}

func parseFlow(label, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, usageErrorf("%s flow %q is not a number", label, raw)
	}
	return v, nil
}

func newClassifyCommand(opts *rootOptions) *cobra.Command {
	var (
		save    bool
		rawType string
	)
	cmd := &cobra.Command{
		Use:   "classify <reference> <measured>",
		Short: "Classify a measurement against its reference flow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reference, err := parseFlow("reference", args[0])
			if err != nil {
				return err
			}
			measured, err := parseFlow("measured", args[1])
			if err != nil {
				return err
			}
			var typ *domain.ShutterType
			if rawType != "" {
				t, err := domain.ParseShutterType(rawType)
				if err != nil {
					return err
				}
				typ = &t
			}
			out := classification{Result: compliance.Classify(reference, measured)}
			p := opts.printer(cmd)
			if save {
				if !out.Result.Valid {
					return usageErrorf("refusing to save an invalid measurement")
				}
				s, err := opts.open(cmd)
				if err != nil {
					return err
				}
				defer s.close()
				entry, err := s.store.AddHistory(cmd.Context(), compliance.NewQuickCalcEntry(reference, measured, typ))
				if err != nil {
					return err
				}
				out.Entry = &entry
			}
			return p.emit(out, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "%s %s (%s)\n", formatDeviation(out.Result), out.Result.Label, out.Result.Color)
				if out.Entry != nil {
					_, _ = fmt.Fprintf(w, "saved to history as %s\n", out.Entry.ID)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "record the result in the quick-calc history")
	cmd.Flags().StringVar(&rawType, "type", "", "shutter type (high|low) stored with the history entry")
	return cmd
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: fmt.Sprintf("Show or clear the last %d quick calculations", core.HistoryCapacity),
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List quick calculations, most recent first",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			entries := s.store.History(cmd.Context())
			return s.out.emit(entries, func(w io.Writer) {
				table(w, "ID\tTIME\tTYPE\tREFERENCE\tMEASURED\tDEVIATION\tSTATUS", func(tw io.Writer) {
					for _, e := range entries {
						typ := "-"
						if e.ShutterType != nil {
							typ = string(*e.ShutterType)
						}
						_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%g\t%+.2f%%\t%s\n",
							e.ID, e.Timestamp.Format(time.DateTime), typ, e.ReferenceFlow, e.MeasuredFlow, e.Deviation, e.Status)
					}
				})
			})
		}),
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the quick-calc history",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			if err := s.store.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			return s.out.emit(map[string]int{"cleared": 1}, func(w io.Writer) {
				_, _ = fmt.Fprintln(w, "history cleared")
			})
		}),
	}
	cmd.AddCommand(list, clearCmd)
	return cmd
}

func newReportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report [project-id]",
		Short: "Compliance breakdown per project, building and zone",
		Args:  cobra.MaximumNArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			var projects []domain.Project
			if len(args) == 1 {
				p, ok := s.store.Project(cmd.Context(), args[0])
				if !ok {
					return notFound(domain.EntityProject, args[0])
				}
				projects = []domain.Project{p}
			} else {
				projects = s.store.Projects(cmd.Context())
			}
			reports := make([]compliance.ProjectReport, 0, len(projects))
			for _, p := range projects {
				reports = append(reports, compliance.ReportProject(p))
			}
			return s.out.emit(reports, func(w io.Writer) {
				for _, r := range reports {
					_, _ = fmt.Fprintf(w, "%s: %s\n", r.ProjectName, summaryLine(r.Summary))
					for _, b := range r.Buildings {
						_, _ = fmt.Fprintf(w, "  %s: %s\n", b.BuildingName, summaryLine(b.Summary))
						for _, z := range b.Zones {
							_, _ = fmt.Fprintf(w, "    %s: %s\n", z.ZoneName, summaryLine(z.Summary))
						}
					}
				}
			})
		}),
	}
}
