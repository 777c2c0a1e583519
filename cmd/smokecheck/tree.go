package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"smokecheck/pkg/domain"
)

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, usageErrorf("invalid date %q (want YYYY-MM-DD or RFC3339)", raw)
}

// changedString returns a pointer to the flag value when the user set it.
func changedString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func changedFloat(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}

func changedDate(cmd *cobra.Command, name string) (*time.Time, error) {
	raw := changedString(cmd, name)
	if raw == nil {
		return nil, nil
	}
	t, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func changedShutterType(cmd *cobra.Command) (*domain.ShutterType, error) {
	raw := changedString(cmd, "type")
	if raw == nil {
		return nil, nil
	}
	t, err := domain.ParseShutterType(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func deleted(s *session, kind domain.EntityKind, id string) error {
	return s.out.emit(map[string]string{"deleted": id, "kind": string(kind)}, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "deleted %s %s\n", kind, id)
	})
}

func newProjectCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "project", Short: "Manage survey projects"}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			in := domain.Project{City: changedString(cmd, "city")}
			in.Name, _ = cmd.Flags().GetString("name")
			var err error
			if in.StartDate, err = changedDate(cmd, "start"); err != nil {
				return err
			}
			if in.EndDate, err = changedDate(cmd, "end"); err != nil {
				return err
			}
			p, err := s.store.CreateProject(cmd.Context(), in)
			if err != nil {
				return err
			}
			return s.out.emit(p, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "created project %s %s\n", p.ID, p.Name)
			})
		}),
	}
	projectFlags(create)
	_ = create.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			projects := s.store.Projects(cmd.Context())
			return s.out.emit(projects, func(w io.Writer) {
				table(w, "ID\tNAME\tCITY\tBUILDINGS\tSHUTTERS\tUPDATED", func(tw io.Writer) {
					for _, p := range projects {
						_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
							p.ID, p.Name, opt(p.City), len(p.Buildings), p.ShutterCount(), p.UpdatedAt.Format(time.DateTime))
					}
				})
			})
		}),
	}

	show := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			p, ok := s.store.Project(cmd.Context(), args[0])
			if !ok {
				return notFound(domain.EntityProject, args[0])
			}
			return s.out.emit(p, func(w io.Writer) { printTree(w, p) })
		}),
	}

	update := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update project fields",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			patch := domain.ProjectPatch{Name: changedString(cmd, "name"), City: changedString(cmd, "city")}
			var err error
			if patch.StartDate, err = changedDate(cmd, "start"); err != nil {
				return err
			}
			if patch.EndDate, err = changedDate(cmd, "end"); err != nil {
				return err
			}
			p, found, err := s.store.UpdateProject(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			if !found {
				return notFound(domain.EntityProject, args[0])
			}
			return s.out.emit(p, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "updated project %s %s\n", p.ID, p.Name)
			})
		}),
	}
	projectFlags(update)

	del := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project with all its buildings, zones and shutters",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			ok, err := s.store.DeleteProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return notFound(domain.EntityProject, args[0])
			}
			return deleted(s, domain.EntityProject, args[0])
		}),
	}

	cmd.AddCommand(create, list, show, update, del)
	return cmd
}

func projectFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "project name")
	cmd.Flags().String("city", "", "city")
	cmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "end date (YYYY-MM-DD)")
}

func describedFlags(cmd *cobra.Command, what string) {
	cmd.Flags().String("name", "", what+" name")
	cmd.Flags().String("description", "", "free-form description")
}

func newBuildingCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "building", Short: "Manage buildings of a project"}

	add := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a building to a project",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			in := domain.Building{Description: changedString(cmd, "description")}
			in.Name, _ = cmd.Flags().GetString("name")
			b, found, err := s.store.CreateBuilding(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			if !found {
				return notFound(domain.EntityProject, args[0])
			}
			return s.out.emit(b, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "created building %s %s\n", b.ID, b.Name)
			})
		}),
	}
	describedFlags(add, "building")
	_ = add.MarkFlagRequired("name")

	update := &cobra.Command{
		Use:   "update <building-id>",
		Short: "Update building fields",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			patch := domain.BuildingPatch{Name: changedString(cmd, "name"), Description: changedString(cmd, "description")}
			b, found, err := s.store.UpdateBuilding(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			if !found {
				return notFound(domain.EntityBuilding, args[0])
			}
			return s.out.emit(b, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "updated building %s %s\n", b.ID, b.Name)
			})
		}),
	}
	describedFlags(update, "building")

	del := &cobra.Command{
		Use:   "delete <building-id>",
		Short: "Delete a building with its zones and shutters",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			ok, err := s.store.DeleteBuilding(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return notFound(domain.EntityBuilding, args[0])
			}
			return deleted(s, domain.EntityBuilding, args[0])
		}),
	}

	cmd.AddCommand(add, update, del)
	return cmd
}

func newZoneCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "zone", Short: "Manage functional zones of a building"}

	add := &cobra.Command{
		Use:   "add <building-id>",
		Short: "Add a functional zone to a building",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			in := domain.FunctionalZone{Description: changedString(cmd, "description")}
			in.Name, _ = cmd.Flags().GetString("name")
			z, found, err := s.store.CreateZone(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			if !found {
				return notFound(domain.EntityBuilding, args[0])
			}
			return s.out.emit(z, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "created zone %s %s\n", z.ID, z.Name)
			})
		}),
	}
	describedFlags(add, "zone")
	_ = add.MarkFlagRequired("name")

	update := &cobra.Command{
		Use:   "update <zone-id>",
		Short: "Update zone fields",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			patch := domain.ZonePatch{Name: changedString(cmd, "name"), Description: changedString(cmd, "description")}
			z, found, err := s.store.UpdateZone(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			if !found {
				return notFound(domain.EntityZone, args[0])
			}
			return s.out.emit(z, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "updated zone %s %s\n", z.ID, z.Name)
			})
		}),
	}
	describedFlags(update, "zone")

	del := &cobra.Command{
		Use:   "delete <zone-id>",
		Short: "Delete a zone with its shutters",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			ok, err := s.store.DeleteZone(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return notFound(domain.EntityZone, args[0])
			}
			return deleted(s, domain.EntityZone, args[0])
		}),
	}

	cmd.AddCommand(add, update, del)
	return cmd
}

func shutterFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "shutter name")
	cmd.Flags().String("type", "", "shutter type (high|low)")
	cmd.Flags().Float64("reference", 0, "reference flow (m3/h)")
	cmd.Flags().Float64("measured", 0, "measured flow (m3/h)")
	cmd.Flags().String("remarks", "", "free-form remarks")
}

func newShutterCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "shutter", Short: "Manage shutters of a zone"}

	add := &cobra.Command{
		Use:   "add <zone-id>",
		Short: "Add a measured shutter to a zone",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			typ, err := changedShutterType(cmd)
			if err != nil {
				return err
			}
			in := domain.Shutter{Type: *typ, Remarks: changedString(cmd, "remarks")}
			in.Name, _ = cmd.Flags().GetString("name")
			in.ReferenceFlow, _ = cmd.Flags().GetFloat64("reference")
			in.MeasuredFlow, _ = cmd.Flags().GetFloat64("measured")
			sh, found, err := s.store.CreateShutter(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			if !found {
				return notFound(domain.EntityZone, args[0])
			}
			return s.out.emit(sh, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "created shutter %s\n", shutterLine(sh))
			})
		}),
	}
	shutterFlags(add)
	for _, name := range []string{"name", "type", "reference", "measured"} {
		_ = add.MarkFlagRequired(name)
	}

	update := &cobra.Command{
		Use:   "update <shutter-id>",
		Short: "Update shutter fields or record a new measurement",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			typ, err := changedShutterType(cmd)
			if err != nil {
				return err
			}
			patch := domain.ShutterPatch{
				Name:          changedString(cmd, "name"),
				Type:          typ,
				ReferenceFlow: changedFloat(cmd, "reference"),
				MeasuredFlow:  changedFloat(cmd, "measured"),
				Remarks:       changedString(cmd, "remarks"),
			}
			if patch.IsZero() {
				return usageErrorf("nothing to update: set at least one field flag")
			}
			sh, found, err := s.store.UpdateShutter(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			if !found {
				return notFound(domain.EntityShutter, args[0])
			}
			return s.out.emit(sh, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "updated shutter %s\n", shutterLine(sh))
			})
		}),
	}
	shutterFlags(update)

	del := &cobra.Command{
		Use:   "delete <shutter-id>",
		Short: "Delete a shutter",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			ok, err := s.store.DeleteShutter(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return notFound(domain.EntityShutter, args[0])
			}
			return deleted(s, domain.EntityShutter, args[0])
		}),
	}

	cmd.AddCommand(add, update, del)
	return cmd
}
