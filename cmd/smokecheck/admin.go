package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"smokecheck/internal/core"
	"smokecheck/pkg/domain"
)

type favoritesView struct {
	Kind domain.EntityKind `json:"kind"`
	IDs  []string          `json:"ids"`
}

func emitFavorites(s *session, kind domain.EntityKind, ids []string) error {
	return s.out.emit(favoritesView{Kind: kind, IDs: ids}, func(w io.Writer) {
		for _, id := range ids {
			_, _ = fmt.Fprintln(w, id)
		}
		_, _ = fmt.Fprintf(w, "%d favorite %s(s)\n", len(ids), kind)
	})
}

func newFavoritesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "favorites", Short: "Manage favorite projects, buildings, zones and shutters"}

	list := &cobra.Command{
		Use:   "list <kind>",
		Short: "List favorite ids of a kind (project, building, zone, shutter)",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			kind, err := domain.ParseEntityKind(args[0])
			if err != nil {
				return err
			}
			ids, err := s.store.Favorites(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return emitFavorites(s, kind, ids)
		}),
	}

	set := &cobra.Command{
		Use:   "set <kind> [id]...",
		Short: "Replace the favorites of a kind with the given ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			kind, err := domain.ParseEntityKind(args[0])
			if err != nil {
				return err
			}
			if err := s.store.SetFavorites(cmd.Context(), kind, args[1:]); err != nil {
				return err
			}
			ids, err := s.store.Favorites(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return emitFavorites(s, kind, ids)
		}),
	}

	toggle := &cobra.Command{
		Use:   "toggle <kind> <id>",
		Short: "Add the id to the favorites of its kind, or remove it when present",
		Args:  cobra.ExactArgs(2),
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, args []string) error {
			kind, err := domain.ParseEntityKind(args[0])
			if err != nil {
				return err
			}
			ids, err := s.store.Favorites(cmd.Context(), kind)
			if err != nil {
				return err
			}
			next := make([]string, 0, len(ids)+1)
			for _, id := range ids {
				if id != args[1] {
					next = append(next, id)
				}
			}
			if len(next) == len(ids) {
				next = append(next, args[1])
			}
			if err := s.store.SetFavorites(cmd.Context(), kind, next); err != nil {
				return err
			}
			if ids, err = s.store.Favorites(cmd.Context(), kind); err != nil {
				return err
			}
			return emitFavorites(s, kind, ids)
		}),
	}

	cmd.AddCommand(list, set, toggle)
	return cmd
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the project tree in its stored JSON form",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			payload, err := core.EncodeProjects(s.store.Projects(cmd.Context()))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), payload)
			return err
		}),
	}
}

func newInfoCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show storage counts and the serialized tree size",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			info, err := s.store.StorageInfo(cmd.Context())
			if err != nil {
				return err
			}
			return s.out.emit(info, func(w io.Writer) {
				table(w, "FIELD\tVALUE", func(tw io.Writer) {
					_, _ = fmt.Fprintf(tw, "driver\t%s\n", info.Driver)
					_, _ = fmt.Fprintf(tw, "projects\t%d\n", info.ProjectCount)
					_, _ = fmt.Fprintf(tw, "buildings\t%d\n", info.BuildingCount)
					_, _ = fmt.Fprintf(tw, "zones\t%d\n", info.ZoneCount)
					_, _ = fmt.Fprintf(tw, "shutters\t%d\n", info.ShutterCount)
					_, _ = fmt.Fprintf(tw, "favorites\t%d\n", info.FavoriteCount)
					_, _ = fmt.Fprintf(tw, "history\t%d\n", info.HistoryCount)
					_, _ = fmt.Fprintf(tw, "size\t%d bytes\n", info.SizeBytes)
				})
			})
		}),
	}
}

func newClearCommand(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every project, favorite and history entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usageErrorf("refusing to clear all data without --yes")
			}
			return opts.withSession(func(cmd *cobra.Command, s *session, _ []string) error {
				if err := s.store.ClearAllData(cmd.Context()); err != nil {
					return err
				}
				keys := s.store.Keys().All()
				return s.out.emit(map[string][]string{"removed": keys}, func(w io.Writer) {
					_, _ = fmt.Fprintf(w, "removed %s\n", strings.Join(keys, ", "))
				})
			})(cmd, args)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func newMetricsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Load the store and print this process's Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			s.store.Initialize(cmd.Context())
			return s.recorder.WriteText(cmd.OutOrStdout())
		}),
	}
}
