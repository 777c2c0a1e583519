package kv

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"smokecheck/internal/config"
	"smokecheck/internal/infra/kv/postgres"
	"smokecheck/internal/infra/kv/postgres/testutil"
)

func roundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.Set(ctx, "smokecheck:projects", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := s.Get(ctx, "smokecheck:projects")
	if err != nil || !ok || got != "[]" {
		t.Fatalf("get: %q %v %v", got, ok, err)
	}
	if err := s.MultiRemove(ctx, []string{"smokecheck:projects", "missing"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "smokecheck:projects"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		cfg  config.Storage
		want Driver
	}{
		{"memory", config.Storage{Driver: "memory"}, DriverMemory},
		{"fs", config.Storage{Driver: "fs", FSRoot: filepath.Join(dir, "data")}, DriverFilesystem},
		{"sqlite", config.Storage{Driver: "sqlite", SQLitePath: filepath.Join(dir, "kv.db")}, DriverSQLite},
		{"default", config.Storage{SQLitePath: filepath.Join(dir, "default.db")}, DriverSQLite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Open(context.Background(), tc.cfg)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer func() {
				if err := Close(s); err != nil {
					t.Fatalf("close: %v", err)
				}
			}()
			if s.Driver() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, s.Driver())
			}
			roundTrip(t, s)
		})
	}
}

func TestOpenPostgresUsesConfiguredDSN(t *testing.T) {
	db, _ := testutil.NewStubDB()
	var gotDSN string
	restore := postgres.OverrideSQLOpen(func(_, dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return db, nil
	})
	defer restore()

	s, err := Open(context.Background(), config.Storage{Driver: "postgres", PostgresDSN: "postgres://survey@db/smokecheck"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = Close(s) }()
	if gotDSN != "postgres://survey@db/smokecheck" || s.Driver() != DriverPostgres {
		t.Fatalf("unexpected dsn %q / driver %s", gotDSN, s.Driver())
	}
	roundTrip(t, s)
}

func TestOpenRejectsUnknownAndIncompleteDrivers(t *testing.T) {
	if _, err := Open(context.Background(), config.Storage{Driver: "redis"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := Open(context.Background(), config.Storage{Driver: "s3"}); err == nil {
		t.Fatalf("expected error for s3 without bucket")
	}
}

func TestCloseIgnoresStoresWithoutHandles(t *testing.T) {
	s, err := Open(context.Background(), config.Storage{Driver: "memory"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Close(s); err != nil {
		t.Fatalf("close: %v", err)
	}
}
