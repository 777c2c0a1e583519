// Package fs implements the key-value Store on the local filesystem, one file per key.
package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"smokecheck/internal/kv/core"
)

const fileSuffix = ".json"

// Store maps each key to a file under root. Writes go through a temp file and
// rename so a crash never leaves a half written value behind.
type Store struct {
	root string
}

// New returns a filesystem-backed store rooted at root, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./smokecheck-data"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create kv root: %w", err)
	}
	return &Store{root: root}, nil
}

// Driver returns the kv driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Root returns the directory values are stored under.
func (s *Store) Root() string { return s.root }

// sanitizeKey escapes the key into a single path element that cannot leave root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty key", core.ErrInvalidKey)
	}
	name := url.PathEscape(key)
	name = strings.ReplaceAll(name, ":", "%3A")
	name = strings.ReplaceAll(name, "/", "%2F")
	if name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidKey, key)
	}
	return name, nil
}

func (s *Store) pathFor(key string) (string, error) {
	name, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, name+fileSuffix), nil
}

// Get reads the file backing key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return "", false, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return string(b), true, nil
}

// Set atomically replaces the file backing key.
func (s *Store) Set(_ context.Context, key, value string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// MultiRemove deletes the files backing keys, skipping missing ones.
func (s *Store) MultiRemove(_ context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		path, err := s.pathFor(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
