// Package textfile stores department tickets in plain UTF-8 text files,
// one file per department and one record per line.
package textfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/steveyegge/triage/internal/storage"
	"github.com/steveyegge/triage/internal/types"
)

// DefaultDataDir is where department files live unless configured otherwise
const DefaultDataDir = "data"

// Store is a storage.Store backed by one text file per department
type Store struct {
	dir string
}

// Compile-time check that Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// New creates a store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	if dir == "" {
		dir = DefaultDataDir
	}
	return &Store{dir: dir}
}

// Dir returns the data directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the backing file for a department
func (s *Store) Path(dept types.Department) string {
	return filepath.Join(s.dir, dept.File)
}

// Load reads all well-formed records of a department.
// A missing file is an empty department, not an error.
func (s *Store) Load(ctx context.Context, dept types.Department) ([]types.TicketRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(dept)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []types.TicketRecord{}, nil
	}
	if err != nil {
		return nil, &types.StoreIOError{Op: "load", Department: dept.Label, Path: path, Err: err}
	}

	records, skipped := Parse(string(data))
	if skipped > 0 {
		log.Printf("[WARN] Skipped %d malformed line(s) in %s", skipped, path)
	}
	return records, nil
}

// Save rewrites the department file with records.
// The content is written to a temp file in the same directory and renamed
// over the target, so readers see either the old or the new file.
func (s *Store) Save(ctx context.Context, dept types.Department, records []types.TicketRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(dept)
	if err := writeAtomic(path, []byte(Format(records))); err != nil {
		return &types.StoreIOError{Op: "save", Department: dept.Label, Path: path, Err: err}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting file mode: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Clean up on error (best effort)
		return fmt.Errorf("committing file: %w", err)
	}
	return nil
}
