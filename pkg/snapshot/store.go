package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var ErrNotFound = errors.New("snapshot not found")

// Entry is one snapshot file of a source, identified by its capture time.
type Entry struct {
	Source string
	Time   time.Time
	Path   string
}

// Listing is the result of enumerating one source directory.
type Listing struct {
	Entries  []Entry      // ascending by Time
	Rejected []*NameError // .json files whose names did not parse
}

// Store keeps snapshots as root/<source>/<DD Mon YYYY HH MM>.json.
type Store struct {
	root string
	loc  *time.Location
}

// NewStore creates a file-backed snapshot store. A nil loc means time.Local.
func NewStore(root string, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{root: root, loc: loc}
}

func (s *Store) Root() string { return s.root }
func (s *Store) Location() *time.Location { return s.loc }

// Dir returns the directory holding a source's snapshots.
func (s *Store) Dir(source string) string {
	return filepath.Join(s.root, source)
}

// Path returns where the snapshot for (source, at) lives.
func (s *Store) Path(source string, at time.Time) string {
	return filepath.Join(s.Dir(source), FormatName(at.In(s.loc)))
}

// EnsureDirs creates one directory per source; existing directories are fine.
func (s *Store) EnsureDirs(sources []string) error {
	for _, name := range sources {
		if err := os.MkdirAll(s.Dir(name), 0755); err != nil {
			return fmt.Errorf("create snapshot dir for %s: %w", name, err)
		}
	}
	return nil
}

// Write persists one snapshot. The payload lands in a temp file first and is
// renamed into place so readers never observe a partial document.
func (s *Store) Write(source string, at time.Time, payload []byte) (string, error) {
	dir := s.Dir(source)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir for %s: %w", source, err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp snapshot for %s: %w", source, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write snapshot for %s: %w", source, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close snapshot for %s: %w", source, err)
	}

	path := s.Path(source, at)
	if err := os.Chmod(tmpName, 0644); err != nil {
		return "", fmt.Errorf("chmod snapshot for %s: %w", source, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("rename snapshot for %s: %w", source, err)
	}
	return path, nil
}

// Read loads the snapshot for (source, at). A missing file maps to ErrNotFound.
func (s *Store) Read(source string, at time.Time) ([]byte, error) {
	return readFile(s.Path(source, at))
}

// ReadEntry loads the file behind a listed entry.
func (s *Store) ReadEntry(e Entry) ([]byte, error) {
	return readFile(e.Path)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// List enumerates a source's snapshots sorted by capture time. Files without
// the .json extension are skipped; .json files with undecodable names are
// reported in Rejected and left out. A missing directory lists as empty.
func (s *Store) List(source string) (Listing, error) {
	dirEntries, err := os.ReadDir(s.Dir(source))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Listing{}, nil
		}
		return Listing{}, fmt.Errorf("list snapshots of %s: %w", source, err)
	}

	var out Listing
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, Ext) || strings.HasPrefix(name, ".") {
			continue
		}
		t, err := ParseName(name, s.loc)
		if err != nil {
			var nameErr *NameError
			if errors.As(err, &nameErr) {
				out.Rejected = append(out.Rejected, nameErr)
			}
			continue
		}
		out.Entries = append(out.Entries, Entry{Source: source, Time: t, Path: filepath.Join(s.Dir(source), name)})
	}
	sort.SliceStable(out.Entries, func(i, j int) bool {
		return out.Entries[i].Time.Before(out.Entries[j].Time)
	})
	return out, nil
}

// Sources returns the names of the subdirectories of the root, sorted.
func (s *Store) Sources() ([]string, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list snapshot root %s: %w", s.root, err)
	}
	var names []string
	for _, de := range dirEntries {
		if de.IsDir() && !strings.HasPrefix(de.Name(), ".") {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
