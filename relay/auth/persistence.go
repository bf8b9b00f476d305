package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/m3rciful/relaybot/core/logger"

	"log/slog"
)

// Lists is the persisted access record. It mirrors the on-disk JSON layout.
type Lists struct {
	Token       string  `json:"token"`
	SuperAdmins []int64 `json:"super_admins"`
	Admins      []int64 `json:"admins"`
	Blacklist   []int64 `json:"blacklist"`
}

// Clone returns a deep copy with sorted id slices.
func (l Lists) Clone() Lists {
	out := Lists{
		Token:       l.Token,
		SuperAdmins: append([]int64(nil), l.SuperAdmins...),
		Admins:      append([]int64(nil), l.Admins...),
		Blacklist:   append([]int64(nil), l.Blacklist...),
	}
	sortIDs(out.SuperAdmins)
	sortIDs(out.Admins)
	sortIDs(out.Blacklist)
	return out
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// Persister stores and retrieves the access record.
type Persister interface {
	Load() (Lists, error)
	Save(lists Lists) error
}

// FileStore persists the access record as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore builds a file-backed persister for the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the access record from disk. A missing file is created with an
// empty record so a fresh deployment starts from a clean state.
func (s *FileStore) Load() (Lists, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			empty := Lists{
				SuperAdmins: []int64{},
				Admins:      []int64{},
				Blacklist:   []int64{},
			}
			if saveErr := s.Save(empty); saveErr != nil {
				return Lists{}, fmt.Errorf("auth: create access file: %w", saveErr)
			}
			logger.AUTH.Warn("access file created",
				slog.String("event", "auth.file.created"),
				slog.String("path", s.path),
			)
			return empty, nil
		}
		return Lists{}, fmt.Errorf("auth: read access file: %w", err)
	}

	var lists Lists
	if err := json.Unmarshal(data, &lists); err != nil {
		return Lists{}, fmt.Errorf("auth: decode access file: %w", err)
	}
	return lists.Clone(), nil
}

// Save writes the access record atomically via a temp file and rename.
func (s *FileStore) Save(lists Lists) error {
	data, err := json.MarshalIndent(lists.Clone(), "", "  ")
	if err != nil {
		return fmt.Errorf("auth: encode access file: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".access-*.json")
	if err != nil {
		return fmt.Errorf("auth: create temp access file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("auth: write temp access file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("auth: close temp access file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("auth: replace access file: %w", err)
	}
	return nil
}
