package mention

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// snapshot is the on-disk layout written by Save.
type snapshot struct {
	Version int      `yaml:"version"`
	Records []Record `yaml:"records"`
}

const snapshotVersion = 1

// Save writes all retained records to w as a YAML document, oldest first.
func (s *Store) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snapshot{Version: snapshotVersion, Records: s.Records()}); err != nil {
		_ = enc.Close()
		return fmt.Errorf("mention: failed to encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("mention: failed to flush snapshot: %w", err)
	}
	return nil
}

// Load replays the records of a snapshot written by Save, in order, on top of
// whatever the store already holds. Only the newest maxSize records survive.
// An empty document is not an error.
func (s *Store) Load(r io.Reader) error {
	var snap snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("mention: failed to decode snapshot: %w", err)
	}
	if snap.Version != 0 && snap.Version != snapshotVersion {
		return fmt.Errorf("mention: unsupported snapshot version %d", snap.Version)
	}
	for _, rec := range snap.Records {
		s.append(rec)
	}
	return nil
}

// SaveFile writes a snapshot to path, replacing any previous file atomically.
func (s *Store) SaveFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".mentions-*.yaml")
	if err != nil {
		return fmt.Errorf("mention: failed to create snapshot file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := s.Save(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("mention: failed to close snapshot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("mention: failed to replace snapshot file: %w", err)
	}
	return nil
}

// LoadFile loads a snapshot from path. A missing file is not an error.
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("mention: failed to open snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return s.Load(f)
}
