package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/grading-notifier/internal/timeutil"
	"github.com/jonathan/grading-notifier/internal/tracker"
)

// FileStore keeps one directory per course under the data root, with one
// encrypted file per save. Files are named by a filename-safe timestamp, so
// the lexicographically greatest name is the latest save.
type FileStore struct {
	root  string
	codec *codec
	clock timeutil.Clock
}

// NewFileStore returns a file store rooted at the given directory. A nil
// clock uses UTC now.
func NewFileStore(root, encodedKey string, clock timeutil.Clock) (*FileStore, error) {
	codec, err := newCodec(encodedKey)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timeutil.UTCNow
	}
	return &FileStore{root: root, codec: codec, clock: clock}, nil
}

// Read loads and decrypts the latest snapshot document for the course.
func (s *FileStore) Read(_ context.Context, courseKey string) (map[string]tracker.Snapshot, bool, error) {
	dir := filepath.Join(s.root, Slug(courseKey))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to list snapshot directory %s: %w", dir, err)
	}

	latest := ""
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if entry.Name() > latest {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return nil, false, nil
	}

	token, err := os.ReadFile(filepath.Join(dir, latest))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot file %s: %w", latest, err)
	}
	data, err := s.codec.decrypt(token)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Write encrypts the document and saves it as a new timestamped file.
func (s *FileStore) Write(_ context.Context, courseKey string, data map[string]tracker.Snapshot) error {
	token, err := s.codec.encrypt(data)
	if err != nil {
		return err
	}

	dir := filepath.Join(s.root, Slug(courseKey))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}

	name := timeutil.FileLabel(s.clock) + ".txt"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, token, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot file %s: %w", path, err)
	}
	return nil
}
