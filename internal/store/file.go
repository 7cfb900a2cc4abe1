package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// fileKV implements KV on the local file system, one file per key. This is
// the closest server-side analogue to the browser's local storage: small
// JSON payloads, overwritten whole on every write.
type fileKV struct {
	dir    string
	logger zerolog.Logger
}

// NewFile creates a file-system-backed KV rooted at dir. The directory is
// created if it does not exist.
func NewFile(dir string, logger zerolog.Logger) (KV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}
	return &fileKV{
		dir:    dir,
		logger: logger.With().Str("component", "file-store").Logger(),
	}, nil
}

// path maps a key to its backing file. Keys are store-controlled constants,
// but path separators are rejected anyway so a bad key cannot escape dir.
func (f *fileKV) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid store key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

// Get reads the value for a key from its backing file.
func (f *fileKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		f.logger.Error().Err(err).Str("key", key).Msg("failed to read store file")
		return nil, false, fmt.Errorf("failed to read store file for %s: %w", key, err)
	}
	return data, true, nil
}

// Put writes the value to a temp file and renames it into place, so a
// crash mid-write never leaves a truncated snapshot behind.
func (f *fileKV) Put(ctx context.Context, key string, value []byte) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write store file for %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close store file for %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		f.logger.Error().Err(err).Str("key", key).Msg("failed to replace store file")
		return fmt.Errorf("failed to replace store file for %s: %w", key, err)
	}
	return nil
}

// Delete removes the backing file for a key.
func (f *fileKV) Delete(ctx context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete store file for %s: %w", key, err)
	}
	return nil
}
