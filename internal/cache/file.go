package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileCache stores each key as <dir>/<key>.json.
// Writes go through a temp file and a rename so readers never see a partial snapshot.
type FileCache struct {
	dir string
}

// NewFile creates a file cache in dir. The directory is created on first write.
func NewFile(dir string) (*FileCache, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache directory is empty")
	}
	return &FileCache{dir: dir}, nil
}

// Path returns the file that backs key.
func (c *FileCache) Path(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+".json")
}

func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache %s: %w", key, err)
	}
	return data, true, nil
}

func (c *FileCache) Set(ctx context.Context, key string, value []byte) error {
	if err := os.MkdirAll(c.dir, 0700); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, sanitizeKey(key)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing cache %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("writing cache %s: %w", key, err)
	}
	if err := os.Rename(tmpName, c.Path(key)); err != nil {
		return fmt.Errorf("writing cache %s: %w", key, err)
	}
	return nil
}

func (c *FileCache) Close() error { return nil }

// sanitizeKey maps a key to a safe file name.
func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
