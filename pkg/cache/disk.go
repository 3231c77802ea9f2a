package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const diskExt = ".stac-cache.json"

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: create disk dir: %w", err)
	}
	return nil
}

func (c *Cache) diskPath(key string) string {
	return filepath.Join(c.diskDir, fmt.Sprintf("%016x%s", xxhash.Sum64String(key), diskExt))
}

func (c *Cache) readDisk(key string) (*Entry, error) {
	data, err := os.ReadFile(c.diskPath(key))
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	// hash collision or a file from another key
	if e.URL != key {
		return nil, fmt.Errorf("cache: disk entry for %s holds %s", key, e.URL)
	}
	if fmt.Sprintf("%016x", xxhash.Sum64(e.Body)) != e.Hash {
		return nil, fmt.Errorf("cache: disk entry for %s is corrupt", key)
	}
	return &e, nil
}

func (c *Cache) writeDisk(key string, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.diskDir, "tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.diskPath(key))
}

func (c *Cache) removeDisk(key string) {
	_ = os.Remove(c.diskPath(key))
}

func (c *Cache) purgeDisk() {
	entries, err := os.ReadDir(c.diskDir)
	if err != nil {
		return
	}
	for _, de := range entries {
		if strings.HasSuffix(de.Name(), diskExt) {
			_ = os.Remove(filepath.Join(c.diskDir, de.Name()))
		}
	}
}
