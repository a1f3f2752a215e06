package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	bodySuffix = ".body"
	metaSuffix = ".json"
)

// Filesystem is a Store that persists each entry as two sibling files
// in a dedicated directory: a body file with the raw bytes and a JSON
// metadata file. Entries survive process restarts.
type Filesystem struct {
	dir string
}

// NewFilesystem creates the cache directory if it does not exist yet.
func NewFilesystem(dir string) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Filesystem{dir: dir}, nil
}

// Get reads the entry files for the given key. A missing or
// unparseable file pair means the entry is absent, never an error:
// a partial pair left behind by a crash heals itself as a miss.
func (f *Filesystem) Get(key string) (Entry, bool, error) {
	bodyPath, metaPath := f.paths(key)
	meta, err := os.ReadFile(metaPath)
	if err != nil {
		return Entry{}, false, nil
	}
	var entry Entry
	if err := json.Unmarshal(meta, &entry); err != nil {
		return Entry{}, false, nil
	}
	body, err := os.ReadFile(bodyPath)
	if err != nil {
		return Entry{}, false, nil
	}
	entry.Body = body
	return entry, true, nil
}

// Put writes the body file first and the metadata file second, so a
// readable metadata file implies the body was fully written.
func (f *Filesystem) Put(key string, entry Entry) error {
	// recreate the directory in case it was removed underneath us
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	bodyPath, metaPath := f.paths(key)
	if err := writeAtomic(bodyPath, entry.Body); err != nil {
		return fmt.Errorf("write body file: %w", err)
	}
	meta, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := writeAtomic(metaPath, meta); err != nil {
		return fmt.Errorf("write metadata file: %w", err)
	}
	return nil
}

func (f *Filesystem) Delete(key string) error {
	bodyPath, metaPath := f.paths(key)
	if err := os.Remove(metaPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Remove(bodyPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (f *Filesystem) Clear() error {
	files, err := os.ReadDir(f.dir)
	if err != nil {
		return err
	}
	for _, file := range files {
		name := file.Name()
		if strings.HasSuffix(name, bodySuffix) || strings.HasSuffix(name, metaSuffix) {
			if err := os.Remove(filepath.Join(f.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}
	return nil
}

// Evict scans the metadata files and removes both files of every
// entry created before the given instant. Entries that cannot be read
// or removed are skipped.
func (f *Filesystem) Evict(olderThan time.Time) (int, error) {
	files, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, err
	}
	var evicted int
	for _, file := range files {
		name := file.Name()
		if !strings.HasSuffix(name, metaSuffix) {
			continue
		}
		metaPath := filepath.Join(f.dir, name)
		meta, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(meta, &entry); err != nil {
			continue
		}
		if !entry.Timestamp.Before(olderThan) {
			continue
		}
		bodyPath := strings.TrimSuffix(metaPath, metaSuffix) + bodySuffix
		os.Remove(bodyPath)
		if err := os.Remove(metaPath); err != nil {
			continue
		}
		evicted++
	}
	return evicted, nil
}

func (f *Filesystem) paths(key string) (string, string) {
	name := url.QueryEscape(key)
	return filepath.Join(f.dir, name+bodySuffix), filepath.Join(f.dir, name+metaSuffix)
}

// writeAtomic writes to a temporary file and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp := path + fmt.Sprintf(".tmp.%d", rand.Int())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
