// Package store persists the engine's durable state as single JSON
// documents on local disk. Every write is read-modify-write with an
// atomic rename, so a crashed writer can never leave a half-written
// document behind.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
)

// ErrUnavailable wraps I/O failures that are not simple absence: a store
// that cannot read or replace its backing file is unavailable, while a
// missing or corrupt file just means an empty store.
var ErrUnavailable = errors.New("storage unavailable")

// ErrInvalidInput wraps validation failures on store mutations: bad tag
// IDs, out-of-range confidence, references to unknown tags.
var ErrInvalidInput = errors.New("invalid input")

// Load reads path into v, which must be a non-nil pointer. Returns false
// with no error when the file is missing or does not parse; a cold start
// must never fail.
func Load(path string, v any) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: read %s: %v", ErrUnavailable, path, err)
	}
	// Decode into a fresh value first: Unmarshal can leave v partially
	// populated when it fails midway, and a corrupt document must degrade
	// to an empty store, not a half-decoded one. The broken file stays on
	// disk until the next save.
	fresh := reflect.New(reflect.TypeOf(v).Elem())
	if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
		return false, nil
	}
	reflect.ValueOf(v).Elem().Set(fresh.Elem())
	return true, nil
}

// Save writes v to path atomically: marshal, write a temp file
// in the same directory, then rename over the target.
func Save(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrUnavailable, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp in %s: %v", ErrUnavailable, dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrUnavailable, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename %s: %v", ErrUnavailable, path, err)
	}
	return nil
}
