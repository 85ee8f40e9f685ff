package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// fileTxn stages file replacements so a failed validation can put every
// touched file back. Each write goes through a temp file in the target
// directory followed by a rename; the previous content is kept in memory
// for rollback.
type fileTxn struct {
	originals []original
}

type original struct {
	path    string
	data    []byte
	mode    os.FileMode
	existed bool
}

func newFileTxn() *fileTxn {
	return &fileTxn{}
}

// Write snapshots the current content of path (if any) and atomically
// replaces it with data.
func (t *fileTxn) Write(path string, data []byte, mode os.FileMode) error {
	orig := original{path: path, mode: mode}
	if prev, err := os.ReadFile(path); err == nil {
		orig.existed = true
		orig.data = prev
		if info, statErr := os.Stat(path); statErr == nil {
			orig.mode = info.Mode().Perm()
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}

	if err := atomicWrite(path, data, mode); err != nil {
		return err
	}
	t.originals = append(t.originals, orig)
	return nil
}

// Rollback restores every written file to its snapshotted state, newest
// first. Files that did not exist before are removed.
func (t *fileTxn) Rollback() {
	for i := len(t.originals) - 1; i >= 0; i-- {
		o := t.originals[i]
		if o.existed {
			_ = atomicWrite(o.path, o.data, o.mode)
		} else {
			_ = os.Remove(o.path)
		}
	}
	t.originals = nil
}

func atomicWrite(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, ".staged-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("stage %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("stage %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("stage %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}
