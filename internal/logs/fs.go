package logs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// StampLayout formats run timestamps embedded in log file names.
const StampLayout = "20060102_150405"

// Ext is the extension of every step log.
const Ext = ".log"

// ErrNotDirectory indicates the log path exists but is a regular file.
var ErrNotDirectory = errors.New("log path is not a directory")

// Stamp formats t for use in log file names.
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

// FileName returns the log file name for a step in the run stamped stamp.
func FileName(step, stamp string) string {
	return Slug(step) + "_" + stamp + Ext
}

// Path joins dir with the step's log file name.
func Path(dir, step, stamp string) string {
	return filepath.Join(dir, FileName(step, stamp))
}

// Reset removes dir and everything below it, then recreates it empty.
func Reset(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("reset logs: empty directory")
	}
	info, err := os.Lstat(dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("reset logs %q: %w", dir, ErrNotDirectory)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("stat logs %q: %w", dir, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("purge logs %q: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create logs %q: %w", dir, err)
	}
	return nil
}

// List returns the log files in dir sorted lexicographically. A missing
// directory yields no files.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read logs %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Ext {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Rel returns path relative to root for display, or the cleaned path when
// it lies outside root.
func Rel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}

// Slug is the file-name form of a step name. Distinct steps must have
// distinct slugs or their logs collide.
func Slug(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "step"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
