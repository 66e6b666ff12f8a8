package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"

	"github.com/tidyfs/tidyfs/internal/fs"
)

// DiskProvider serves a real directory tree, typically one rooted at
// t.TempDir(). It gives integration tests genuine rename and mkdir
// semantics. Paths are regular OS paths under Root.
type DiskProvider struct {
	Root string
}

// NewDiskProvider creates a provider whose single allowed root is root.
func NewDiskProvider(root string) *DiskProvider {
	return &DiskProvider{Root: filepath.Clean(root)}
}

// ListDirectory returns the entries of p sorted by name.
func (d *DiskProvider) ListDirectory(ctx context.Context, p string) ([]fs.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(p)
	if err != nil {
		return nil, diskErr(p, err)
	}
	entries := make([]fs.Entry, 0, len(dirents))
	for _, de := range dirents {
		if de.IsDir() {
			entries = append(entries, fs.Dir(de.Name()))
		} else {
			entries = append(entries, fs.File(de.Name()))
		}
	}
	return entries, nil
}

// Stat describes p. Directory sizes are recursive content sums, matching
// MemProvider.
func (d *DiskProvider) Stat(ctx context.Context, p string) (fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return fs.FileInfo{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return fs.FileInfo{}, diskErr(p, err)
	}
	size := info.Size()
	if info.IsDir() {
		size = diskTreeSize(p)
	}
	return fs.FileInfo{
		Name:     info.Name(),
		Path:     p,
		Size:     size,
		IsDir:    info.IsDir(),
		Modified: info.ModTime(),
	}, nil
}

// Move renames source to destination, refusing to overwrite.
func (d *DiskProvider) Move(ctx context.Context, source, destination string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(source); err != nil {
		return diskErr(source, err)
	}
	if _, err := os.Stat(destination); err == nil {
		return fmt.Errorf("destination exists: %s", destination)
	}
	if err := os.Rename(source, destination); err != nil {
		return diskErr(source, err)
	}
	return nil
}

// CreateDirectory makes p and any missing parents.
func (d *DiskProvider) CreateDirectory(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.MkdirAll(p, 0o755)
}

// Search walks root with fastwalk and returns sorted full paths of files
// whose root-relative path or base name matches pattern. Directories named
// in excludeDirs are pruned.
func (d *DiskProvider) Search(ctx context.Context, root, pattern string, excludeDirs []string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, diskErr(root, err)
	}

	excluded := make(map[string]bool, len(excludeDirs))
	for _, name := range excludeDirs {
		excluded[name] = true
	}

	var mu sync.Mutex
	matches := []string{}
	conf := fastwalk.Config{Follow: false}

	walkErr := fastwalk.Walk(&conf, root, func(p string, de os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}
		if de.IsDir() {
			if p != root && excluded[de.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		matched, _ := doublestar.Match(pattern, rel)
		if !matched {
			matched, _ = doublestar.Match(pattern, filepath.Base(p))
		}
		if matched {
			mu.Lock()
			matches = append(matches, p)
			mu.Unlock()
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadFile returns the content of p.
func (d *DiskProvider) ReadFile(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, diskErr(p, err)
	}
	return data, nil
}

// AllowedRoots returns the configured root.
func (d *DiskProvider) AllowedRoots(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []string{d.Root}, nil
}

// diskTreeSize sums file sizes under p, ignoring unreadable entries.
func diskTreeSize(p string) int64 {
	var mu sync.Mutex
	var total int64
	conf := fastwalk.Config{Follow: false}
	_ = fastwalk.Walk(&conf, p, func(_ string, de os.DirEntry, err error) error {
		if err != nil || de.IsDir() {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return nil
		}
		mu.Lock()
		total += info.Size()
		mu.Unlock()
		return nil
	})
	return total
}

func diskErr(p string, err error) error {
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%s: %w", p, fs.ErrNotFound)
	case os.IsPermission(err):
		return fmt.Errorf("%s: %w", p, fs.ErrAccessDenied)
	default:
		return err
	}
}
