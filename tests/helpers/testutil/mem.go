package testutil

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tidyfs/tidyfs/internal/fs"
)

// MemProvider is a deterministic in-memory fs.Provider. Listings come back
// sorted by name, directory sizes are recursive content sums, and moves
// require an existing destination directory. Error injection per path lets
// tests exercise degraded listings and failed moves.
type MemProvider struct {
	mu    sync.Mutex
	roots []string
	dirs  map[string]bool
	files map[string][]byte
	mtime map[string]time.Time
	clock time.Time

	// FailList injects a ListDirectory error for a path.
	FailList map[string]error
	// FailMove injects a Move error for a source path.
	FailMove map[string]error

	// MoveCalls counts successful moves.
	MoveCalls int
}

// NewMemProvider creates an in-memory provider with the given allowed
// roots, each pre-created as a directory.
func NewMemProvider(roots ...string) *MemProvider {
	m := &MemProvider{
		roots:    append([]string(nil), roots...),
		dirs:     make(map[string]bool),
		files:    make(map[string][]byte),
		mtime:    make(map[string]time.Time),
		clock:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		FailList: make(map[string]error),
		FailMove: make(map[string]error),
	}
	for _, root := range roots {
		m.dirs[path.Clean(root)] = true
	}
	return m
}

// AddDir creates a directory and any missing parents.
func (m *MemProvider) AddDir(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addDirLocked(path.Clean(p))
}

// AddFile creates a file with the given content, creating parent
// directories as needed. Each added file gets a distinct, increasing
// modification time.
func (m *MemProvider) AddFile(p string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	m.addDirLocked(path.Dir(p))
	m.files[p] = append([]byte(nil), content...)
	m.clock = m.clock.Add(time.Minute)
	m.mtime[p] = m.clock
}

func (m *MemProvider) addDirLocked(p string) {
	for p != "/" && p != "." && !m.dirs[p] {
		m.dirs[p] = true
		p = path.Dir(p)
	}
}

// Exists reports whether a file or directory exists.
func (m *MemProvider) Exists(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = path.Clean(p)
	if _, ok := m.files[p]; ok {
		return true
	}
	return m.dirs[p]
}

// Files returns every file path, sorted.
func (m *MemProvider) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ListDirectory returns the immediate entries of p, sorted by name.
func (m *MemProvider) ListDirectory(ctx context.Context, p string) ([]fs.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	if err := m.FailList[p]; err != nil {
		return nil, err
	}
	if !m.dirs[p] {
		return nil, notFound(p)
	}

	entries := []fs.Entry{}
	for f := range m.files {
		if path.Dir(f) == p {
			entries = append(entries, fs.File(path.Base(f)))
		}
	}
	for d := range m.dirs {
		if d != p && path.Dir(d) == p {
			entries = append(entries, fs.Dir(path.Base(d)))
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Stat returns metadata for p. Directory sizes are the recursive sum of
// contained file sizes.
func (m *MemProvider) Stat(ctx context.Context, p string) (fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return fs.FileInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	if content, ok := m.files[p]; ok {
		return fs.FileInfo{
			Name:     path.Base(p),
			Path:     p,
			Size:     int64(len(content)),
			Modified: m.mtime[p],
		}, nil
	}
	if m.dirs[p] {
		var size int64
		for f, content := range m.files {
			if strings.HasPrefix(f, p+"/") {
				size += int64(len(content))
			}
		}
		return fs.FileInfo{
			Name:  path.Base(p),
			Path:  p,
			Size:  size,
			IsDir: true,
		}, nil
	}
	return fs.FileInfo{}, notFound(p)
}

// Move renames a file. The destination's parent directory must already
// exist and the destination must be free.
func (m *MemProvider) Move(ctx context.Context, source, destination string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	source = path.Clean(source)
	destination = path.Clean(destination)

	if err := m.FailMove[source]; err != nil {
		return err
	}
	content, ok := m.files[source]
	if !ok {
		return notFound(source)
	}
	if _, exists := m.files[destination]; exists || m.dirs[destination] {
		return fmt.Errorf("destination exists: %s", destination)
	}
	if !m.dirs[path.Dir(destination)] {
		return notFound(path.Dir(destination))
	}

	delete(m.files, source)
	m.files[destination] = content
	m.mtime[destination] = m.mtime[source]
	delete(m.mtime, source)
	m.MoveCalls++
	return nil
}

// CreateDirectory creates p and any missing parents. Creating an
// existing directory is not an error.
func (m *MemProvider) CreateDirectory(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	if _, isFile := m.files[p]; isFile {
		return fmt.Errorf("not a directory: %s", p)
	}
	m.addDirLocked(p)
	return nil
}

// Search matches file paths under root against a doublestar pattern,
// pruning excluded directory names. Matches come back sorted.
func (m *MemProvider) Search(ctx context.Context, root, pattern string, excludeDirs []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	root = path.Clean(root)
	if !m.dirs[root] {
		return nil, notFound(root)
	}

	excluded := make(map[string]bool, len(excludeDirs))
	for _, name := range excludeDirs {
		excluded[name] = true
	}

	matches := []string{}
	for f := range m.files {
		if !strings.HasPrefix(f, root+"/") {
			continue
		}
		rel := strings.TrimPrefix(f, root+"/")
		if relHasExcluded(rel, excluded) {
			continue
		}
		if matched, _ := doublestar.Match(pattern, rel); matched {
			matches = append(matches, f)
			continue
		}
		if matched, _ := doublestar.Match(pattern, path.Base(rel)); matched {
			matches = append(matches, f)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadFile returns a copy of the file content.
func (m *MemProvider) ReadFile(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.files[path.Clean(p)]
	if !ok {
		return nil, notFound(p)
	}
	return append([]byte(nil), content...), nil
}

// AllowedRoots returns the configured roots.
func (m *MemProvider) AllowedRoots(ctx context.Context) ([]string, error) {
	return append([]string(nil), m.roots...), nil
}

func relHasExcluded(rel string, excluded map[string]bool) bool {
	dir := path.Dir(rel)
	if dir == "." {
		return false
	}
	for _, seg := range strings.Split(dir, "/") {
		if excluded[seg] {
			return true
		}
	}
	return false
}

func notFound(p string) error {
	return fmt.Errorf("%s: %w", p, fs.ErrNotFound)
}
