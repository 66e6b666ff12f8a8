package fs

import (
	"context"
	"time"
)

// EntryKind discriminates directory entries
type EntryKind string

const (
	KindFile EntryKind = "file"
	KindDir  EntryKind = "directory"
)

// Entry represents a single directory entry
type Entry struct {
	Name string    `json:"name"`
	Kind EntryKind `json:"kind"`
}

// IsDir reports whether the entry is a directory
func (e Entry) IsDir() bool {
	return e.Kind == KindDir
}

// File creates a file entry
func File(name string) Entry {
	return Entry{Name: name, Kind: KindFile}
}

// Dir creates a directory entry
func Dir(name string) Entry {
	return Entry{Name: name, Kind: KindDir}
}

// FileInfo represents file metadata
type FileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	IsDir    bool      `json:"is_dir"`
	Modified time.Time `json:"modified"`
}

// Provider is the filesystem contract the organizer operates against.
// Implementations are supplied by the host; the organizer ships none.
type Provider interface {
	// ListDirectory returns the immediate entries of a directory.
	ListDirectory(ctx context.Context, path string) ([]Entry, error)

	// Stat returns metadata for a file or directory.
	Stat(ctx context.Context, path string) (FileInfo, error)

	// Move relocates a file. Behavior when destination exists is
	// implementation-defined; the organizer plans around collisions.
	Move(ctx context.Context, source, destination string) error

	// CreateDirectory creates a directory, succeeding if it already exists.
	CreateDirectory(ctx context.Context, path string) error

	// Search returns paths under root matching a glob pattern, pruning
	// any directory whose name appears in excludeDirs.
	Search(ctx context.Context, root, pattern string, excludeDirs []string) ([]string, error)

	// ReadFile returns the full content of a file.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// AllowedRoots returns the directories the host permits operating on.
	AllowedRoots(ctx context.Context) ([]string, error)
}
