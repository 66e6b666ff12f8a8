package organizer

import (
	"context"
	"path"

	"go.uber.org/zap"

	"github.com/tidyfs/tidyfs/internal/fs"
	"github.com/tidyfs/tidyfs/internal/infrastructure/logging"
)

// WalkOptions controls traversal depth.
type WalkOptions struct {
	Recursive bool
	// MaxDepth bounds recursion when Recursive is set. Depth 1 is the
	// root's direct children. Ignored when Recursive is false.
	MaxDepth int
}

// WalkedFile is one file produced by a walk.
type WalkedFile struct {
	Name    string // base name
	Display string // path relative to the walk root
	Path    string // full path
	Depth   int    // 1 for root children
}

// WalkError records a subdirectory that could not be listed.
type WalkError struct {
	Path   string
	Reason string
}

// WalkResult accumulates a finished walk. Files appear in provider listing
// order; sorting happens only in reporting.
type WalkResult struct {
	Files       []WalkedFile
	DirsVisited int
	Errors      []WalkError
}

// Walker traverses directory trees through the provider. It never descends
// into excluded directories or directories named after a category, and it
// tolerates per-subdirectory listing failures.
type Walker struct {
	provider   fs.Provider
	classifier *Classifier
	excluded   map[string]struct{}
	log        *logging.Logger
}

// NewWalker creates a walker. excludedDirs is the fixed skip list
// (version control metadata, dependency caches, virtual environments).
func NewWalker(provider fs.Provider, classifier *Classifier, excludedDirs []string, log *logging.Logger) *Walker {
	excluded := make(map[string]struct{}, len(excludedDirs))
	for _, name := range excludedDirs {
		excluded[name] = struct{}{}
	}
	return &Walker{provider: provider, classifier: classifier, excluded: excluded, log: log}
}

// Walk lists the tree under root. Each call re-lists from the provider;
// nothing is cached between calls. Only a failure to list root itself is
// fatal; subdirectory failures land in the result's error list.
func (w *Walker) Walk(ctx context.Context, root string, opts WalkOptions) (*WalkResult, error) {
	maxDepth := opts.MaxDepth
	if !opts.Recursive || maxDepth < 1 {
		maxDepth = 1
	}

	entries, err := w.provider.ListDirectory(ctx, root)
	if err != nil {
		return nil, err
	}

	result := &WalkResult{}
	w.descend(ctx, root, "", 1, maxDepth, entries, result)
	return result, nil
}

// descend threads the accumulator through one directory level.
func (w *Walker) descend(ctx context.Context, dir, rel string, depth, maxDepth int, entries []fs.Entry, acc *WalkResult) {
	acc.DirsVisited++

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		display := entry.Name
		if rel != "" {
			display = path.Join(rel, entry.Name)
		}
		acc.Files = append(acc.Files, WalkedFile{
			Name:    entry.Name,
			Display: display,
			Path:    path.Join(dir, entry.Name),
			Depth:   depth,
		})
	}

	if depth >= maxDepth {
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() || w.skipDir(entry.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			acc.Errors = append(acc.Errors, WalkError{Path: dir, Reason: err.Error()})
			return
		}

		subPath := path.Join(dir, entry.Name)
		subRel := entry.Name
		if rel != "" {
			subRel = path.Join(rel, entry.Name)
		}

		subEntries, err := w.provider.ListDirectory(ctx, subPath)
		if err != nil {
			w.log.Warn("skipping unlistable subdirectory",
				zap.String("path", subPath),
				zap.Error(err))
			acc.Errors = append(acc.Errors, WalkError{Path: subPath, Reason: err.Error()})
			continue
		}
		w.descend(ctx, subPath, subRel, depth+1, maxDepth, subEntries, acc)
	}
}

// skipDir reports whether traversal must not descend into name.
func (w *Walker) skipDir(name string) bool {
	if _, excluded := w.excluded[name]; excluded {
		return true
	}
	return w.classifier.IsCategory(name)
}
