package organizer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tidyfs/tidyfs/internal/fs"
	"github.com/tidyfs/tidyfs/internal/infrastructure/logging"
)

// IndicatorSet holds the case-folded project indicator names. A file entry
// is only checked against the file set, a directory entry against the
// directory set.
type IndicatorSet struct {
	files map[string]struct{}
	dirs  map[string]struct{}
}

// NewIndicatorSet folds indicator names to lowercase so matching is
// case-insensitive ("Makefile" matches "makefile" and "MAKEFILE").
func NewIndicatorSet(rules IndicatorRules) *IndicatorSet {
	set := &IndicatorSet{
		files: make(map[string]struct{}, len(rules.Files)),
		dirs:  make(map[string]struct{}, len(rules.Directories)),
	}
	for _, name := range rules.Files {
		set.files[strings.ToLower(name)] = struct{}{}
	}
	for _, name := range rules.Directories {
		set.dirs[strings.ToLower(name)] = struct{}{}
	}
	return set
}

// Match reports whether the entry is a project indicator, with a
// description like "File: package.json" when it is.
func (s *IndicatorSet) Match(entry fs.Entry) (string, bool) {
	name := strings.ToLower(entry.Name)
	if entry.IsDir() {
		if _, ok := s.dirs[name]; ok {
			return fmt.Sprintf("Directory: %s", entry.Name), true
		}
		return "", false
	}
	if _, ok := s.files[name]; ok {
		return fmt.Sprintf("File: %s", entry.Name), true
	}
	return "", false
}

// Detector recognizes project directories by their immediate contents.
type Detector struct {
	provider   fs.Provider
	indicators *IndicatorSet
	log        *logging.Logger
}

// NewDetector creates a project detector.
func NewDetector(provider fs.Provider, indicators *IndicatorSet, log *logging.Logger) *Detector {
	return &Detector{provider: provider, indicators: indicators, log: log}
}

// IsProject reports whether the directory's immediate entries include any
// project indicator. A listing failure logs a warning and reports false;
// the caller's error accounting surfaces the failure separately.
func (d *Detector) IsProject(ctx context.Context, path string) bool {
	entries, err := d.provider.ListDirectory(ctx, path)
	if err != nil {
		d.log.Warn("project detection listing failed, treating as non-project",
			zap.String("path", path),
			zap.Error(err))
		return false
	}

	for _, entry := range entries {
		if desc, ok := d.indicators.Match(entry); ok {
			d.log.Debug("project indicator found",
				zap.String("path", path),
				zap.String("indicator", desc))
			return true
		}
	}
	return false
}

// Indicators returns every matched indicator description for a directory,
// file indicators before directory indicators, each in listing order.
// Unlike IsProject it propagates the listing error.
func (d *Detector) Indicators(ctx context.Context, path string) ([]string, error) {
	entries, err := d.provider.ListDirectory(ctx, path)
	if err != nil {
		return nil, err
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if desc, ok := d.indicators.Match(entry); ok {
			found = append(found, desc)
		}
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if desc, ok := d.indicators.Match(entry); ok {
			found = append(found, desc)
		}
	}
	return found, nil
}
