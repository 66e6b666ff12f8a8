package organizer

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/tidyfs/tidyfs/internal/fs"
	"github.com/tidyfs/tidyfs/internal/infrastructure/logging"
)

// FileSize pairs a name with its size. HasSize is false when the size
// could not be determined; the renderer omits it rather than showing 0.
type FileSize struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	HasSize bool   `json:"has_size"`
}

// CategoryStat groups a directory's files under one category with sizes.
type CategoryStat struct {
	Category string     `json:"category"`
	Files    []FileSize `json:"files"`
}

// DirStats holds the optional per-category statistics of a directory.
type DirStats struct {
	Categories []CategoryStat `json:"categories,omitempty"`
	TotalSize  int64          `json:"total_size"`
	Largest    []FileSize     `json:"largest,omitempty"`
}

// Metadata describes a file or directory.
type Metadata struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	IsDir    bool      `json:"is_dir"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`

	// File fields
	Category string `json:"category,omitempty"`
	MIME     string `json:"mime,omitempty"`

	// Directory fields
	TotalFiles int        `json:"total_files,omitempty"`
	TotalDirs  int        `json:"total_dirs,omitempty"`
	Stats      *DirStats  `json:"stats,omitempty"`
	Subdirs    []FileSize `json:"subdirs,omitempty"`
}

// Inspector collects metadata through the provider.
type Inspector struct {
	provider   fs.Provider
	classifier *Classifier
	log        *logging.Logger
	sniffLimit int64
}

// NewInspector creates a metadata inspector. sniffLimit caps how large a
// file may be before MIME sniffing is skipped; 0 disables sniffing.
func NewInspector(provider fs.Provider, classifier *Classifier, log *logging.Logger, sniffLimit int64) *Inspector {
	return &Inspector{provider: provider, classifier: classifier, log: log, sniffLimit: sniffLimit}
}

// Inspect stats the path and, for directories, summarizes the immediate
// contents. Per-child stat failures degrade to unknown sizes; only the
// root stat or root listing failure is returned as an error.
func (ins *Inspector) Inspect(ctx context.Context, target string, includeStats bool) (*Metadata, error) {
	info, err := ins.provider.Stat(ctx, target)
	if err != nil {
		return nil, err
	}

	name := info.Name
	if name == "" {
		name = path.Base(target)
	}
	meta := &Metadata{
		Path:     target,
		Name:     name,
		IsDir:    info.IsDir,
		Size:     info.Size,
		Modified: info.Modified,
	}

	if !info.IsDir {
		meta.Category = ins.classifier.Classify(name)
		meta.MIME = ins.sniff(ctx, target, info.Size)
		return meta, nil
	}

	entries, err := ins.provider.ListDirectory(ctx, target)
	if err != nil {
		return nil, err
	}

	var files, dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name)
		} else {
			files = append(files, entry.Name)
		}
	}
	meta.TotalFiles = len(files)
	meta.TotalDirs = len(dirs)

	if includeStats && len(files) > 0 {
		meta.Stats = ins.collectStats(ctx, target, files)
	}

	if len(dirs) > 0 {
		sort.Strings(dirs)
		for _, dir := range dirs {
			size := int64(0)
			sub, err := ins.provider.Stat(ctx, path.Join(target, dir))
			if err != nil {
				ins.log.Warn("subdirectory stat failed",
					zap.String("path", path.Join(target, dir)),
					zap.Error(err))
			} else {
				size = sub.Size
			}
			meta.Subdirs = append(meta.Subdirs, FileSize{Name: dir, Size: size, HasSize: true})
		}
	}

	return meta, nil
}

// collectStats stats every immediate file and groups them by category.
func (ins *Inspector) collectStats(ctx context.Context, target string, files []string) *DirStats {
	byCategory := make(map[string][]FileSize)
	var known []FileSize

	for _, name := range files {
		entry := FileSize{Name: name}
		info, err := ins.provider.Stat(ctx, path.Join(target, name))
		if err != nil {
			ins.log.Warn("file stat failed",
				zap.String("path", path.Join(target, name)),
				zap.Error(err))
		} else {
			entry.Size = info.Size
			entry.HasSize = true
			known = append(known, entry)
		}
		category := ins.classifier.Classify(name)
		byCategory[category] = append(byCategory[category], entry)
	}

	stats := &DirStats{}
	for _, category := range ins.classifier.Categories() {
		if group := byCategory[category]; len(group) > 0 {
			stats.Categories = append(stats.Categories, CategoryStat{
				Category: category,
				Files:    group,
			})
		}
	}

	for _, f := range known {
		stats.TotalSize += f.Size
	}
	sort.Slice(known, func(i, j int) bool {
		if known[i].Size != known[j].Size {
			return known[i].Size > known[j].Size
		}
		return known[i].Name < known[j].Name
	})
	if len(known) > largestFilesCap {
		known = known[:largestFilesCap]
	}
	stats.Largest = known

	return stats
}

// sniff detects a small file's MIME type from its content. Best effort:
// any failure or an oversized file yields an empty string.
func (ins *Inspector) sniff(ctx context.Context, target string, size int64) string {
	if ins.sniffLimit <= 0 || size <= 0 || size > ins.sniffLimit {
		return ""
	}
	data, err := ins.provider.ReadFile(ctx, target)
	if err != nil {
		ins.log.Debug("content sniff skipped",
			zap.String("path", target),
			zap.Error(err))
		return ""
	}
	return mimetype.Detect(data).String()
}

// Render produces the human-readable metadata view.
func (m *Metadata) Render() string {
	kind := "File"
	if m.IsDir {
		kind = "Directory"
	}
	out := []string{
		fmt.Sprintf("%s Metadata:", kind),
		fmt.Sprintf("Path: %s", m.Path),
	}

	if !m.IsDir {
		out = append(out, fmt.Sprintf("Name: %s", m.Name))
		out = append(out, fmt.Sprintf("Category: %s", m.Category))
	}
	out = append(out, fmt.Sprintf("Size: %s", formatBytes(m.Size)))
	if !m.Modified.IsZero() {
		out = append(out, fmt.Sprintf("Modified: %s", m.Modified.Format(time.RFC3339)))
	}
	if m.MIME != "" {
		out = append(out, fmt.Sprintf("Type: %s", m.MIME))
	}

	if !m.IsDir {
		return strings.Join(out, "\n")
	}

	out = append(out, fmt.Sprintf("Total files: %d", m.TotalFiles))
	out = append(out, fmt.Sprintf("Total subdirectories: %d", m.TotalDirs))

	if m.Stats != nil {
		out = append(out, "\nFile Categories:")
		for _, cs := range m.Stats.Categories {
			out = append(out, fmt.Sprintf("%s: %d files", cs.Category, len(cs.Files)))
			out = append(out, sizedExampleLines(cs.Files, exampleCapMetadata)...)
		}
		out = append(out, fmt.Sprintf("\nTotal size: %s", formatBytes(m.Stats.TotalSize)))
		if len(m.Stats.Largest) > 0 {
			out = append(out, "Largest files:")
			for _, f := range m.Stats.Largest {
				out = append(out, fmt.Sprintf("  - %s: %s", f.Name, formatBytes(f.Size)))
			}
		}
	}

	if len(m.Subdirs) > 0 {
		out = append(out, "\nSubdirectories:")
		for _, d := range m.Subdirs {
			out = append(out, fmt.Sprintf("  - %s (%s)", d.Name, formatBytes(d.Size)))
		}
	}

	return strings.Join(out, "\n")
}

// sizedExampleLines renders "  - name (size)" lines, sorted by name,
// capped with a remainder note.
func sizedExampleLines(files []FileSize, limit int) []string {
	sorted := append([]FileSize(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var lines []string
	for i, f := range sorted {
		if i == limit {
			lines = append(lines, fmt.Sprintf("  - ... and %d more", len(sorted)-limit))
			break
		}
		if f.HasSize {
			lines = append(lines, fmt.Sprintf("  - %s (%s)", f.Name, formatBytes(f.Size)))
		} else {
			lines = append(lines, fmt.Sprintf("  - %s", f.Name))
		}
	}
	return lines
}
