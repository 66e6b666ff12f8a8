package organizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// Rendering caps. Single-directory views show fewer examples than
// recursive ones; the remainder collapses into an "and N more" line.
const (
	exampleCapSingle    = 5
	exampleCapRecursive = 10
	exampleCapMetadata  = 3
	errorCap            = 5
	largestFilesCap     = 5
)

// CategoryMoves lists the files moved into one category.
type CategoryMoves struct {
	Category string   `json:"category"`
	Moved    []string `json:"moved"`
}

// MoveError is one failed or dropped candidate.
type MoveError struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Report aggregates a finished bulk move.
type Report struct {
	BatchID    string          `json:"batch_id"`
	Root       string          `json:"root"`
	TotalMoved int             `json:"total_moved"`
	Categories []CategoryMoves `json:"categories,omitempty"`
	Errors     []MoveError     `json:"errors,omitempty"`
	Skipped    []string        `json:"skipped_projects,omitempty"`
	Aborted    bool            `json:"aborted,omitempty"`
}

// Render produces the human-readable batch summary. Rendering is pure:
// the same report always yields the same text. Display names are sorted
// alphabetically within each category before truncation.
func (r *Report) Render() string {
	summary := []string{"Bulk Organization Summary:"}
	summary = append(summary, fmt.Sprintf("Total files moved: %d", r.TotalMoved))

	for _, cm := range r.Categories {
		summary = append(summary, fmt.Sprintf("\n%s: %d files", cm.Category, len(cm.Moved)))
		summary = append(summary, exampleLines(cm.Moved, exampleCapSingle)...)
	}

	if len(r.Errors) > 0 {
		summary = append(summary, fmt.Sprintf("\nErrors (%d):", len(r.Errors)))
		for i, moveErr := range r.Errors {
			if i == errorCap {
				summary = append(summary, fmt.Sprintf("  - ... and %d more errors", len(r.Errors)-errorCap))
				break
			}
			summary = append(summary, fmt.Sprintf("  - %s: %s", moveErr.Name, moveErr.Reason))
		}
	}

	if len(r.Skipped) > 0 {
		summary = append(summary, "\nIdentified project directories (contents preserved):")
		for _, name := range r.Skipped {
			summary = append(summary, fmt.Sprintf("  - %s", name))
		}
	}

	if r.Aborted {
		summary = append(summary, "\nBatch was cancelled before all moves were attempted.")
	}

	return strings.Join(summary, "\n")
}

// JSON marshals the report for machine consumers.
func (r *Report) JSON() ([]byte, error) {
	return sonic.Marshal(r)
}

// CategoryFiles lists the files found under one category during analysis.
type CategoryFiles struct {
	Category string   `json:"category"`
	Files    []string `json:"files"`
}

// Analysis aggregates a non-mutating directory analysis.
type Analysis struct {
	Root        string          `json:"root"`
	Recursive   bool            `json:"recursive"`
	MaxDepth    int             `json:"max_depth"`
	DirsVisited int             `json:"dirs_visited"`
	TotalFiles  int             `json:"total_files"`
	Categories  []CategoryFiles `json:"categories,omitempty"`
	Errors      []WalkError     `json:"errors,omitempty"`
}

// Render produces the analysis summary. Example lists are sorted and
// capped (wider for recursive runs).
func (a *Analysis) Render() string {
	header := "Directory Analysis Summary:"
	if a.Recursive {
		header = "Recursive " + header
	}
	summary := []string{header}

	if a.Recursive {
		summary = append(summary, fmt.Sprintf("Base directory: %s", a.Root))
		summary = append(summary, fmt.Sprintf("Total subdirectories processed: %d", a.DirsVisited))
		if a.MaxDepth < 999 {
			summary = append(summary, fmt.Sprintf("Maximum depth: %d levels", a.MaxDepth))
		}
	}

	summary = append(summary, fmt.Sprintf("Total Files: %d", a.TotalFiles))
	summary = append(summary, "")

	limit := exampleCapSingle
	if a.Recursive {
		limit = exampleCapRecursive
	}
	for _, cf := range a.Categories {
		if len(cf.Files) == 0 {
			continue
		}
		summary = append(summary, fmt.Sprintf("%s: %d files", cf.Category, len(cf.Files)))
		summary = append(summary, exampleLines(cf.Files, limit)...)
		summary = append(summary, "")
	}

	return strings.Join(summary, "\n")
}

// JSON marshals the analysis for machine consumers.
func (a *Analysis) JSON() ([]byte, error) {
	return sonic.Marshal(a)
}

// ProjectInfo pairs a project directory with the indicators found in it.
type ProjectInfo struct {
	Name       string   `json:"name"`
	Indicators []string `json:"indicators"`
}

// renderProjects produces the project identification summary.
func renderProjects(root string, projects []ProjectInfo) string {
	if len(projects) == 0 {
		return fmt.Sprintf("No project directories identified in %s", root)
	}

	summary := []string{fmt.Sprintf("Project Directories in %s:", root)}
	for _, p := range projects {
		summary = append(summary, fmt.Sprintf("\n%s:", p.Name))
		summary = append(summary, "  Project indicators found:")
		for _, indicator := range p.Indicators {
			summary = append(summary, fmt.Sprintf("    - %s", indicator))
		}
	}
	return strings.Join(summary, "\n")
}

// exampleLines renders "  - name" lines, sorted, capped, with a trailing
// remainder note when truncated.
func exampleLines(names []string, limit int) []string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var lines []string
	for i, name := range sorted {
		if i == limit {
			lines = append(lines, fmt.Sprintf("  - ... and %d more", len(sorted)-limit))
			break
		}
		lines = append(lines, fmt.Sprintf("  - %s", name))
	}
	return lines
}

// formatBytes formats bytes to human-readable size
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
