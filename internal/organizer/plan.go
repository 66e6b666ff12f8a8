package organizer

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tidyfs/tidyfs/internal/fs"
	"github.com/tidyfs/tidyfs/internal/infrastructure/logging"
)

// PlanOptions filters and guards move planning.
type PlanOptions struct {
	// Category keeps only files whose detected category matches exactly.
	Category string
	// Extension keeps only files with this suffix, case-insensitive,
	// with or without the leading dot.
	Extension string
	// RespectProjects protects project directories from being emptied.
	RespectProjects bool
}

// MoveEntry is one planned move.
type MoveEntry struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Category    string `json:"category"`
	Display     string `json:"display"`
}

// PlanError records a candidate dropped during planning.
type PlanError struct {
	Name   string
	Reason string
}

// MovePlan is the complete read phase of a bulk move: every entry is known
// before the first write happens.
type MovePlan struct {
	Root     string
	Entries  []MoveEntry // grouped by category in rule order
	Projects []string    // protected directories, sorted
	Errors   []PlanError // listing failures and destination collisions
}

// Planner collects move candidates for a root directory.
type Planner struct {
	provider   fs.Provider
	classifier *Classifier
	detector   *Detector
	excluded   map[string]struct{}
	log        *logging.Logger
}

// NewPlanner creates a move planner.
func NewPlanner(provider fs.Provider, classifier *Classifier, detector *Detector, excludedDirs []string, log *logging.Logger) *Planner {
	excluded := make(map[string]struct{}, len(excludedDirs))
	for _, name := range excludedDirs {
		excluded[name] = struct{}{}
	}
	return &Planner{
		provider:   provider,
		classifier: classifier,
		detector:   detector,
		excluded:   excluded,
		log:        log,
	}
}

// Plan enumerates the root's immediate files and the immediate files of
// unprotected subdirectories, one level deep. All destinations land under
// the root's category folders. Failing to list the root is fatal;
// everything else degrades into the plan's error list.
func (p *Planner) Plan(ctx context.Context, root string, opts PlanOptions) (*MovePlan, error) {
	entries, err := p.provider.ListDirectory(ctx, root)
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

	plan := &MovePlan{Root: root}
	extFilter := normalizeExt(opts.Extension)

	protected := make(map[string]struct{})
	if opts.RespectProjects {
		for _, name := range dirs {
			if p.classifier.IsCategory(name) || p.isExcluded(name) {
				continue
			}
			if p.detector.IsProject(ctx, path.Join(root, name)) {
				protected[name] = struct{}{}
				plan.Projects = append(plan.Projects, name)
			}
		}
		sort.Strings(plan.Projects)
	}

	// Candidates grouped by category so the batch moves one category at
	// a time, root files ahead of subdirectory files.
	byCategory := make(map[string][]MoveEntry)

	appendCandidate := func(source, name, display string) {
		if extFilter != "" && !strings.HasSuffix(strings.ToLower(name), extFilter) {
			return
		}
		category := p.classifier.Classify(name)
		if opts.Category != "" && opts.Category != category {
			return
		}
		byCategory[category] = append(byCategory[category], MoveEntry{
			Source:      source,
			Destination: path.Join(root, category, name),
			Category:    category,
			Display:     display,
		})
	}

	for _, name := range files {
		if p.classifier.IsCategory(name) {
			continue
		}
		appendCandidate(path.Join(root, name), name, name)
	}

	for _, dirName := range dirs {
		if p.classifier.IsCategory(dirName) || p.isExcluded(dirName) {
			continue
		}
		if _, prot := protected[dirName]; prot {
			continue
		}

		subPath := path.Join(root, dirName)
		subEntries, err := p.provider.ListDirectory(ctx, subPath)
		if err != nil {
			p.log.Warn("skipping unlistable subdirectory",
				zap.String("path", subPath),
				zap.Error(err))
			plan.Errors = append(plan.Errors, PlanError{
				Name:   dirName,
				Reason: fmt.Sprintf("listing failed: %v", err),
			})
			continue
		}
		for _, entry := range subEntries {
			if entry.IsDir() {
				continue
			}
			appendCandidate(path.Join(subPath, entry.Name), entry.Name, dirName+"/"+entry.Name)
		}
	}

	p.resolveCollisions(byCategory, plan)

	for _, category := range p.classifier.Categories() {
		plan.Entries = append(plan.Entries, byCategory[category]...)
	}
	return plan, nil
}

// resolveCollisions drops later candidates that target a destination an
// earlier candidate already claimed. The dropped candidate becomes a plan
// error; nothing is silently overwritten or renamed.
func (p *Planner) resolveCollisions(byCategory map[string][]MoveEntry, plan *MovePlan) {
	claimed := make(map[string]string) // destination -> display of first claimant
	for _, category := range p.classifier.Categories() {
		candidates := byCategory[category]
		if len(candidates) == 0 {
			continue
		}
		kept := candidates[:0]
		for _, entry := range candidates {
			if first, taken := claimed[entry.Destination]; taken {
				plan.Errors = append(plan.Errors, PlanError{
					Name:   entry.Display,
					Reason: fmt.Sprintf("destination already targeted by %s", first),
				})
				continue
			}
			claimed[entry.Destination] = entry.Display
			kept = append(kept, entry)
		}
		byCategory[category] = kept
	}
}

func (p *Planner) isExcluded(name string) bool {
	_, ok := p.excluded[name]
	return ok
}
