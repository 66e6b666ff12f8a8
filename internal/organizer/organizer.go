package organizer

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tidyfs/tidyfs/internal/fs"
	"github.com/tidyfs/tidyfs/internal/infrastructure/config"
	"github.com/tidyfs/tidyfs/internal/infrastructure/logging"
	"github.com/tidyfs/tidyfs/internal/infrastructure/monitoring"
	"github.com/tidyfs/tidyfs/internal/shared/types"
)

// Error kinds reported through the tool error metric.
const (
	errKindInvalidArgument = "invalid_argument"
	errKindNotFound        = "not_found"
	errKindAccessDenied    = "access_denied"
	errKindIO              = "io_failure"
	errKindPartialBatch    = "partial_batch_failure"
)

// Options configures an Organizer. The zero value uses built-in rules,
// depth 2, four workers, unpaced moves, project protection on, a 1 MiB
// read cap and a 512 KiB sniff cap.
type Options struct {
	// Rules overrides the built-in ruleset. Empty sections fall back to
	// the defaults.
	Rules *RulesFile

	// MaxDepth is the recursion bound used when a caller gives none.
	MaxDepth int

	// Workers bounds the move worker pool. 1 means sequential.
	Workers int

	// MoveRate paces provider move calls per second. 0 means unpaced.
	MoveRate int

	// RespectProjects is the default for calls that leave the parameter
	// unset. nil means true.
	RespectProjects *bool

	// ReadMaxBytes caps read payloads. 0 means the default.
	ReadMaxBytes int64

	// SniffMaxBytes caps content fetched for MIME detection. 0 means
	// the default, negative disables sniffing.
	SniffMaxBytes int64

	Logger  *logging.Logger
	Metrics *monitoring.Metrics
}

// Organizer is the file organization engine exposed as the "organizer"
// service. All filesystem access goes through the provider; the engine
// holds no cross-call state and is safe for concurrent use.
type Organizer struct {
	provider   fs.Provider
	classifier *Classifier
	detector   *Detector
	walker     *Walker
	planner    *Planner
	mover      *Mover
	inspector  *Inspector

	log     *logging.Logger
	metrics *monitoring.Metrics

	excludedDirs    []string
	maxDepth        int
	respectProjects bool
	readLimit       int64
}

// New creates an organizer over the given provider.
func New(provider fs.Provider, opts Options) (*Organizer, error) {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRulesFile()
	}

	categories := rules.Categories
	if len(categories) == 0 {
		categories = DefaultRules()
	}
	classifier, err := NewClassifier(categories, rules.CatchAll)
	if err != nil {
		return nil, err
	}

	indicators := rules.Indicators
	if len(indicators.Files) == 0 && len(indicators.Directories) == 0 {
		indicators = DefaultIndicators()
	}
	excluded := rules.ExcludedDirs
	if len(excluded) == 0 {
		excluded = DefaultExcludedDirs()
	}

	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetricsWith(prometheus.NewRegistry())
	}

	maxDepth := opts.MaxDepth
	if maxDepth < 1 {
		maxDepth = 2
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 4
	}
	respect := true
	if opts.RespectProjects != nil {
		respect = *opts.RespectProjects
	}
	readLimit := opts.ReadMaxBytes
	if readLimit <= 0 {
		readLimit = 1 << 20
	}
	sniffLimit := opts.SniffMaxBytes
	if sniffLimit == 0 {
		sniffLimit = 512 << 10
	}

	detector := NewDetector(provider, NewIndicatorSet(indicators), log)
	return &Organizer{
		provider:        provider,
		classifier:      classifier,
		detector:        detector,
		walker:          NewWalker(provider, classifier, excluded, log),
		planner:         NewPlanner(provider, classifier, detector, excluded, log),
		mover:           NewMover(provider, classifier, log, metrics, workers, opts.MoveRate),
		inspector:       NewInspector(provider, classifier, log, sniffLimit),
		log:             log,
		metrics:         metrics,
		excludedDirs:    excluded,
		maxDepth:        maxDepth,
		respectProjects: respect,
		readLimit:       readLimit,
	}, nil
}

// NewFromConfig creates an organizer from application configuration,
// loading the ruleset file when one is configured.
func NewFromConfig(provider fs.Provider, cfg *config.Config, log *logging.Logger, metrics *monitoring.Metrics) (*Organizer, error) {
	var rules *RulesFile
	if cfg.Organizer.RulesPath != "" {
		loaded, err := LoadRules(cfg.Organizer.RulesPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}

	return New(provider, Options{
		Rules:           rules,
		MaxDepth:        cfg.Organizer.MaxDepth,
		Workers:         cfg.Organizer.Workers,
		MoveRate:        cfg.Organizer.MoveRate,
		RespectProjects: &cfg.Organizer.RespectProjects,
		ReadMaxBytes:    cfg.Limits.ReadMaxBytes,
		SniffMaxBytes:   cfg.Limits.SniffMaxBytes,
		Logger:          log,
		Metrics:         metrics,
	})
}

// Definition returns service metadata
func (o *Organizer) Definition() types.Service {
	return types.Service{
		ID:          "organizer",
		Name:        "File Organizer",
		Description: "Extension-based file organization with project directory protection",
		Category:    types.CategoryOrganization,
		Capabilities: []string{
			"classify",
			"analyze",
			"organize",
			"bulk_move",
			"metadata",
			"projects",
			"search",
		},
		Tools: []types.Tool{
			{
				ID:          "organizer.categories",
				Name:        "List Categories",
				Description: "List all file categories supported by the organizer",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
			{
				ID:          "organizer.analyze",
				Name:        "Analyze Directory",
				Description: "Categorize files in a directory without moving anything",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Directory to analyze", Required: true},
					{Name: "recursive", Type: "boolean", Description: "Analyze subdirectories recursively", Required: false},
					{Name: "max_depth", Type: "number", Description: "Maximum recursion depth (1 = current dir only)", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "organizer.organize",
				Name:        "Organize Files",
				Description: "Organize files into category directories based on their extensions",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Base directory to organize", Required: true},
					{Name: "confirm", Type: "boolean", Description: "Actually move files instead of previewing", Required: false},
					{Name: "respect_projects", Type: "boolean", Description: "Leave project directories untouched", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "organizer.bulk_move",
				Name:        "Bulk Move Files",
				Description: "Move files matching optional filters into category directories",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Base directory to organize", Required: true},
					{Name: "category", Type: "string", Description: "Only move files of this category", Required: false},
					{Name: "file_extension", Type: "string", Description: "Only move files with this extension", Required: false},
					{Name: "respect_projects", Type: "boolean", Description: "Leave project directories untouched", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "organizer.metadata",
				Name:        "Get Metadata",
				Description: "Get detailed metadata about a file or directory",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File or directory path", Required: true},
					{Name: "include_stats", Type: "boolean", Description: "Include per-category statistics for directories", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "organizer.projects",
				Name:        "Identify Projects",
				Description: "Identify subdirectories that appear to be projects",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Base directory to scan", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "organizer.roots",
				Name:        "List Allowed Roots",
				Description: "List all directories the organizer is allowed to access",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
			{
				ID:          "organizer.create_dirs",
				Name:        "Create Category Directories",
				Description: "Create category directories for file organization",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Base directory for category folders", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "organizer.list",
				Name:        "List Directory",
				Description: "List files and subdirectories of a directory",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Directory to list", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "organizer.search",
				Name:        "Search Files",
				Description: "Search for files matching a glob pattern",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Directory to search in", Required: true},
					{Name: "pattern", Type: "string", Description: "Search pattern (glob format)", Required: true},
				},
				Returns: "array",
			},
			{
				ID:          "organizer.read",
				Name:        "Read File",
				Description: "Read the contents of a file",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File to read", Required: true},
				},
				Returns: "string",
			},
			{
				ID:          "organizer.stats",
				Name:        "Engine Stats",
				Description: "Report engine counters and timing",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
		},
	}
}

// Execute runs an organizer operation
func (o *Organizer) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	start := time.Now()
	result, err := o.dispatch(ctx, toolID, params)

	status := "ok"
	if err != nil || result == nil || !result.Success {
		status = "error"
	}
	o.metrics.RecordToolCall(toolID, status, time.Since(start))

	log := o.log
	if appCtx != nil && appCtx.RequestID != nil {
		log = log.With(zap.String("request_id", *appCtx.RequestID))
	}
	log.Debug("tool executed",
		zap.String("tool", toolID),
		zap.String("status", status),
		zap.Duration("duration", time.Since(start)))

	return result, err
}

func (o *Organizer) dispatch(ctx context.Context, toolID string, params map[string]interface{}) (*types.Result, error) {
	switch toolID {
	case "organizer.categories":
		return o.listCategories()
	case "organizer.analyze":
		return o.analyzeDir(ctx, params)
	case "organizer.organize":
		return o.organizeFiles(ctx, params)
	case "organizer.bulk_move":
		return o.bulkMove(ctx, params)
	case "organizer.metadata":
		return o.getMetadata(ctx, params)
	case "organizer.projects":
		return o.projectReport(ctx, params)
	case "organizer.roots":
		return o.listRoots(ctx)
	case "organizer.create_dirs":
		return o.createDirs(ctx, params)
	case "organizer.list":
		return o.listDir(ctx, params)
	case "organizer.search":
		return o.searchFiles(ctx, params)
	case "organizer.read":
		return o.readFile(ctx, params)
	case "organizer.stats":
		return o.engineStats()
	default:
		return failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (o *Organizer) listCategories() (*types.Result, error) {
	categories := o.classifier.Categories()
	lines := make([]string, 0, len(categories))
	for _, category := range categories {
		lines = append(lines, fmt.Sprintf("- %s", category))
	}

	return success(map[string]interface{}{
		"categories": categories,
		"catch_all":  o.classifier.CatchAll(),
		"summary":    "Available file categories:\n" + strings.Join(lines, "\n"),
	})
}

func (o *Organizer) analyzeDir(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	target, ok := pathParam(params)
	if !ok {
		return o.fail("organizer.analyze", errKindInvalidArgument, "path parameter required")
	}
	recursive := boolParam(params, "recursive", false)
	maxDepth := intParam(params, "max_depth", o.maxDepth)

	walk, err := o.walker.Walk(ctx, target, WalkOptions{Recursive: recursive, MaxDepth: maxDepth})
	if err != nil {
		return o.fail("organizer.analyze", errorKind(err), fmt.Sprintf("analyze failed: %v", err))
	}

	// Files named exactly like a category are markers, not candidates.
	byCategory := make(map[string][]string)
	total := 0
	for _, f := range walk.Files {
		if o.classifier.IsCategory(f.Name) {
			continue
		}
		category := o.classifier.Classify(f.Name)
		byCategory[category] = append(byCategory[category], f.Display)
		total++
	}

	analysis := &Analysis{
		Root:        target,
		Recursive:   recursive,
		MaxDepth:    maxDepth,
		DirsVisited: walk.DirsVisited,
		TotalFiles:  total,
		Errors:      walk.Errors,
	}
	for _, category := range o.classifier.Categories() {
		if files := byCategory[category]; len(files) > 0 {
			analysis.Categories = append(analysis.Categories, CategoryFiles{Category: category, Files: files})
		}
	}

	return success(map[string]interface{}{
		"path":     target,
		"analysis": analysis,
		"summary":  analysis.Render(),
	})
}

func (o *Organizer) organizeFiles(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	target, ok := pathParam(params)
	if !ok {
		return o.fail("organizer.organize", errKindInvalidArgument, "path parameter required")
	}
	respect := boolParam(params, "respect_projects", o.respectProjects)

	if !boolParam(params, "confirm", false) {
		guard := "not be respected"
		if respect {
			guard = "be respected (files will not be moved from them)"
		}
		preview := fmt.Sprintf(
			"This operation will organize files in %s into category subdirectories.\n"+
				"To see what would be moved without making changes, use the organizer.analyze tool.\n"+
				"Project directories will %s.\n"+
				"To proceed with organizing files, call this tool again with confirm=true.",
			target, guard)

		return success(map[string]interface{}{
			"path":             target,
			"confirmed":        false,
			"respect_projects": respect,
			"summary":          preview,
		})
	}

	return o.runBulk(ctx, "organizer.organize", target, "", "", respect)
}

func (o *Organizer) bulkMove(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	target, ok := pathParam(params)
	if !ok {
		return o.fail("organizer.bulk_move", errKindInvalidArgument, "path parameter required")
	}
	respect := boolParam(params, "respect_projects", o.respectProjects)

	return o.runBulk(ctx, "organizer.bulk_move", target,
		stringParam(params, "category"), stringParam(params, "file_extension"), respect)
}

// runBulk is the shared plan-then-execute path behind organize and
// bulk_move. A batch that finishes with per-file errors is still a
// successful call; the partial outcome shows in status and the report.
func (o *Organizer) runBulk(ctx context.Context, tool, target, category, extension string, respect bool) (*types.Result, error) {
	plan, err := o.planner.Plan(ctx, target, PlanOptions{
		Category:        category,
		Extension:       extension,
		RespectProjects: respect,
	})
	if err != nil {
		return o.fail(tool, errorKind(err), fmt.Sprintf("bulk move failed: %v", err))
	}

	report := o.mover.Execute(ctx, plan)

	status := "complete"
	if len(report.Errors) > 0 || report.Aborted {
		status = "partial"
		o.metrics.RecordToolError(tool, errKindPartialBatch)
	}

	return success(map[string]interface{}{
		"batch_id":    report.BatchID,
		"root":        report.Root,
		"status":      status,
		"total_moved": report.TotalMoved,
		"report":      report,
		"summary":     report.Render(),
	})
}

func (o *Organizer) getMetadata(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	target, ok := pathParam(params)
	if !ok {
		return o.fail("organizer.metadata", errKindInvalidArgument, "path parameter required")
	}
	includeStats := boolParam(params, "include_stats", true)

	meta, err := o.inspector.Inspect(ctx, target, includeStats)
	if err != nil {
		return o.fail("organizer.metadata", errorKind(err), fmt.Sprintf("metadata failed: %v", err))
	}

	return success(map[string]interface{}{
		"path":     target,
		"is_dir":   meta.IsDir,
		"metadata": meta,
		"summary":  meta.Render(),
	})
}

func (o *Organizer) projectReport(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	target, ok := pathParam(params)
	if !ok {
		return o.fail("organizer.projects", errKindInvalidArgument, "path parameter required")
	}

	entries, err := o.provider.ListDirectory(ctx, target)
	if err != nil {
		return o.fail("organizer.projects", errorKind(err), fmt.Sprintf("project scan failed: %v", err))
	}

	projects := []ProjectInfo{}
	for _, entry := range entries {
		if !entry.IsDir() || o.classifier.IsCategory(entry.Name) {
			continue
		}
		subPath := path.Join(target, entry.Name)
		indicators, err := o.detector.Indicators(ctx, subPath)
		if err != nil {
			o.log.Warn("skipping unscannable subdirectory",
				zap.String("path", subPath),
				zap.Error(err))
			continue
		}
		if len(indicators) > 0 {
			projects = append(projects, ProjectInfo{Name: entry.Name, Indicators: indicators})
		}
	}

	return success(map[string]interface{}{
		"path":     target,
		"projects": projects,
		"count":    len(projects),
		"summary":  renderProjects(target, projects),
	})
}

func (o *Organizer) listRoots(ctx context.Context) (*types.Result, error) {
	roots, err := o.provider.AllowedRoots(ctx)
	if err != nil {
		return o.fail("organizer.roots", errKindIO, fmt.Sprintf("failed to list allowed directories: %v", err))
	}

	return success(map[string]interface{}{
		"roots":   roots,
		"count":   len(roots),
		"summary": "Allowed directories:\n" + strings.Join(roots, "\n"),
	})
}

func (o *Organizer) createDirs(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	target, ok := pathParam(params)
	if !ok {
		return o.fail("organizer.create_dirs", errKindInvalidArgument, "path parameter required")
	}

	created := o.mover.EnsureCategoryDirs(ctx, target)
	lines := make([]string, 0, len(created))
	for _, category := range created {
		lines = append(lines, fmt.Sprintf("- %s", category))
	}

	return success(map[string]interface{}{
		"path":    target,
		"created": created,
		"summary": fmt.Sprintf("Created category directories in %s:\n%s", target, strings.Join(lines, "\n")),
	})
}

func (o *Organizer) listDir(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	target, ok := pathParam(params)
	if !ok {
		return o.fail("organizer.list", errKindInvalidArgument, "path parameter required")
	}

	entries, err := o.provider.ListDirectory(ctx, target)
	if err != nil {
		return o.fail("organizer.list", errorKind(err), fmt.Sprintf("list failed: %v", err))
	}

	files := []string{}
	dirs := []string{}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name)
			lines = append(lines, "[DIR] "+entry.Name)
		} else {
			files = append(files, entry.Name)
			lines = append(lines, "[FILE] "+entry.Name)
		}
	}

	return success(map[string]interface{}{
		"path":        target,
		"files":       files,
		"directories": dirs,
		"count":       len(entries),
		"summary":     fmt.Sprintf("Contents of %s:\n%s", target, strings.Join(lines, "\n")),
	})
}

func (o *Organizer) searchFiles(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	target, ok := pathParam(params)
	if !ok {
		return o.fail("organizer.search", errKindInvalidArgument, "path parameter required")
	}
	pattern, ok := params["pattern"].(string)
	if !ok || pattern == "" {
		return o.fail("organizer.search", errKindInvalidArgument, "pattern parameter required")
	}
	if !doublestar.ValidatePattern(pattern) {
		return o.fail("organizer.search", errKindInvalidArgument, fmt.Sprintf("invalid search pattern %q", pattern))
	}

	matches, err := o.provider.Search(ctx, target, pattern, o.excludedDirs)
	if err != nil {
		return o.fail("organizer.search", errorKind(err), fmt.Sprintf("search failed: %v", err))
	}
	if matches == nil {
		matches = []string{}
	}

	summary := fmt.Sprintf("No files matching '%s' found in %s", pattern, target)
	if len(matches) > 0 {
		summary = fmt.Sprintf("Found files matching '%s' in %s:\n%s", pattern, target, strings.Join(matches, "\n"))
	}

	return success(map[string]interface{}{
		"path":    target,
		"pattern": pattern,
		"matches": matches,
		"count":   len(matches),
		"summary": summary,
	})
}

func (o *Organizer) readFile(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	target, ok := pathParam(params)
	if !ok {
		return o.fail("organizer.read", errKindInvalidArgument, "path parameter required")
	}

	info, err := o.provider.Stat(ctx, target)
	if err != nil {
		return o.fail("organizer.read", errorKind(err), fmt.Sprintf("read failed: %v", err))
	}
	if info.IsDir {
		return o.fail("organizer.read", errKindInvalidArgument, fmt.Sprintf("%s is a directory", target))
	}
	if info.Size > o.readLimit {
		return o.fail("organizer.read", errKindIO,
			fmt.Sprintf("file exceeds read limit (%d bytes)", o.readLimit))
	}

	data, err := o.provider.ReadFile(ctx, target)
	if err != nil {
		return o.fail("organizer.read", errorKind(err), fmt.Sprintf("read failed: %v", err))
	}

	return success(map[string]interface{}{
		"path":    target,
		"content": string(data),
		"size":    len(data),
		"summary": fmt.Sprintf("Contents of %s:\n%s", target, string(data)),
	})
}

func (o *Organizer) engineStats() (*types.Result, error) {
	snap := o.metrics.GetSnapshot()
	avg := 0.0
	if snap.CallCount > 0 {
		avg = snap.TotalDuration / float64(snap.CallCount)
	}

	return success(map[string]interface{}{
		"tool_calls":       snap.ToolCalls,
		"tool_errors":      snap.ToolErrors,
		"files_moved":      snap.FilesMoved,
		"move_failures":    snap.MoveFailures,
		"projects_skipped": snap.ProjectsSkipped,
		"active_batches":   snap.ActiveBatches,
		"avg_tool_seconds": avg,
	})
}

// fail records the error kind and returns a failure result.
func (o *Organizer) fail(tool, kind, message string) (*types.Result, error) {
	o.metrics.RecordToolError(tool, kind)
	return failure(message)
}

// errorKind maps a provider error to its metric label.
func errorKind(err error) string {
	switch {
	case fs.IsNotFound(err):
		return errKindNotFound
	case fs.IsAccessDenied(err):
		return errKindAccessDenied
	default:
		return errKindIO
	}
}

// Success helper
func success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure helper
func failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}

func pathParam(params map[string]interface{}) (string, bool) {
	target, ok := params["path"].(string)
	return target, ok && target != ""
}

func stringParam(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func boolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

func intParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}
