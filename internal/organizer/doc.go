// Package organizer provides file organization decisions for directory trees.
//
// This package is organized into specialized modules:
//   - rules: Category rulesets and external ruleset files (YAML, JSON, TOML)
//   - classify: Extension to category decisions
//   - project: Project directory detection via indicator files/dirs
//   - walk: Provider-driven traversal with depth and exclusion control
//   - plan: Move planning (source collection, filtering, destinations)
//   - move: Tolerant batch execution with a bounded worker pool
//   - report: Deterministic summary rendering
//   - metadata: File and directory inspection
//
// All operations:
//   - Reach the filesystem only through fs.Provider
//   - Tolerate per-file and per-subdirectory failures
//   - Return structured results, never panic across the boundary
//
// The Organizer type ties the modules together and exposes them as
// service tools (organizer.analyze, organizer.bulk_move, ...).
//
// Example Usage:
//
//	org, err := organizer.New(provider, organizer.Options{Logger: logger})
//	result, err := org.Execute(ctx, "organizer.analyze", params, nil)
package organizer
