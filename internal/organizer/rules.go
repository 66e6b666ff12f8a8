package organizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// DefaultCatchAll is the category for files no rule claims.
const DefaultCatchAll = "Others"

// Rule maps a set of file extensions to one category label.
type Rule struct {
	Category   string   `json:"category" yaml:"category" toml:"category"`
	Extensions []string `json:"extensions" yaml:"extensions" toml:"extensions"`
}

// IndicatorRules lists the entry names that mark a directory as a project.
type IndicatorRules struct {
	Files       []string `json:"files" yaml:"files" toml:"files"`
	Directories []string `json:"directories" yaml:"directories" toml:"directories"`
}

// RulesFile is the external ruleset format. Zero-value sections fall back
// to the built-in defaults.
type RulesFile struct {
	Categories   []Rule         `json:"categories" yaml:"categories" toml:"categories"`
	CatchAll     string         `json:"catch_all" yaml:"catch_all" toml:"catch_all"`
	Indicators   IndicatorRules `json:"project_indicators" yaml:"project_indicators" toml:"project_indicators"`
	ExcludedDirs []string       `json:"excluded_dirs" yaml:"excluded_dirs" toml:"excluded_dirs"`
}

// DefaultRules returns the built-in category table. Extensions are disjoint
// across categories; where historical tables double-claimed an extension the
// first category keeps it (.html stays in Documents, .dmg in Archives).
func DefaultRules() []Rule {
	return []Rule{
		{Category: "Documents", Extensions: []string{
			".pdf", ".doc", ".docx", ".txt", ".rtf", ".odt", ".md", ".html",
			".json", ".ttl", ".csv", ".xlsx", ".pptx", ".tex", ".pages",
			".key", ".numbers",
		}},
		{Category: "Images", Extensions: []string{
			".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".heic",
			".tiff", ".bmp", ".raw",
		}},
		{Category: "Videos", Extensions: []string{
			".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm", ".m4v",
		}},
		{Category: "Audio", Extensions: []string{
			".mp3", ".wav", ".ogg", ".flac", ".m4a", ".aac", ".wma", ".aiff",
		}},
		{Category: "Archives", Extensions: []string{
			".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz", ".iso", ".dmg",
		}},
		{Category: "Code", Extensions: []string{
			".py", ".js", ".css", ".java", ".cpp", ".c", ".h", ".php", ".rb",
			".go", ".rs", ".jsx", ".ts", ".tsx", ".vsix", ".swift", ".kt",
			".scala", ".vue",
		}},
		{Category: "Applications", Extensions: []string{
			".app", ".exe", ".msi", ".deb", ".rpm", ".apk", ".pkg",
		}},
	}
}

// DefaultIndicators returns the built-in project indicator names.
// Matching is case-insensitive regardless of the casing here.
func DefaultIndicators() IndicatorRules {
	return IndicatorRules{
		Files: []string{
			".git", ".gitignore", "package.json", "requirements.txt",
			"Makefile", "CMakeLists.txt", "build.gradle", "pom.xml",
			"Gemfile", "Cargo.toml", "setup.py", "Pipfile",
			"docker-compose.yml", "Dockerfile", ".env", "tsconfig.json",
			"webpack.config.js", "composer.json", "build.sbt", "project.clj",
			"mix.exs", "pubspec.yaml", "yarn.lock", "package-lock.json",
		},
		Directories: []string{
			".git", "node_modules", "src", "test", "tests", "docs", "bin",
			"build", "dist", "target", ".idea", ".vscode", "__pycache__",
			"venv", "env", ".env", ".mvn",
		},
	}
}

// DefaultExcludedDirs returns directory names traversal never descends into.
func DefaultExcludedDirs() []string {
	return []string{".git", "node_modules", "__pycache__", ".venv", "venv", "env"}
}

// DefaultRulesFile returns the complete built-in configuration.
func DefaultRulesFile() *RulesFile {
	return &RulesFile{
		Categories:   DefaultRules(),
		CatchAll:     DefaultCatchAll,
		Indicators:   DefaultIndicators(),
		ExcludedDirs: DefaultExcludedDirs(),
	}
}

// LoadRules reads a ruleset file, choosing the decoder by extension.
// Sections left empty in the file keep their built-in defaults.
func LoadRules(path string) (*RulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset: %w", err)
	}
	return ParseRules(data, filepath.Ext(path))
}

// ParseRules decodes ruleset content in the format named by ext.
func ParseRules(data []byte, ext string) (*RulesFile, error) {
	var rf RulesFile
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("parse yaml ruleset: %w", err)
		}
	case ".json":
		if err := sonic.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("parse json ruleset: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("parse toml ruleset: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported ruleset format: %q", ext)
	}

	defaults := DefaultRulesFile()
	if len(rf.Categories) == 0 {
		rf.Categories = defaults.Categories
	}
	if rf.CatchAll == "" {
		rf.CatchAll = defaults.CatchAll
	}
	if len(rf.Indicators.Files) == 0 && len(rf.Indicators.Directories) == 0 {
		rf.Indicators = defaults.Indicators
	}
	if len(rf.ExcludedDirs) == 0 {
		rf.ExcludedDirs = defaults.ExcludedDirs
	}
	return &rf, nil
}
