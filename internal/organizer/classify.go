package organizer

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Classifier decides the category for a file name. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	labels   []string // rule order, catch-all excluded
	catchAll string
	byExt    map[string]string
	isLabel  map[string]struct{}
}

// NewClassifier builds a classifier from ordered rules. Extensions are
// normalized to lowercase with a leading dot. A duplicate extension claim
// across categories is a configuration error.
func NewClassifier(rules []Rule, catchAll string) (*Classifier, error) {
	if catchAll == "" {
		catchAll = DefaultCatchAll
	}

	c := &Classifier{
		catchAll: catchAll,
		byExt:    make(map[string]string),
		isLabel:  map[string]struct{}{catchAll: {}},
	}

	for _, rule := range rules {
		if rule.Category == "" {
			return nil, fmt.Errorf("rule with empty category label")
		}
		if rule.Category == catchAll {
			return nil, fmt.Errorf("category %q shadows the catch-all label", catchAll)
		}
		if _, dup := c.isLabel[rule.Category]; dup {
			return nil, fmt.Errorf("duplicate category label %q", rule.Category)
		}
		c.isLabel[rule.Category] = struct{}{}
		c.labels = append(c.labels, rule.Category)

		for _, ext := range rule.Extensions {
			norm := normalizeExt(ext)
			if norm == "" {
				return nil, fmt.Errorf("category %q lists an empty extension", rule.Category)
			}
			if owner, claimed := c.byExt[norm]; claimed {
				return nil, fmt.Errorf("extension %q claimed by both %q and %q", norm, owner, rule.Category)
			}
			c.byExt[norm] = rule.Category
		}
	}

	return c, nil
}

// NewDefaultClassifier builds a classifier over the built-in rules.
func NewDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultRules(), DefaultCatchAll)
	if err != nil {
		// Built-in rules are disjoint by construction.
		panic(fmt.Sprintf("invalid built-in rules: %v", err))
	}
	return c
}

// Classify returns the category for a file name. Unmatched or missing
// extensions fall to the catch-all. Total: every name yields a category.
func (c *Classifier) Classify(name string) string {
	ext := splitExt(name)
	if ext == "" {
		return c.catchAll
	}
	if category, ok := c.byExt[ext]; ok {
		return category
	}
	return c.catchAll
}

// Categories returns all labels in rule order with the catch-all last.
func (c *Classifier) Categories() []string {
	out := make([]string, 0, len(c.labels)+1)
	out = append(out, c.labels...)
	return append(out, c.catchAll)
}

// CatchAll returns the catch-all label.
func (c *Classifier) CatchAll() string {
	return c.catchAll
}

// IsCategory reports whether name exactly matches a category label or the
// catch-all. Category-named entries are never organization sources.
func (c *Classifier) IsCategory(name string) bool {
	_, ok := c.isLabel[name]
	return ok
}

// splitExt extracts the lowercased final extension of a file name.
// A leading-dot name with no further dot has no extension (".gitignore"),
// and a trailing dot yields none ("name.").
func splitExt(name string) string {
	base := path.Base(strings.ToLower(name))
	ext := filepath.Ext(base)
	if ext == base || ext == "." {
		return ""
	}
	return ext
}

// normalizeExt lowers an extension and ensures a leading dot.
func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
