package matching

import (
	"path/filepath"
	"strings"

	"github.com/viant/afs/url"
)

// Filter decides which files a directory ingestion considers, based on
// include/exclude patterns and a maximum file size.
type Filter struct {
	inclusions  []string
	exclusions  []string
	maxFileSize int
}

// Option configures a Filter.
type Option func(*Filter)

// WithInclusions restricts ingestion to paths matching any pattern.
func WithInclusions(patterns ...string) Option {
	return func(f *Filter) { f.inclusions = append(f.inclusions, patterns...) }
}

// WithExclusions skips paths matching any pattern.
func WithExclusions(patterns ...string) Option {
	return func(f *Filter) { f.exclusions = append(f.exclusions, patterns...) }
}

// WithMaxFileSize skips files larger than size bytes.
func WithMaxFileSize(size int) Option {
	return func(f *Filter) { f.maxFileSize = size }
}

// defaultExclusions lists directories and files never worth indexing.
var defaultExclusions = []string{
	".git/",
	"node_modules/",
	"vendor/",
	"__pycache__/",
	".DS_Store",
	"*.lock",
	"*.log",
	"*.tmp",
	"*.bak",
}

// New creates a Filter; the default exclusions apply unless overridden.
func New(opts ...Option) *Filter {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}
	if f.exclusions == nil {
		f.exclusions = defaultExclusions
	}
	return f
}

// IsExcluded reports whether the location should be skipped.
func (f *Filter) IsExcluded(location string, size int) bool {
	if f.maxFileSize > 0 && size > f.maxFileSize {
		return true
	}
	path := filepath.ToSlash(url.Path(location))
	if len(f.inclusions) > 0 && !f.matchesAny(path, f.inclusions) {
		return true
	}
	return f.matchesAny(path, f.exclusions)
}

func (f *Filter) matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if matches(path, pattern) {
			return true
		}
	}
	return false
}

func matches(path, pattern string) bool {
	// Substring match covers directory patterns like node_modules/.
	if strings.Contains(path, pattern) {
		return true
	}
	cleaned := strings.TrimPrefix(pattern, "/")
	if ok, _ := filepath.Match(cleaned, path); ok {
		return true
	}
	base := filepath.Base(path)
	if ok, _ := filepath.Match(cleaned, base); ok {
		return true
	}
	return pattern == base || strings.HasSuffix(pattern, "/"+base)
}
