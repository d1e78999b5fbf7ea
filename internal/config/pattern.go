package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/docfix/docfix/internal/errors"
)

// Pattern is a compiled include/exclude filter. Filters accept either
// shell globs ("md_*.html") or regular expressions; a pattern wrapped in
// slashes ("/md_.*[.]html/") or containing regex-only metacharacters is
// treated as a regex, anything else as a glob on the file's base name.
type Pattern struct {
	source string
	re     *regexp.Regexp // nil for glob patterns
	glob   string
}

var regexMeta = regexp.MustCompile(`[(){}|+^$\\]`)

// CompilePattern compiles one filter pattern.
func CompilePattern(pattern string) (*Pattern, error) {
	src := pattern
	isRegex := false
	if strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") && len(pattern) > 1 {
		pattern = pattern[1 : len(pattern)-1]
		isRegex = true
	} else if regexMeta.MatchString(pattern) {
		isRegex = true
	}
	if isRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.ConfigError(fmt.Sprintf("invalid filter pattern %q: %v", src, err))
		}
		return &Pattern{source: src, re: re}, nil
	}
	// validate glob syntax eagerly so bad patterns fail at config time
	if _, err := filepath.Match(pattern, "probe"); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("invalid filter pattern %q: %v", src, err))
	}
	return &Pattern{source: src, glob: pattern}, nil
}

// CompilePatterns compiles a filter list.
func CompilePatterns(patterns []string) ([]*Pattern, error) {
	out := make([]*Pattern, 0, len(patterns))
	for _, p := range patterns {
		compiled, err := CompilePattern(p)
		if err != nil {
			return nil, err
		}
		out = append(out, compiled)
	}
	return out, nil
}

// Match tests the file's base name against the pattern.
func (p *Pattern) Match(path string) bool {
	name := filepath.Base(path)
	if p.re != nil {
		return p.re.MatchString(name)
	}
	ok, _ := filepath.Match(p.glob, name)
	return ok
}

// String returns the original pattern text.
func (p *Pattern) String() string { return p.source }

// MatchAny reports whether any pattern matches. An empty include list
// matches everything and an empty exclude list matches nothing; callers
// pick the vacuous truth they need via emptyMeans.
func MatchAny(patterns []*Pattern, path string, emptyMeans bool) bool {
	if len(patterns) == 0 {
		return emptyMeans
	}
	for _, p := range patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}
