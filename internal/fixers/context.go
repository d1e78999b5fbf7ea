package fixers

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sync/atomic"

	"github.com/docfix/docfix/internal/config"
	"github.com/docfix/docfix/internal/emoji"
	"github.com/docfix/docfix/internal/errors"
	"github.com/docfix/docfix/internal/util/sets"
)

// AutoLink is one compiled prose-to-documentation link rule.
type AutoLink struct {
	Pattern *regexp.Regexp
	URI     string
}

// Context is the immutable shared state every fixer invocation receives.
// It is built once before the worker pool starts and never mutated
// afterwards, so workers share it without locking.
type Context struct {
	Log   *slog.Logger
	Emoji *emoji.Table

	Theme         string
	Badges        []config.Badge
	StripIncludes []string
	AutoLinks     []AutoLink

	// full-match identifier sets driving code-block recolouring
	Namespaces Matcher
	Types      Matcher
	Enums      Matcher
	Functions  Matcher
	Macros     Matcher

	fatal    sets.Set[string]
	warnings atomic.Int64
}

// Warnf logs a warning and counts it toward the --werror total. The
// counter is the only mutable field fixers may touch; it is atomic so
// workers share the context without locking.
func (cx *Context) Warnf(msg string, args ...any) {
	cx.warnings.Add(1)
	cx.Log.Warn(msg, args...)
}

// Warnings returns the number of warnings issued so far.
func (cx *Context) Warnings() int64 { return cx.warnings.Load() }

// NewContext compiles the configuration into the shared fixer context.
func NewContext(cfg *config.Config, log *slog.Logger, table *emoji.Table) (*Context, error) {
	if log == nil {
		log = slog.Default()
	}
	cx := &Context{
		Log:           log,
		Emoji:         table,
		Theme:         cfg.Theme,
		Badges:        cfg.Badges,
		StripIncludes: cfg.StripIncludes,
		fatal:         sets.New(cfg.FatalFixers...),
	}

	for pattern, uri := range cfg.AutoLinks {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.ConfigError(fmt.Sprintf("invalid autolink pattern %q: %v", pattern, err))
		}
		cx.AutoLinks = append(cx.AutoLinks, AutoLink{Pattern: re, URI: uri})
	}
	// deterministic application order regardless of map iteration
	slices.SortFunc(cx.AutoLinks, func(a, b AutoLink) int {
		switch {
		case a.Pattern.String() < b.Pattern.String():
			return -1
		case a.Pattern.String() > b.Pattern.String():
			return 1
		}
		return 0
	})

	var err error
	if cx.Namespaces, err = CompileIdentifierSet(cfg.CodeBlocks.Namespaces); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("code_blocks.namespaces: %v", err))
	}
	if cx.Types, err = CompileIdentifierSet(cfg.CodeBlocks.Types); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("code_blocks.types: %v", err))
	}
	if cx.Enums, err = CompileIdentifierSet(cfg.CodeBlocks.Enums); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("code_blocks.enums: %v", err))
	}
	if cx.Functions, err = CompileIdentifierSet(cfg.CodeBlocks.Functions); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("code_blocks.functions: %v", err))
	}
	if cx.Macros, err = CompileIdentifierSet(cfg.CodeBlocks.Macros); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("code_blocks.macros: %v", err))
	}
	return cx, nil
}

// IsFatal reports whether a fixer was flagged fatal in the configuration:
// its failure aborts the whole run instead of just the current document.
func (cx *Context) IsFatal(name string) bool {
	return cx.fatal.Has(name)
}
