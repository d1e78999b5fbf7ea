// Package config loads and validates the project configuration that
// drives the post-processing pipeline.
package config

import (
	"fmt"
	"os"
	"regexp"
	"runtime"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/docfix/docfix/internal/errors"
)

// Config represents the project configuration.
type Config struct {
	// Input is the directory holding the extractor's HTML output.
	Input string `yaml:"input"`
	// Output, when set, mirrors fixed pages into a separate directory
	// instead of mutating Input in place.
	Output string `yaml:"output,omitempty"`
	// AssetsDir overrides where generated side-assets are written.
	// Defaults to <output>/docfix-generated.
	AssetsDir string `yaml:"assets_dir,omitempty"`

	Theme            string   `yaml:"theme,omitempty"`   // "dark", "light" or "custom"
	Threads          int      `yaml:"threads,omitempty"` // 0 = pick automatically
	WarningsAsErrors bool     `yaml:"werror,omitempty"`
	HTML             bool     `yaml:"html"`
	XML              bool     `yaml:"xml"`
	Include          []string `yaml:"include,omitempty"` // glob-or-regex page filters
	Exclude          []string `yaml:"exclude,omitempty"`

	// Changelog is an optional markdown file rendered into the output as
	// an extra page before post-processing starts.
	Changelog string `yaml:"changelog,omitempty"`

	// FatalFixers names fixers whose failure aborts the whole run rather
	// than just the current document.
	FatalFixers []string `yaml:"fatal_fixers,omitempty"`

	AutoLinks     map[string]string `yaml:"autolinks,omitempty"`
	CodeBlocks    CodeBlocks        `yaml:"code_blocks,omitempty"`
	StripIncludes []string          `yaml:"strip_includes,omitempty"`
	Badges        []Badge           `yaml:"badges,omitempty"`
	Emoji         bool              `yaml:"emoji"`
}

// CodeBlocks carries the identifier sets used to repair syntax
// highlighting inside code blocks.
type CodeBlocks struct {
	Namespaces []string `yaml:"namespaces,omitempty"`
	Types      []string `yaml:"types,omitempty"`
	Enums      []string `yaml:"enums,omitempty"`
	Functions  []string `yaml:"functions,omitempty"`
	Macros     []string `yaml:"macros,omitempty"`
}

// Badge is an image (optionally linked) injected under the main banner.
type Badge struct {
	Alt  string `yaml:"alt,omitempty"`
	Src  string `yaml:"src"`
	Href string `yaml:"href,omitempty"`
}

// Load reads the configuration file, expands environment variables, and
// applies defaults. Validation errors are surfaced before any document is
// processed.
func Load(configPath string) (*Config, error) {
	// pick up a .env next to the config when present
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.IOError(err, "read config file").
			WithSeverity(errors.SeverityFatal).
			WithContext("path", configPath)
	}

	cfg := &Config{
		HTML:  true,
		XML:   true,
		Emoji: true,
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "unmarshal config").
			WithContext("path", configPath)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Input == "" {
		c.Input = "./html"
	}
	if c.Theme == "" {
		c.Theme = "dark"
	}
	if c.Output == "" {
		c.Output = c.Input
	}
	if len(c.CodeBlocks.Macros) == 0 {
		// extractor conditionals that are always macro-like
		c.CodeBlocks.Macros = []string{"NDEBUG", "DOXYGEN", "__cplusplus"}
	}
}

// EffectiveThreads resolves the configured parallelism: 0 or absent means
// "pick automatically", bounded by available parallelism and clamped to a
// sane ceiling.
func (c *Config) EffectiveThreads(jobs int) int {
	threads := c.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if threads > 16 {
		threads = 16
	}
	if jobs > 0 && threads > jobs {
		threads = jobs
	}
	if threads < 1 {
		threads = 1
	}
	return threads
}

// Validate checks the configuration, returning a ConfigError naming the
// first offending field.
func (c *Config) Validate() error {
	if c.Threads < 0 {
		return errors.ConfigError("threads must be >= 0")
	}
	switch c.Theme {
	case "dark", "light", "custom":
	default:
		return errors.ConfigError(fmt.Sprintf("unknown theme %q (want dark, light or custom)", c.Theme))
	}
	if _, err := CompilePatterns(c.Include); err != nil {
		return err
	}
	if _, err := CompilePatterns(c.Exclude); err != nil {
		return err
	}
	for pattern := range c.AutoLinks {
		if _, err := regexp.Compile(pattern); err != nil {
			return errors.ConfigError(fmt.Sprintf("invalid autolink pattern %q: %v", pattern, err))
		}
	}
	for _, b := range c.Badges {
		if b.Src == "" {
			return errors.ConfigError("badge with empty src")
		}
	}
	if c.Changelog != "" {
		if _, err := os.Stat(c.Changelog); err != nil {
			return errors.ConfigError(fmt.Sprintf("changelog file %q not found", c.Changelog))
		}
	}
	return nil
}
