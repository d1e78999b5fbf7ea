package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docfix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "input: ./out/html\n"))
	require.NoError(t, err)

	assert.Equal(t, "./out/html", cfg.Input)
	assert.Equal(t, "./out/html", cfg.Output, "output defaults to in-place")
	assert.Equal(t, "dark", cfg.Theme)
	assert.True(t, cfg.HTML)
	assert.True(t, cfg.Emoji)
	assert.False(t, cfg.WarningsAsErrors)
	assert.NotEmpty(t, cfg.CodeBlocks.Macros)
}

func TestLoadFull(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
input: ./html
output: ./site
theme: light
threads: 4
werror: true
include: ["*.html"]
exclude: ["/^search.*$/"]
autolinks:
  "std::vector": https://en.cppreference.com/w/cpp/container/vector
code_blocks:
  namespaces: [mylib, mylib::detail]
  types: [mylib::widget]
strip_includes: [mylib/]
badges:
  - alt: CI
    src: ci-badge.svg
    href: https://ci.example.com
`))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Threads)
	assert.True(t, cfg.WarningsAsErrors)
	assert.Len(t, cfg.Badges, 1)
	assert.Equal(t, []string{"mylib/"}, cfg.StripIncludes)
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("DOCFIX_TEST_INPUT", "/tmp/generated")
	cfg, err := Load(writeConfig(t, "input: ${DOCFIX_TEST_INPUT}\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/generated", cfg.Input)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"negative threads":  "threads: -1\n",
		"unknown theme":     "theme: sepia\n",
		"bad regex filter":  "include: [\"/([a/\"]\n",
		"bad autolink":      "autolinks: {\"([\": x}\n",
		"empty badge src":   "badges: [{alt: x}]\n",
		"missing changelog": "changelog: ./no/such/file.md\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}

func TestEffectiveThreads(t *testing.T) {
	cfg := &Config{Threads: 0}
	assert.GreaterOrEqual(t, cfg.EffectiveThreads(100), 1)

	cfg.Threads = 8
	assert.Equal(t, 8, cfg.EffectiveThreads(100))
	assert.Equal(t, 3, cfg.EffectiveThreads(3), "clamped to job count")

	cfg.Threads = 64
	assert.Equal(t, 16, cfg.EffectiveThreads(100), "hard ceiling")
}

func TestPatternGlobVsRegex(t *testing.T) {
	glob, err := CompilePattern("md_*.html")
	require.NoError(t, err)
	assert.True(t, glob.Match("/out/md_readme.html"))
	assert.False(t, glob.Match("/out/classwidget.html"))

	re, err := CompilePattern("/^(class|struct).*[.]html$/")
	require.NoError(t, err)
	assert.True(t, re.Match("classwidget.html"))
	assert.True(t, re.Match("structfoo.html"))
	assert.False(t, re.Match("namespacefoo.html"))

	// regex metacharacters force regex interpretation without slashes
	bare, err := CompilePattern(`index|pages`)
	require.NoError(t, err)
	assert.True(t, bare.Match("index.html"))
	assert.True(t, bare.Match("pages.html"))
}

func TestMatchAny(t *testing.T) {
	patterns, err := CompilePatterns([]string{"*.html"})
	require.NoError(t, err)

	assert.True(t, MatchAny(patterns, "a.html", false))
	assert.False(t, MatchAny(patterns, "a.css", false))
	assert.True(t, MatchAny(nil, "anything", true), "empty include matches all")
	assert.False(t, MatchAny(nil, "anything", false), "empty exclude matches none")
}
