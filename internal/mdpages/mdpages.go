// Package mdpages renders standalone markdown sources, most notably the
// project changelog, into pages shaped like the extractor's own output so
// the fixer pipeline can process them like any other page.
package mdpages

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/docfix/docfix/internal/assets"
	"github.com/docfix/docfix/internal/errors"
)

// ChangelogPage is the file name the rendered changelog is written to.
const ChangelogPage = "docfix_changelog.html"

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// Render converts markdown into a full page with the extractor's
// main > article > div nesting, so the fixers' region derivation finds
// the same shape they find everywhere else.
func Render(source []byte, title string) (string, error) {
	var body bytes.Buffer
	if err := md.Convert(source, &body); err != nil {
		return "", errors.ParseError(err, "rendering markdown")
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", title)
	page.WriteString("<meta charset=\"UTF-8\" />\n</head>\n<body>\n")
	page.WriteString("<main><article>\n<div><div><div>\n")
	fmt.Fprintf(&page, "<h1>%s</h1>\n", title)
	page.Write(body.Bytes())
	page.WriteString("\n</div></div></div>\n</article></main>\n</body>\n</html>\n")
	return page.String(), nil
}

// RenderChangelog reads a markdown changelog and writes the rendered page
// into outputDir, returning the path written. Renders are memoised in the
// generated-assets cache, keyed on the markdown source.
func RenderChangelog(changelogPath, outputDir string) (string, error) {
	source, err := os.ReadFile(changelogPath)
	if err != nil {
		return "", errors.IOError(err, "reading changelog")
	}
	out := filepath.Join(outputDir, ChangelogPage)
	key := assets.Key(source)

	cache, cacheErr := assets.NewCache(filepath.Join(outputDir, assets.GeneratedDir, "cache"))
	if cacheErr == nil {
		if page, err := cache.Open(key, ".html"); err == nil {
			if err := os.WriteFile(out, page, 0o644); err != nil {
				return "", errors.IOError(err, "writing changelog page")
			}
			return out, nil
		}
	}

	page, err := Render(source, "Changelog")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(out, []byte(page), 0o644); err != nil {
		return "", errors.IOError(err, "writing changelog page")
	}
	if cacheErr == nil {
		if err := cache.StoreAs(key, []byte(page), ".html"); err != nil {
			return "", errors.IOError(err, "caching changelog page")
		}
	}
	return out, nil
}
