// Package assets ships the generated stylesheet, script shim and theme
// files the fixers reference, and installs them next to the processed
// pages.
package assets

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed css/*.css js/*.js
var files embed.FS

const (
	// GeneratedDir is the directory created inside the output root for
	// everything docfix generates itself.
	GeneratedDir = "docfix-generated"

	// StylesheetRel is the stylesheet href injected into every page,
	// relative to the output root.
	StylesheetRel = GeneratedDir + "/docfix.css"

	// ScriptRel is the script src for the search shim, relative to the
	// output root.
	ScriptRel = GeneratedDir + "/docfix.js"
)

// InstallTheme writes the generated stylesheet and script into
// outputDir. For the "custom" theme the stylesheet is left alone so a
// hand-written one survives re-runs.
func InstallTheme(outputDir, theme string) error {
	dir := filepath.Join(outputDir, GeneratedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	if theme != "custom" {
		css, err := files.ReadFile("css/" + theme + ".css")
		if err != nil {
			return fmt.Errorf("unknown theme %q: %w", theme, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "docfix.css"), css, 0o644); err != nil {
			return err
		}
	}

	js, err := files.ReadFile("js/docfix.js")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "docfix.js"), js, 0o644)
}
