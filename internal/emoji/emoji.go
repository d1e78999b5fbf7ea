// Package emoji provides the process-wide emoji lookup table used by the
// custom-tag fixer. The table is embedded, immutable after load, and safe
// to share across workers without locking.
package emoji

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/docfix/docfix/internal/errors"
)

//go:embed table.json
var rawTable []byte

// Emoji is a single entry: an alias plus its codepoint sequence.
type Emoji struct {
	Key        string
	Codepoints []rune
}

// String renders the emoji as HTML numeric character references, with a
// trailing VS16 so text-presentation codepoints display as emoji.
func (e Emoji) String() string {
	var sb strings.Builder
	for _, cp := range e.Codepoints {
		fmt.Fprintf(&sb, "&#x%X;", cp)
	}
	sb.WriteString("&#xFE0F;")
	return sb.String()
}

// Table is the alias and codepoint index. Built once at startup.
type Table struct {
	byAlias     map[string]Emoji
	byCodepoint map[rune]Emoji
}

// Load parses the embedded table.
func Load() (*Table, error) {
	var entries map[string][]rune
	if err := json.Unmarshal(rawTable, &entries); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "corrupt embedded emoji table")
	}
	t := &Table{
		byAlias:     make(map[string]Emoji, len(entries)),
		byCodepoint: make(map[rune]Emoji, len(entries)),
	}
	for key, cps := range entries {
		e := Emoji{Key: key, Codepoints: cps}
		t.byAlias[key] = e
		if len(cps) == 1 {
			if _, taken := t.byCodepoint[cps[0]]; !taken {
				t.byCodepoint[cps[0]] = e
			}
		}
	}
	return t, nil
}

// Len returns the number of aliases in the table.
func (t *Table) Len() int { return len(t.byAlias) }

// normalizeAlias folds an alias the way the table's keys are stored:
// NFKC, lower-case, hyphens as underscores.
func normalizeAlias(alias string) string {
	alias = norm.NFKC.String(alias)
	alias = strings.ToLower(strings.TrimSpace(alias))
	return strings.ReplaceAll(alias, "-", "_")
}

// Lookup finds an emoji by alias. ok is false for unknown aliases.
func (t *Table) Lookup(alias string) (Emoji, bool) {
	e, ok := t.byAlias[normalizeAlias(alias)]
	return e, ok
}

// LookupCodepoint finds a single-codepoint emoji by its codepoint value.
func (t *Table) LookupCodepoint(cp rune) (Emoji, bool) {
	e, ok := t.byCodepoint[cp]
	return e, ok
}

// WriteJSON writes the table to dir as a generated side-asset, with keys
// sorted for stable output.
func (t *Table) WriteJSON(dir string) error {
	keys := make([]string, 0, len(t.byAlias))
	for k := range t.byAlias {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string][]rune, len(keys))
	for _, k := range keys {
		ordered[k] = t.byAlias[k].Codepoints
	}
	data, err := json.MarshalIndent(ordered, "", "    ")
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityError, "serialize emoji table")
	}
	path := filepath.Join(dir, "emoji.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.IOError(err, "write emoji table").WithContext("path", path)
	}
	return nil
}
