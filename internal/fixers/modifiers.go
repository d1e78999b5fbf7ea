package fixers

import (
	"regexp"
	"slices"

	"golang.org/x/net/html"

	"github.com/docfix/docfix/internal/dom"
)

// Modifiers wraps improperly-parsed function-signature modifiers in label
// badges within the member-listing sections. Applied per section; a
// failure on one section does not stop the remaining ones.
type Modifiers struct{}

// modifierSections are the member listings carrying signature rows.
var modifierSections = []string{"pub-static-methods", "pub-methods", "friends", "func-members"}

var modifierExpr = regexp.MustCompile(
	`(\s+)(defaulted|noexcept|constexpr|(?:pure )?virtual|protected|__(?:(?:vector|std|fast)call|cdecl))(\s+)`,
)

var modifierClasses = map[string]string{
	"defaulted":    "m-info",
	"noexcept":     "m-success",
	"constexpr":    "m-primary",
	"pure virtual": "m-warning",
	"virtual":      "m-warning",
	"protected":    "m-warning",
	"__vectorcall": "m-special",
	"__stdcall":    "m-special",
	"__fastcall":   "m-special",
	"__cdecl":      "m-special",
}

func (f *Modifiers) Name() string { return "modifiers" }

func (f *Modifiers) SectionPolicy() SectionPolicy { return SectionContinue }

func (f *Modifiers) ApplySection(cx *Context, doc *dom.Document, section *html.Node) (bool, error) {
	if !slices.Contains(modifierSections, dom.GetAttr(section, "id")) {
		return false, nil
	}
	changed := false
	for _, dt := range dom.FindAll(section, []string{"dt"}, nil) {
		for _, wrap := range dom.FindAll(dt, []string{"span"}, func(n *html.Node) bool {
			return dom.HasClass(n, "m-doc-wrap")
		}) {
			markup := dom.RenderNode(wrap)
			replaced := modifierExpr.ReplaceAllStringFunc(markup, func(m string) string {
				sub := modifierExpr.FindStringSubmatch(m)
				return sub[1] +
					`<span class="docfix-injected m-label m-flat ` + modifierClasses[sub[2]] + `">` +
					sub[2] + `</span>` + sub[3]
			})
			if replaced == markup {
				continue
			}
			if _, err := dom.ReplaceNode(wrap, replaced); err != nil {
				return changed, err
			}
			changed = true
		}
	}
	return changed, nil
}
