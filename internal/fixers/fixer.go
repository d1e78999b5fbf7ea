// Package fixers holds the catalog of post-processing passes applied to
// every extractor-generated page, plus the shared read-only context they
// consume.
package fixers

import (
	"golang.org/x/net/html"

	"github.com/docfix/docfix/internal/dom"
)

// Pass is a single transformation in the pipeline: either a Fixer working
// on the parsed tree or a TextFixer working on the serialized page.
type Pass interface {
	Name() string
}

// Fixer is a whole-document tree transformation. Apply reports whether it
// changed the document.
type Fixer interface {
	Pass
	Apply(cx *Context, doc *dom.Document) (bool, error)
}

// SectionFixer is applied once per top-level section, in document order.
// The pipeline snapshots the section list before the pass begins; a fixer
// that removes or inserts sections does not see its own edits mid-pass,
// but the next fixer always re-queries the live list.
type SectionFixer interface {
	Pass
	ApplySection(cx *Context, doc *dom.Document, section *html.Node) (bool, error)
}

// TextFixer transforms the serialized page. Returning the input string
// unchanged means "no change".
type TextFixer interface {
	Pass
	ApplyText(cx *Context, text string, path string) (string, error)
}

// SectionPolicy decides what happens to a document's remaining sections
// when a per-section pass fails on one of them.
type SectionPolicy int

const (
	// SectionContinue runs the pass on the remaining sections and reports
	// the first error afterwards.
	SectionContinue SectionPolicy = iota
	// SectionAbort fails the document immediately.
	SectionAbort
)

// SectionPolicyFixer lets a SectionFixer choose its failure policy.
// Fixers without the interface get SectionAbort.
type SectionPolicyFixer interface {
	SectionPolicy() SectionPolicy
}

// FixedPointFixer marks a Fixer that must be re-applied until it reports
// no change (bounded by the pipeline), instead of running single-pass.
type FixedPointFixer interface {
	FixedPoint() bool
}

// CreateAll returns the built-in passes in application order. Order is
// part of the contract: later passes assume earlier passes' invariants.
func CreateAll() []Pass {
	return []Pass{
		&FixTOC{},
		&HighlightTweaks{},
		&CodeBlocks{},
		&Banner{},
		&Modifiers{},
		&StripIncludes{},
		&AutoLinks{},
		&Links{},
		&CustomTags{},
		&TemplateNoise{},
		&EmptyTags{},
		&ImplementationDetails{},
		&MarkdownPages{},
		&ReturnTypes{},
		&SearchShim{},
		&ThemeInject{},
	}
}
