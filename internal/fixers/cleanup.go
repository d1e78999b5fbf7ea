package fixers

import (
	"regexp"

	"github.com/docfix/docfix/internal/dom"
)

// EmptyTags prunes empty <p> and <span> elements left behind by earlier
// passes. Runs to fixed point: destroying a span can empty its parent.
type EmptyTags struct{}

func (f *EmptyTags) Name() string { return "empty-tags" }

func (f *EmptyTags) FixedPoint() bool { return true }

func (f *EmptyTags) Apply(cx *Context, doc *dom.Document) (bool, error) {
	body := doc.Body()
	if body == nil {
		return false, nil
	}
	changed := false
	for _, tag := range dom.FindAll(body, []string{"p", "span"}, nil) {
		if tag.Parent == nil {
			continue // already destroyed this pass
		}
		if dom.IsEffectivelyEmpty(tag) {
			dom.DestroyNode(tag)
			changed = true
		}
	}
	return changed, nil
}

// TemplateNoise collapses "Foo<A, B>::" detail prefixes down to "Foo::".
type TemplateNoise struct{}

var templatePrefix = regexp.MustCompile(`\A([a-zA-Z_][a-zA-Z_0-9:]*)<.+?>::\z`)

func (f *TemplateNoise) Name() string { return "template-noise" }

func (f *TemplateNoise) Apply(cx *Context, doc *dom.Document) (bool, error) {
	article := doc.Article()
	if article == nil {
		return false, nil
	}
	changed := false
	for _, tag := range dom.FindAll(article, []string{"span"}, nil) {
		if !dom.HasClass(tag, "m-doc-details-prefix") {
			continue
		}
		m := templatePrefix.FindStringSubmatch(dom.Text(tag))
		if m == nil {
			continue
		}
		setNodeText(tag, m[1]+"::")
		changed = true
	}
	return changed, nil
}
