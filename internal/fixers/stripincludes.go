package fixers

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/docfix/docfix/internal/dom"
)

// StripIncludes removes or trims the "#include <path/to/header.h>" chips
// the extractor attaches to declarations, based on configured prefixes. A
// chip matching a prefix exactly is destroyed; a longer path has the
// prefix cut off.
type StripIncludes struct{}

func (f *StripIncludes) Name() string { return "strip-includes" }

func (f *StripIncludes) Apply(cx *Context, doc *dom.Document) (bool, error) {
	article := doc.Article()
	if article == nil || len(cx.StripIncludes) == 0 {
		return false, nil
	}
	changed := false
	for _, div := range dom.FindAll(article, []string{"div"}, nil) {
		if !dom.HasClass(div, "m-doc-include") {
			continue
		}
		anchor := firstAnchor(div)
		if anchor == nil {
			continue
		}
		text := dom.Text(anchor)
		if !strings.HasPrefix(text, "<") || !strings.HasSuffix(text, ">") {
			continue
		}
		header := strings.TrimSpace(text[1 : len(text)-1])
		for _, strip := range cx.StripIncludes {
			if len(header) < len(strip) || !strings.HasPrefix(header, strip) {
				continue
			}
			if len(header) == len(strip) {
				dom.DestroyNode(div)
			} else {
				setNodeText(anchor, "<"+header[len(strip):]+">")
			}
			changed = true
			break
		}
	}
	return changed, nil
}

// firstAnchor finds the include chip's href anchor.
func firstAnchor(div *html.Node) *html.Node {
	for _, a := range dom.FindAll(div, []string{"a"}, nil) {
		if dom.HasAttr(a, "href") && dom.HasClass(a, "cpf") {
			return a
		}
	}
	return nil
}
