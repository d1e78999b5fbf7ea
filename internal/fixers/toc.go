package fixers

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/docfix/docfix/internal/dom"
)

// FixTOC normalizes the table-of-contents block: injects our css hooks
// and collapses the degenerate <li><a href="#"></a><ul><li><a>…</a></li></ul>
// nesting some extractor versions emit.
type FixTOC struct{}

func (f *FixTOC) Name() string { return "fix-toc" }

func (f *FixTOC) Apply(cx *Context, doc *dom.Document) (bool, error) {
	toc := doc.TableOfContents()
	if toc == nil {
		return false, nil
	}

	changed := dom.AddClass(toc, "docfix-toc")
	if dom.GetAttr(toc, "id") != "docfix-toc" {
		dom.SetAttr(toc, "id", "docfix-toc")
		changed = true
	}
	if body := doc.Body(); body != nil {
		changed = dom.AddClass(body, "docfix-has-toc") || changed
	}

	list := dom.FirstChildElement(toc, "ul")
	if list == nil {
		return changed, nil
	}
	for _, item := range dom.ChildElements(list) {
		if item.Data != "li" {
			continue
		}
		if f.collapseItem(item) {
			changed = true
		}
	}
	return changed, nil
}

// collapseItem rewrites one degenerate entry in place. The shape is an
// empty self-link followed by a single-item sublist holding the real link.
func (f *FixTOC) collapseItem(item *html.Node) bool {
	if strings.TrimSpace(ownText(item)) != "" {
		return false
	}
	kids := dom.ChildElements(item)
	if len(kids) != 2 || kids[0].Data != "a" || kids[1].Data != "ul" {
		return false
	}
	outer, sublist := kids[0], kids[1]
	if dom.GetAttr(outer, "href") != "#" || strings.TrimSpace(dom.Text(outer)) != "" {
		return false
	}
	subitems := dom.ChildElements(sublist)
	if len(subitems) != 1 || subitems[0].Data != "li" {
		return false
	}
	inner := dom.FirstChildElement(subitems[0], "a")
	if inner == nil || strings.TrimSpace(dom.Text(inner)) == "" {
		return false
	}

	dom.DestroyNode(inner)
	for item.FirstChild != nil {
		item.RemoveChild(item.FirstChild)
	}
	item.AppendChild(inner)
	return true
}

// ownText concatenates the direct text children of n.
func ownText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsText(c) {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
