package fixers

import (
	"golang.org/x/net/html"

	"github.com/docfix/docfix/internal/dom"
)

// setNodeText replaces an element's children with a single text node.
func setNodeText(n *html.Node, text string) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	n.AppendChild(dom.NewText(text))
}

// soleText returns the element's text when it holds exactly one text-node
// child, mirroring the "string" accessor the recolouring logic keys on.
func soleText(n *html.Node) (string, bool) {
	if n.FirstChild != nil && n.FirstChild == n.LastChild && dom.IsText(n.FirstChild) {
		return n.FirstChild.Data, true
	}
	return "", false
}
