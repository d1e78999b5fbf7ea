package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// IsText reports whether n is a text node.
func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

// GetAttr retrieves an attribute value from an element, or "" if absent.
func GetAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// HasAttr reports whether an element carries the given attribute.
func HasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces an attribute on an element.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// DelAttr removes an attribute from an element if present.
func DelAttr(n *html.Node, key string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// Classes returns the element's class list in document order.
func Classes(n *html.Node) []string {
	raw := GetAttr(n, "class")
	if raw == "" {
		return nil
	}
	return strings.Fields(raw)
}

// HasClass reports whether the element's class list contains class.
func HasClass(n *html.Node, class string) bool {
	return slices.Contains(Classes(n), class)
}

// HasAnyClass reports whether the element carries at least one of the classes.
func HasAnyClass(n *html.Node, classes ...string) bool {
	have := Classes(n)
	for _, c := range classes {
		if slices.Contains(have, c) {
			return true
		}
	}
	return false
}

// AddClass appends classes not already present. Returns true if anything
// was added.
func AddClass(n *html.Node, classes ...string) bool {
	have := Classes(n)
	added := false
	for _, c := range classes {
		if !slices.Contains(have, c) {
			have = append(have, c)
			added = true
		}
	}
	if added {
		SetAttr(n, "class", strings.Join(have, " "))
	}
	return added
}

// RemoveClass removes the given classes. When the last class goes, the
// class attribute is removed entirely rather than left empty. Returns true
// if anything was removed.
func RemoveClass(n *html.Node, classes ...string) bool {
	have := Classes(n)
	removed := false
	for _, c := range classes {
		if i := slices.Index(have, c); i >= 0 {
			have = append(have[:i], have[i+1:]...)
			removed = true
		}
	}
	if removed {
		if len(have) == 0 {
			DelAttr(n, "class")
		} else {
			SetAttr(n, "class", strings.Join(have, " "))
		}
	}
	return removed
}

// SetClass replaces the element's class list.
func SetClass(n *html.Node, classes ...string) {
	DelAttr(n, "class")
	AddClass(n, classes...)
}

// Text returns the concatenated text content of n and its descendants.
func Text(n *html.Node) string {
	if IsText(n) {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(Text(c))
	}
	return sb.String()
}

// Walk visits n and every descendant in document order. Returning false
// from the visitor stops the walk.
func Walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !Walk(c, visit) {
			return false
		}
	}
	return true
}

// FindAll returns every descendant element (full depth-first) whose tag
// name is in names and which passes pred (pred may be nil).
func FindAll(root *html.Node, names []string, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if n != root && IsElement(n) && slices.Contains(names, n.Data) {
			if pred == nil || pred(n) {
				out = append(out, n)
			}
		}
		return true
	})
	return out
}

// ShallowSearch is a depth-first search that stops descending once a
// matching tag is accepted: a match's own descendants are never searched.
// A node whose tag matches but whose predicate rejects it is descended
// into like any other node. This finds "nearest enclosing" structural
// tags without false positives from nested duplicates.
func ShallowSearch(root *html.Node, names []string, pred func(*html.Node) bool) []*html.Node {
	if !IsElement(root) {
		return nil
	}
	if slices.Contains(names, root.Data) && (pred == nil || pred(root)) {
		return []*html.Node{root}
	}
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if !IsElement(c) {
			continue
		}
		if slices.Contains(names, c.Data) && (pred == nil || pred(c)) {
			out = append(out, c)
		} else {
			out = append(out, ShallowSearch(c, names, pred)...)
		}
	}
	return out
}

// FindEnclosing walks n's ancestors until one with a tag name in names is
// found. The walk stops without a match when stop is reached (stop itself
// is never returned).
func FindEnclosing(n *html.Node, names []string, stop *html.Node) *html.Node {
	for parent := n.Parent; parent != nil; parent = parent.Parent {
		if stop != nil && parent == stop {
			return nil
		}
		if IsElement(parent) && slices.Contains(names, parent.Data) {
			return parent
		}
	}
	return nil
}

// StringDescendants collects text nodes (not elements) passing pred,
// recursing into element children.
func StringDescendants(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	if IsText(root) {
		if pred == nil || pred(root) {
			return []*html.Node{root}
		}
		return nil
	}
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if IsText(c) {
			if pred == nil || pred(c) {
				out = append(out, c)
			}
		} else if IsElement(c) {
			out = append(out, StringDescendants(c, pred)...)
		}
	}
	return out
}

// ChildTextNodes returns n's direct non-empty text children.
func ChildTextNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsText(c) && c.Data != "" {
			out = append(out, c)
		}
	}
	return out
}

// DestroyNode detaches n from its parent. No-op if already detached.
func DestroyNode(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertAfter inserts n as ref's immediate following sibling.
func InsertAfter(ref, n *html.Node) {
	if ref.NextSibling != nil {
		ref.Parent.InsertBefore(n, ref.NextSibling)
	} else {
		ref.Parent.AppendChild(n)
	}
}

// ParseFragment parses markup in the given element context and returns
// its top-level nodes, detached and ready for insertion. A nil context
// parses in a <body> context. The context matters for table markup: a
// <td> start tag is only valid inside a row, so fragments destined for a
// table must be parsed with their real parent as context or the parser
// silently drops the cell tags.
func ParseFragment(markup string, context *html.Node) ([]*html.Node, error) {
	if context == nil || context.Type != html.ElementNode {
		context = &html.Node{
			Type:     html.ElementNode,
			Data:     "body",
			DataAtom: atom.Body,
		}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// ReplaceNode parses markup as a fragment in n's parent context, splices
// its top-level nodes in as n's following siblings, then destroys n.
// Empty markup simply destroys n. Returns the inserted nodes so callers
// can continue operating on them.
func ReplaceNode(n *html.Node, markup string) ([]*html.Node, error) {
	var inserted []*html.Node
	if markup != "" {
		nodes, err := ParseFragment(markup, n.Parent)
		if err != nil {
			return nil, err
		}
		prev := n
		for _, node := range nodes {
			InsertAfter(prev, node)
			prev = node
		}
		inserted = nodes
	}
	DestroyNode(n)
	return inserted, nil
}

// RenderNode serializes a single node (and its subtree) to markup.
func RenderNode(n *html.Node) string {
	var sb strings.Builder
	// Render only fails on unrenderable node types, which fixers never
	// construct; swallow to keep call sites simple.
	_ = html.Render(&sb, n)
	return sb.String()
}

// EscapeText escapes text for splicing into markup without touching
// quotes, matching how the parser will re-read it.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}

// NewElement creates a detached element node. attrs are key/value pairs.
func NewElement(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		SetAttr(n, attrs[i], attrs[i+1])
	}
	return n
}

// NewText creates a detached text node.
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// ChildElements returns n's element children in order.
func ChildElements(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c) {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildElement returns n's first element child with one of the given
// tag names (any tag if names is empty).
func FirstChildElement(n *html.Node, names ...string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c) && (len(names) == 0 || slices.Contains(names, c.Data)) {
			return c
		}
	}
	return nil
}

// NextElementSibling returns the nearest following sibling element.
func NextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if IsElement(s) {
			return s
		}
	}
	return nil
}

// PrevElementSibling returns the nearest preceding sibling element.
func PrevElementSibling(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if IsElement(s) {
			return s
		}
	}
	return nil
}

// PrevSiblingWithTag reports whether any preceding sibling has one of the
// given tag names.
func PrevSiblingWithTag(n *html.Node, names ...string) bool {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if IsElement(s) && slices.Contains(names, s.Data) {
			return true
		}
	}
	return false
}

// IsReachable reports whether n is still attached to root.
func IsReachable(n, root *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

// IsEffectivelyEmpty reports whether an element has no children, or only
// whitespace text children.
func IsEffectivelyEmpty(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsText(c) {
			if strings.TrimSpace(c.Data) != "" {
				return false
			}
			continue
		}
		return false
	}
	return true
}

// IsEffectivelyEmptyExcept reports whether n's children are only the
// given node plus whitespace text.
func IsEffectivelyEmptyExcept(n, except *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c == except {
			continue
		}
		if IsText(c) && strings.TrimSpace(c.Data) == "" {
			continue
		}
		return false
	}
	return true
}

// Smooth merges adjacent text node children throughout the subtree,
// mirroring what repeated fragment splices can fragment.
func Smooth(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		if IsText(c) && c.NextSibling != nil && IsText(c.NextSibling) {
			sib := c.NextSibling
			c.Data += sib.Data
			n.RemoveChild(sib)
			continue // re-check c against its new next sibling
		}
		if IsElement(c) {
			Smooth(c)
		}
		c = c.NextSibling
	}
}
