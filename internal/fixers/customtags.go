package fixers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/docfix/docfix/internal/dom"
)

// CustomTags rewrites square-bracket [tags] authors place in prose into
// real HTML. Paired tags ([span ...]...[/span]) become elements, single
// tags expand to entities, emoji, images or list markers, and the
// class/name/id pseudo-tags mutate the surrounding element instead of
// producing output.
type CustomTags struct{}

var pairedTagNames = []string{
	"aside", "b", "center", "code", "div", "em", "h1", "h2", "h3", "h4",
	"h5", "h6", "i", "li", "ol", "p", "pre", "span", "strong", "u", "ul",
}

var singleTagNames = []string{
	"add_class", "add_parent_class", "add_parent_parent_class", "emoji",
	"entity", "htmlentity", "img", "li", "ol", "parent_add_class",
	"parent_parent_add_class", "parent_parent_remove_class",
	"parent_parent_set_class", "parent_parent_set_id",
	"parent_parent_set_name", "parent_remove_class", "parent_set_class",
	"parent_set_id", "parent_set_name", "remove_class",
	"remove_parent_class", "remove_parent_parent_class", "set_class",
	"set_id", "set_name", "set_parent_class", "set_parent_id",
	"set_parent_name", "ul",
}

var tagParents = []string{
	"a", "aside", "b", "dd", "div", "h1", "h2", "h3", "h4", "h5", "h6",
	"i", "li", "p", "span", "td", "u",
}

var tagDisallowedParents = []string{"code", "pre"}

// pairedTagExprs holds one expression per tag name so the closer always
// matches the opener.
var pairedTagExprs = func() map[string]*regexp.Regexp {
	exprs := make(map[string]*regexp.Regexp, len(pairedTagNames))
	for _, name := range pairedTagNames {
		exprs[name] = regexp.MustCompile(
			`(?is)\[\s*(` + regexp.QuoteMeta(name) + `)\s*([^\]]*?)\s*\](.*?)\[\s*/\s*` + regexp.QuoteMeta(name) + `\s*\]`)
	}
	return exprs
}()

var (
	singleTagExpr = regexp.MustCompile(
		`(?is)\[\s*(` + TrieRegex(singleTagNames) + `)\s*([^\]]*?)\s*\]`)
	hexEntityExpr = regexp.MustCompile(`\A(?:[0#]?[xX])?([a-fA-F0-9]+)\z`)
)

// elemOp is a deferred mutation collected while substituting single
// tags, applied to the surrounding element after the splice.
type elemOp struct {
	key  string
	args []string
}

func (f *CustomTags) Name() string { return "custom-tags" }

func (f *CustomTags) Apply(cx *Context, doc *dom.Document) (bool, error) {
	content := doc.ArticleContent()
	if content == nil {
		return false, nil
	}
	changed := false
	if f.expandPairedTags(doc, content) {
		changed = true
	}
	if f.expandSingleTags(cx, doc) {
		changed = true
	}
	return changed, nil
}

func (f *CustomTags) candidateTags(doc *dom.Document) []*html.Node {
	content := doc.ArticleContent()
	if content == nil {
		return nil
	}
	var out []*html.Node
	for _, n := range dom.FindAll(content, tagParents, nil) {
		if !dom.IsReachable(n, content) || n.FirstChild == nil {
			continue
		}
		if dom.FindEnclosing(n, tagDisallowedParents, content) != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// expandPairedTags replaces well-formed opener/closer pairs with real
// elements, re-parsing the affected subtree each round until no pair
// remains.
func (f *CustomTags) expandPairedTags(doc *dom.Document, content *html.Node) bool {
	changed := false
	for {
		replaced := false
		for _, tag := range f.candidateTags(doc) {
			markup := dom.RenderNode(tag)
			rewritten := markup
			for name, expr := range pairedTagExprs {
				rewritten = expr.ReplaceAllStringFunc(rewritten, func(m string) string {
					sub := expr.FindStringSubmatch(m)
					return pairedTagMarkup(name, sub[2], sub[3])
				})
			}
			if rewritten == markup {
				continue
			}
			if _, err := dom.ReplaceNode(tag, rewritten); err != nil {
				continue
			}
			replaced = true
			break
		}
		if !replaced {
			return changed
		}
		doc.Smooth()
		changed = true
	}
}

func pairedTagMarkup(name, attrs, content string) string {
	attrs = strings.TrimSpace(attrs)
	if attrs != "" {
		attrs = " " + attrs
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Sprintf("<%s%s />", name, attrs)
	}
	return fmt.Sprintf("<%s%s>%s</%s>", name, attrs, content, name)
}

func (f *CustomTags) expandSingleTags(cx *Context, doc *dom.Document) bool {
	changed := false
	for {
		replaced := false
		for _, tag := range f.candidateTags(doc) {
			for _, str := range dom.ChildTextNodes(tag) {
				if !singleTagExpr.MatchString(str.Data) {
					continue
				}
				if f.spliceSingleTags(cx, str) {
					replaced = true
				}
			}
			if replaced {
				break
			}
		}
		if !replaced {
			return changed
		}
		doc.Smooth()
		changed = true
	}
}

// spliceSingleTags substitutes every single tag in one text node and
// applies any collected element mutations to the right target.
func (f *CustomTags) spliceSingleTags(cx *Context, str *html.Node) bool {
	parent := str.Parent
	var ops []elemOp
	rewritten := singleTagExpr.ReplaceAllStringFunc(dom.EscapeText(str.Data), func(m string) string {
		sub := singleTagExpr.FindStringSubmatch(m)
		return f.singleTagMarkup(cx, strings.ToLower(sub[1]), strings.TrimSpace(sub[2]), &ops)
	})
	newNodes, err := dom.ReplaceNode(str, rewritten)
	if err != nil {
		return false
	}
	if parent != nil && parent.Data == "p" && parent.FirstChild == nil {
		parent = parent.Parent
	}
	for _, op := range ops {
		f.applyOp(op, newNodes, parent)
	}
	return true
}

func (f *CustomTags) singleTagMarkup(cx *Context, name, attrs string, ops *[]elemOp) string {
	switch {
	case name == "entity" || name == "htmlentity":
		if attrs == "" {
			return ""
		}
		if hex := hexEntityExpr.FindStringSubmatch(attrs); hex != nil {
			if cp, err := strconv.ParseInt(hex[1], 16, 64); err == nil && cp <= 0x10FFFF {
				return fmt.Sprintf("&#x%s;", hex[1])
			}
		}
		return fmt.Sprintf("&%s;", attrs)

	case name == "emoji":
		if attrs == "" {
			return ""
		}
		attrs = strings.ToLower(attrs)
		for _, base := range []int{16, 10} {
			if cp, err := strconv.ParseInt(attrs, base, 64); err == nil {
				if e, ok := cx.Emoji.LookupCodepoint(rune(cp)); ok {
					return e.String()
				}
			}
		}
		if e, ok := cx.Emoji.Lookup(attrs); ok {
			return e.String()
		}
		return ""

	case strings.Contains(name, "_class"):
		args := strings.Fields(attrs)
		if len(args) > 0 {
			*ops = append(*ops, elemOp{key: name, args: args})
		}
		return ""

	case strings.Contains(name, "_name") || strings.Contains(name, "_id"):
		if attrs != "" {
			*ops = append(*ops, elemOp{key: name, args: []string{attrs}})
		}
		return ""

	default:
		if attrs != "" {
			return fmt.Sprintf("<%s %s>", name, attrs)
		}
		return fmt.Sprintf("<%s>", name)
	}
}

func (f *CustomTags) applyOp(op elemOp, newNodes []*html.Node, parent *html.Node) {
	key := op.key
	if strings.Contains(key, "parent_") {
		if strings.Contains(key, "parent_parent") {
			key = strings.Replace(key, "parent_parent", "parent", 1)
			if parent != nil {
				parent = parent.Parent
			}
		}
		if parent == nil {
			return
		}
		switch key {
		case "parent_add_class", "add_parent_class":
			dom.AddClass(parent, op.args...)
		case "parent_remove_class", "remove_parent_class":
			dom.RemoveClass(parent, op.args...)
		case "parent_set_class", "set_parent_class":
			dom.SetClass(parent, op.args...)
		case "parent_set_name", "set_parent_name":
			renameElement(parent, op.args[0])
		case "parent_set_id", "set_parent_id":
			dom.SetAttr(parent, "id", op.args[0])
		}
		return
	}

	var target *html.Node
	switch {
	case len(newNodes) == 1:
		target = newNodes[0]
	case len(newNodes) == 0:
		target = parent
	}
	if target != nil && dom.IsText(target) {
		target = target.Parent
	}
	if target == nil {
		return
	}
	switch key {
	case "add_class":
		dom.AddClass(target, op.args...)
	case "remove_class":
		dom.RemoveClass(target, op.args...)
	case "set_class":
		dom.SetClass(target, op.args...)
	case "set_name":
		renameElement(target, op.args[0])
	case "set_id":
		dom.SetAttr(target, "id", op.args[0])
	}
}

func renameElement(n *html.Node, name string) {
	n.Data = name
	n.DataAtom = atom.Lookup([]byte(name))
}
