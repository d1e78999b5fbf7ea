// Package dom wraps lenient HTML parsing with the structural accessors and
// tree-rewriting primitives the fixer passes consume.
package dom

import (
	"bytes"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/docfix/docfix/internal/errors"
)

// Document wraps a parsed HTML page. The named regions (head, body,
// article content, table of contents, sections) are non-owning views into
// the tree, re-derived whenever a fixer detaches the node backing one of
// them.
type Document struct {
	path string
	root *html.Node

	derived bool
	head    *html.Node
	body    *html.Node
	article *html.Node
	content *html.Node
	toc     *html.Node
	secs    []*html.Node
}

// Load reads and parses the HTML file at path. The parser is
// fault-tolerant: malformed nesting is auto-corrected, not rejected.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError(err, "read page").WithContext("path", path)
	}
	return Parse(string(data), path)
}

// Parse parses page markup already held in memory. path is recorded for
// Flush and per-page fixer decisions.
func Parse(markup, path string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, errors.ParseError(err, "parse page").WithContext("path", path)
	}
	return &Document{path: path, root: root}, nil
}

// Path returns the file path the document was loaded from.
func (d *Document) Path() string { return d.path }

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Invalidate drops the cached region views; they are re-derived on next
// access. Fixers that restructure the top of the article must call this
// (detaching a cached region node triggers it automatically).
func (d *Document) Invalidate() { d.derived = false }

func (d *Document) ensureRegions() {
	if d.derived && d.regionsIntact() {
		return
	}
	d.deriveRegions()
}

// regionsIntact verifies every cached view still points into the tree.
func (d *Document) regionsIntact() bool {
	for _, n := range []*html.Node{d.head, d.body, d.article, d.content, d.toc} {
		if n != nil && !IsReachable(n, d.root) {
			return false
		}
	}
	for _, n := range d.secs {
		if !IsReachable(n, d.root) {
			return false
		}
	}
	return true
}

func firstDescendant(root *html.Node, name string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if n != root && IsElement(n) && n.Data == name {
			found = n
			return false
		}
		return true
	})
	return found
}

func (d *Document) deriveRegions() {
	d.derived = true
	d.head, d.body, d.article, d.content, d.toc, d.secs = nil, nil, nil, nil, nil, nil

	htmlNode := FirstChildElement(d.root, "html")
	if htmlNode == nil {
		return
	}
	d.head = FirstChildElement(htmlNode, "head")
	d.body = FirstChildElement(htmlNode, "body")
	if d.body == nil {
		return
	}
	main := firstDescendant(d.body, "main")
	if main == nil {
		return
	}
	d.article = firstDescendant(main, "article")
	if d.article == nil {
		return
	}
	div := firstDescendant(d.article, "div")
	if div != nil {
		div = firstDescendant(div, "div")
	}
	if div != nil {
		div = firstDescendant(div, "div")
	}
	d.content = div
	if d.content == nil {
		return
	}
	// the table of contents is a direct nav/div child labelled "Contents"
	for _, c := range ChildElements(d.content) {
		if c.Data != "nav" && c.Data != "div" {
			continue
		}
		if !HasClass(c, "m-block") || !HasClass(c, "m-default") {
			continue
		}
		h3 := FirstChildElement(c, "h3")
		if h3 == nil {
			h3 = firstDescendant(c, "h3")
		}
		if h3 != nil && strings.TrimSpace(Text(h3)) == "Contents" {
			d.toc = c
			break
		}
	}
	for _, c := range ChildElements(d.content) {
		if c.Data == "section" {
			d.secs = append(d.secs, c)
		}
	}
}

// Head returns the document head, or nil.
func (d *Document) Head() *html.Node { d.ensureRegions(); return d.head }

// Body returns the document body, or nil.
func (d *Document) Body() *html.Node { d.ensureRegions(); return d.body }

// Article returns the page's <article> element, or nil.
func (d *Document) Article() *html.Node { d.ensureRegions(); return d.article }

// ArticleContent returns the root of the page's main content region, or
// nil for pages without one (e.g. search and index frames).
func (d *Document) ArticleContent() *html.Node { d.ensureRegions(); return d.content }

// TableOfContents returns the page's TOC block, or nil.
func (d *Document) TableOfContents() *html.Node { d.ensureRegions(); return d.toc }

// Sections returns the top-level sections of the article content, in
// document order. The returned slice is a fresh copy; mutating the tree
// and re-querying yields the updated list.
func (d *Document) Sections() []*html.Node {
	d.ensureRegions()
	out := make([]*html.Node, len(d.secs))
	copy(out, d.secs)
	return out
}

// FindOptions refine Document.FindAll.
type FindOptions struct {
	// Selector further filters matches with a CSS selector, applied
	// within each tag match.
	Selector string
	// Section restricts the search to top-level sections with this id.
	Section string
	// IncludeTOC searches the table-of-contents block as well.
	IncludeTOC bool
}

// FindAll searches the article content's top-level sections for elements
// with the given tag names, in document order. With no tag names the
// sections themselves are the matches.
func (d *Document) FindAll(names []string, opts FindOptions) []*html.Node {
	d.ensureRegions()
	if d.content == nil {
		return nil
	}
	scopes := d.Sections()
	if opts.Section != "" {
		var filtered []*html.Node
		for _, s := range scopes {
			if GetAttr(s, "id") == opts.Section {
				filtered = append(filtered, s)
			}
		}
		scopes = filtered
	}
	if opts.IncludeTOC && d.toc != nil {
		scopes = append([]*html.Node{d.toc}, scopes...)
	}
	var out []*html.Node
	for _, scope := range scopes {
		matches := []*html.Node{scope}
		if len(names) > 0 {
			matches = FindAll(scope, names, nil)
		}
		if opts.Selector == "" {
			out = append(out, matches...)
			continue
		}
		for _, m := range matches {
			sel := goquery.NewDocumentFromNode(m).Find(opts.Selector)
			out = append(out, sel.Nodes...)
		}
	}
	return out
}

// Smooth merges adjacent text nodes across the whole tree.
func (d *Document) Smooth() { Smooth(d.root) }

// Render serializes the document to markup with normalized newlines.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, errors.SeverityError, "render page").
			WithContext("path", d.path)
	}
	text := strings.ReplaceAll(buf.String(), "\r\n", "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text, nil
}

// Flush serializes the current tree back to its path, UTF-8,
// newline-normalized.
func (d *Document) Flush() error {
	text, err := d.Render()
	if err != nil {
		return err
	}
	if err := os.WriteFile(d.path, []byte(text), 0o644); err != nil {
		return errors.IOError(err, "write page").WithContext("path", d.path)
	}
	return nil
}
