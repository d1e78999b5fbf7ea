package fixers

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/docfix/docfix/internal/dom"
)

// AutoLinks injects documentation links for configured identifier
// patterns found in prose, and re-points existing doc links that were
// linked to the wrong target. Never touches text inside anchors or code.
type AutoLinks struct{}

// linkableTags are the prose containers autolinking may rewrite.
var linkableTags = []string{"dd", "p", "dt", "h3", "td", "div", "figcaption"}

func (f *AutoLinks) Name() string { return "autolinks" }

func (f *AutoLinks) Apply(cx *Context, doc *dom.Document) (bool, error) {
	content := doc.ArticleContent()
	if content == nil || len(cx.AutoLinks) == 0 {
		return false, nil
	}
	pageName := filepath.Base(doc.Path())

	changed := f.retargetExistingLinks(cx, content, pageName)
	if f.linkProse(cx, content, pageName) {
		changed = true
	}
	return changed, nil
}

// retargetExistingLinks re-points doc links whose text matches an
// autolink rule but whose href goes somewhere else. Self-links are left
// alone.
func (f *AutoLinks) retargetExistingLinks(cx *Context, content *html.Node, pageName string) bool {
	changed := false
	for _, link := range dom.FindAll(content, []string{"a"}, func(n *html.Node) bool {
		return dom.HasClass(n, "m-doc")
	}) {
		text := dom.Text(link)
		for _, rule := range cx.AutoLinks {
			if !fullMatch(rule.Pattern, text) {
				continue
			}
			if href := dom.GetAttr(link, "href"); href != "" {
				base, anchor := splitAnchor(href)
				if anchor != "" && base == "" {
					continue // never override internal self-links
				}
				if base == rule.URI || base == pageName {
					continue
				}
			}
			dom.SetAttr(link, "href", rule.URI)
			dom.SetClass(link, "m-doc", "docfix-injected")
			if strings.HasPrefix(rule.URI, "http") {
				dom.AddClass(link, "docfix-external")
			}
			changed = true
			break
		}
	}
	return changed
}

// linkProse searches text not already under an anchor and wraps matches.
func (f *AutoLinks) linkProse(cx *Context, content *html.Node, pageName string) bool {
	changed := false

	tags := dom.ShallowSearch(content, linkableTags, func(n *html.Node) bool {
		return dom.FindEnclosing(n, []string{"a", "code", "pre"}, content) == nil
	})
	var strs []*html.Node
	for _, tag := range tags {
		strs = append(strs, dom.StringDescendants(tag, func(n *html.Node) bool {
			return dom.FindEnclosing(n, []string{"a", "code", "pre"}, tag) == nil
		})...)
	}

	for _, rule := range cx.AutoLinks {
		if rule.URI == pageName {
			continue // no unnecessary self-links
		}
		for i := 0; i < len(strs); i++ {
			str := strs[i]
			if str.Parent == nil {
				continue
			}
			escaped := dom.EscapeText(str.Data)
			replaced := rule.Pattern.ReplaceAllStringFunc(escaped, func(m string) string {
				return f.anchorMarkup(m, rule.URI)
			})
			if replaced == escaped {
				continue
			}
			inserted, err := dom.ReplaceNode(str, replaced)
			if err != nil {
				continue
			}
			changed = true
			strs = append(strs[:i], strs[i+1:]...)
			i--
			// keep scanning text the replacement introduced around the
			// new anchors, but never inside them
			for _, n := range inserted {
				if dom.IsText(n) {
					strs = append(strs, n)
					continue
				}
				if n.Data == "a" {
					continue
				}
				strs = append(strs, dom.StringDescendants(n, func(t *html.Node) bool {
					return dom.FindEnclosing(t, []string{"a"}, n) == nil
				})...)
			}
		}
	}
	return changed
}

func (f *AutoLinks) anchorMarkup(text, uri string) string {
	classes := "m-doc docfix-injected"
	extra := ""
	if strings.HasPrefix(uri, "http") {
		classes += " docfix-external"
		extra = ` target="_blank"`
	}
	return `<a href="` + uri + `" class="` + classes + `"` + extra + `>` + text + `</a>`
}

// fullMatch reports whether the pattern matches the whole string.
func fullMatch(re *regexp.Regexp, s string) bool {
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

// splitAnchor cuts an href at its fragment marker.
func splitAnchor(href string) (base, anchor string) {
	if i := strings.LastIndexByte(href, '#'); i >= 0 {
		return href[:i], href[i+1:]
	}
	return href, ""
}
