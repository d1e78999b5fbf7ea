package fixers

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/docfix/docfix/internal/dom"
)

// Links fixes various minor issues with anchor tags: same-page references
// disguised as file links, untagged external links, godbolt/cppreference
// specials, hrefs to files that do not exist, and internal #id links with
// nowhere to go.
type Links struct{}

var (
	externalHref  = regexp.MustCompile(`(?i)\A(?:https?|s?ftp|mailto):.+\z`)
	internalDocID = regexp.MustCompile(`\A[a-fA-F0-9]+\z`)
	localHref     = regexp.MustCompile(`\A([-/_a-zA-Z0-9]+\.[a-zA-Z]+)(?:#(.*))?\z`)
	godboltHref   = regexp.MustCompile(`(?i)\A\s*(?:https?://)?(?:www[.])?godbolt[.]org/z/.+\z`)
	cppRefHref    = regexp.MustCompile(`(?i)\A\s*(?:https?://)?(?:[a-z]+[.])?cppreference[.]com/.*\z`)
	namedReqHref  = regexp.MustCompile(`(?i)\A\s*(?:https?://)?(?:[a-z]+[.])?cppreference[.]com/.+?/named_req/.+\z`)
)

// linkAttrs are stripped when an anchor is demoted to a plain span.
var linkAttrs = []string{
	"download", "href", "hreflang", "media", "ping", "referrerpolicy", "rel", "target", "type",
}

func (f *Links) Name() string { return "links" }

func (f *Links) Apply(cx *Context, doc *dom.Document) (bool, error) {
	body := doc.Body()
	if body == nil {
		return false, nil
	}
	pageName := filepath.Base(doc.Path())
	pageDir := filepath.Dir(doc.Path())

	elemsWithID := make(map[string]*html.Node)
	dom.Walk(body, func(n *html.Node) bool {
		if dom.IsElement(n) {
			if id := dom.GetAttr(n, "id"); id != "" {
				elemsWithID[id] = n
			}
		}
		return true
	})

	changed := false
	for _, anchor := range dom.FindAll(body, []string{"a"}, func(n *html.Node) bool {
		return dom.HasAttr(n, "href")
	}) {
		href := dom.GetAttr(anchor, "href")

		// same-page #id refs must not look like file links (some
		// extractor versions emitted them that way)
		if strings.HasPrefix(href, pageName+"#") {
			href = href[len(pageName):]
			dom.SetAttr(anchor, "href", href)
			changed = true
		}

		if cppRefHref.MatchString(href) {
			changed = dom.AddClass(anchor, "docfix-cppreference") || changed
		}
		if namedReqHref.MatchString(href) {
			changed = dom.AddClass(anchor, "docfix-named-requirement") || changed
		}

		if externalHref.MatchString(href) {
			if dom.GetAttr(anchor, "target") != "_blank" {
				dom.SetAttr(anchor, "target", "_blank")
				changed = true
			}
			changed = dom.AddClass(anchor, "docfix-external") || changed
			if godboltHref.MatchString(href) {
				changed = f.promoteGodbolt(anchor) || changed
			}
			continue
		}

		isDocLink := dom.HasAnyClass(anchor, "m-doc", "m-doc-self")

		// hrefs to local files must point at files that exist
		if m := localHref.FindStringSubmatch(href); m != nil && !fileExists(filepath.Join(pageDir, m[1])) {
			changed = true
			// some extractor versions drop the 'md_' page prefix
			if strings.HasPrefix(m[1], "md_") && fileExists(filepath.Join(pageDir, m[1][3:])) {
				dom.SetAttr(anchor, "href", m[1][3:])
				continue
			}
			if isDocLink {
				// the #id step below can often rescue these
				href = "#"
				dom.SetAttr(anchor, "href", "#")
			} else {
				cx.Warnf("dead link demoted", "path", doc.Path(), "href", href)
				for _, attr := range linkAttrs {
					dom.DelAttr(anchor, attr)
				}
				anchor.Data = "span"
				dom.AddClass(anchor, "docfix-dead-link")
				continue
			}
		}

		// internal documentation #id links need somewhere to go
		if isDocLink && strings.HasPrefix(href, "#") {
			target := strings.TrimPrefix(href, "#")
			if target != "" {
				if _, ok := elemsWithID[target]; ok {
					continue
				}
			}
			changed = dom.RemoveClass(anchor, "m-doc") || changed
			changed = dom.AddClass(anchor, "m-doc-self") || changed

			// when no home exists the anchor settles at href="#"; that
			// settled state must not count as a change on later runs
			newHref := "#"
			home, minted := f.findAnchorHome(anchor, body, elemsWithID)
			if home != nil {
				newHref = "#" + dom.GetAttr(home, "id")
			}
			if minted {
				changed = true
			}
			if newHref != href {
				dom.SetAttr(anchor, "href", newHref)
				changed = true
			}
		}
	}
	return changed, nil
}

// promoteGodbolt tags godbolt links and, when a lone godbolt link
// immediately precedes a code block, folds it into the block as a banner
// note.
func (f *Links) promoteGodbolt(anchor *html.Node) bool {
	changed := dom.AddClass(anchor, "docfix-godbolt")
	parent := anchor.Parent
	if parent == nil || parent.Data != "p" || dom.HasClass(parent, "docfix-godbolt") {
		return changed
	}
	if len(dom.ChildElements(parent)) != 1 || !dom.IsEffectivelyEmptyExcept(parent, anchor) {
		return changed
	}
	block := dom.NextElementSibling(parent)
	if block == nil || (block.Data != "pre" && block.Data != "code") {
		return changed
	}
	dom.AddClass(parent, "m-note", "m-success", "docfix-godbolt")
	dom.DestroyNode(parent)
	if block.FirstChild != nil {
		block.InsertBefore(parent, block.FirstChild)
	} else {
		block.AppendChild(parent)
	}
	return true
}

// findAnchorHome picks the nearest enclosing element a rescued self-link
// can point at, minting an id for dt/tr rows that lack one. minted
// reports whether the tree was mutated to create that id.
func (f *Links) findAnchorHome(anchor, body *html.Node, elemsWithID map[string]*html.Node) (home *html.Node, minted bool) {
	for p := anchor.Parent; p != nil && p != body; p = p.Parent {
		if internalDocID.MatchString(dom.GetAttr(p, "id")) {
			return p, false
		}
	}
	for p := anchor.Parent; p != nil && p != body; p = p.Parent {
		if (p.Data == "dt" || p.Data == "tr") && !dom.HasAttr(p, "id") {
			sum := sha256.Sum256([]byte(dom.Text(p)))
			id := hex.EncodeToString(sum[:])
			dom.SetAttr(p, "id", id)
			elemsWithID[id] = p
			return p, true
		}
	}
	for p := anchor.Parent; p != nil && p != body; p = p.Parent {
		if dom.HasAttr(p, "id") {
			return p, false
		}
	}
	return nil, false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
