package fixers

import (
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/docfix/docfix/internal/dom"
)

// Banner promotes the first image on the index page to a full-width main
// banner, replacing the page heading, and lays out any configured badges
// beneath it.
type Banner struct{}

func (f *Banner) Name() string { return "banner" }

func (f *Banner) Apply(cx *Context, doc *dom.Document) (bool, error) {
	content := doc.ArticleContent()
	if content == nil || strings.ToLower(filepath.Base(doc.Path())) != "index.html" {
		return false, nil
	}

	h1 := dom.FirstChildElement(content, "h1")
	banner := dom.FirstChildElement(content, "img")
	if h1 == nil || banner == nil || dom.GetAttr(banner, "src") == "" {
		return false, nil
	}
	// only a leading image qualifies: nothing structural may precede it
	if dom.PrevSiblingWithTag(banner, "section", "h2", "h3", "h4", "h5", "h6") {
		return false, nil
	}

	dom.DestroyNode(banner)
	h1.Parent.InsertBefore(banner, h1)
	dom.DestroyNode(h1)
	dom.SetAttr(banner, "id", "docfix-main-banner")
	if body := doc.Body(); body != nil {
		dom.AddClass(body, "docfix-has-main-banner")
	}

	if len(cx.Badges) > 0 {
		f.injectBadges(cx, doc, banner)
	}
	return true, nil
}

func (f *Banner) injectBadges(cx *Context, doc *dom.Document, banner *html.Node) {
	if body := doc.Body(); body != nil {
		dom.AddClass(body, "docfix-has-badges")
	}

	// rows of two or three, whichever divides the badge count evenly
	span := 0
	if len(cx.Badges)%2 == 0 {
		span = 2
	} else if len(cx.Badges)%3 == 0 {
		span = 3
	}
	if span == 0 {
		span = 2
	}

	row := dom.NewElement("div", "id", "docfix-badges")
	dom.InsertAfter(banner, row)

	var group *html.Node
	for i, badge := range cx.Badges {
		if group == nil || i%span == 0 {
			group = dom.NewElement("span")
			row.AppendChild(group)
		}
		parent := group
		if badge.Href != "" {
			link := dom.NewElement("a", "href", badge.Href, "target", "_blank")
			group.AppendChild(link)
			parent = link
		}
		img := dom.NewElement("img", "src", badge.Src)
		if badge.Alt != "" {
			dom.SetAttr(img, "alt", badge.Alt)
		}
		parent.AppendChild(img)
	}
}
