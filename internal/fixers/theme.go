package fixers

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/docfix/docfix/internal/assets"
	"github.com/docfix/docfix/internal/dom"
)

// ThemeInject makes sure every page references the generated stylesheet
// and carries the selected theme class on its body. Idempotent: pages
// already carrying both are left untouched.
type ThemeInject struct{}

func (f *ThemeInject) Name() string { return "theme-inject" }

func (f *ThemeInject) Apply(cx *Context, doc *dom.Document) (bool, error) {
	head := doc.Head()
	body := doc.Body()
	if head == nil || body == nil {
		return false, nil
	}

	changed := false
	if !f.hasStylesheet(head) {
		head.AppendChild(dom.NewElement("link",
			"rel", "stylesheet",
			"href", assets.StylesheetRel,
		))
		changed = true
	}

	want := "docfix-theme-" + cx.Theme
	if !dom.HasClass(body, want) {
		for _, c := range dom.Classes(body) {
			if c != want && strings.HasPrefix(c, "docfix-theme-") {
				dom.RemoveClass(body, c)
			}
		}
		dom.AddClass(body, want)
		changed = true
	}
	return changed, nil
}

func (f *ThemeInject) hasStylesheet(head *html.Node) bool {
	for _, link := range dom.ChildElements(head) {
		if link.Data == "link" && dom.GetAttr(link, "href") == assets.StylesheetRel {
			return true
		}
	}
	return false
}
