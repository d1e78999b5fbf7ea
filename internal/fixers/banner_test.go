package fixers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfix/docfix/internal/config"
	"github.com/docfix/docfix/internal/dom"
)

const bannerInner = `<h1>My Project</h1><img src="banner.png"><p>Intro.</p>`

func TestBannerPromotesIndexImage(t *testing.T) {
	doc := parsePage(t, bannerInner, "index.html")
	cx := newTestContext(t, nil)

	changed := applyTwice(t, &Banner{}, cx, doc)
	require.True(t, changed)

	banner := findByID(t, doc, "docfix-main-banner")
	assert.Equal(t, "img", banner.Data)
	assert.Equal(t, "banner.png", dom.GetAttr(banner, "src"))
	assert.True(t, dom.HasClass(doc.Body(), "docfix-has-main-banner"))
	// the heading is gone and the image leads the content
	out := render(t, doc)
	assert.NotContains(t, out, "<h1>My Project</h1>")
	assert.Equal(t, banner, dom.FirstChildElement(doc.ArticleContent(), "img"))
}

func TestBannerOnlyOnIndexPage(t *testing.T) {
	doc := parsePage(t, bannerInner, "classwidget.html")
	cx := newTestContext(t, nil)

	changed, err := (&Banner{}).Apply(cx, doc)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestBannerRequiresLeadingImage(t *testing.T) {
	doc := parsePage(t, `<h1>T</h1><section id="s"><h2>S</h2></section><img src="late.png">`, "index.html")
	cx := newTestContext(t, nil)

	changed, err := (&Banner{}).Apply(cx, doc)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestBannerInjectsBadgeRows(t *testing.T) {
	cfg := &config.Config{Badges: []config.Badge{
		{Alt: "build", Src: "build.svg", Href: "https://ci.example.com"},
		{Alt: "coverage", Src: "cov.svg"},
		{Alt: "license", Src: "mit.svg"},
	}}
	doc := parsePage(t, bannerInner, "index.html")
	cx := newTestContext(t, cfg)

	changed, err := (&Banner{}).Apply(cx, doc)
	require.NoError(t, err)
	require.True(t, changed)

	row := findByID(t, doc, "docfix-badges")
	// three badges divide into one group of three
	groups := dom.ChildElements(row)
	require.Len(t, groups, 1)
	assert.Equal(t, "span", groups[0].Data)
	assert.Len(t, dom.FindAll(row, []string{"img"}, nil), 3)

	// linked badges open in a new tab
	links := dom.FindAll(row, []string{"a"}, nil)
	require.Len(t, links, 1)
	assert.Equal(t, "_blank", dom.GetAttr(links[0], "target"))
	assert.True(t, dom.HasClass(doc.Body(), "docfix-has-badges"))
}

func TestBannerBadgePairsSplitIntoGroups(t *testing.T) {
	cfg := &config.Config{Badges: []config.Badge{
		{Src: "a.svg"}, {Src: "b.svg"}, {Src: "c.svg"}, {Src: "d.svg"},
	}}
	doc := parsePage(t, bannerInner, "index.html")
	cx := newTestContext(t, cfg)

	_, err := (&Banner{}).Apply(cx, doc)
	require.NoError(t, err)

	row := findByID(t, doc, "docfix-badges")
	groups := dom.ChildElements(row)
	require.Len(t, groups, 2)
	assert.Len(t, dom.FindAll(groups[0], []string{"img"}, nil), 2)
	assert.Len(t, dom.FindAll(groups[1], []string{"img"}, nil), 2)
}
