package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return root
}

func first(t *testing.T, root *html.Node, name string) *html.Node {
	t.Helper()
	n := firstDescendant(root, name)
	require.NotNil(t, n, "no <%s> in fixture", name)
	return n
}

func TestShallowSearchReturnsOnlyOuterMatch(t *testing.T) {
	root := parse(t, `<body><div id="outer"><p>x</p><div id="inner"></div></div></body>`)
	body := first(t, root, "body")

	matches := ShallowSearch(body, []string{"div"}, nil)
	require.Len(t, matches, 1)
	assert.Equal(t, "outer", GetAttr(matches[0], "id"))
}

func TestShallowSearchDescendsThroughNonMatches(t *testing.T) {
	root := parse(t, `<body><section><p id="a"></p></section><p id="b"></p></body>`)
	body := first(t, root, "body")

	matches := ShallowSearch(body, []string{"p"}, nil)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", GetAttr(matches[0], "id"))
	assert.Equal(t, "b", GetAttr(matches[1], "id"))
}

func TestShallowSearchRootMatch(t *testing.T) {
	root := parse(t, `<body><div id="outer"><div id="inner"></div></div></body>`)
	outer := first(t, root, "div")

	// a matching root short-circuits the whole search
	matches := ShallowSearch(outer, []string{"div"}, nil)
	require.Len(t, matches, 1)
	assert.Equal(t, "outer", GetAttr(matches[0], "id"))

	// a matching root rejected by the predicate is searched like any
	// other node, so the nested match still surfaces
	matches = ShallowSearch(outer, []string{"div"}, func(n *html.Node) bool {
		return GetAttr(n, "id") != "outer"
	})
	require.Len(t, matches, 1)
	assert.Equal(t, "inner", GetAttr(matches[0], "id"))
}

func TestFindEnclosing(t *testing.T) {
	root := parse(t, `<body><section><div><p><span id="x"></span></p></div></section></body>`)
	span := first(t, root, "span")
	section := first(t, root, "section")
	div := first(t, root, "div")

	assert.Equal(t, div, FindEnclosing(span, []string{"div"}, nil))
	assert.Equal(t, section, FindEnclosing(span, []string{"section"}, nil))
	assert.Nil(t, FindEnclosing(span, []string{"section"}, div), "cutoff reached before match")
	assert.Nil(t, FindEnclosing(span, []string{"table"}, nil))
}

func TestClassHelpersIdempotent(t *testing.T) {
	n := NewElement("span")

	assert.True(t, AddClass(n, "x"))
	assert.False(t, AddClass(n, "x"), "second add is a no-op")
	assert.Equal(t, []string{"x"}, Classes(n))

	assert.True(t, AddClass(n, "y", "x"))
	assert.Equal(t, []string{"x", "y"}, Classes(n))

	assert.True(t, RemoveClass(n, "y"))
	assert.False(t, RemoveClass(n, "y"))
	assert.True(t, RemoveClass(n, "x"))
	assert.False(t, HasAttr(n, "class"), "attribute removed entirely, not left empty")

	SetClass(n, "a", "b")
	assert.Equal(t, []string{"a", "b"}, Classes(n))
}

func TestReplaceNodeSplicesFragment(t *testing.T) {
	root := parse(t, `<body><div><p id="victim">old</p><p id="after"></p></div></body>`)
	victim := first(t, root, "p")
	div := first(t, root, "div")

	inserted, err := ReplaceNode(victim, `<span>a</span><span>b</span>`)
	require.NoError(t, err)
	require.Len(t, inserted, 2)

	kids := ChildElements(div)
	require.Len(t, kids, 3)
	assert.Equal(t, "span", kids[0].Data)
	assert.Equal(t, "a", Text(kids[0]))
	assert.Equal(t, "b", Text(kids[1]))
	assert.Equal(t, "after", GetAttr(kids[2], "id"))
	assert.Nil(t, victim.Parent, "replaced node is detached")
}

func TestReplaceNodeKeepsTableCells(t *testing.T) {
	root := parse(t, `<body><table><tbody><tr><td id="victim">old</td></tr></tbody></table></body>`)
	victim := first(t, root, "td")
	row := first(t, root, "tr")

	// a <td> start tag is only valid in a row context; parsing the
	// replacement anywhere else silently drops it
	inserted, err := ReplaceNode(victim, `<td id="fresh"><b>new</b></td>`)
	require.NoError(t, err)
	require.Len(t, inserted, 1)

	kids := ChildElements(row)
	require.Len(t, kids, 1)
	assert.Equal(t, "td", kids[0].Data)
	assert.Equal(t, "fresh", GetAttr(kids[0], "id"))
	assert.Equal(t, "new", Text(kids[0]))
}

func TestReplaceNodeEmptyMarkupDestroys(t *testing.T) {
	root := parse(t, `<body><div><p>gone</p></div></body>`)
	p := first(t, root, "p")
	div := first(t, root, "div")

	inserted, err := ReplaceNode(p, "")
	require.NoError(t, err)
	assert.Empty(t, inserted)
	assert.Empty(t, ChildElements(div))
}

func TestStringDescendants(t *testing.T) {
	root := parse(t, `<body><div>one<span>two<b>three</b></span>four</div></body>`)
	div := first(t, root, "div")

	var got []string
	for _, n := range StringDescendants(div, nil) {
		got = append(got, n.Data)
	}
	assert.Equal(t, []string{"one", "two", "three", "four"}, got)

	filtered := StringDescendants(div, func(n *html.Node) bool {
		return strings.Contains(n.Data, "o")
	})
	require.Len(t, filtered, 3)
}

func TestSmoothMergesAdjacentText(t *testing.T) {
	root := parse(t, `<body><p>a</p></body>`)
	p := first(t, root, "p")
	p.AppendChild(NewText("b"))
	p.AppendChild(NewText("c"))

	Smooth(p)
	require.NotNil(t, p.FirstChild)
	assert.Equal(t, "abc", p.FirstChild.Data)
	assert.Nil(t, p.FirstChild.NextSibling)
}

func TestIsEffectivelyEmpty(t *testing.T) {
	root := parse(t, `<body><p id="a"></p><p id="b">   </p><p id="c">x</p><p id="d"><span></span></p></body>`)
	body := first(t, root, "body")
	ps := FindAll(body, []string{"p"}, nil)
	require.Len(t, ps, 4)
	assert.True(t, IsEffectivelyEmpty(ps[0]))
	assert.True(t, IsEffectivelyEmpty(ps[1]))
	assert.False(t, IsEffectivelyEmpty(ps[2]))
	assert.False(t, IsEffectivelyEmpty(ps[3]))
}
