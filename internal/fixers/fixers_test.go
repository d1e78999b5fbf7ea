package fixers

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/docfix/docfix/internal/config"
	"github.com/docfix/docfix/internal/dom"
	"github.com/docfix/docfix/internal/emoji"
)

// newTestContext compiles a context from the given config, defaulting to
// an empty one.
func newTestContext(t *testing.T, cfg *config.Config) *Context {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	table, err := emoji.Load()
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cx, err := NewContext(cfg, log, table)
	require.NoError(t, err)
	return cx
}

// parsePage wraps inner markup in the main > article > div stack the
// region derivation expects and parses it.
func parsePage(t *testing.T, inner, path string) *dom.Document {
	t.Helper()
	markup := `<!DOCTYPE html><html><head><title>t</title></head><body>` +
		`<main><article><div><div><div>` + inner + `</div></div></div></article></main>` +
		`</body></html>`
	doc, err := dom.Parse(markup, path)
	require.NoError(t, err)
	return doc
}

func render(t *testing.T, doc *dom.Document) string {
	t.Helper()
	out, err := doc.Render()
	require.NoError(t, err)
	return out
}

// applyTwice runs a whole-document fixer to completion and asserts a
// further run is a no-op, both by its own report and by comparing
// rendered output. Fixed-point fixers get the same bounded re-run loop
// the pipeline gives them; everything else must settle after one pass.
func applyTwice(t *testing.T, f Fixer, cx *Context, doc *dom.Document) bool {
	t.Helper()
	rounds := 1
	if fp, ok := f.(FixedPointFixer); ok && fp.FixedPoint() {
		rounds = 10
	}
	first := false
	for i := 0; i < rounds; i++ {
		changed, err := f.Apply(cx, doc)
		require.NoError(t, err)
		if changed {
			first = true
			continue
		}
		break
	}
	settled := render(t, doc)

	again, err := f.Apply(cx, doc)
	require.NoError(t, err)
	require.False(t, again, "%s reported changes after settling", f.Name())
	require.Equal(t, settled, render(t, doc), "%s modified the settled tree", f.Name())
	return first
}

func TestCatalogOrderAndNames(t *testing.T) {
	passes := CreateAll()
	require.NotEmpty(t, passes)

	seen := make(map[string]bool)
	for _, p := range passes {
		name := p.Name()
		require.NotEmpty(t, name)
		require.False(t, seen[name], "duplicate pass name %q", name)
		seen[name] = true

		switch p.(type) {
		case Fixer, SectionFixer, TextFixer:
		default:
			t.Fatalf("pass %q implements no pass interface", name)
		}
	}

	// cleanup must come after all passes that can empty out elements
	names := make([]string, len(passes))
	for i, p := range passes {
		names[i] = p.Name()
	}
	require.Less(t, indexOf(names, "links"), indexOf(names, "empty-tags"))
	require.Less(t, indexOf(names, "custom-tags"), indexOf(names, "empty-tags"))
	// the theme stylesheet goes in last so nothing reorders the head
	require.Equal(t, "theme-inject", names[len(names)-1])
}

func indexOf(names []string, want string) int {
	for i, n := range names {
		if n == want {
			return i
		}
	}
	return -1
}

// Every whole-document fixer must be idempotent: a second application on
// its own output reports no change.
func TestFixersIdempotent(t *testing.T) {
	cfg := &config.Config{
		Theme:         "dark",
		StripIncludes: []string{"mylib/"},
		AutoLinks:     map[string]string{`\bwidgets?\b`: "classwidget.html"},
	}
	cfg.CodeBlocks.Namespaces = []string{"mylib", "mylib::detail"}
	cfg.CodeBlocks.Types = []string{"mylib::widget"}
	cfg.CodeBlocks.Macros = []string{"MYLIB_API"}

	inner := `
<nav class="m-block m-default"><h3>Contents</h3><ul>
<li><a href="#"></a><ul><li><a href="#sub">Sub</a></li></ul></li>
</ul></nav>
<p>A widget does widget things.</p>
<p>see <a class="m-doc" href="missing_target.html">broken</a></p>
<div class="m-doc-include">#include <a class="cpf" href="x.html">&lt;mylib/widget.h&gt;</a></div>
<pre class="m-code"><span class="n">mylib</span><span class="o">::</span><span class="n">widget</span> <span class="n">w</span><span class="p">;</span></pre>
<section id="pub-methods"><h2>Methods</h2>
<dl class="m-doc"><dt><span class="m-doc-wrap">void run() noexcept </span></dt><dd></dd></dl>
</section>
<p><span></span></p>
`
	cx := newTestContext(t, cfg)

	for _, pass := range CreateAll() {
		f, ok := pass.(Fixer)
		if !ok {
			continue
		}
		t.Run(pass.Name(), func(t *testing.T) {
			doc := parsePage(t, inner, "index.html")
			applyTwice(t, f, cx, doc)
		})
	}
}

// Text fixers must be idempotent on their own output too.
func TestTextFixersIdempotent(t *testing.T) {
	cx := newTestContext(t, nil)
	text := `<html><body><pre class="m-code"><span class="w">  </span>` +
		`<span class="mi">10</span><span class="n">ms</span></pre>` +
		`<p>auto f() -&gt; __docfix_deduced_auto_return_type;</p>` +
		`<p>DOCFIX_IMPLEMENTATION_DETAIL_IMPL</p>` +
		`<script src="search-v2.js"></script></body></html>`

	for _, pass := range CreateAll() {
		f, ok := pass.(TextFixer)
		if !ok {
			continue
		}
		t.Run(pass.Name(), func(t *testing.T) {
			once, err := f.ApplyText(cx, text, "md_page.html")
			require.NoError(t, err)
			twice, err := f.ApplyText(cx, once, "md_page.html")
			require.NoError(t, err)
			require.Equal(t, once, twice)
		})
	}
}

func TestContextWarningsCount(t *testing.T) {
	cx := newTestContext(t, nil)
	require.EqualValues(t, 0, cx.Warnings())
	cx.Warnf("something odd", "key", "value")
	cx.Warnf("something else")
	require.EqualValues(t, 2, cx.Warnings())
}

func TestContextFatalList(t *testing.T) {
	cfg := &config.Config{FatalFixers: []string{"links"}}
	cx := newTestContext(t, cfg)
	require.True(t, cx.IsFatal("links"))
	require.False(t, cx.IsFatal("banner"))
}

func TestContextAutoLinkOrderDeterministic(t *testing.T) {
	cfg := &config.Config{AutoLinks: map[string]string{
		`zzz`: "z.html",
		`aaa`: "a.html",
		`mmm`: "m.html",
	}}
	cx := newTestContext(t, cfg)
	var got []string
	for _, rule := range cx.AutoLinks {
		got = append(got, rule.Pattern.String())
	}
	require.Equal(t, []string{"aaa", "mmm", "zzz"}, got)
}

func TestContextRejectsBadAutoLinkPattern(t *testing.T) {
	cfg := &config.Config{AutoLinks: map[string]string{`(`: "x.html"}}
	table, err := emoji.Load()
	require.NoError(t, err)
	_, err = NewContext(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), table)
	require.Error(t, err)
	require.Contains(t, err.Error(), "autolink")
}

func TestSoleText(t *testing.T) {
	doc := parsePage(t, `<span id="a">only</span><span id="b">t<i>x</i></span>`, "p.html")
	a := findByID(t, doc, "a")
	b := findByID(t, doc, "b")

	text, ok := soleText(a)
	require.True(t, ok)
	require.Equal(t, "only", text)

	_, ok = soleText(b)
	require.False(t, ok)
}

func findByID(t *testing.T, doc *dom.Document, id string) *html.Node {
	t.Helper()
	var found *html.Node
	dom.Walk(doc.Root(), func(n *html.Node) bool {
		if dom.IsElement(n) && dom.GetAttr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		t.Fatalf("no element with id %q in %s", id, render(t, doc))
	}
	return found
}

func textOf(t *testing.T, doc *dom.Document, id string) string {
	t.Helper()
	return strings.TrimSpace(dom.Text(findByID(t, doc, id)))
}
