package fixers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfix/docfix/internal/config"
)

func autoLinkContext(t *testing.T, rules map[string]string) *Context {
	t.Helper()
	return newTestContext(t, &config.Config{AutoLinks: rules})
}

func TestAutoLinksInjectsProseLinks(t *testing.T) {
	cx := autoLinkContext(t, map[string]string{`\bwidgets?\b`: "classwidget.html"})
	doc := parsePage(t, `<p>A widget makes widgets.</p>`, "index.html")

	changed := applyTwice(t, &AutoLinks{}, cx, doc)
	require.True(t, changed)

	out := render(t, doc)
	assert.Contains(t, out, `<a href="classwidget.html" class="m-doc docfix-injected">widget</a>`)
	assert.Contains(t, out, `<a href="classwidget.html" class="m-doc docfix-injected">widgets</a>`)
}

func TestAutoLinksExternalTarget(t *testing.T) {
	cx := autoLinkContext(t, map[string]string{`\bRFC 2324\b`: "https://example.com/rfc2324"})
	doc := parsePage(t, `<p>See RFC 2324 for details.</p>`, "index.html")

	applyTwice(t, &AutoLinks{}, cx, doc)

	out := render(t, doc)
	assert.Contains(t, out, `docfix-external`)
	assert.Contains(t, out, `target="_blank"`)
}

func TestAutoLinksSkipsOwnPage(t *testing.T) {
	cx := autoLinkContext(t, map[string]string{`\bwidget\b`: "classwidget.html"})
	doc := parsePage(t, `<p>The widget page.</p>`, "classwidget.html")

	changed, err := (&AutoLinks{}).Apply(cx, doc)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestAutoLinksNeverLinksInsideCodeOrAnchors(t *testing.T) {
	cx := autoLinkContext(t, map[string]string{`\bwidget\b`: "classwidget.html"})
	doc := parsePage(t, `
<p id="code">call <code>widget</code> directly</p>
<pre>widget w;</pre>
<p id="linked"><a href="elsewhere.html">widget</a></p>`, "index.html")

	changed, err := (&AutoLinks{}).Apply(cx, doc)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NotContains(t, render(t, doc), "docfix-injected")
}

func TestAutoLinksRetargetsWrongDocLink(t *testing.T) {
	cx := autoLinkContext(t, map[string]string{`\bwidget\b`: "classwidget.html"})
	doc := parsePage(t, `<p><a id="l" class="m-doc" href="wrong.html">widget</a></p>`, "index.html")

	changed := applyTwice(t, &AutoLinks{}, cx, doc)
	require.True(t, changed)
	assert.Contains(t, render(t, doc), `href="classwidget.html"`)
	assert.NotContains(t, render(t, doc), "wrong.html")
}

func TestAutoLinksLeavesSelfLinks(t *testing.T) {
	cx := autoLinkContext(t, map[string]string{`\bwidget\b`: "classwidget.html"})
	doc := parsePage(t, `<p><a class="m-doc" href="#deadbeef">widget</a></p>`, "index.html")

	changed, err := (&AutoLinks{}).Apply(cx, doc)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Contains(t, render(t, doc), `href="#deadbeef"`)
}

func TestAutoLinksPartialMatchNotRetargeted(t *testing.T) {
	cx := autoLinkContext(t, map[string]string{`\bwidget\b`: "classwidget.html"})
	doc := parsePage(t, `<p><a class="m-doc" href="other.html">the widget helper</a></p>`, "index.html")

	changed, err := (&AutoLinks{}).Apply(cx, doc)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Contains(t, render(t, doc), `href="other.html"`)
}
