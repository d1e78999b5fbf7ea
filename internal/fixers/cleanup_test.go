package fixers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyTagsCascades(t *testing.T) {
	doc := parsePage(t, `
<p id="keep">text</p>
<p id="victim"><span> </span></p>
<span id="lone"></span>`, "page.html")
	cx := newTestContext(t, nil)

	changed := applyTwice(t, &EmptyTags{}, cx, doc)
	require.True(t, changed)

	out := render(t, doc)
	assert.Contains(t, out, `id="keep"`)
	// emptying the span empties its parent paragraph too
	assert.NotContains(t, out, `id="victim"`)
	assert.NotContains(t, out, `id="lone"`)
}

func TestEmptyTagsKeepsElementsWithContent(t *testing.T) {
	doc := parsePage(t, `<p id="a"><img src="x.png"></p><span id="b">x</span>`, "page.html")
	cx := newTestContext(t, nil)

	changed, err := (&EmptyTags{}).Apply(cx, doc)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTemplateNoiseCollapsesPrefix(t *testing.T) {
	doc := parsePage(t, `
<span id="noisy" class="m-doc-details-prefix">basic_widget&lt;T, Allocator&gt;::</span>
<span id="plain" class="m-doc-details-prefix">widget::</span>`, "page.html")
	cx := newTestContext(t, nil)

	changed := applyTwice(t, &TemplateNoise{}, cx, doc)
	require.True(t, changed)

	assert.Equal(t, "basic_widget::", textOf(t, doc, "noisy"))
	assert.Equal(t, "widget::", textOf(t, doc, "plain"))
}

func TestTemplateNoiseIgnoresOtherSpans(t *testing.T) {
	doc := parsePage(t, `<span id="s">basic_widget&lt;T&gt;::</span>`, "page.html")
	cx := newTestContext(t, nil)

	changed, err := (&TemplateNoise{}).Apply(cx, doc)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "basic_widget<T>::", textOf(t, doc, "s"))
}
