package fixers

import (
	"path/filepath"
	"regexp"
	"strings"
)

// wbrExpr tolerates the <wbr> word-break tags the extractor sprinkles
// into long identifiers.
const wbrExpr = `(?:<wbr[ \t]*/?>)?`

// builtinLiterals matches the standard C++ literal suffixes so that
// user-defined-literal tokens can be glued back onto their numbers.
var builtinLiterals = func() string {
	var words []string
	for _, l := range []string{"l", "L"} {
		words = append(words, l)
		for _, l2 := range []string{"l", "L"} {
			words = append(words, l+l2)
			for _, u := range []string{"u", "U"} {
				words = append(words, u+l+l2)
			}
		}
		for _, u := range []string{"u", "U"} {
			words = append(words, u+l)
		}
	}
	words = append(words, "f", "F",
		// std::chrono
		"d", "h", "min", "ms", "ns", "s", "us", "y",
		// std::complex
		"i", "if", "il",
		// std::string and std::string_view
		"sv")
	return TrieRegex(words)
}()

// HighlightTweaks repairs minor damage in highlighter-generated markup:
// strips whitespace-span bloat, reattaches user-defined-literal suffixes,
// and recolours preprocessor and alias-declaration tokens.
type HighlightTweaks struct{}

var (
	hasCodeExpr    = regexp.MustCompile(`class="[^"]*?m-code[^"]*?"`)
	wsSpanExpr     = regexp.MustCompile(`<span class="w">(\s+)</span>`)
	numericUDLExpr = regexp.MustCompile(
		`<span\s+class="(m[bfhio])"\s*>(.*?)</span><span class="n">((?:_[a-zA-Z0-9_]*)|` + builtinLiterals + `)</span>`)
	stringUDLExpr = regexp.MustCompile(
		`<span\s+class="s"\s*>(.*?)</span><span class="n">((?:_[a-zA-Z0-9_]*)|` + builtinLiterals + `)</span>`)
	preprocExpr = regexp.MustCompile(
		`<span\s+class="cp"\s*>(\s*#\s*(?:(?:el)?if(?:n?def)?|define|undef)\s+)([a-zA-Z_][a-zA-Z_0-9]*?)([^a-zA-Z_0-9])`)
	usingAliasExpr = regexp.MustCompile(
		`<span\s+class="k"\s*>(\s*using\s*)</span>(\s+)<span\s+class="n"\s*>([a-zA-Z_][a-zA-Z0-9_]*?)</span>(\s+)<span\s+class="o"\s*>(\s*=\s*)</span>`)
)

func (f *HighlightTweaks) Name() string { return "highlight-tweaks" }

func (f *HighlightTweaks) ApplyText(cx *Context, text, path string) (string, error) {
	if !hasCodeExpr.MatchString(text) {
		return text, nil
	}
	text = wsSpanExpr.ReplaceAllString(text, `${1}`)
	text = numericUDLExpr.ReplaceAllString(text, `<span class="${1}">${2}${3}</span>`)
	text = stringUDLExpr.ReplaceAllString(text, `<span class="s">${1}${2}</span>`)
	text = preprocExpr.ReplaceAllString(text,
		`<span class="cp">${1}</span><span class="fm">${2}</span><span class="cp">${3}`)
	text = usingAliasExpr.ReplaceAllString(text,
		`<span class="k">${1}</span>${2}<span class="nc">${3}</span>${4}<span class="o">${5}</span>`)
	return text, nil
}

// ImplementationDetails collapses the placeholder identifier the
// preprocessing step injects for hidden implementation types into a dim
// "/* ... */" note.
type ImplementationDetails struct{}

var implDetailExprs = []*regexp.Regexp{
	regexp.MustCompile(
		`(?i)<\s*a\s+class="m-doc"\s+href=".+?"\s*>DOCFIX_` + wbrExpr + `IMPLEMENTATION_` + wbrExpr + `DETAIL_` + wbrExpr + `IMPL<\s*/a\s*>`),
	regexp.MustCompile(`(?i)DOCFIX_` + wbrExpr + `IMPLEMENTATION_` + wbrExpr + `DETAIL_` + wbrExpr + `IMPL`),
	regexp.MustCompile(`(?i)docfiximplementationdetailimplplaceholder`),
}

const implDetailReplacement = `<code class="m-note m-dim docfix-impl">/* ... */</code>`

func (f *ImplementationDetails) Name() string { return "implementation-details" }

func (f *ImplementationDetails) ApplyText(cx *Context, text, path string) (string, error) {
	for _, expr := range implDetailExprs {
		text = expr.ReplaceAllString(text, implDetailReplacement)
	}
	return text, nil
}

// MarkdownPages undoes the escape shims the preprocessing step applies
// to markdown-sourced pages so their literal characters survive the
// extractor.
type MarkdownPages struct{}

var (
	mdAmpExpr   = regexp.MustCompile(`_` + wbrExpr + `_` + wbrExpr + `docfix_` + wbrExpr + `this_` + wbrExpr + `was_` + wbrExpr + `amp`)
	mdAtExpr    = regexp.MustCompile(`_` + wbrExpr + `_` + wbrExpr + `docfix_` + wbrExpr + `this_` + wbrExpr + `was_` + wbrExpr + `at`)
	mdHexExpr   = regexp.MustCompile(`_` + wbrExpr + `_` + wbrExpr + `docfix_` + wbrExpr + `this_` + wbrExpr + `was_` + wbrExpr + `hex([a-fA-F0-9]{2,4})`)
	emptyBrExpr = regexp.MustCompile(`<p><br[ \t]*/?></p>`)
)

func (f *MarkdownPages) Name() string { return "markdown-pages" }

func (f *MarkdownPages) ApplyText(cx *Context, text, path string) (string, error) {
	name := strings.ToLower(filepath.Base(path))
	if !strings.HasPrefix(name, "md_") && !strings.HasPrefix(name, "m_d__") &&
		name != "docfix_changelog.html" && name != "index.html" {
		return text, nil
	}
	text = mdAmpExpr.ReplaceAllString(text, "&amp;")
	text = mdAtExpr.ReplaceAllString(text, "@")
	text = mdHexExpr.ReplaceAllString(text, "&#x${1};")
	text = emptyBrExpr.ReplaceAllString(text, "")
	return text, nil
}

// ReturnTypes tidies trailing-return-type rendering: drops the deduced
// auto placeholder, restores whitespace between qualifiers, and renders
// the arrow as a real arrow.
type ReturnTypes struct{}

var (
	deducedAutoBriefExpr = regexp.MustCompile(
		`\)[ \t]*-&gt;[ \t]*_` + wbrExpr + `_` + wbrExpr + `docfix_` + wbrExpr + `deduced_` + wbrExpr + `auto_` + wbrExpr + `return_` + wbrExpr + `type`)
	deducedAutoExpr = regexp.MustCompile(
		`_` + wbrExpr + `_` + wbrExpr + `docfix_` + wbrExpr + `deduced_` + wbrExpr + `auto_` + wbrExpr + `return_` + wbrExpr + `type`)
	bumperQualifierExpr = regexp.MustCompile(
		`(<span\s+class="m-doc-wrap-bumper"\s*>)(const|volatile|const\s+volatile|volatile\s+const)(<a\s+class="m-doc")`)
	arrowQualifierExpr = regexp.MustCompile(
		`\)((?:\s+(?:const|volatile|mutable|noexcept|&|&&|&amp;|&amp;&amp;))*)\s*-&gt;\s*(const|volatile|const\s+volatile|volatile\s+const)(<a\s+class="m-doc")`)
	arrowExpr = regexp.MustCompile(
		`\)((?:\s+(?:const|volatile|mutable|noexcept|&|&&|&amp;|&amp;&amp;))*)\s+-&gt;`)
)

func (f *ReturnTypes) Name() string { return "return-types" }

func (f *ReturnTypes) ApplyText(cx *Context, text, path string) (string, error) {
	text = deducedAutoBriefExpr.ReplaceAllString(text, ")")
	text = deducedAutoExpr.ReplaceAllString(text, "auto")
	text = bumperQualifierExpr.ReplaceAllString(text, `${1}${2}&nbsp;${3}`)
	text = arrowQualifierExpr.ReplaceAllString(text, `)${1}&nbsp;&rarr;&nbsp;${2}&nbsp;${3}`)
	text = arrowExpr.ReplaceAllString(text, `)${1}&nbsp;&rarr;&nbsp;`)
	return text, nil
}

// SearchShim installs the wrapper around the generated search script so
// keyboard shortcuts keep working after the other passes reshape the
// page.
type SearchShim struct{}

var searchScriptExpr = regexp.MustCompile(`(?s)<\s*script\s+src="search-v2[.]js"\s*>\s*</script>`)

const searchShimMarkup = `<script src="search-v2.js"></script><script>install_mcss_search_shim();</script>`

func (f *SearchShim) Name() string { return "search-shim" }

func (f *SearchShim) ApplyText(cx *Context, text, path string) (string, error) {
	if strings.Contains(text, "install_mcss_search_shim()") {
		return text, nil
	}
	return searchScriptExpr.ReplaceAllString(text, searchShimMarkup), nil
}
