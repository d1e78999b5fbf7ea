package fixers

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/docfix/docfix/internal/dom"
	"github.com/docfix/docfix/internal/util/sets"
)

// CodeBlocks repairs and improves syntax highlighting in code blocks:
// re-colourizes compound identifiers against the configured identifier
// sets, rescues multi-line comments the extractor butchered, fixes
// function-call and keyword tokens, and promotes inline code blocks that
// should be standalone <pre> elements.
type CodeBlocks struct{}

var cppKeywords = sets.New(
	"alignas", "alignof", "bool", "char", "char16_t", "char32_t", "char8_t",
	"class", "const", "consteval", "constexpr", "constinit", "do", "double",
	"else", "explicit", "false", "float", "if", "inline", "int", "long",
	"mutable", "noexcept", "short", "signed", "sizeof", "struct", "template",
	"true", "typename", "unsigned", "void", "wchar_t", "while",
)

var (
	nsTokenExpr = regexp.MustCompile(`\A(?:::|[a-zA-Z_][a-zA-Z_0-9]*|::[a-zA-Z_][a-zA-Z_0-9]*|[a-zA-Z_][a-zA-Z_0-9]*::)\z`)
	nsFullExpr  = regexp.MustCompile(`\A(?:::)?[a-zA-Z_][a-zA-Z_0-9]*(?:::[a-zA-Z_][a-zA-Z_0-9]*)*(?:::)?\z`)
	funcName    = regexp.MustCompile(`\A\s*[a-zA-Z_][a-zA-Z0-9_]*\s*\z`)
	funcBracket = regexp.MustCompile(`\A\s*[(]`)
)

// compoundStarters may begin a compound name; compoundClasses may appear
// anywhere inside one. Punctuation ("o", "p") joins but never starts.
var (
	compoundStarters = []string{"n", "no", "nl", "ne", "nx", "kt", "kr", "nb"}
	compoundClasses  = append(slices.Clone(compoundStarters), "mi", "nf", "nc", "nn")
)

func (f *CodeBlocks) Name() string { return "code-blocks" }

func (f *CodeBlocks) Apply(cx *Context, doc *dom.Document) (bool, error) {
	body := doc.Body()
	if body == nil {
		return false, nil
	}
	changed := false

	for _, block := range dom.FindAll(body, []string{"pre", "code"}, func(n *html.Node) bool {
		return dom.HasClass(n, "m-code")
	}) {
		blockChanged := f.rescueMultilineComments(block)
		blockChanged = f.fixMacros(cx, block) || blockChanged
		blockChanged = f.colourizeCompoundNames(cx, block) || blockChanged
		blockChanged = f.fixFunctionCalls(block) || blockChanged
		blockChanged = f.fixKeywords(block) || blockChanged
		if blockChanged {
			dom.Smooth(block)
			changed = true
		}
	}

	if f.promoteInlineBlocks(body) {
		changed = true
	}
	return changed, nil
}

// rescueMultilineComments re-joins /!* … *!/ runs the extractor split
// into operator tokens back into a single comment span.
func (f *CodeBlocks) rescueMultilineComments(block *html.Node) bool {
	changed := false
	for {
		open := f.findCommentMarker(block, "/!*")
		if open == nil {
			return changed
		}
		var run []*html.Node
		closeTag := (*html.Node)(nil)
		for n := open.NextSibling; n != nil; n = n.NextSibling {
			run = append(run, n)
			if dom.IsElement(n) && n.Data == "span" && dom.HasClass(n, "o") {
				if s, ok := soleText(n); ok && s == "*!/" {
					closeTag = n
					break
				}
			}
		}
		if closeTag == nil {
			return changed
		}
		var sb strings.Builder
		sb.WriteString("/*")
		for _, n := range run[:len(run)-1] {
			sb.WriteString(dom.Text(n))
		}
		sb.WriteString("*/")
		setNodeText(open, sb.String())
		dom.SetClass(open, "cm")
		for _, n := range run {
			dom.DestroyNode(n)
		}
		changed = true
	}
}

func (f *CodeBlocks) findCommentMarker(block *html.Node, marker string) *html.Node {
	for _, span := range dom.FindAll(block, []string{"span"}, func(n *html.Node) bool {
		return dom.HasClass(n, "o")
	}) {
		if s, ok := soleText(span); ok && s == marker {
			return span
		}
	}
	return nil
}

// fixMacros re-tags tokens matching the configured macro set.
func (f *CodeBlocks) fixMacros(cx *Context, block *html.Node) bool {
	if cx.Macros.Empty() {
		return false
	}
	changed := false
	for _, span := range f.tokenSpans(block, compoundClasses) {
		if text, ok := soleText(span); ok && cx.Macros.Match(text) {
			if !slices.Equal(dom.Classes(span), []string{"fm"}) {
				dom.SetClass(span, "fm") // Name.Function.Magic
				changed = true
			}
		}
	}
	return changed
}

// tokenSpans returns spans with a single text child carrying any of the
// given highlighter classes.
func (f *CodeBlocks) tokenSpans(block *html.Node, classes []string) []*html.Node {
	return dom.FindAll(block, []string{"span"}, func(n *html.Node) bool {
		if _, ok := soleText(n); !ok {
			return false
		}
		return dom.HasAnyClass(n, classes...)
	})
}

// colourizeCompoundNames gloms adjacent identifier/punctuation tokens into
// qualified names and re-tags them against the configured identifier sets.
func (f *CodeBlocks) colourizeCompoundNames(cx *Context, block *html.Node) bool {
	changed := false
	visited := make(map[*html.Node]bool)
	joinable := append(slices.Clone(compoundClasses), "o", "p")

	for _, start := range f.tokenSpans(block, compoundStarters) {
		if visited[start] {
			continue
		}
		visited[start] = true
		run := []*html.Node{start}

		for prev := start.PrevSibling; f.joins(prev, joinable); prev = prev.PrevSibling {
			run = append([]*html.Node{prev}, run...)
			visited[prev] = true
		}
		for next := start.NextSibling; f.joins(next, joinable); next = next.NextSibling {
			run = append(run, next)
			visited[next] = true
		}

		if !nsFullExpr.MatchString(joinText(run)) {
			continue
		}
		run = trimSeparators(run)
		if len(run) == 0 {
			continue
		}
		if f.colourizeRun(cx, run) {
			changed = true
		}
	}
	return changed
}

func (f *CodeBlocks) joins(n *html.Node, classes []string) bool {
	if n == nil || !dom.IsElement(n) || n.Data != "span" {
		return false
	}
	text, ok := soleText(n)
	if !ok {
		return false
	}
	return dom.HasAnyClass(n, classes...) && nsTokenExpr.MatchString(text)
}

func joinText(run []*html.Node) string {
	var sb strings.Builder
	for _, n := range run {
		sb.WriteString(dom.Text(n))
	}
	return sb.String()
}

// trimSeparators strips leading and trailing "::" tokens from a run.
func trimSeparators(run []*html.Node) []*html.Node {
	for len(run) > 0 && dom.Text(run[0]) == "::" {
		run = run[1:]
	}
	for len(run) > 0 && dom.Text(run[len(run)-1]) == "::" {
		run = run[:len(run)-1]
	}
	return run
}

// colourizeRun classifies a qualified-name run. Enums, functions and
// types re-tag the final token and recurse on the qualifier; anything
// matching a configured namespace collapses into one "nn" token.
func (f *CodeBlocks) colourizeRun(cx *Context, run []*html.Node) bool {
	full := joinText(run)

	recolourLast := func(class string) bool {
		changed := false
		last := run[len(run)-1]
		if !slices.Equal(dom.Classes(last), []string{class}) {
			dom.SetClass(last, class)
			changed = true
		}
		rest := trimSeparators(run[:len(run)-1])
		if len(rest) > 0 {
			changed = f.colourizeRun(cx, rest) || changed
		}
		return changed
	}

	if cx.Enums.Match(full) {
		return recolourLast("mi") // Literal.Number.Integer
	}
	if cx.Functions.Match(full) {
		return recolourLast("nf") // Name.Function
	}
	if cx.Types.Match(full) {
		return recolourLast("nc") // Name.Class
	}

	for len(run) > 0 && !cx.Namespaces.Match(full) {
		run = trimSeparators(run[:len(run)-1])
		full = joinText(run)
	}
	if len(run) == 0 {
		return false
	}
	changed := false
	for len(run) > 1 {
		dom.DestroyNode(run[len(run)-1])
		run = run[:len(run)-1]
		changed = true
	}
	if text, _ := soleText(run[0]); text != full {
		setNodeText(run[0], full)
		changed = true
	}
	if !slices.Equal(dom.Classes(run[0]), []string{"nn"}) { // Name.Namespace
		dom.SetClass(run[0], "nn")
		changed = true
	}
	return changed
}

// fixFunctionCalls re-tags plain name tokens immediately followed by an
// opening bracket.
func (f *CodeBlocks) fixFunctionCalls(block *html.Node) bool {
	changed := false
	for _, span := range f.tokenSpans(block, []string{"n", "nc"}) {
		text, _ := soleText(span)
		if !funcName.MatchString(text) {
			continue
		}
		bracket := span.NextSibling
		if bracket == nil || !dom.IsElement(bracket) || bracket.Data != "span" {
			continue
		}
		bracketText, ok := soleText(bracket)
		if !ok || !dom.HasClass(bracket, "p") || !funcBracket.MatchString(bracketText) {
			continue
		}
		if !slices.Equal(dom.Classes(span), []string{"nf"}) {
			dom.SetClass(span, "nf")
			changed = true
		}
	}
	return changed
}

// fixKeywords re-tags tokens the highlighter missed as keywords.
func (f *CodeBlocks) fixKeywords(block *html.Node) bool {
	changed := false
	for _, span := range f.tokenSpans(block, compoundClasses) {
		text, _ := soleText(span)
		if cppKeywords.Has(text) {
			if !slices.Equal(dom.Classes(span), []string{"k"}) {
				dom.SetClass(span, "k") // Keyword
				changed = true
			}
		}
	}
	return changed
}

// promoteInlineBlocks turns code blocks the extractor buried inside lone
// paragraphs back into standalone <pre> blocks.
func (f *CodeBlocks) promoteInlineBlocks(body *html.Node) bool {
	changed := false
	for _, block := range dom.FindAll(body, []string{"code"}, func(n *html.Node) bool {
		return dom.HasAnyClass(n, "m-code", "m-console")
	}) {
		parent := block.Parent
		if parent == nil || parent.Data != "p" {
			continue
		}
		grandparent := parent.Parent
		if grandparent == nil || (grandparent.Data != "div" && grandparent.Data != "section") {
			continue
		}
		block.Data = "pre"
		block.DataAtom = atom.Pre
		dom.DestroyNode(block)
		parent.Parent.InsertBefore(block, parent)
		if dom.IsEffectivelyEmpty(parent) {
			dom.DestroyNode(parent)
		}
		changed = true
	}
	return changed
}
