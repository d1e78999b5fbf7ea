package fixers

import (
	"regexp"
	"sort"
	"strings"
)

// trieNode is one level of the identifier trie used to build compact
// alternation regexes from large identifier sets.
type trieNode struct {
	children map[rune]*trieNode
	terminal bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

func (n *trieNode) insert(word string) {
	node := n
	for _, r := range word {
		child, ok := node.children[r]
		if !ok {
			child = newTrieNode()
			node.children[r] = child
		}
		node = child
	}
	node.terminal = true
}

func (n *trieNode) pattern() string {
	if len(n.children) == 0 {
		return ""
	}
	runes := make([]rune, 0, len(n.children))
	for r := range n.children {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })

	alts := make([]string, 0, len(runes))
	for _, r := range runes {
		child := n.children[r]
		alts = append(alts, regexp.QuoteMeta(string(r))+child.pattern())
	}

	var sb strings.Builder
	if len(alts) == 1 && !n.terminal {
		sb.WriteString(alts[0])
	} else {
		sb.WriteString("(?:")
		sb.WriteString(strings.Join(alts, "|"))
		sb.WriteString(")")
		if n.terminal {
			sb.WriteString("?")
		}
	}
	return sb.String()
}

// TrieRegex folds words into an alternation pattern with shared prefixes
// ("foo", "fob" => "fo[ob]"-style branching). The pattern matches exactly
// the given words; anchoring is the caller's business.
func TrieRegex(words []string) string {
	root := newTrieNode()
	for _, w := range words {
		if w != "" {
			root.insert(w)
		}
	}
	return root.pattern()
}

// Matcher is a compiled full-string matcher over an identifier set. The
// zero Matcher matches nothing.
type Matcher struct {
	re *regexp.Regexp
}

// CompileIdentifierSet builds a full-match Matcher from identifiers.
func CompileIdentifierSet(ids []string) (Matcher, error) {
	if len(ids) == 0 {
		return Matcher{}, nil
	}
	re, err := regexp.Compile(`\A(?:` + TrieRegex(ids) + `)\z`)
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{re: re}, nil
}

// Match reports whether s is exactly one of the compiled identifiers.
func (m Matcher) Match(s string) bool {
	return m.re != nil && m.re.MatchString(s)
}

// Empty reports whether the matcher has no identifiers.
func (m Matcher) Empty() bool { return m.re == nil }
