package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"cardboard/api/internal/deck"
)

// Header and content sub-element selectors, tried independently in fixed
// priority order after the canonical classes fail. Each search stops at its
// first match.
var (
	headerSelectors = []string{
		"h1", "h2", "h3", "h4", "h5", "h6",
		".title", ".header", ".card-header", ".name", ".label",
		"header", "dt", "strong",
	}
	contentSelectors = []string{
		".rows", ".content", ".body", ".card-body",
		".description", ".text",
		"p", "dd",
	}
)

// cardFromBlock resolves a matched block into a card. Resolution cascades:
// canonical sub-elements, then generic header/content selectors, then the
// structural fallback when neither side resolved. A block where one side
// resolves and the other never does is skipped, which is expected partial
// success rather than an error.
func cardFromBlock(block *goquery.Selection) (deck.Card, bool) {
	header := firstMatch(block, ".card-title")
	content := firstMatch(block, ".card-rows")

	if header == nil {
		header = firstMatchAny(block, headerSelectors)
	}
	if content == nil {
		content = firstMatchAny(block, contentSelectors)
	}

	var titleLines, rowLines []string
	switch {
	case header != nil && content != nil:
		titleLines = elementLines(header)
		rowLines = elementLines(content)
	case header == nil && content == nil:
		var ok bool
		titleLines, rowLines, ok = structuralFallback(block)
		if !ok {
			return deck.Card{}, false
		}
	default:
		return deck.Card{}, false
	}

	title := deck.JoinLines(titleLines)
	if title == "" {
		title = TitlePlaceholder
	}
	return deck.Card{Title: title, Rows: deck.JoinLines(rowLines)}, true
}

// structuralFallback resolves blocks with no recognizable sub-elements by
// shape alone: with two or more child elements the first is the header and
// the second the content; a single child serves as both; with no children
// the block's own text is split on line breaks, first non-empty line as
// header and the rest as content (a single line serves as both).
func structuralFallback(block *goquery.Selection) (titleLines, rowLines []string, ok bool) {
	children := block.Children()
	switch {
	case children.Length() >= 2:
		return elementLines(children.Eq(0)), elementLines(children.Eq(1)), true
	case children.Length() == 1:
		only := elementLines(children.Eq(0))
		return only, only, true
	}

	lines := textLines(block.Text())
	switch len(lines) {
	case 0:
		return nil, nil, false
	case 1:
		return lines[:1], lines[:1], true
	default:
		return lines[:1], lines[1:], true
	}
}

func firstMatch(block *goquery.Selection, selector string) *goquery.Selection {
	found := block.Find(selector)
	if found.Length() == 0 {
		return nil
	}
	return found.First()
}

func firstMatchAny(block *goquery.Selection, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if found := firstMatch(block, selector); found != nil {
			return found
		}
	}
	return nil
}

// elementLines splits a resolved element's text into lines. The source is
// markup, so only explicit <br> markers delimit lines — literal newlines
// inside text nodes are just inter-tag whitespace. Lines are trimmed, inner
// whitespace runs collapsed, and empties dropped.
func elementLines(sel *goquery.Selection) []string {
	var lines []string
	var current strings.Builder

	flush := func() {
		line := strings.Join(strings.Fields(current.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				current.WriteString(c.Data)
			case c.Type == html.ElementNode && c.DataAtom == atom.Br:
				flush()
			case c.Type == html.ElementNode:
				walk(c)
			}
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	flush()
	return lines
}

// textLines splits raw text content on literal newlines. Only the structural
// zero-children fallback uses this, where no break markup can exist.
func textLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
