// Package extract recovers an ordered card list from arbitrary HTML. Input
// may be the renderer's own canonical output, a hand-edited variant, or
// unrelated markup the user pasted, so matching runs through a prioritized
// chain of increasingly permissive strategies.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"cardboard/api/internal/deck"
)

// ErrNoCardsFound indicates the whole fallback chain matched zero card
// blocks. Surfaced to the user; extraction is not retried.
var ErrNoCardsFound = errors.New("no cards found")

// Guidance names the canonical structure so the user can correct the input.
const Guidance = `expected card markup like <div class="cards"><div class="card"><div class="card-title">Title</div><div class="card-rows">Row</div></div></div>`

// TitlePlaceholder is used when a matched block yields no title lines.
const TitlePlaceholder = "Untitled"

// Result is a freshly extracted card list. Ids are assigned 1..N in document
// order — a new identity space, never recovered from id-like attributes in
// the source — so MaxID is simply the card count.
type Result struct {
	Cards []deck.Card
	MaxID int
}

// blockStrategy is one step of the fallback chain: parse or select card
// blocks one particular way, returning them in document order. The chain
// short-circuits on the first strategy that yields any blocks.
type blockStrategy struct {
	name  string
	match func(text string) []*goquery.Selection
}

var blockChain = []blockStrategy{
	{name: "canonical-document", match: canonicalFromDocument},
	{name: "canonical-fragment", match: canonicalFromFragment},
	{name: "generic-containers", match: genericFromDocument},
}

// genericBlockSelectors are tried in fixed priority order; the first selector
// matching at least one element wins and later selectors are not consulted.
var genericBlockSelectors = []string{
	".card",
	".box",
	".item",
	".panel",
	".tile",
	".entry",
	"article",
	"section",
	"li",
}

// Extract parses htmlText and recovers the cards it describes. Individual
// blocks that cannot resolve a header and content are skipped; only a chain
// that matches nothing at all is an error.
func Extract(htmlText string) (Result, error) {
	var blocks []*goquery.Selection
	for _, strategy := range blockChain {
		blocks = strategy.match(htmlText)
		if len(blocks) > 0 {
			break
		}
	}
	if len(blocks) == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNoCardsFound, Guidance)
	}

	cards := make([]deck.Card, 0, len(blocks))
	for _, block := range blocks {
		card, ok := cardFromBlock(block)
		if !ok {
			continue
		}
		card.ID = len(cards) + 1
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNoCardsFound, Guidance)
	}

	return Result{Cards: cards, MaxID: len(cards)}, nil
}

// canonicalFromDocument parses text as a full document and selects the exact
// block structure the renderer emits.
func canonicalFromDocument(text string) []*goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil
	}
	return canonicalBlocks(doc.Selection)
}

// canonicalFromFragment re-parses the same text as a standalone body
// fragment, which handles partial copy-pasted snippets that lack a document
// wrapper, then retries the canonical selector.
func canonicalFromFragment(text string) []*goquery.Selection {
	root := fragmentRoot(text)
	if root == nil {
		return nil
	}
	return canonicalBlocks(goquery.NewDocumentFromNode(root).Selection)
}

func genericFromDocument(text string) []*goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil
	}
	for _, selector := range genericBlockSelectors {
		matched := doc.Find(selector)
		if matched.Length() > 0 {
			return splitSelection(matched)
		}
	}
	return nil
}

// canonicalBlocks finds div.card elements carrying at least one of the
// canonical sub-element classes.
func canonicalBlocks(root *goquery.Selection) []*goquery.Selection {
	var blocks []*goquery.Selection
	root.Find("div.card").Each(func(_ int, s *goquery.Selection) {
		if s.Find(".card-title").Length() > 0 || s.Find(".card-rows").Length() > 0 {
			blocks = append(blocks, s)
		}
	})
	return blocks
}

// fragmentRoot parses text in a body context and collects the resulting
// nodes under a synthetic root element.
func fragmentRoot(text string) *html.Node {
	nodes, err := html.ParseFragment(strings.NewReader(text), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil
	}
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}

func splitSelection(matched *goquery.Selection) []*goquery.Selection {
	blocks := make([]*goquery.Selection, 0, matched.Length())
	matched.Each(func(_ int, s *goquery.Selection) {
		blocks = append(blocks, s)
	})
	return blocks
}
