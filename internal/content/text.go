package content

import (
	"strings"

	"brainwave/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ContentContainerSelector matches the article body of the site layout the
// extractor is tuned for. Other layouts fall back to whole-page text.
const ContentContainerSelector = "div.article-content"

const textNodeSeparator = "\n"

// ExtractText returns the visible text of the content container when the
// document has one, otherwise the visible text of the whole document.
func ExtractText(doc *goquery.Document) domain.Extraction {
	if container := doc.Find(ContentContainerSelector).First(); container.Length() > 0 {
		return domain.Extraction{
			Kind: domain.ExtractionContainer,
			Text: visibleText(container),
		}
	}

	return domain.Extraction{
		Kind: domain.ExtractionWholePage,
		Text: visibleText(doc.Selection),
	}
}

func visibleText(sel *goquery.Selection) string {
	var fragments []string
	for _, node := range sel.Nodes {
		fragments = collectText(node, fragments)
	}

	return strings.Join(fragments, textNodeSeparator)
}

func collectText(n *html.Node, fragments []string) []string {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			fragments = append(fragments, text)
		}
		return fragments
	case html.ElementNode:
		if !isVisibleElement(n) {
			return fragments
		}
	case html.CommentNode, html.DoctypeNode, html.RawNode:
		return fragments
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		fragments = collectText(c, fragments)
	}

	return fragments
}

func isVisibleElement(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return false
	default:
		return true
	}
}
