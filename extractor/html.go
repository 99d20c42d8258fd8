package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractHTMLFile strips markup from an HTML file and returns its visible
// text.
func extractHTMLFile(data []byte) (string, error) {
	text, _, err := htmlText(data)
	return text, err
}

// htmlText parses HTML, removes script and style subtrees and returns the
// remaining text together with the page title.
func htmlText(data []byte) (text, title string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	title = strings.TrimSpace(doc.Find("title").First().Text())
	return collapseWhitespace(doc.Text()), title, nil
}

// collapseWhitespace joins the whitespace-separated phrases of extracted
// text with single spaces, dropping blank lines and indentation noise.
func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
