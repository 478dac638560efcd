package publish

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultPreviewLength is the number of characters shown in content previews.
const DefaultPreviewLength = 200

// Preview returns the first n characters of the text of the given HTML
// content, followed by "..." when truncated.
func Preview(content string, n int) string {
	text := content

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err == nil {
		text = doc.Text()
	}

	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[:n]) + "..."
}
