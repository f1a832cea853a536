package validation

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// PlainText reduces rich text (possibly HTML from an editor) to collapsed plain text of at most
// limit runes. A limit of 0 means no limit.
func PlainText(s string, limit int) string {
	s = strings.ReplaceAll(s, "\x00", "")

	var b strings.Builder
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		b.WriteString(s)
	} else {
		var extract func(*html.Node)
		extract = func(n *html.Node) {
			if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
				return
			}
			if n.Type == html.TextNode {
				b.WriteString(n.Data)
				b.WriteByte(' ')
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				extract(c)
			}
		}
		extract(doc)
	}

	text := strings.Join(strings.Fields(b.String()), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
