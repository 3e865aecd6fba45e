package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

// Cleaner strips markup from crawled board content before chunking. Script
// and style bodies are dropped entirely; block boundaries become newlines so
// list items do not run together.
type Cleaner struct{}

func New() *Cleaner {
	return &Cleaner{}
}

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "ul": true, "ol": true, "blockquote": true,
}

var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
}

func (c *Cleaner) Clean(text string) string {
	if !strings.Contains(text, "<") {
		return collapseWhitespace(text)
	}

	node, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return collapseWhitespace(text)
	}

	var b strings.Builder
	walk(node, &b)
	return collapseWhitespace(b.String())
}

func walk(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		if skipTags[n.Data] {
			return
		}
		if blockTags[n.Data] {
			b.WriteString("\n")
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, b)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		b.WriteString("\n")
	}
}

// collapseWhitespace normalizes runs of spaces within lines and blank-line
// runs between them, keeping single newlines as paragraph hints for the
// chunker.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
