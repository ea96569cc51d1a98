package ingest

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"omnigrade/internal/util"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "tr": true, "li": true, "br": true, "table": true,
	"section": true, "article": true, "header": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// TextFromHTML flattens a saved portal page into lines: block elements end a
// line, table cells on one row stay on one line.
func TextFromHTML(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	doc.Find("script,style,noscript,head").Remove()

	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, node *goquery.Selection) {
			name := goquery.NodeName(node)
			if name == "#text" {
				b.WriteString(node.Text())
				return
			}
			walk(node)
			switch {
			case name == "td" || name == "th":
				b.WriteString(" | ")
			case blockTags[name]:
				b.WriteString("\n")
			}
		})
	}
	walk(doc.Selection)

	lines := strings.Split(b.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Trim(util.NormalizeSpaces(line), " |")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}
