// Package render turns a NewsItem into the Hugo content file consumed by the site.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ramblings/internal/models"
)

// The field order and labels are read by the Hugo theme; keep them exact.
// The document has no trailing newline.
const postTemplate = `---
title: "{{.Title}}"
date: {{.Date}}
link: {{.Link}}
showShare: false
showReadTime: false
---
- Link to article: {{.Link}}

{{.Summary}}`

var tmpl = template.Must(template.New("post").Parse(postTemplate))

type postData struct {
	Title   string
	Date    string
	Link    string
	Summary string
}

// Render produces the document body for item.
func Render(item models.NewsItem) (string, error) {
	data := postData{
		Title:   EscapeTitle(item.Title),
		Date:    item.Published.Format(time.RFC3339),
		Link:    item.URL,
		Summary: StripHTML(item.Summary),
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %q: %w", item.Title, err)
	}
	return buf.String(), nil
}

// EscapeTitle prefixes every double quote with a backslash. Nothing else is escaped.
func EscapeTitle(title string) string {
	return strings.ReplaceAll(title, `"`, `\"`)
}

// StripHTML returns the text content of an HTML fragment with entities decoded.
// The summary is parsed as body content, so whitespace around the markup is kept.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return s
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(body).Text()
}
