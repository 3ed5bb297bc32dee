package source

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Elements whose boundaries end a paragraph
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "td": true,
	"th": true, "tr": true, "ul": true,
}

// Elements never rendered as text
var hiddenElements = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"iframe": true, "template": true, "svg": true,
}

// Classes of inline page furniture such as citation markers and edit links
var skippedClasses = []string{"reference", "mw-editsection", "navbox", "noprint"}

// HTMLText returns the visible text of an HTML document with one blank line
// between block elements, and the document title if it has one. When the page
// marks its main content (MediaWiki content div, <main> or <article>) only
// that subtree is rendered.
func HTMLText(r io.Reader) (text, title string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}

	var paragraphs []string
	var current strings.Builder
	flush := func() {
		if p := collapse(current.String()); p != "" {
			paragraphs = append(paragraphs, p)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			return
		case html.ElementNode:
			if hiddenElements[n.Data] || skipped(n) {
				return
			}
			if n.Data == "br" {
				current.WriteString(" ")
				return
			}
			if blockElements[n.Data] {
				flush()
				defer flush()
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(contentRoot(doc))
	flush()

	return strings.Join(paragraphs, "\n\n"), findTitle(doc), nil
}

// contentRoot picks the main content subtree, falling back to the whole document
func contentRoot(doc *html.Node) *html.Node {
	matchers := []func(*html.Node) bool{
		func(n *html.Node) bool { return n.Data == "div" && hasClass(n, "mw-parser-output") },
		func(n *html.Node) bool { return attr(n, "id") == "mw-content-text" },
		func(n *html.Node) bool { return n.Data == "main" },
		func(n *html.Node) bool { return n.Data == "article" },
	}
	for _, match := range matchers {
		if n := findFirst(doc, match); n != nil {
			return n
		}
	}
	return doc
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func skipped(n *html.Node) bool {
	for _, class := range skippedClasses {
		if hasClass(n, class) {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		var buf strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				buf.WriteString(c.Data)
			}
		}
		return collapse(buf.String())
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
