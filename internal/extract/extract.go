// Package extract pulls indexable content and links out of raw HTML.
package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Content is the extracted form of one page. Headings and Links preserve
// document order.
type Content struct {
	Title       string
	Body        string
	Headings    []string
	Description string
	Links       []string
}

var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
}

// Extract parses rawHTML and returns the page title, visible body text,
// headings, meta description, and absolute http(s) links resolved against
// baseURL. Malformed input yields a best-effort partial Content; the error is
// only ever the base URL failing to parse.
func Extract(rawHTML []byte, baseURL string) (Content, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return Content{}, err
	}

	// html.Parse is tolerant of malformed markup; a parse failure still
	// produces a usable (possibly empty) tree.
	doc, err := html.Parse(strings.NewReader(string(rawHTML)))
	if err != nil || doc == nil {
		return Content{}, nil
	}

	var (
		content Content
		body    strings.Builder
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case skippedTags[n.Data]:
				return
			case n.Data == "title":
				if content.Title == "" {
					content.Title = strings.TrimSpace(textOf(n))
				}
				return
			case n.Data == "meta":
				if name := attr(n, "name"); strings.EqualFold(name, "description") {
					content.Description = strings.TrimSpace(attr(n, "content"))
				}
			case headingTags[n.Data]:
				if text := strings.TrimSpace(textOf(n)); text != "" {
					content.Headings = append(content.Headings, text)
				}
			case n.Data == "a":
				if link := resolveLink(base, attr(n, "href")); link != "" {
					content.Links = append(content.Links, link)
				}
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if body.Len() > 0 {
					body.WriteByte(' ')
				}
				body.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	content.Body = collapseSpace(body.String())
	return content, nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
