package bundlegen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// FetchForm loads the generation page and extracts the CSRF token and the
// select choices. The session cookie set by the page is kept in the client's
// cookie jar.
func (c *Client) FetchForm(ctx context.Context) (FormInfo, error) {
	if c == nil {
		return FormInfo{}, fmt.Errorf("client is nil")
	}
	ctx, cancel := c.bounded(ctx)
	defer cancel()

	resp, err := c.send(ctx, "load form", http.MethodGet, &url.URL{Path: "/"}, nil, "")
	if err != nil {
		return FormInfo{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return FormInfo{}, decodeError("load form", resp)
	}
	info, err := ParseForm(resp.Body)
	if err != nil {
		return FormInfo{}, &MalformedResponseError{Op: "load form", StatusCode: resp.StatusCode, Err: err}
	}
	return info, nil
}

// ParseForm extracts form metadata from the generation page HTML.
func ParseForm(r io.Reader) (FormInfo, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return FormInfo{}, fmt.Errorf("parse html: %w", err)
	}

	var info FormInfo
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "input":
				if attr(n, "name") == "csrf_token" {
					info.CSRFToken = attr(n, "value")
				}
			case "select":
				switch attr(n, "name") {
				case "platform":
					info.Platforms = options(n)
				case "lib_match":
					info.LibMatchModes = options(n)
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if len(info.LibMatchModes) == 0 {
		info.LibMatchModes = append([]Choice(nil), DefaultLibMatchModes...)
	}
	return info, nil
}

func options(sel *html.Node) []Choice {
	var out []Choice
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "option" {
			label := strings.TrimSpace(text(n))
			value, ok := attrOK(n, "value")
			if !ok {
				value = label
			}
			out = append(out, Choice{Value: value, Label: label})
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(sel)
	return out
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	v, _ := attrOK(n, key)
	return v
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
