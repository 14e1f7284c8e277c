package document

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/isopage/pkg/vdom"
)

// RevivalScriptID is the element ID of the embedded revival payload.
const RevivalScriptID = "isopage-revival"

// Parse builds a Document from full page markup. Every body element with an
// id attribute that is not nested in another such element becomes a
// container holding its parsed children.
func Parse(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	d := New()
	var walk func(n *html.Node, inHead bool)
	walk = func(n *html.Node, inHead bool) {
		if n.Type == html.ElementNode {
			switch {
			case n.DataAtom == atom.Head:
				inHead = true
			case n.DataAtom == atom.Title && inHead:
				d.title = textOf(n)
				return
			case n.DataAtom == atom.Script && attr(n, "id") == RevivalScriptID:
				d.revival = textOf(n)
				return
			case inHead:
				if v := vdom.FromHTML(n); v != nil {
					d.head = append(d.head, v)
				}
				return
			case attr(n, "id") != "" && n.DataAtom != atom.Html && n.DataAtom != atom.Body:
				d.containers[attr(n, "id")] = parseContainer(n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inHead)
		}
	}
	walk(root, false)
	return d, nil
}

func parseContainer(n *html.Node) *Container {
	c := &Container{id: attr(n, "id")}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if v := vdom.FromHTML(child); v != nil {
			c.children = append(c.children, v)
		}
	}
	return c
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
