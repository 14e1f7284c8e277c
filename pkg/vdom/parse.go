package vdom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML parses a markup fragment (as found inside a container element)
// into VNodes. data-hid attributes become VNode.HID.
func ParseHTML(markup string) ([]*VNode, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, err
	}

	out := make([]*VNode, 0, len(nodes))
	for _, n := range nodes {
		if v := FromHTML(n); v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

// FromHTML converts a parsed html.Node subtree into a VNode tree.
// Comments and doctypes are dropped.
func FromHTML(n *html.Node) *VNode {
	switch n.Type {
	case html.TextNode:
		return Text(n.Data)
	case html.ElementNode:
		node := &VNode{
			Kind:     KindElement,
			Tag:      n.Data,
			Props:    make(Props, len(n.Attr)),
			Children: make([]*VNode, 0),
		}
		for _, a := range n.Attr {
			if a.Key == HIDAttr {
				node.HID = a.Val
				continue
			}
			node.Props[a.Key] = a.Val
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := FromHTML(c); child != nil {
				node.Children = append(node.Children, child)
			}
		}
		return node
	default:
		return nil
	}
}
