package vdom

import (
	"fmt"
	"sync"
)

// HIDAttr is the attribute that carries hydration IDs in markup.
const HIDAttr = "data-hid"

// HIDGenerator generates unique hydration IDs for elements.
type HIDGenerator struct {
	prefix  string
	counter uint32
	mu      sync.Mutex
}

// NewHIDGenerator creates a new HIDGenerator producing "h1", "h2", ...
func NewHIDGenerator() *HIDGenerator {
	return &HIDGenerator{prefix: "h"}
}

// NewPrefixedHIDGenerator creates a generator with a custom prefix, so IDs
// assigned on the client never collide with server-assigned ones.
func NewPrefixedHIDGenerator(prefix string) *HIDGenerator {
	return &HIDGenerator{prefix: prefix}
}

// Next returns the next hydration ID.
func (g *HIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s%d", g.prefix, g.counter)
}

// Reset resets the counter to 0.
func (g *HIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter = 0
}

// Current returns the current counter value without incrementing.
func (g *HIDGenerator) Current() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// AssignHIDs assigns an HID to every element in the tree that has none.
func AssignHIDs(node *VNode, gen *HIDGenerator) {
	Walk(node, func(n *VNode) bool {
		if n.Kind == KindElement && n.HID == "" {
			n.HID = gen.Next()
		}
		return true
	})
}

// CollectHIDs returns a map of HID to VNode for all nodes with HIDs.
func CollectHIDs(node *VNode) map[string]*VNode {
	result := make(map[string]*VNode)
	Walk(node, func(n *VNode) bool {
		if n.HID != "" {
			result[n.HID] = n
		}
		return true
	})
	return result
}

// FindByHID finds a node by its HID in the tree.
func FindByHID(node *VNode, hid string) *VNode {
	var found *VNode
	Walk(node, func(n *VNode) bool {
		if found != nil {
			return false
		}
		if n.HID == hid {
			found = n
			return false
		}
		return true
	})
	return found
}

// ClearHIDs removes all HIDs from the tree.
func ClearHIDs(node *VNode) {
	Walk(node, func(n *VNode) bool {
		n.HID = ""
		return true
	})
}

// CopyHIDs copies HIDs from the source tree to the destination tree.
// It returns false when the trees differ in shape (kind, tag or child
// count), which is a hydration mismatch.
func CopyHIDs(src, dst *VNode) bool {
	if src == nil || dst == nil {
		return src == nil && dst == nil
	}
	if src.Kind != dst.Kind || src.Tag != dst.Tag {
		return false
	}

	dst.HID = src.HID

	if len(src.Children) != len(dst.Children) {
		return false
	}
	for i := range src.Children {
		if !CopyHIDs(src.Children[i], dst.Children[i]) {
			return false
		}
	}
	return true
}

// Resolve expands component nodes into their rendered output so the tree
// can be diffed and adopted without calling Render again.
func Resolve(node *VNode) *VNode {
	if node == nil {
		return nil
	}
	if node.Kind == KindComponent {
		if node.Comp == nil {
			return nil
		}
		return Resolve(node.Comp.Render())
	}
	if len(node.Children) == 0 {
		return node
	}

	children := make([]*VNode, 0, len(node.Children))
	for _, c := range node.Children {
		r := Resolve(c)
		if r == nil {
			continue
		}
		// Fragments flatten into their parent, matching their markup.
		if r.Kind == KindFragment {
			children = append(children, r.Children...)
			continue
		}
		children = append(children, r)
	}
	node.Children = mergeText(children)
	return node
}

// mergeText joins adjacent text nodes, which markup cannot keep apart.
func mergeText(children []*VNode) []*VNode {
	out := children[:0]
	for _, c := range children {
		if n := len(out); n > 0 && c.Kind == KindText && out[n-1].Kind == KindText {
			out[n-1] = Text(out[n-1].Text + c.Text)
			continue
		}
		out = append(out, c)
	}
	return out
}
