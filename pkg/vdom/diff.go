package vdom

import (
	"fmt"
	"reflect"
	"strconv"
)

// Diff compares two VNode trees and returns the patches needed to transform prev into next.
// HIDs of matched nodes are copied from prev to next.
func Diff(prev, next *VNode) []Patch {
	var patches []Patch
	diff(prev, next, "", &patches)
	return patches
}

// diff recursively compares nodes and appends patches.
// parentHID is the HID of the parent element, used for text patches.
func diff(prev, next *VNode, parentHID string, patches *[]Patch) {
	if prev == nil && next == nil {
		return
	}

	// Node added (handled by parent via InsertNode)
	if prev == nil {
		return
	}

	if next == nil {
		*patches = append(*patches, Patch{
			Op:  PatchRemoveNode,
			HID: prev.HID,
		})
		return
	}

	if prev.Kind != next.Kind {
		*patches = append(*patches, Patch{
			Op:       PatchReplaceNode,
			HID:      prev.HID,
			ParentID: parentHID,
			Node:     next,
		})
		return
	}

	switch prev.Kind {
	case KindText:
		next.HID = prev.HID
		if prev.Text != next.Text && parentHID != "" {
			*patches = append(*patches, Patch{
				Op:    PatchSetText,
				HID:   parentHID,
				Value: next.Text,
			})
		}
	case KindRaw:
		next.HID = prev.HID
		if prev.Text != next.Text {
			*patches = append(*patches, Patch{
				Op:       PatchReplaceNode,
				HID:      prev.HID,
				ParentID: parentHID,
				Node:     next,
			})
		}
	case KindElement:
		diffElement(prev, next, parentHID, patches)
	case KindFragment:
		next.HID = prev.HID
		diffChildren(prev, next, parentHID, patches)
	case KindComponent:
		next.HID = prev.HID
		if prev.Comp != nil && next.Comp != nil {
			diff(prev.Comp.Render(), next.Comp.Render(), parentHID, patches)
		}
	}
}

// diffElement compares element nodes.
func diffElement(prev, next *VNode, parentHID string, patches *[]Patch) {
	if prev.Tag != next.Tag {
		*patches = append(*patches, Patch{
			Op:       PatchReplaceNode,
			HID:      prev.HID,
			ParentID: parentHID,
			Node:     next,
		})
		return
	}

	next.HID = prev.HID
	diffProps(prev, next, patches)
	diffChildren(prev, next, prev.HID, patches)
}

// diffProps compares and patches attributes.
func diffProps(prev, next *VNode, patches *[]Patch) {
	for key, prevVal := range prev.Props {
		nextVal, exists := next.Props[key]
		if !exists {
			*patches = append(*patches, Patch{
				Op:  PatchRemoveAttr,
				HID: prev.HID,
				Key: key,
			})
		} else if !propsEqual(prevVal, nextVal) {
			*patches = append(*patches, Patch{
				Op:    PatchSetAttr,
				HID:   prev.HID,
				Key:   key,
				Value: PropString(nextVal),
			})
		}
	}

	for key, nextVal := range next.Props {
		if _, exists := prev.Props[key]; !exists {
			*patches = append(*patches, Patch{
				Op:    PatchSetAttr,
				HID:   prev.HID,
				Key:   key,
				Value: PropString(nextVal),
			})
		}
	}
}

// diffChildren compares and patches child nodes.
func diffChildren(prev, next *VNode, parentHID string, patches *[]Patch) {
	if hasKeys(prev.Children) || hasKeys(next.Children) {
		diffKeyedChildren(prev.Children, next.Children, parentHID, patches)
		return
	}

	maxLen := len(prev.Children)
	if len(next.Children) > maxLen {
		maxLen = len(next.Children)
	}

	for i := 0; i < maxLen; i++ {
		var prevChild, nextChild *VNode
		if i < len(prev.Children) {
			prevChild = prev.Children[i]
		}
		if i < len(next.Children) {
			nextChild = next.Children[i]
		}

		if prevChild == nil && nextChild != nil {
			*patches = append(*patches, Patch{
				Op:       PatchInsertNode,
				ParentID: parentHID,
				Index:    i,
				Node:     nextChild,
			})
			continue
		}
		diff(prevChild, nextChild, parentHID, patches)
	}
}

// diffKeyedChildren matches children by key so reordering produces moves.
func diffKeyedChildren(prev, next []*VNode, parentHID string, patches *[]Patch) {
	prevKeyMap := make(map[string]int, len(prev))
	for i, child := range prev {
		if key := getKey(child); key != "" {
			prevKeyMap[key] = i
		}
	}

	matched := make(map[int]bool)

	for nextIdx, nextChild := range next {
		key := getKey(nextChild)
		prevIdx, exists := prevKeyMap[key]
		if key == "" || !exists {
			*patches = append(*patches, Patch{
				Op:       PatchInsertNode,
				ParentID: parentHID,
				Index:    nextIdx,
				Node:     nextChild,
			})
			continue
		}

		matched[prevIdx] = true
		prevChild := prev[prevIdx]
		if prevIdx != nextIdx {
			*patches = append(*patches, Patch{
				Op:       PatchMoveNode,
				HID:      prevChild.HID,
				ParentID: parentHID,
				Index:    nextIdx,
			})
		}
		diff(prevChild, nextChild, parentHID, patches)
	}

	for i, prevChild := range prev {
		if !matched[i] {
			*patches = append(*patches, Patch{
				Op:  PatchRemoveNode,
				HID: prevChild.HID,
			})
		}
	}
}

// getKey extracts the key from a node.
func getKey(node *VNode) string {
	if node == nil {
		return ""
	}
	return node.Key
}

// hasKeys returns true if any child has a key.
func hasKeys(children []*VNode) bool {
	for _, child := range children {
		if getKey(child) != "" {
			return true
		}
	}
	return false
}

// propsEqual compares two prop values for equality.
func propsEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return reflect.DeepEqual(a, b)
}

// PropString converts a prop value to its attribute string form.
func PropString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
