// Package vdom provides the virtual node tree views render into.
//
// A view produces a *VNode tree. The same tree is consumed by both
// environments: the render package writes it out as markup on the server, and
// the client renderer keeps it as the live content of a document container,
// diffing successive trees into patches.
//
// # Building trees
//
//	node := vdom.Div(vdom.Class("card"),
//	    vdom.H1(vdom.Text(title)),
//	    vdom.P(vdom.Text(body)),
//	)
//
// # Hydration IDs
//
// Every element rendered on the server carries a data-hid attribute. When the
// client adopts server markup (ParseHTML) the IDs are read back into VNode.HID,
// and CopyHIDs transfers them onto a freshly rendered tree of the same shape.
// Patches produced by Diff address elements by these IDs.
package vdom
