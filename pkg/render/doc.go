// Package render converts VNode trees into HTML for the server environment.
//
// Output is compact (no pretty printing) so that the client can parse the
// markup back into a tree of the same shape and hydrate it. Every element
// receives a data-hid attribute in document order.
//
// # Basic Usage
//
//	r := render.NewRenderer(render.RendererConfig{})
//	html, err := r.RenderToString(node)
//
// # Full Page Rendering
//
//	err := r.RenderPage(w, render.PageData{
//	    Body:        node,
//	    ContainerID: "page",
//	    Title:       "Articles",
//	    Revival:     revival,
//	})
//
// The revival payload is embedded as a JSON script element and read back by
// the client bootstrap before the first client-side mount.
package render
