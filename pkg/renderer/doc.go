// Package renderer turns a controller's page state into output.
//
// Two implementations share the Renderer interface and a Helper:
//
//   - Server renders the page once to markup, embeds the revival payload and
//     writes the response.
//   - Client mounts views into a document container. It hydrates markup the
//     server rendered, renders fresh into empty containers, and patches
//     pending resources into state as they resolve, committing at most once
//     per scheduler tick.
//
// Deferred work captures the epoch of the page it was started for and is
// dropped once a newer page is mounted.
package renderer
