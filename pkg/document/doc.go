// Package document models the live client document: the head elements the
// meta registry owns, the page containers views are mounted into, the scroll
// position, and a small event bus.
//
// A Document is usually built with Parse from the markup the server
// rendered, so the client renderer can tell a prerendered container from an
// empty one and adopt its hydration IDs.
package document
