// Package errors provides the coded, categorized errors raised by the page
// lifecycle and rendering pipeline.
//
// Every error kind has a registered code (e.g., "P001") that maps to a short
// message, a longer explanation, and a category:
//
//   - resource: a pending resource entry failed to resolve
//   - render: string or document rendering failed
//   - environment: an operation is not available in this environment, or the
//     live document lacks the expected container
//   - state: an extension wrote outside its allowed state keys
//   - config: application configuration is invalid
//
// # Usage
//
//	err := errors.New(errors.CodeResourceLoad).
//	    WithDetail(`resource "articles" failed`).
//	    Wrap(cause)
//
//	if errors.Is(err, errors.ErrResourceLoad) {
//	    // route to the error page
//	}
package errors
