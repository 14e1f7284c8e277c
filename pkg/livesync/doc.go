// Package livesync keeps a browser page in sync with a server-side client
// renderer over a WebSocket.
//
// The browser opens the socket and sends a hello message with its URL. The
// session renders that URL once through the page handler to rebuild the
// document the browser holds, hydrates it, and from then on streams the
// patches, head updates and scroll requests produced by each navigation.
//
// Messages are JSON objects with a "type" field:
//
//	browser -> server   hello, navigate, scroll, ping
//	server  -> browser  patches, head, scroll, redirect, result, error, pong
package livesync
