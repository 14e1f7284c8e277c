package livesync

import (
	"github.com/vango-dev/isopage/pkg/vdom"
)

// Message types.
const (
	TypeHello    = "hello"
	TypeNavigate = "navigate"
	TypeScroll   = "scroll"
	TypePing     = "ping"

	TypePatches  = "patches"
	TypeHead     = "head"
	TypeRedirect = "redirect"
	TypeResult   = "result"
	TypeError    = "error"
	TypePong     = "pong"
)

// Message is a single frame in either direction.
type Message struct {
	Type string `json:"type"`

	// hello, navigate, redirect, result
	URL           string `json:"url,omitempty"`
	Action        string `json:"action,omitempty"`
	AutoScroll    bool   `json:"autoScroll,omitempty"`
	RestoreScroll bool   `json:"restoreScroll,omitempty"`

	// patches
	Target  string       `json:"target,omitempty"`
	Patches []vdom.Patch `json:"patches,omitempty"`

	// head
	Title string `json:"title,omitempty"`
	HTML  string `json:"html,omitempty"`

	// scroll
	X int `json:"x,omitempty"`
	Y int `json:"y,omitempty"`

	// result
	Status int `json:"status,omitempty"`

	// error
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
