package vdom

import "strings"

// attr creates an attribute with the given key and value.
func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Prop creates an arbitrary attribute.
func Prop(key string, value any) Attr { return attr(key, value) }

// ID sets the element's id.
func ID(id string) Attr { return attr("id", id) }

// Class sets the element's class list.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// Data sets a data-* attribute.
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Key sets the reconciliation key.
func Key(key string) Attr { return attr("key", key) }

// Href sets the link target.
func Href(url string) Attr { return attr("href", url) }

// Src sets the source URL of media elements.
func Src(url string) Attr { return attr("src", url) }

// Alt sets the alternative text of images.
func Alt(text string) Attr { return attr("alt", text) }

// Name sets the name attribute, e.g. of meta elements.
func Name(name string) Attr { return attr("name", name) }

// Content sets the content of meta elements.
func Content(content string) Attr { return attr("content", content) }

// Property sets the property of Open Graph meta elements.
func Property(property string) Attr { return attr("property", property) }

// Rel sets the relationship of link elements.
func Rel(rel string) Attr { return attr("rel", rel) }

// Lang sets the element language.
func Lang(lang string) Attr { return attr("lang", lang) }
