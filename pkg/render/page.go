package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vango-dev/isopage/pkg/vdom"
)

const (
	// MetaMarker marks head elements owned by the page meta registry.
	// The client removes every marked element before re-creating them.
	MetaMarker = "data-isopage-meta"

	// RevivalScriptID is the element ID of the embedded revival payload.
	RevivalScriptID = "isopage-revival"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Body is the root VNode rendered inside the container element.
	Body *vdom.VNode

	// ContainerID is the ID of the element the body is rendered into.
	ContainerID string

	// Title is the page title.
	Title string

	// Meta contains registry-owned meta tags.
	Meta []MetaTag

	// Links contains registry-owned link tags.
	Links []LinkTag

	// StyleSheets contains paths to external stylesheets.
	StyleSheets []string

	// Revival is embedded for the client bootstrap.
	Revival *Revival

	// ClientScript is the path to the client bootstrap script.
	ClientScript string

	// Lang is the language attribute for the html element.
	// Defaults to "en" if not specified.
	Lang string
}

// MetaTag represents a meta element in the document head.
// Exactly one of Name and Property is expected to be set.
type MetaTag struct {
	Name     string
	Property string
	Content  string
}

// LinkTag represents a link element in the document head.
type LinkTag struct {
	Rel  string
	Href string
}

// Revival is the server to client handoff payload.
type Revival struct {
	Environment      string          `json:"environment"`
	Debug            bool            `json:"debug"`
	Version          string          `json:"version"`
	Language         string          `json:"language"`
	LanguagePartPath string          `json:"languagePartPath"`
	Protocol         string          `json:"protocol"`
	Host             string          `json:"host"`
	Path             string          `json:"path"`
	Root             string          `json:"root"`
	Config           map[string]any  `json:"config,omitempty"`
	Cache            json.RawMessage `json:"cache,omitempty"`
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n", escapeAttr(lang)); err != nil {
		return err
	}
	if err := r.renderHead(w, page); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "<body>\n<div id=\"%s\">", escapeAttr(page.ContainerID)); err != nil {
		return err
	}
	if err := r.RenderToWriter(w, page.Body); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "</div>\n"); err != nil {
		return err
	}

	if err := renderRevival(w, page); err != nil {
		return err
	}

	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

// renderHead renders the document head section.
func (r *Renderer) renderHead(w io.Writer, page PageData) error {
	if _, err := io.WriteString(w, "<head>\n  <meta charset=\"utf-8\">\n"+
		"  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n"); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title)); err != nil {
		return err
	}

	for _, meta := range page.Meta {
		key, value := "name", meta.Name
		if meta.Property != "" {
			key, value = "property", meta.Property
		}
		if _, err := fmt.Fprintf(w, "  <meta %s=\"%s\" content=\"%s\" %s>\n",
			key, escapeAttr(value), escapeAttr(meta.Content), MetaMarker); err != nil {
			return err
		}
	}

	for _, link := range page.Links {
		if _, err := fmt.Fprintf(w, "  <link rel=\"%s\" href=\"%s\" %s>\n",
			escapeAttr(link.Rel), escapeAttr(link.Href), MetaMarker); err != nil {
			return err
		}
	}

	for _, href := range page.StyleSheets {
		if _, err := fmt.Fprintf(w, "  <link rel=\"stylesheet\" href=\"%s\">\n", escapeAttr(href)); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</head>\n")
	return err
}

// renderRevival embeds the revival payload and the client script.
// encoding/json escapes <, > and & so the payload cannot close the script.
func renderRevival(w io.Writer, page PageData) error {
	if page.Revival != nil {
		payload, err := json.Marshal(page.Revival)
		if err != nil {
			return fmt.Errorf("failed to marshal revival payload: %w", err)
		}
		if _, err := fmt.Fprintf(w, "<script id=\"%s\" type=\"application/json\">%s</script>\n",
			RevivalScriptID, payload); err != nil {
			return err
		}
	}

	if page.ClientScript != "" {
		if _, err := fmt.Fprintf(w, "<script src=\"%s\" defer></script>\n", escapeAttr(page.ClientScript)); err != nil {
			return err
		}
	}
	return nil
}

// DecodeRevival parses a payload previously embedded by RenderPage.
func DecodeRevival(data string) (*Revival, error) {
	var rev Revival
	if err := json.Unmarshal([]byte(data), &rev); err != nil {
		return nil, fmt.Errorf("failed to decode revival payload: %w", err)
	}
	return &rev, nil
}
