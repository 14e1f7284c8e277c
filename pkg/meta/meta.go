// Package meta holds the SEO title, meta tags and link relations of the
// current page.
//
// Controllers fill the Manager in SetMetaParams; the server renderer writes
// it into the document head and the client renderer synchronizes the live
// document head from it after every mount and update.
package meta

import (
	"sort"
	"sync"
)

// Manager is a key/value registry for the page title, name-keyed and
// property-keyed meta tags, and relation-keyed links.
type Manager struct {
	mu         sync.RWMutex
	title      string
	names      map[string]string
	properties map[string]string
	links      map[string]string
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		names:      make(map[string]string),
		properties: make(map[string]string),
		links:      make(map[string]string),
	}
}

// SetTitle sets the page title.
func (m *Manager) SetTitle(title string) *Manager {
	m.mu.Lock()
	m.title = title
	m.mu.Unlock()
	return m
}

// Title returns the page title.
func (m *Manager) Title() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.title
}

// SetMetaName sets a <meta name=...> value.
func (m *Manager) SetMetaName(name, content string) *Manager {
	m.mu.Lock()
	m.names[name] = content
	m.mu.Unlock()
	return m
}

// MetaName returns a <meta name=...> value.
func (m *Manager) MetaName(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.names[name]
}

// MetaNames returns the registered names in sorted order.
func (m *Manager) MetaNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.names)
}

// SetMetaProperty sets a <meta property=...> value.
func (m *Manager) SetMetaProperty(property, content string) *Manager {
	m.mu.Lock()
	m.properties[property] = content
	m.mu.Unlock()
	return m
}

// MetaProperty returns a <meta property=...> value.
func (m *Manager) MetaProperty(property string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.properties[property]
}

// MetaProperties returns the registered properties in sorted order.
func (m *Manager) MetaProperties() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.properties)
}

// SetLink sets a <link rel=...> href.
func (m *Manager) SetLink(rel, href string) *Manager {
	m.mu.Lock()
	m.links[rel] = href
	m.mu.Unlock()
	return m
}

// Link returns the href registered for rel.
func (m *Manager) Link(rel string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.links[rel]
}

// Links returns the registered relations in sorted order.
func (m *Manager) Links() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.links)
}

// Clear removes every registered value.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.title = ""
	clear(m.names)
	clear(m.properties)
	clear(m.links)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
