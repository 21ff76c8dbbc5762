// File: wsproto/registry.go
// Package wsproto holds the three concrete Protocol variants (Chat,
// JSON REST, Binary REST) and the prototype registry they are cloned
// from at handshake time.
// Author: momentics <momentics@gmail.com>
//
// Each Registry is guarded by its own single mutex, held only for
// lookups and insert/delete.

package wsproto

import (
	"strings"
	"sync"

	"github.com/momentics/synopse-ws/api"
)

// Registry is an insertion-ordered list of prototype protocols, looked
// up case-insensitively by name.
type Registry struct {
	mu    sync.Mutex
	names []string // preserves insertion order
	byKey map[string]api.Protocol
}

// NewRegistry returns an always-non-nil registry; callers never get a
// nil Registry to begin with.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]api.Protocol)}
}

// Add registers a prototype protocol. Returns false if the name (compared
// case-insensitively) is already registered.
func (r *Registry) Add(p api.Protocol) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(p.Name())
	if _, exists := r.byKey[key]; exists {
		return false
	}
	r.byKey[key] = p
	r.names = append(r.names, key)
	return true
}

// Remove unregisters a prototype by name. Returns false if absent.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(name)
	if _, exists := r.byKey[key]; !exists {
		return false
	}
	delete(r.byKey, key)
	for i, n := range r.names {
		if n == key {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	return true
}

// CloneByName returns a fresh, independently-owned Protocol instance, or
// nil if no prototype with that name is registered.
func (r *Registry) CloneByName(name string) api.Protocol {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byKey[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return p.Clone()
}

// ChooseOffered walks the client's offered subprotocol tokens in order
// and returns the name of the first one this registry has registered.
// ok is false if none matched.
func (r *Registry) ChooseOffered(offered []string) (name string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tok := range offered {
		if _, exists := r.byKey[strings.ToLower(tok)]; exists {
			return tok, true
		}
	}
	return "", false
}
