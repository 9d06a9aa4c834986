package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/wirechat-relay/internal/utils"
)

// Registry maps display names to sessions. It is the single source of truth
// for who is online; every method is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Session
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Session)}
}

// Register adds s under name and returns the name it was stored under.
// A taken name is suffixed with the session's short id, then with a counter,
// so registration never fails.
func (r *Registry) Register(name string, s *Session) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(name, s)
}

// Join registers s like Register and also returns the sessions that were
// registered before it, taken under the same lock.
func (r *Registry) Join(name string, s *Session) (string, []*Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers := make([]*Session, 0, len(r.byName))
	for _, other := range r.byName {
		peers = append(peers, other)
	}
	return r.register(name, s), peers
}

func (r *Registry) register(name string, s *Session) string {
	final := name
	if _, taken := r.byName[final]; taken {
		base := name + "_" + utils.ShortID(s.ID)
		final = base
		for i := 2; ; i++ {
			if _, taken := r.byName[final]; !taken {
				break
			}
			final = fmt.Sprintf("%s_%d", base, i)
		}
	}

	s.name = final
	r.byName[final] = s
	return final
}

// Unregister removes s. It reports false if s was not registered, which makes
// repeated calls harmless.
func (r *Registry) Unregister(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s == nil || s.name == "" {
		return false
	}
	if cur, ok := r.byName[s.name]; !ok || cur != s {
		return false
	}
	delete(r.byName, s.name)
	return true
}

// Find looks up a session by display name.
func (r *Registry) Find(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// NameExists reports whether name is currently registered.
func (r *Registry) NameExists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok
}

// List returns a point-in-time snapshot of registered sessions.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.byName))
	for _, s := range r.byName {
		out = append(out, s)
	}
	return out
}

// Names returns the registered display names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
