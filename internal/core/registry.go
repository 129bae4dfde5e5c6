package core

import (
	"fmt"
	"sort"
	"strings"
)

// DuplicatePolicy decides what happens when a username connects twice.
type DuplicatePolicy string

const (
	// Supersede replaces the older live session with the newer one.
	Supersede DuplicatePolicy = "supersede"
	// Reject refuses the newer session with ErrDuplicateUsername.
	Reject DuplicatePolicy = "reject"
)

// ParseDuplicatePolicy maps a config string to a policy.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Supersede:
		return Supersede, nil
	case Reject:
		return Reject, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// Registry binds usernames to their live session.
// It is not safe for concurrent use; the hub goroutine owns it.
type Registry struct {
	byName map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Session)}
}

// Register binds s to its username. A stale entry (closed transport) is
// replaced silently. A live entry is replaced under Supersede or refused
// under Reject. Any replaced session is returned so the caller can tear it down.
func (r *Registry) Register(s *Session, policy DuplicatePolicy) (*Session, error) {
	existing, ok := r.byName[s.Username]
	if !ok || existing == s {
		r.byName[s.Username] = s
		return nil, nil
	}
	if existing.Alive() && policy == Reject {
		return nil, ErrDuplicateUsername
	}
	r.byName[s.Username] = s
	return existing, nil
}

// Unregister removes s if it still owns its username. Returns false when s
// was already removed or has been superseded.
func (r *Registry) Unregister(s *Session) bool {
	if current, ok := r.byName[s.Username]; !ok || current != s {
		return false
	}
	delete(r.byName, s.Username)
	return true
}

// Lookup returns the session bound to username.
func (r *Registry) Lookup(username string) (*Session, bool) {
	s, ok := r.byName[username]
	return s, ok
}

// Usernames returns all registered usernames sorted alphabetically.
func (r *Registry) Usernames() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sessions returns all registered sessions.
func (r *Registry) Sessions() []*Session {
	out := make([]*Session, 0, len(r.byName))
	for _, s := range r.byName {
		out = append(out, s)
	}
	return out
}

// Len returns the number of registered usernames.
func (r *Registry) Len() int {
	return len(r.byName)
}
