package core

// Presence derives the online-user list from the registry. Nothing is cached:
// every snapshot walks the registry.
type Presence struct {
	registry *Registry
}

// NewPresence creates a tracker over registry.
func NewPresence(registry *Registry) *Presence {
	return &Presence{registry: registry}
}

// Snapshot returns the sorted usernames registered right now.
func (p *Presence) Snapshot() []string {
	return p.registry.Usernames()
}

// Broadcast sends the current snapshot to every registered session.
func (p *Presence) Broadcast() {
	ev := &Event{Kind: EventOnlineUsers, Users: p.Snapshot()}
	for _, s := range p.registry.Sessions() {
		s.send(ev)
	}
}
