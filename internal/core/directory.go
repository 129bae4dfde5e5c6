package core

import "sort"

// RoomInfo is a read-only summary of a room.
type RoomInfo struct {
	Name    string
	Members int
	History int
}

// Directory maps room names to rooms and tracks the single room each session is in.
// It is not safe for concurrent use; the hub goroutine owns it.
type Directory struct {
	rooms        map[string]*Room
	current      map[*Session]*Room
	historyLimit int
}

// NewDirectory creates a directory with the given rooms pre-created.
func NewDirectory(historyLimit int, seed ...string) *Directory {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	d := &Directory{
		rooms:        make(map[string]*Room),
		current:      make(map[*Session]*Room),
		historyLimit: historyLimit,
	}
	for _, name := range seed {
		d.room(name)
	}
	return d
}

// room returns the named room, creating it on first use.
func (d *Directory) room(name string) *Room {
	r, ok := d.rooms[name]
	if !ok {
		r = NewRoom(name, d.historyLimit)
		d.rooms[name] = r
	}
	return r
}

// Join moves s into the named room, leaving its previous room in the same step.
// Joining the room s is already in changes nothing and returns false.
func (d *Directory) Join(name string, s *Session) bool {
	target := d.room(name)
	prev := d.current[s]
	if prev == target {
		return false
	}
	if prev != nil {
		prev.RemoveMember(s)
	}
	target.AddMember(s)
	d.current[s] = target
	return true
}

// Leave removes s from the named room. It is a no-op if s is not there.
func (d *Directory) Leave(name string, s *Session) bool {
	prev, ok := d.current[s]
	if !ok || prev.Name != name {
		return false
	}
	prev.RemoveMember(s)
	delete(d.current, s)
	return true
}

// Remove drops s from whatever room it is in and returns that room's name.
func (d *Directory) Remove(s *Session) string {
	prev, ok := d.current[s]
	if !ok {
		return ""
	}
	prev.RemoveMember(s)
	delete(d.current, s)
	return prev.Name
}

// CurrentRoom returns the room s is in, or "" if none.
func (d *Directory) CurrentRoom(s *Session) string {
	if r, ok := d.current[s]; ok {
		return r.Name
	}
	return ""
}

// History returns the retained messages of a room, oldest first.
func (d *Directory) History(name string) []Message {
	r, ok := d.rooms[name]
	if !ok {
		return []Message{}
	}
	return r.History()
}

// Append records msg in the named room's history.
func (d *Directory) Append(name string, msg Message) {
	d.room(name).Append(msg)
}

// Members returns the sessions currently in the named room.
func (d *Directory) Members(name string) []*Session {
	r, ok := d.rooms[name]
	if !ok {
		return nil
	}
	return r.Members()
}

// Broadcast queues an event for every member of the named room.
func (d *Directory) Broadcast(name string, ev *Event) {
	if r, ok := d.rooms[name]; ok {
		r.Broadcast(ev)
	}
}

// Rooms summarises every known room, sorted by name.
func (d *Directory) Rooms() []RoomInfo {
	out := make([]RoomInfo, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, RoomInfo{Name: r.Name, Members: r.Len(), History: r.history.Len()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Has reports whether the room exists.
func (d *Directory) Has(name string) bool {
	_, ok := d.rooms[name]
	return ok
}
