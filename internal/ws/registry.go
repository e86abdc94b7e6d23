// README: In-memory registry of live sessions and their channel memberships.
package ws

import (
	"sync"

	"fleetwatch/internal/metrics"
)

// Registry owns all live-session state: no ambient globals, every membership
// change goes through it under one lock. Channels are created lazily on first
// join and deleted at zero membership; joining or leaving a name that does
// not exist is not an error.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	channels map[string]map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		channels: make(map[string]map[string]*Session),
	}
}

// Add registers a session with an empty membership set.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	metrics.SessionsConnected.Inc()
}

// Remove drops the session and all its channel memberships in one step.
// In-flight messages already queued to it are dropped silently.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	_, known := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	for name, members := range r.channels {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.channels, name)
		}
	}
	r.mu.Unlock()
	if known {
		metrics.SessionsConnected.Dec()
	}
}

func (r *Registry) Join(sessionID, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	members, ok := r.channels[channel]
	if !ok {
		members = make(map[string]*Session)
		r.channels[channel] = members
	}
	members[sessionID] = s
}

func (r *Registry) Leave(sessionID, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.channels[channel]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.channels, channel)
	}
}

// Members snapshots the sessions joined to a channel at call time.
func (r *Registry) Members(channel string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.channels[channel]
	out := make([]*Session, 0, len(members))
	for _, s := range members {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
