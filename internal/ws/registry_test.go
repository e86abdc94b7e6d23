package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleetwatch/internal/auth"
)

func newTestSession(id string) *Session {
	return &Session{
		ID:     id,
		Claims: auth.Claims{Subject: id, Role: auth.RoleObserver},
		send:   make(chan []byte, sendBuffer),
		log:    zap.NewNop(),
		closed: make(chan struct{}),
	}
}

func TestRegistryJoinCreatesChannelLazily(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("s1")
	r.Add(s)

	require.Empty(t, r.Members("watch:zone-3"))

	r.Join(s.ID, "watch:zone-3")
	members := r.Members("watch:zone-3")
	require.Len(t, members, 1)
	assert.Equal(t, "s1", members[0].ID)
}

func TestRegistryJoinUnknownSessionIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Join("ghost", ChannelPublic)
	assert.Empty(t, r.Members(ChannelPublic))
}

func TestRegistryLeaveDropsEmptyChannel(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("s1")
	r.Add(s)
	r.Join(s.ID, ChannelPublic)
	r.Leave(s.ID, ChannelPublic)

	assert.Empty(t, r.Members(ChannelPublic))
	// Leaving twice, or leaving a channel that never existed, must not panic.
	r.Leave(s.ID, ChannelPublic)
	r.Leave(s.ID, "never-joined")
}

func TestRegistryRemoveDropsAllMemberships(t *testing.T) {
	r := NewRegistry()
	s1 := newTestSession("s1")
	s2 := newTestSession("s2")
	r.Add(s1)
	r.Add(s2)
	r.Join(s1.ID, ChannelPublic)
	r.Join(s1.ID, ChannelAdmin)
	r.Join(s2.ID, ChannelPublic)

	r.Remove(s1.ID)

	assert.Empty(t, r.Members(ChannelAdmin))
	members := r.Members(ChannelPublic)
	require.Len(t, members, 1)
	assert.Equal(t, "s2", members[0].ID)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRemoveUnknownSession(t *testing.T) {
	r := NewRegistry()
	r.Remove("ghost")
	assert.Equal(t, 0, r.Len())
}
