package feed

import (
	"context"
	"sync"

	"github.com/d60-Lab/linkup/internal/cache"
	"github.com/d60-Lab/linkup/internal/changefeed"
	"github.com/d60-Lab/linkup/internal/repository"
)

// Manager opens and tracks feed sessions, one per active viewing context.
// Sessions do not share any mutable state.
type Manager struct {
	bus         *changefeed.Bus
	follows     repository.FollowRepository
	posts       repository.PostRepository
	profiles    *cache.ProfileCache
	pageSize    int
	eventBuffer int

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(bus *changefeed.Bus, follows repository.FollowRepository, posts repository.PostRepository,
	profiles *cache.ProfileCache, pageSize, eventBuffer int) *Manager {
	return &Manager{
		bus:         bus,
		follows:     follows,
		posts:       posts,
		profiles:    profiles,
		pageSize:    pageSize,
		eventBuffer: eventBuffer,
		sessions:    make(map[string]*Session),
	}
}

// Open creates a session for viewerID and wires its two subscriptions:
// all post changes, and notification inserts addressed to the viewer.
func (m *Manager) Open(ctx context.Context, viewerID string) (*Session, error) {
	s := newSession(viewerID, m.pageSize, m.eventBuffer, m.follows, m.posts, m.profiles)

	postSub, err := m.bus.Subscribe(ctx, changefeed.TopicPosts, nil, s.handlePostEvent)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.subs = append(s.subs, postSub)

	notifSub, err := m.bus.Subscribe(ctx, changefeed.TopicNotifications, func(ev changefeed.Event) bool {
		rec, err := ev.DecodeNotification()
		return err == nil && rec.ReceiverID == viewerID
	}, s.counter.OnEvent)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.subs = append(s.subs, notifSub)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears down one session.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// CloseAll tears down every session (server shutdown).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
