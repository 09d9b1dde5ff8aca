package changefeed

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewBus(rdb)
}

type eventSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *eventSink) handle(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *eventSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *eventSink) last() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	var sink eventSink
	sub, err := bus.Subscribe(ctx, TopicPosts, nil, sink.handle)
	require.NoError(t, err)
	defer sub.Close()

	raw, _ := json.Marshal(PostRecord{ID: "p1", AuthorID: "a1", Body: "hello"})
	require.NoError(t, bus.Publish(ctx, Event{Topic: TopicPosts, Kind: KindInsert, New: raw}))

	require.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	got := sink.last()
	require.Equal(t, KindInsert, got.Kind)
	rec, err := got.DecodePost()
	require.NoError(t, err)
	require.Equal(t, "p1", rec.ID)
	require.Equal(t, "a1", rec.AuthorID)
}

func TestBusTopicsAreIsolated(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	var posts, notifs eventSink
	postSub, err := bus.Subscribe(ctx, TopicPosts, nil, posts.handle)
	require.NoError(t, err)
	defer postSub.Close()
	notifSub, err := bus.Subscribe(ctx, TopicNotifications, nil, notifs.handle)
	require.NoError(t, err)
	defer notifSub.Close()

	raw, _ := json.Marshal(NotificationRecord{ID: "n1", ReceiverID: "u1", Title: "ping"})
	require.NoError(t, bus.Publish(ctx, Event{Topic: TopicNotifications, Kind: KindInsert, New: raw}))

	require.Eventually(t, func() bool { return notifs.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Zero(t, posts.count())
}

func TestBusFilterDropsEvents(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	var sink eventSink
	onlyU1 := func(ev Event) bool {
		rec, err := ev.DecodeNotification()
		return err == nil && rec.ReceiverID == "u1"
	}
	sub, err := bus.Subscribe(ctx, TopicNotifications, onlyU1, sink.handle)
	require.NoError(t, err)
	defer sub.Close()

	for _, receiver := range []string{"u2", "u1", "u3"} {
		raw, _ := json.Marshal(NotificationRecord{ID: "n-" + receiver, ReceiverID: receiver})
		require.NoError(t, bus.Publish(ctx, Event{Topic: TopicNotifications, Kind: KindInsert, New: raw}))
	}

	require.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	rec, err := sink.last().DecodeNotification()
	require.NoError(t, err)
	require.Equal(t, "u1", rec.ReceiverID)
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	var sink eventSink
	sub, err := bus.Subscribe(ctx, TopicPosts, nil, sink.handle)
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	raw, _ := json.Marshal(PostRecord{ID: "p1"})
	require.NoError(t, bus.Publish(ctx, Event{Topic: TopicPosts, Kind: KindInsert, New: raw}))

	time.Sleep(100 * time.Millisecond)
	require.Zero(t, sink.count())
}

func TestDecodePostFallsBackToOld(t *testing.T) {
	raw, _ := json.Marshal(PostRecord{ID: "gone"})
	ev := Event{Topic: TopicPosts, Kind: KindDelete, Old: raw}
	rec, err := ev.DecodePost()
	require.NoError(t, err)
	require.Equal(t, "gone", rec.ID)
}
