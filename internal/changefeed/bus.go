package changefeed

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/linkup/pkg/logger"
)

const channelPrefix = "changefeed:"

// Handler consumes one event. Handlers run on the subscription's own
// goroutine and must not block.
type Handler func(Event)

// Filter drops events before they reach the handler. nil admits everything.
type Filter func(Event) bool

// Bus is a change-notification transport over Redis Pub/Sub. It makes no
// ordering guarantee relative to store fetches or between topics.
type Bus struct {
	rdb *redis.Client
}

func NewBus(rdb *redis.Client) *Bus { return &Bus{rdb: rdb} }

// Publish broadcasts ev to all current subscribers of its topic.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channelPrefix+ev.Topic, payload).Err()
}

// Subscribe registers h for events on topic. Events published strictly after
// Subscribe returns are delivered; earlier ones are not.
func (b *Bus) Subscribe(ctx context.Context, topic string, filter Filter, h Handler) (*Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channelPrefix+topic)
	// 等订阅确认，保证返回后发布的事件必达
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &Subscription{ps: ps, done: make(chan struct{})}
	go sub.loop(filter, h)
	return sub, nil
}

// Subscription is a live handler registration. Close stops delivery.
type Subscription struct {
	ps   *redis.PubSub
	done chan struct{}
}

func (s *Subscription) loop(filter Filter, h Handler) {
	defer close(s.done)
	for msg := range s.ps.Channel() {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			logger.Warn("changefeed: drop malformed event", zap.Error(err))
			continue
		}
		if filter != nil && !filter(ev) {
			continue
		}
		h(ev)
	}
}

// Close unsubscribes and waits for the delivery goroutine to exit.
func (s *Subscription) Close() error {
	err := s.ps.Close()
	<-s.done
	return err
}
