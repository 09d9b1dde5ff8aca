package changefeed

import (
	"encoding/json"
	"time"
)

// Kind is the type of change an Event describes.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Watched topics. Topic names mirror the table names they shadow.
const (
	TopicPosts         = "posts"
	TopicNotifications = "notifications"
)

// Event is a single change notification. New carries the record state after
// the change (insert/update), Old the state before it (delete carries at
// least the id). Delivery is at-least-once and unordered relative to fetches.
type Event struct {
	Topic string          `json:"topic"`
	Kind  Kind            `json:"kind"`
	New   json.RawMessage `json:"new,omitempty"`
	Old   json.RawMessage `json:"old,omitempty"`
}

// PostRecord is the wire shape of a post inside an Event payload.
type PostRecord struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	File      string    `json:"file,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationRecord is the wire shape of a notification inside an Event payload.
type NotificationRecord struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Title      string `json:"title"`
	Data       string `json:"data,omitempty"`
}

// DecodePost decodes the event's payload as a post record, preferring New.
func (e Event) DecodePost() (*PostRecord, error) {
	raw := e.New
	if len(raw) == 0 {
		raw = e.Old
	}
	var rec PostRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DecodeNotification decodes the event's payload as a notification record.
func (e Event) DecodeNotification() (*NotificationRecord, error) {
	var rec NotificationRecord
	if err := json.Unmarshal(e.New, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
