package feed

import (
	"sync/atomic"

	"github.com/d60-Lab/linkup/internal/changefeed"
)

// Counter counts unseen notification inserts for one viewer. It only ever
// goes up; the notifications view resets it when the user looks at the list.
type Counter struct {
	viewerID string
	n        atomic.Int64
}

// OnEvent is the bus callback for the notifications topic. Non-insert kinds
// and other viewers' notifications are ignored.
func (c *Counter) OnEvent(ev changefeed.Event) {
	if ev.Kind != changefeed.KindInsert {
		return
	}
	rec, err := ev.DecodeNotification()
	if err != nil || rec.ReceiverID != c.viewerID {
		return
	}
	c.n.Add(1)
}

func (c *Counter) Value() int64 { return c.n.Load() }

func (c *Counter) Reset() { c.n.Store(0) }
