package changefeed

import (
	"strconv"
	"sync"
	"time"
)

// Kind is a row-change event class on the feed.
type Kind string

const (
	// KindSessionUpdated carries the full new session state image and
	// its revision.
	KindSessionUpdated Kind = "session_updated"
	KindPlayerJoined   Kind = "player_joined"
	// KindPlayerUpdated and KindPlayerDisconnected are the same
	// underlying row update, split on the is_connected field of the
	// payload so subscribers don't have to inspect it.
	KindPlayerUpdated      Kind = "player_updated"
	KindPlayerDisconnected Kind = "player_disconnected"
	KindChatMessage        Kind = "chat_message"
)

// Event is one feed entry. EventID is a per-session monotonic counter
// rendered as a string so it doubles as an SSE Last-Event-ID.
type Event struct {
	EventID     string `json:"event_id"`
	Kind        Kind   `json:"kind"`
	SessionCode string `json:"session_code"`
	ServerTS    int64  `json:"server_ts"`
	Revision    int64  `json:"revision,omitempty"`
	Data        any    `json:"data"`
}

// buffer retains the most recent events of one session and fans new
// ones out to live watchers. Events arrive in the order their store
// commits completed; the ring bounds replay depth.
type buffer struct {
	mu       sync.Mutex
	nextID   int64
	max      int
	events   []Event
	watchers map[chan Event]struct{}
	closed   bool
}

func newBuffer(max int) *buffer {
	if max <= 0 {
		max = 500
	}
	return &buffer{
		max:      max,
		watchers: map[chan Event]struct{}{},
	}
}

func (b *buffer) append(kind Kind, code string, revision int64, data any) Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Event{}
	}
	b.nextID++
	ev := Event{
		EventID:     strconv.FormatInt(b.nextID, 10),
		Kind:        kind,
		SessionCode: code,
		ServerTS:    time.Now().UnixMilli(),
		Revision:    revision,
		Data:        data,
	}
	b.events = append(b.events, ev)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
	for ch := range b.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

func (b *buffer) replayAfter(lastEventID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if lastEventID == "" || err != nil {
		out := make([]Event, len(b.events))
		copy(out, b.events)
		return out
	}
	out := make([]Event, 0, len(b.events))
	for _, ev := range b.events {
		id, _ := strconv.ParseInt(ev.EventID, 10, 64)
		if id > last {
			out = append(out, ev)
		}
	}
	return out
}

func (b *buffer) subscribe() chan Event {
	ch := make(chan Event, 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *buffer) unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(ch)
	}
}

func (b *buffer) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
		delete(b.watchers, ch)
	}
}
