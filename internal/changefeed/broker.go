package changefeed

import "sync"

// Broker owns one buffer per live session code and is the single
// fan-out point between coordinator writes and connected clients.
type Broker struct {
	mu      sync.Mutex
	size    int
	buffers map[string]*buffer
}

func NewBroker(bufferSize int) *Broker {
	return &Broker{
		size:    bufferSize,
		buffers: map[string]*buffer{},
	}
}

func (br *Broker) bufferFor(code string) *buffer {
	br.mu.Lock()
	defer br.mu.Unlock()
	b, ok := br.buffers[code]
	if !ok {
		b = newBuffer(br.size)
		br.buffers[code] = b
	}
	return b
}

// Publish appends an event to the session's feed and wakes watchers.
// Revision is zero for non-session events.
func (br *Broker) Publish(kind Kind, code string, revision int64, data any) Event {
	return br.bufferFor(code).append(kind, code, revision, data)
}

// ReplayAfter returns the retained events newer than lastEventID, or
// everything retained when the id is empty or unparsable.
func (br *Broker) ReplayAfter(code, lastEventID string) []Event {
	return br.bufferFor(code).replayAfter(lastEventID)
}

// Subscription is the live handle of one subscriber. Events arrive in
// commit order for the session; the channel closes when the session is
// dropped or the subscription is closed.
type Subscription struct {
	Events <-chan Event
	buf    *buffer
	ch     chan Event
}

func (s *Subscription) Close() {
	s.buf.unsubscribe(s.ch)
}

// Subscribe registers a watcher on the session's feed. One
// subscription per mounted game screen; closing it releases the
// channel.
func (br *Broker) Subscribe(code string) *Subscription {
	b := br.bufferFor(code)
	ch := b.subscribe()
	return &Subscription{Events: ch, buf: b, ch: ch}
}

// Drop closes the session's feed and releases every watcher. Called on
// session teardown.
func (br *Broker) Drop(code string) {
	br.mu.Lock()
	b, ok := br.buffers[code]
	delete(br.buffers, code)
	br.mu.Unlock()
	if ok {
		b.close()
	}
}
