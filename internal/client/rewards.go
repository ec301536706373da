package client

import "sync"

// Reward is one pending popup announcement: an item pickup or a hint
// reveal. Rewards are client-local only; each client shows a popup
// just for the solves it triggered itself.
type Reward struct {
	Type        string
	Title       string
	Description string
	Icon        string
}

// RewardQueue sequences reward popups one at a time. It is built per
// game screen and injected into the widgets that need it, not shared
// process-wide.
type RewardQueue struct {
	mu      sync.Mutex
	current *Reward
	pending []Reward
}

func NewRewardQueue() *RewardQueue {
	return &RewardQueue{}
}

// AddReward shows the reward immediately when nothing is on screen,
// otherwise queues it behind the current one.
func (q *RewardQueue) AddReward(r Reward) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		q.current = &r
		return
	}
	q.pending = append(q.pending, r)
}

// ShowNext dismisses the current reward and promotes the next queued
// one, if any.
func (q *RewardQueue) ShowNext() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		q.current = nil
		return
	}
	next := q.pending[0]
	q.pending = q.pending[1:]
	q.current = &next
}

// Current returns the reward on screen, if any.
func (q *RewardQueue) Current() (Reward, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return Reward{}, false
	}
	return *q.current, true
}

// Pending reports how many rewards wait behind the current one.
func (q *RewardQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
