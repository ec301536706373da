package client

import "testing"

func TestRewardQueueShowsFirstImmediately(t *testing.T) {
	q := NewRewardQueue()
	if _, ok := q.Current(); ok {
		t.Fatal("fresh queue has a current reward")
	}

	q.AddReward(Reward{Type: "item", Title: "UV lamp"})
	cur, ok := q.Current()
	if !ok || cur.Title != "UV lamp" {
		t.Fatalf("current = %+v, ok=%v", cur, ok)
	}
	if q.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", q.Pending())
	}
}

func TestRewardQueueFIFO(t *testing.T) {
	q := NewRewardQueue()
	q.AddReward(Reward{Type: "item", Title: "first"})
	q.AddReward(Reward{Type: "hint", Title: "second"})
	q.AddReward(Reward{Type: "item", Title: "third"})

	want := []string{"first", "second", "third"}
	for _, title := range want {
		cur, ok := q.Current()
		if !ok || cur.Title != title {
			t.Fatalf("current = %+v, want %q", cur, title)
		}
		q.ShowNext()
	}
	if _, ok := q.Current(); ok {
		t.Fatal("queue not empty after draining")
	}
}

func TestShowNextOnEmptyQueue(t *testing.T) {
	q := NewRewardQueue()
	q.ShowNext()
	if _, ok := q.Current(); ok {
		t.Fatal("ShowNext on empty queue produced a reward")
	}
}
