package app

import (
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
)

// feed fans leaderboard snapshots out to subscribers. Each subscriber sees
// snapshots in UpdatedAt order; an older snapshot never follows a newer one.
type feed struct {
	mu sync.Mutex
	// subscribers maps each channel to the UpdatedAt of the last snapshot it was sent.
	subscribers map[chan domain.Leaderboard]time.Time
	latest      *domain.Leaderboard
}

func newFeed() *feed {
	return &feed{subscribers: make(map[chan domain.Leaderboard]time.Time)}
}

// subscribe registers a channel without sending anything; callers follow up with offer.
func (f *feed) subscribe() (chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	f.mu.Lock()
	f.subscribers[ch] = time.Time{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// offer sends the first snapshot to ch, or the last broadcast one if that is newer.
// Nothing is sent if a broadcast already gave ch a snapshot at least as new.
func (f *feed) offer(ch chan domain.Leaderboard, lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest != nil && f.latest.UpdatedAt.After(lb.UpdatedAt) {
		lb = *f.latest
	} else {
		f.latest = &lb
	}
	if last := f.subscribers[ch]; !last.IsZero() && !lb.UpdatedAt.After(last) {
		return
	}
	f.deliverLocked(ch, lb)
}

func (f *feed) broadcast(lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil || !lb.UpdatedAt.Before(f.latest.UpdatedAt) {
		f.latest = &lb
	}
	for ch := range f.subscribers {
		f.deliverLocked(ch, lb)
	}
}

func (f *feed) deliverLocked(ch chan domain.Leaderboard, lb domain.Leaderboard) {
	last, ok := f.subscribers[ch]
	if !ok || lb.UpdatedAt.Before(last) {
		return
	}
	f.subscribers[ch] = lb.UpdatedAt
	select {
	case ch <- lb:
	default:
		// slow subscriber: drop its oldest snapshot so the latest always lands
		select {
		case <-ch:
		default:
		}
		ch <- lb
	}
}

func (f *feed) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
