package services

import (
	"sync"

	"trustcast/internal/models"
)

const (
	// NotificationCapacity bounds the notifications kept for the dashboard.
	NotificationCapacity = 50
	// JournalCapacity bounds the in-process audit journal.
	JournalCapacity = 1000
)

// ring keeps the most recent items, oldest evicted first.
type ring[T any] struct {
	mu    sync.Mutex
	items []T
	next  int
	full  bool
}

func newRing[T any](capacity int) *ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &ring[T]{items: make([]T, capacity)}
}

func newNotificationRing(capacity int) *ring[models.Notification] {
	return newRing[models.Notification](capacity)
}

func (r *ring[T]) add(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = item
	r.next = (r.next + 1) % len(r.items)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring[T]) size() int {
	if r.full {
		return len(r.items)
	}
	return r.next
}

// recent returns the stored items, newest first.
func (r *ring[T]) recent() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.size()
	out := make([]T, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, r.items[(r.next-i+len(r.items))%len(r.items)])
	}
	return out
}

// chronological returns the stored items, oldest first.
func (r *ring[T]) chronological() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.size()
	start := (r.next - count + len(r.items)) % len(r.items)
	out := make([]T, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, r.items[(start+i)%len(r.items)])
	}
	return out
}
