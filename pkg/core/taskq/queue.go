// Package taskq provides the FIFO queues the scheduler keeps pending chunks and idle peers in.
package taskq

import "sync"

// Queue is a FIFO safe for concurrent use. The zero value is ready.
type Queue[T any] struct {
    mu   sync.Mutex
    q    []T
    head int
}

func New[T any](items ...T) *Queue[T] {
    q := &Queue[T]{}
    for _, it := range items { q.PushBack(it) }
    return q
}

// PushBack appends v at the tail.
func (q *Queue[T]) PushBack(v T) {
    q.mu.Lock()
    q.q = append(q.q, v)
    q.mu.Unlock()
}

// PopFront removes and returns the head item, false when empty.
func (q *Queue[T]) PopFront() (T, bool) {
    q.mu.Lock()
    defer q.mu.Unlock()
    var zero T
    if q.head == len(q.q) { return zero, false }
    v := q.q[q.head]
    q.q[q.head] = zero
    q.head++
    // compact once the consumed prefix dominates
    if q.head == len(q.q) {
        q.q = q.q[:0]; q.head = 0
    } else if q.head > 32 && q.head*2 > len(q.q) {
        n := copy(q.q, q.q[q.head:])
        clear(q.q[n:])
        q.q = q.q[:n]; q.head = 0
    }
    return v, true
}

func (q *Queue[T]) Len() int {
    q.mu.Lock(); defer q.mu.Unlock()
    return len(q.q) - q.head
}
