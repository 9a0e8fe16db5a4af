package link

import "sync/atomic"

// QueueSize is the capacity of a Queue. Must be a power of two.
const QueueSize = 16

// Queue is a single-producer single-consumer ring of events. The USB
// interrupt pushes and the main loop drains, so neither side takes a lock.
type Queue struct {
	buf  [QueueSize]Event
	head atomic.Uint32 // next slot to read, owned by the consumer
	tail atomic.Uint32 // next slot to write, owned by the producer
}

// Push appends ev. It returns false and drops ev when the queue is full.
func (q *Queue) Push(ev Event) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() == QueueSize {
		return false
	}
	q.buf[tail%QueueSize] = ev
	q.tail.Store(tail + 1)
	return true
}

// Pop removes the oldest event.
func (q *Queue) Pop() (Event, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return Event{}, false
	}
	ev := q.buf[head%QueueSize]
	q.head.Store(head + 1)
	return ev, true
}

// Drain hands every queued event to fn in arrival order and returns how many
// were handled.
func (q *Queue) Drain(fn func(Event)) int {
	n := 0
	for {
		ev, ok := q.Pop()
		if !ok {
			return n
		}
		fn(ev)
		n++
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}
