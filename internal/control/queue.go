package control

import (
	"sync/atomic"

	"github.com/GeoffreyPlitt/debuggo"
)

var queueDebug = debuggo.Debug("stepper:control")

// DefaultQueueSize is the capacity used when none is given.
const DefaultQueueSize = 1024

// Queue is a bounded single-producer single-consumer ring. Push is called by
// the control thread and Pop by the audio thread; neither blocks.
type Queue struct {
	buf     []Event
	mask    uint64
	head    atomic.Uint64 // next slot to read
	tail    atomic.Uint64 // next slot to write
	dropped atomic.Uint64
}

// NewQueue rounds size up to a power of two.
func NewQueue(size int) *Queue {
	if size < 2 {
		size = DefaultQueueSize
	}
	n := 1
	for n < size {
		n <<= 1
	}
	return &Queue{buf: make([]Event, n), mask: uint64(n - 1)}
}

// Cap returns the number of events the queue holds when full.
func (q *Queue) Cap() int { return len(q.buf) }

// Len returns the number of queued events.
func (q *Queue) Len() int { return int(q.tail.Load() - q.head.Load()) }

// Push enqueues ev. A full queue drops the event and returns false.
func (q *Queue) Push(ev Event) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() == uint64(len(q.buf)) {
		n := q.dropped.Add(1)
		queueDebug("queue full, dropped %s (total %d)", ev.Kind, n)
		return false
	}
	q.buf[tail&q.mask] = ev
	q.tail.Store(tail + 1)
	return true
}

// Pop dequeues the oldest event.
func (q *Queue) Pop() (Event, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return Event{}, false
	}
	ev := q.buf[head&q.mask]
	q.head.Store(head + 1)
	return ev, true
}

// Drain pops every queued event into fn, oldest first.
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

// Dropped returns how many events were discarded because the queue was full.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
