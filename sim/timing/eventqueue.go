package timing

import (
	"container/heap"
	"sync"
)

// EventQueue is a queue of events ordered by (time, priority, sequence).
type EventQueue interface {
	Push(evt *Event)
	Pop() *Event
	Peek() *Event
	Remove(evt *Event) bool
	Len() int
	Clear() []*Event
}

// EventQueueImpl provides a thread safe event queue.
type EventQueueImpl struct {
	sync.Mutex
	events eventHeap
}

// NewEventQueue creates and returns a newly created EventQueue.
func NewEventQueue() *EventQueueImpl {
	q := new(EventQueueImpl)
	q.events = make([]*Event, 0)
	heap.Init(&q.events)

	return q
}

// Push adds an event to the event queue.
func (q *EventQueueImpl) Push(evt *Event) {
	q.Lock()
	heap.Push(&q.events, evt)
	q.Unlock()
}

// Pop removes and returns the next event. It returns nil if the queue is
// empty.
func (q *EventQueueImpl) Pop() *Event {
	q.Lock()
	defer q.Unlock()

	if q.events.Len() == 0 {
		return nil
	}

	return heap.Pop(&q.events).(*Event)
}

// Peek returns the next event without removing it from the queue. It returns
// nil if the queue is empty.
func (q *EventQueueImpl) Peek() *Event {
	q.Lock()
	defer q.Unlock()

	if q.events.Len() == 0 {
		return nil
	}

	return q.events[0]
}

// Remove takes a queued event out of the queue. It returns false if the event
// is not in the queue.
func (q *EventQueueImpl) Remove(evt *Event) bool {
	q.Lock()
	defer q.Unlock()

	if evt.index < 0 || evt.index >= len(q.events) || q.events[evt.index] != evt {
		return false
	}

	heap.Remove(&q.events, evt.index)

	return true
}

// Len returns the number of event in the queue.
func (q *EventQueueImpl) Len() int {
	q.Lock()
	defer q.Unlock()

	return q.events.Len()
}

// Clear drops all the queued events and returns them in no particular order.
func (q *EventQueueImpl) Clear() []*Event {
	q.Lock()
	defer q.Unlock()

	dropped := q.events
	for _, evt := range dropped {
		evt.index = -1
	}

	q.events = make([]*Event, 0)

	return dropped
}

type eventHeap []*Event

// Len returns the length of the event queue.
func (h eventHeap) Len() int {
	return len(h)
}

// Less determines the order between two events. Less returns true if the i-th
// event happens before the j-th event.
func (h eventHeap) Less(i, j int) bool {
	return h[i].before(h[j])
}

// Swap changes the position of two events in the event queue.
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

// Push adds an event into the event queue.
func (h *eventHeap) Push(x any) {
	evt := x.(*Event)
	evt.index = len(*h)
	*h = append(*h, evt)
}

// Pop removes and returns the next event to happen.
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	evt := old[n-1]
	old[n-1] = nil
	evt.index = -1
	*h = old[0 : n-1]

	return evt
}
