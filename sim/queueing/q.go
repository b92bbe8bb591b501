// Package queueing provides the queue that connects producer and consumer
// processes.
package queueing

import (
	"fmt"

	"github.com/sarchlab/desim/sim/hooking"
	"github.com/sarchlab/desim/sim/process"
	"github.com/sirupsen/logrus"
)

// HookPosQPut marks when an item enters a queue or is handed to a waiting
// taker.
var HookPosQPut = &hooking.HookPos{Name: "Q Put"}

// HookPosQTake marks when an item leaves a queue.
var HookPosQTake = &hooking.HookPos{Name: "Q Take"}

type waiter[T any] struct {
	proc *process.Process
	item T
}

// Q is a FIFO queue. Processes block on Take while the queue is empty and on
// Put while a bounded queue is full. Blocked processes are served in the order
// they arrived. An item is delivered to exactly one taker.
type Q[T any] struct {
	hooking.HookableBase

	name     string
	capacity int
	logger   logrus.FieldLogger

	items   []T
	takers  []waiter[T]
	putters []waiter[T]
}

// NewQ creates an unbounded queue.
func NewQ[T any](name string) *Q[T] {
	return &Q[T]{
		name:   name,
		logger: logrus.StandardLogger(),
	}
}

// NewBoundedQ creates a queue that holds at most capacity items. It panics if
// capacity is not positive.
func NewBoundedQ[T any](name string, capacity int) *Q[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("queue %s: capacity must be positive, got %d",
			name, capacity))
	}

	q := NewQ[T](name)
	q.capacity = capacity

	return q
}

// WithLogger sets the logger of the queue.
func (q *Q[T]) WithLogger(logger logrus.FieldLogger) *Q[T] {
	q.logger = logger
	return q
}

// Name returns the name of the queue.
func (q *Q[T]) Name() string {
	return q.name
}

// Capacity returns the maximum number of stored items, or 0 if the queue is
// unbounded.
func (q *Q[T]) Capacity() int {
	return q.capacity
}

// NumItems returns the number of stored items.
func (q *Q[T]) NumItems() int {
	return len(q.items)
}

// NumWaitingTakers returns the number of processes blocked in Take.
func (q *Q[T]) NumWaitingTakers() int {
	return countLive(q.takers)
}

// NumWaitingPutters returns the number of processes blocked in Put.
func (q *Q[T]) NumWaitingPutters() int {
	return countLive(q.putters)
}

// Put adds an item to the queue on behalf of process p. If a process is
// waiting in Take, the item goes directly to the longest waiting one. If the
// queue is full, p blocks until a slot frees up.
func (q *Q[T]) Put(p *process.Process, item T) {
	if q.handOver(item) {
		return
	}

	if q.full() {
		q.putters = append(q.putters, waiter[T]{proc: p, item: item})
		p.Suspend()

		return
	}

	q.store(item)
}

// TryPut adds an item without blocking. It returns false if the queue is
// full.
func (q *Q[T]) TryPut(item T) bool {
	if q.handOver(item) {
		return true
	}

	if q.full() {
		return false
	}

	q.store(item)

	return true
}

// Take removes the head of the queue on behalf of process p. If the queue is
// empty, p blocks until an item is put.
func (q *Q[T]) Take(p *process.Process) T {
	if item, ok := q.TryTake(); ok {
		return item
	}

	q.takers = append(q.takers, waiter[T]{proc: p})
	item, _ := p.Suspend().(T)

	return item
}

// TryTake removes the head of the queue without blocking. It returns false if
// the queue is empty.
func (q *Q[T]) TryTake() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}

	item := q.items[0]
	q.items = q.items[1:]
	q.invoke(HookPosQTake, item)

	q.admitPutter()

	return item, true
}

func (q *Q[T]) full() bool {
	return q.capacity > 0 && len(q.items) >= q.capacity
}

func (q *Q[T]) store(item T) {
	q.items = append(q.items, item)
	q.invoke(HookPosQPut, item)
}

func (q *Q[T]) handOver(item T) bool {
	for len(q.takers) > 0 {
		w := q.takers[0]
		q.takers = q.takers[1:]

		if !q.wake(w.proc, item, func() { q.giveBack(item) }) {
			continue
		}

		q.invoke(HookPosQPut, item)
		q.invoke(HookPosQTake, item)

		return true
	}

	return false
}

// giveBack returns an item whose taker was killed before receiving it. The
// item goes to the next waiting taker or back to the head of the queue.
func (q *Q[T]) giveBack(item T) {
	q.logger.WithFields(logrus.Fields{
		"queue": q.name,
	}).Debug("taker killed before receiving item, giving it back")

	if q.handOver(item) {
		return
	}

	q.items = append([]T{item}, q.items...)
	q.invoke(HookPosQPut, item)
}

func (q *Q[T]) admitPutter() {
	for len(q.putters) > 0 {
		w := q.putters[0]
		q.putters = q.putters[1:]

		if !q.wake(w.proc, nil, nil) {
			continue
		}

		q.store(w.item)

		return
	}
}

func (q *Q[T]) wake(p *process.Process, value any, reclaim func()) bool {
	if p.State() == process.Terminated {
		q.logger.WithFields(logrus.Fields{
			"queue":   q.name,
			"process": p.Name(),
		}).Debug("skipping terminated waiter")

		return false
	}

	if err := p.WakeWithReclaim(value, reclaim); err != nil {
		q.logger.WithFields(logrus.Fields{
			"queue":   q.name,
			"process": p.Name(),
		}).WithError(err).Warn("cannot wake waiter")

		return false
	}

	return true
}

func (q *Q[T]) invoke(pos *hooking.HookPos, item T) {
	if q.NumHooks() == 0 {
		return
	}

	q.InvokeHook(hooking.HookCtx{
		Domain: q,
		Pos:    pos,
		Item:   item,
	})
}

func countLive[T any](ws []waiter[T]) int {
	n := 0

	for _, w := range ws {
		if w.proc.State() != process.Terminated {
			n++
		}
	}

	return n
}
