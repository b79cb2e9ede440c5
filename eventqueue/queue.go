// Package eventqueue provides the FIFO of deferred actions that background
// goroutines use to hand work to the main loop.
//
// Any goroutine may Enqueue. Only the goroutine running the main loop may
// call DrainAll.
package eventqueue

import (
	"runtime/debug"
	"sync"

	"github.com/user-none/consolehost/logger"
)

// compactThreshold is how many consumed slots may accumulate at the front
// of the buffer before it is shifted down.
const compactThreshold = 64

// Option configures a Queue.
type Option func(*Queue)

// WithPanicHandler registers a function called with the recovered value
// whenever an action panics. It runs on the draining goroutine after the
// panic has been logged.
func WithPanicHandler(fn func(v any)) Option {
	return func(q *Queue) {
		q.onPanic = fn
	}
}

// Queue is an unbounded, mutex-guarded FIFO of actions.
type Queue struct {
	mu      sync.Mutex
	actions []func()
	head    int // index of the next action to pop

	onPanic func(v any)
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends fn to the tail of the queue. It never blocks beyond lock
// contention and never fails. A nil fn is ignored.
func (q *Queue) Enqueue(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.actions = append(q.actions, fn)
	q.mu.Unlock()
}

// DrainAll pops and runs actions until the queue is observed empty and
// returns how many ran. The lock is held only while popping, so actions may
// Enqueue more work; that work runs in this call or the next one.
func (q *Queue) DrainAll() int {
	n := 0
	for {
		fn, ok := q.pop()
		if !ok {
			return n
		}
		q.run(fn)
		n++
	}
}

// Len returns the number of actions waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions) - q.head
}

// pop removes the head action. Emptiness is always checked under the lock.
func (q *Queue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.actions) {
		return nil, false
	}

	fn := q.actions[q.head]
	q.actions[q.head] = nil
	q.head++

	if q.head == len(q.actions) {
		// reuse the backing array from the start
		q.actions = q.actions[:0]
		q.head = 0
	} else if q.head >= compactThreshold && q.head*2 >= len(q.actions) {
		m := copy(q.actions, q.actions[q.head:])
		clear(q.actions[m:])
		q.actions = q.actions[:m]
		q.head = 0
	}

	return fn, true
}

// run executes fn, containing any panic so the rest of the queue drains.
func (q *Queue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFunc("eventqueue.DrainAll").Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("queued action panicked")
			if q.onPanic != nil {
				q.onPanic(r)
			}
		}
	}()
	fn()
}
