package serial

import (
	"sync"

	"github.com/petermattis/goid"
)

// Queue runs tasks one at a time, in order. Only one goroutine drains the
// queue at a time; a task submitted from the draining goroutine itself (a
// reentrant call from inside a notification) is appended and runs once the
// current task returns, so delivery order always matches submission order.
type Queue struct {
	turn sync.Mutex

	mu    sync.Mutex
	owner int64
	tasks []func()
}

func New() *Queue {
	return &Queue{}
}

// Do submits fn. Called from outside the queue it blocks until fn and every
// task queued behind it have run. Called from inside a running task it only
// enqueues fn and returns.
func (q *Queue) Do(fn func()) {
	gid := goid.Get()

	q.mu.Lock()
	if q.owner == gid {
		q.tasks = append(q.tasks, fn)
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	q.drain(gid, fn)
}

// Sync runs fn now. From inside a running task fn runs inline; otherwise the
// caller waits for its turn, runs fn, then drains whatever fn enqueued.
func (q *Queue) Sync(fn func()) {
	gid := goid.Get()

	q.mu.Lock()
	if q.owner == gid {
		q.mu.Unlock()
		fn()
		return
	}
	q.mu.Unlock()

	q.drain(gid, fn)
}

// Owned reports whether the calling goroutine is currently draining q.
func (q *Queue) Owned() bool {
	gid := goid.Get()
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.owner == gid
}

func (q *Queue) drain(gid int64, first func()) {
	q.turn.Lock()
	q.mu.Lock()
	q.owner = gid

	defer func() {
		q.mu.Lock()
		q.owner = 0
		// a panicking task abandons whatever it queued
		q.tasks = nil
		q.mu.Unlock()
		q.turn.Unlock()
	}()

	q.tasks = append([]func(){first}, q.tasks...)
	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		task()

		q.mu.Lock()
	}
	q.mu.Unlock()
}
