// File: conn/lock.go
// Package conn implements the per-connection state machine and its
// acquire lock.
// Author: momentics <momentics@gmail.com>
//
// acquireLock is a fair, timeout-bounded mutex: the reader loop grabs it
// with a short budget every iteration, while the callback dispatcher
// grabs it with the configured callback-acquire timeout. Waiters queue
// in FIFO order via github.com/eapache/queue, guarded throughout by mu
// since eapache/queue's Queue is documented as not safe for concurrent
// use on its own.
package conn

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
)

type acquireLock struct {
	mu       sync.Mutex
	held     bool
	waiters  *queue.Queue
	tryCount atomic.Int64
}

func newAcquireLock() *acquireLock {
	return &acquireLock{waiters: queue.New()}
}

// TryAcquire blocks up to timeout for exclusive ownership of the wire.
// On timeout it returns false without side effects.
func (l *acquireLock) TryAcquire(timeout time.Duration) bool {
	l.tryCount.Add(1)
	defer l.tryCount.Add(-1)

	l.mu.Lock()
	if !l.held {
		l.held = true
		l.mu.Unlock()
		return true
	}
	ch := make(chan struct{})
	l.waiters.Add(ch)
	l.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		l.mu.Lock()
		if removeWaiter(l.waiters, ch) {
			l.mu.Unlock()
			return false
		}
		l.mu.Unlock()
		// Release already popped us concurrently; we own the lock even
		// though we raced the timer. Drain the now-closed channel.
		<-ch
		return true
	}
}

// Release hands ownership to the next FIFO waiter, or marks the lock free.
func (l *acquireLock) Release() {
	l.mu.Lock()
	if l.waiters.Length() > 0 {
		next := l.waiters.Remove().(chan struct{})
		l.mu.Unlock()
		close(next)
		return
	}
	l.held = false
	l.mu.Unlock()
}

// WaitIdle spins until no goroutine is mid-TryAcquire, the fence a
// teardown must wait on before a connection's lock is discarded: the
// lock must outlive its last attempted acquisition.
func (l *acquireLock) WaitIdle() {
	for l.tryCount.Load() > 0 {
		time.Sleep(time.Millisecond)
	}
}

// removeWaiter removes target from q if present, preserving the order
// of the remaining entries. eapache/queue has no direct removal API, so
// this drains and re-adds everything but the match.
func removeWaiter(q *queue.Queue, target chan struct{}) bool {
	n := q.Length()
	found := false
	for i := 0; i < n; i++ {
		v := q.Remove().(chan struct{})
		if !found && v == target {
			found = true
			continue
		}
		q.Add(v)
	}
	return found
}
