/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

// Package inflight implements a flexible waiting policy for outstanding
// work, used by the producer loop to block an epoch shutdown until every
// in-flight broker confirmation has landed.
package inflight

import (
	"sync"
	"sync/atomic"
)

// Tracker counts goroutines currently in flight and lets a caller block
// until the count returns to zero.
//
//	t := inflight.New()
//	t.Use()
//	go func() {
//	    defer t.Done()
//	    ...
//	}()
//	t.Wait()
//
// Not calling Done() will cause Wait() to never return.
type Tracker struct {
	usage int32
	lock  *sync.RWMutex
	cond  *sync.Cond
}

// New returns a new, empty Tracker.
func New() *Tracker {
	t := &Tracker{
		lock: &sync.RWMutex{},
	}
	t.cond = sync.NewCond(t.lock.RLocker())
	return t
}

// Use signals t that one more unit of work is outstanding.
func (t *Tracker) Use() {
	t.lock.Lock()
	atomic.AddInt32(&t.usage, 1)
	t.lock.Unlock()
}

// Done signals t that one unit of work has completed.
func (t *Tracker) Done() {
	broadcast := false

	t.lock.Lock()
	atomic.AddInt32(&t.usage, -1)
	if t.unused() {
		broadcast = true
	}
	t.lock.Unlock()

	if broadcast {
		t.cond.Broadcast()
	}
}

// Go runs f in a goroutine tracked by t.
func (t *Tracker) Go(f func()) {
	t.Use()
	go func(fn func()) {
		defer t.Done()
		fn()
	}(f)
}

// Wait blocks until every tracked unit of work has called Done.
func (t *Tracker) Wait() {
	t.cond.L.Lock()
	for !t.unused() {
		t.cond.Wait()
	}
	t.cond.L.Unlock()
}

func (t *Tracker) unused() bool {
	return atomic.LoadInt32(&t.usage) <= 0
}

// Count returns the current number of outstanding units of work.
func (t *Tracker) Count() int {
	n := atomic.LoadInt32(&t.usage)
	if n < 0 {
		return 0
	}
	return int(n)
}
