// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package nexttick

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// Standard errors.
var (
	// ErrLoopAlreadyRunning is returned when Run is called on a loop that is
	// already running.
	ErrLoopAlreadyRunning = errors.New("nexttick: loop is already running")

	// ErrLoopTerminated is returned when Run is called on a loop that has
	// been closed.
	ErrLoopTerminated = errors.New("nexttick: loop has been terminated")
)

// Loop states.
const (
	loopIdle int32 = iota
	loopRunning
	loopTerminated
)

// Loop is a minimal single-goroutine run loop, the reference [Runtime]. It
// implements every optional capability - [MicrotaskHost], [ObserverHost],
// [ImmediateHost], and [QuirkHost] - so a [Scheduler] bound to it selects
// the microtask strategy unless quirks are configured.
//
// Task priority within each turn:
//
//  1. Expired timers, earliest deadline first
//  2. Immediates ([Loop.ScheduleImmediate])
//  3. External tasks ([Loop.Submit])
//
// Microtasks are drained after every individual task, so a microtask always
// runs before the next macrotask that was queued when it was scheduled.
//
// Scheduling methods are safe to call from any goroutine; callbacks always
// execute on the goroutine that called [Loop.Run]. Callbacks scheduled on a
// terminated loop are silently dropped, consistent with the "eventually
// invoke exactly once, absent termination" contract of [Runtime].
type Loop struct {
	// Prevent copying
	_ [0]func()

	quirks Quirk

	// Wake-up mechanism: non-blocking send, capacity 1.
	wake chan struct{}

	// Closed by Close to interrupt Run.
	closed    chan struct{}
	closeOnce sync.Once

	state atomic.Int32

	mu         sync.Mutex
	micro      []func()
	immediates []func()
	external   []func()
	timers     *redblacktree.Tree // timerKey -> func()
	timerSeq   uint64
}

// timerKey orders the timer tree by deadline, then submission order.
type timerKey struct {
	when time.Time
	seq  uint64
}

func timerKeyComparator(a, b any) int {
	ka, kb := a.(timerKey), b.(timerKey)
	switch {
	case ka.when.Before(kb.when):
		return -1
	case ka.when.After(kb.when):
		return 1
	case ka.seq < kb.seq:
		return -1
	case ka.seq > kb.seq:
		return 1
	default:
		return 0
	}
}

// LoopOption configures a [Loop] instance.
type LoopOption func(*Loop)

// WithQuirks declares known host defects on the loop, constraining the
// strategy selection of schedulers bound to it. Primarily useful for
// simulating defective hosts, e.g. in tests of strategy fallback.
func WithQuirks(quirks Quirk) LoopOption {
	return func(l *Loop) {
		l.quirks = quirks
	}
}

// NewLoop creates a new run loop. Call [Loop.Run] to start it.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		closed: make(chan struct{}),
		timers: redblacktree.NewWith(timerKeyComparator),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Run runs the loop and blocks until it terminates, via [Loop.Close] or ctx
// cancellation. Pending callbacks at termination are dropped.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(loopIdle, loopRunning) {
		if l.state.Load() == loopTerminated {
			return ErrLoopTerminated
		}
		return ErrLoopAlreadyRunning
	}
	defer l.state.Store(loopTerminated)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.closed:
			return nil
		default:
		}

		l.runTimers()
		l.runTasks(&l.immediates)
		l.runTasks(&l.external)
		l.drainMicrotasks()

		if err := l.sleep(ctx); err != nil {
			return err
		}
	}
}

// Close terminates the loop, interrupting Run. Safe to call from a callback
// or any other goroutine, and more than once.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.closed)
	})
}

// Submit schedules fn as an external macrotask. Safe from any goroutine.
func (l *Loop) Submit(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.external = append(l.external, fn)
	l.mu.Unlock()
	l.wakeLoop()
}

// ScheduleMicrotask schedules fn to run after the current task, before the
// next macrotask. Implements [MicrotaskHost].
func (l *Loop) ScheduleMicrotask(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.micro = append(l.micro, fn)
	l.mu.Unlock()
	l.wakeLoop()
}

// ScheduleImmediate schedules fn on the next turn, ahead of external tasks
// and without timer latency. Implements [ImmediateHost].
func (l *Loop) ScheduleImmediate(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.immediates = append(l.immediates, fn)
	l.mu.Unlock()
	l.wakeLoop()
}

// ScheduleTimer schedules fn to run once, after at least delay.
func (l *Loop) ScheduleTimer(delay time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if delay < 0 {
		delay = 0
	}
	l.mu.Lock()
	l.timerSeq++
	l.timers.Put(timerKey{when: time.Now().Add(delay), seq: l.timerSeq}, fn)
	l.mu.Unlock()
	l.wakeLoop()
}

// NewObservedValue returns a value handle whose mutations invoke onMutate at
// microtask granularity. Implements [ObserverHost].
func (l *Loop) NewObservedValue(onMutate func()) (ObservedValue, error) {
	if onMutate == nil {
		return nil, errors.New("nexttick: nil observer callback")
	}
	return &observedValue{loop: l, onMutate: onMutate}, nil
}

// Quirks implements [QuirkHost], reporting the quirks configured via
// [WithQuirks].
func (l *Loop) Quirks() Quirk {
	return l.quirks
}

// observedValue delivers mutation notifications through the loop's
// microtask queue. Stores that do not change the value do not notify.
type observedValue struct {
	loop     *Loop
	onMutate func()
	mu       sync.Mutex
	value    uint64
}

func (o *observedValue) Store(v uint64) {
	o.mu.Lock()
	changed := o.value != v
	o.value = v
	o.mu.Unlock()
	if changed {
		o.loop.ScheduleMicrotask(o.onMutate)
	}
}

// wakeLoop nudges a sleeping loop. Non-blocking; redundant wakes coalesce.
func (l *Loop) wakeLoop() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// runTimers pops and executes every expired timer, earliest first, draining
// microtasks after each.
func (l *Loop) runTimers() {
	for {
		l.mu.Lock()
		node := l.timers.Left()
		if node == nil || node.Key.(timerKey).when.After(time.Now()) {
			l.mu.Unlock()
			return
		}
		fn := node.Value.(func())
		l.timers.Remove(node.Key)
		l.mu.Unlock()

		safeExecute(fn)
		l.drainMicrotasks()
	}
}

// runTasks detaches and executes one queue of macrotasks, draining
// microtasks after each. Tasks appended during execution run next turn.
func (l *Loop) runTasks(queue *[]func()) {
	l.mu.Lock()
	batch := *queue
	*queue = nil
	l.mu.Unlock()

	for i, fn := range batch {
		safeExecute(fn)
		batch[i] = nil
		l.drainMicrotasks()
	}
}

// drainMicrotasks runs microtasks until the queue is empty, including any
// scheduled by the microtasks themselves.
func (l *Loop) drainMicrotasks() {
	for {
		l.mu.Lock()
		if len(l.micro) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.micro[0]
		l.micro = l.micro[1:]
		l.mu.Unlock()

		safeExecute(fn)
	}
}

// sleep blocks until woken, the next timer deadline, termination, or ctx
// cancellation. Returns non-nil only when the loop should stop.
func (l *Loop) sleep(ctx context.Context) error {
	l.mu.Lock()
	ready := len(l.micro) != 0 || len(l.immediates) != 0 || len(l.external) != 0
	var timerWait <-chan time.Time
	if node := l.timers.Left(); node != nil {
		delay := time.Until(node.Key.(timerKey).when)
		if delay <= 0 {
			ready = true
		} else {
			t := time.NewTimer(delay)
			defer t.Stop()
			timerWait = t.C
		}
	}
	l.mu.Unlock()

	if ready {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.closed:
		// Report termination via Run's own closed check.
		return nil
	case <-l.wake:
		return nil
	case <-timerWait:
		return nil
	}
}

// safeExecute executes a callback with panic recovery. Scheduler tasks carry
// their own isolation; this guards host-level callbacks.
func safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: nexttick: loop task panicked: %v", r)
		}
	}()
	fn()
}
