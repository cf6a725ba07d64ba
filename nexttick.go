// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package nexttick

import (
	"errors"
	"sync"

	"github.com/joeycumines/logiface"
)

// ErrNilRuntime is returned by [New] when no runtime is supplied.
var ErrNilRuntime = errors.New("nexttick: nil runtime")

// Callback is a deferred unit of work accepted by [Scheduler.Schedule]. The
// arg is the value supplied alongside the callback, passed back verbatim.
type Callback func(arg any)

// task is an enqueued unit of deferred work: exactly one of fn or promise is
// set. Owned by the pending queue until consumed by a flush, then released.
type task struct {
	fn      Callback
	arg     any
	promise *Promise
}

// Scheduler coalesces deferred callbacks into per-turn batches.
//
// All requests made while no flush is scheduled arm the trigger once; every
// request made before that flush runs joins its batch. Batches execute in
// submission order with per-task failure isolation.
//
// Instances must be created via [New]. A single instance per host runtime is
// the intended shape; all call sites share it by reference.
//
// Scheduler is safe for concurrent use, though hosts conforming to the
// single-threaded delivery contract of [Runtime] will only ever exercise it
// from one goroutine interleaved with host callbacks. Enqueuing never blocks
// and never suspends; suspension exists only on the caller's side of
// [Promise.ToChannel].
type Scheduler struct {
	// Prevent copying
	_ [0]func()

	rt       Runtime
	trigger  func()
	reporter Reporter
	logger   *logiface.Logger[logiface.Event]
	strategy Strategy

	mu      sync.Mutex
	queue   []task
	pending bool
}

// New constructs a [Scheduler] bound to the given runtime.
//
// Capability probing and trigger binding happen here, exactly once; see
// [Strategy] for the preference order. New never fails on account of missing
// host primitives - the timer fallback is assumed always present - only on
// a nil runtime or an invalid option.
func New(rt Runtime, opts ...Option) (*Scheduler, error) {
	if rt == nil {
		return nil, ErrNilRuntime
	}

	options, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		rt:       rt,
		reporter: options.reporter,
		logger:   options.logger,
	}

	s.bindTrigger()

	s.logger.Debug().
		Stringer(`strategy`, s.strategy).
		Bool(`microtask`, s.strategy.Microtask()).
		Log(`nexttick: trigger bound`)

	return s, nil
}

// Schedule enqueues fn to run on the next flush, passing arg back to it.
// Fire-and-forget: it returns immediately, and a panic inside fn is isolated
// and reported (see [Reporter]), never propagated to the caller.
//
// A nil fn is a no-op.
func (s *Scheduler) Schedule(fn Callback, arg any) {
	if fn == nil {
		return
	}
	s.enqueue(task{fn: fn, arg: arg})
}

// Next enqueues a task that fulfills the returned [Promise] with arg when
// the next flush reaches it. Receive from [Promise.ToChannel] to suspend
// until then.
//
// Ordering is shared with [Scheduler.Schedule]: callbacks and promises
// settle strictly in submission order within a batch.
func (s *Scheduler) Next(arg any) *Promise {
	p := newPromise()
	s.enqueue(task{arg: arg, promise: p})
	return p
}

// UsingMicrotask reports whether the selected strategy runs flushes before
// the host's next rendering/IO step rather than after it. Read-only; stable
// for the lifetime of the scheduler.
func (s *Scheduler) UsingMicrotask() bool {
	return s.strategy.Microtask()
}

// Strategy returns the trigger strategy selected during [New].
func (s *Scheduler) Strategy() Strategy {
	return s.strategy
}

// enqueue appends t to the live queue, arming the trigger iff no flush is
// currently scheduled. Exactly one trigger invocation is outstanding at any
// time; the pending flag is the mutual exclusion that enforces it.
func (s *Scheduler) enqueue(t task) {
	s.mu.Lock()
	s.queue = append(s.queue, t)
	fire := !s.pending
	if fire {
		s.pending = true
	}
	s.mu.Unlock()

	if fire {
		s.trigger()
	}
}

// flush runs when the host delivers the trigger's scheduled invocation.
//
// The pending flag resets and the snapshot detaches before any task runs:
// tasks enqueued during the flush (including by a running task) land on the
// now-empty live queue and arm a fresh trigger cycle, bounding each flush to
// exactly the work known at flush start. A reentrant task can therefore
// never starve later batches or grow the current one.
func (s *Scheduler) flush() {
	s.mu.Lock()
	s.pending = false
	snapshot := s.queue
	s.queue = nil
	s.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	s.logger.Trace().
		Int(`tasks`, len(snapshot)).
		Log(`nexttick: flush`)

	for i := range snapshot {
		s.run(&snapshot[i])
		snapshot[i] = task{} // release eagerly, the batch may be long
	}
}

// run invokes a single task with panic isolation: a failure is recovered,
// reported exactly once, and does not prevent subsequent tasks in the same
// snapshot from running. A failure here is never fatal to the scheduler.
func (s *Scheduler) run(t *task) {
	defer func() {
		if r := recover(); r != nil {
			s.report(PanicError{Value: r}, t.arg)
		}
	}()

	if t.fn != nil {
		t.fn(t.arg)
		return
	}
	if t.promise != nil {
		t.promise.fulfill(t.arg)
	}
}
