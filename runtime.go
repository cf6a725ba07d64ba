// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package nexttick

import (
	"fmt"
	"time"
)

// Runtime is the minimal host surface required by a [Scheduler]: a deferred
// timer with the shortest legal delay. It is the universal fallback trigger,
// and is assumed always present and infallible - a host that cannot provide
// it cannot host a scheduler at all.
//
// Hosts advertise better primitives by additionally implementing any of
// [MicrotaskHost], [ObserverHost], or [ImmediateHost]; capabilities are
// probed exactly once, during [New], and the selection never changes for the
// lifetime of the scheduler.
//
// The scheduler uses each primitive only through its "invoke fn exactly once,
// asynchronously" contract. All callbacks scheduled by one scheduler must be
// delivered on a single logical thread, interleaved with the host's own
// callbacks; [Loop] is a conforming reference implementation.
type Runtime interface {
	// ScheduleTimer arranges for fn to be invoked exactly once, after at
	// least delay has elapsed. A zero delay means "as soon as the host's
	// timer granularity allows".
	ScheduleTimer(delay time.Duration, fn func())
}

// MicrotaskHost is implemented by runtimes whose microtask machinery is
// native, i.e. genuinely runs before the host's next rendering/IO step.
// Hosts whose microtask support is shimmed on top of a coarser primitive
// must declare [QuirkShimmedMicrotasks] instead of hiding the method, so
// that probing can record why the strategy was rejected.
type MicrotaskHost interface {
	// ScheduleMicrotask arranges for fn to be invoked exactly once, after
	// the current synchronous turn and before the next macrotask.
	ScheduleMicrotask(fn func())
}

// ObserverHost is implemented by runtimes that expose a mutation-observation
// primitive: an observed value whose stores, when they change the value,
// cause a registered callback to be invoked asynchronously at microtask
// granularity.
type ObserverHost interface {
	// NewObservedValue registers onMutate and returns the value handle.
	// A nil handle or an error marks the primitive as a non-functional
	// stub; probing falls through to the next strategy.
	NewObservedValue(onMutate func()) (ObservedValue, error)
}

// ObservedValue is the handle returned by [ObserverHost.NewObservedValue].
// The observation mechanism fires on value mutation rather than on direct
// invocation, so triggering requires storing a value distinct from the
// current one.
type ObservedValue interface {
	// Store sets the observed value. Stores that change the value cause
	// the registered callback to be invoked exactly once, asynchronously.
	Store(v uint64)
}

// ImmediateHost is implemented by runtimes with an immediate-callback
// primitive: a macrotask, but with lower latency than a generic timer.
type ImmediateHost interface {
	// ScheduleImmediate arranges for fn to be invoked exactly once, on the
	// next macrotask turn, ahead of timer-scheduled work.
	ScheduleImmediate(fn func())
}

// Quirk is a bitmask of known host defects that constrain strategy
// selection. A runtime reports its quirks by implementing [QuirkHost];
// runtimes without quirks need not implement it.
type Quirk uint8

const (
	// QuirkShimmedMicrotasks marks a host whose microtask primitive is a
	// shim over a coarser primitive, and therefore not trusted to run at
	// microtask granularity. Excludes the microtask strategy.
	QuirkShimmedMicrotasks Quirk = 1 << iota

	// QuirkBrokenObserver marks a host known to mishandle event-loop
	// delivery of mutation observations. Excludes the observer strategy.
	QuirkBrokenObserver

	// QuirkMicrotaskStarvation marks a host that can leave a requested
	// microtask queued indefinitely unless the macrotask queue also has
	// work. When the microtask strategy is selected on such a host, each
	// trigger additionally schedules a no-op zero-delay timer, solely to
	// force the backlog to drain.
	QuirkMicrotaskStarvation
)

// QuirkHost is implemented by runtimes with known platform defects.
type QuirkHost interface {
	Quirks() Quirk
}

// Has reports whether q includes all bits of mask.
func (q Quirk) Has(mask Quirk) bool { return q&mask == mask }

// String returns a "|"-joined list of the set quirk names.
func (q Quirk) String() string {
	if q == 0 {
		return "none"
	}
	var s string
	appendName := func(mask Quirk, name string) {
		if q&mask != 0 {
			if s != "" {
				s += "|"
			}
			s += name
		}
	}
	appendName(QuirkShimmedMicrotasks, "shimmed-microtasks")
	appendName(QuirkBrokenObserver, "broken-observer")
	appendName(QuirkMicrotaskStarvation, "microtask-starvation")
	if rest := q &^ (QuirkShimmedMicrotasks | QuirkBrokenObserver | QuirkMicrotaskStarvation); rest != 0 {
		if s != "" {
			s += "|"
		}
		s += fmt.Sprintf("unknown(%#x)", uint8(rest))
	}
	return s
}

// hostQuirks resolves the runtime's declared quirks, if any.
func hostQuirks(rt Runtime) Quirk {
	if h, ok := rt.(QuirkHost); ok {
		return h.Quirks()
	}
	return 0
}
