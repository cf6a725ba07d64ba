// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package nexttick

import "fmt"

// Strategy identifies the asynchronous primitive a [Scheduler] selected to
// trigger its flushes. The selection happens once, during [New], and is
// immutable thereafter - callers depend on consistent timing semantics for
// the lifetime of the scheduler.
type Strategy uint8

const (
	// StrategyMicrotask triggers the flush via [MicrotaskHost]. Microtask
	// granularity: the flush runs before the host's next rendering/IO step.
	StrategyMicrotask Strategy = iota

	// StrategyObserver triggers the flush by mutating an observed value
	// ([ObserverHost]). Also microtask granularity.
	StrategyObserver

	// StrategyImmediate triggers the flush via [ImmediateHost]: a
	// macrotask, but with lower latency than a generic timer.
	StrategyImmediate

	// StrategyTimer triggers the flush via a zero-delay
	// [Runtime.ScheduleTimer]. Universal fallback.
	StrategyTimer
)

// String returns a human-readable strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyMicrotask:
		return "microtask"
	case StrategyObserver:
		return "observer"
	case StrategyImmediate:
		return "immediate"
	case StrategyTimer:
		return "timer"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Microtask reports whether the strategy runs flushes before the host's next
// rendering/IO step rather than after it.
func (s Strategy) Microtask() bool {
	return s == StrategyMicrotask || s == StrategyObserver
}

// bindTrigger probes rt for the best available primitive and binds the flush
// trigger. It runs exactly once, from [New], before the scheduler is used,
// and it never fails: the timer fallback is assumed always present.
//
// The preference order trades timing precision against reliability:
// microtask-granular strategies first, excluding primitives the host has
// declared defective, then the immediate macrotask, then the generic timer.
func (s *Scheduler) bindTrigger() {
	quirks := hostQuirks(s.rt)

	if host, ok := s.rt.(MicrotaskHost); ok && !quirks.Has(QuirkShimmedMicrotasks) {
		s.strategy = StrategyMicrotask
		if quirks.Has(QuirkMicrotaskStarvation) {
			// Requesting the microtask is not enough on these hosts; a
			// throwaway timer forces the backlog to drain.
			s.trigger = func() {
				host.ScheduleMicrotask(s.flush)
				s.rt.ScheduleTimer(0, func() {})
			}
		} else {
			s.trigger = func() { host.ScheduleMicrotask(s.flush) }
		}
		return
	}

	if host, ok := s.rt.(ObserverHost); ok && !quirks.Has(QuirkBrokenObserver) {
		if observed, err := host.NewObservedValue(s.flush); err == nil && observed != nil {
			// The observation mechanism fires on value mutation, not on
			// direct invocation: toggle between two states per trigger.
			var state uint64
			s.strategy = StrategyObserver
			s.trigger = func() {
				state = (state + 1) % 2
				observed.Store(state)
			}
			return
		} else if err != nil {
			s.logger.Debug().
				Err(err).
				Log(`nexttick: observed value unavailable, falling through`)
		}
	}

	if host, ok := s.rt.(ImmediateHost); ok {
		s.strategy = StrategyImmediate
		s.trigger = func() { host.ScheduleImmediate(s.flush) }
		return
	}

	s.strategy = StrategyTimer
	s.trigger = func() { s.rt.ScheduleTimer(0, s.flush) }
}
