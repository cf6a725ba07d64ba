// Package nexttick provides a deferred-callback batching scheduler: it lets
// many independent call sites request "run this after the current synchronous
// work finishes", coalescing every request made within one synchronous turn
// into a single scheduled flush, executed in submission order, exactly once.
//
// # Architecture
//
// A [Scheduler] owns a pending queue and a pending flag. The first enqueue of
// a batch arms the flush trigger; further enqueues before the flush simply
// append. When the host's asynchronous primitive fires, the scheduler detaches
// the queue as a snapshot and runs every task in order, with per-task panic
// isolation. Tasks scheduled from inside a flush land in the next batch.
//
// # Trigger Strategies
//
// The trigger is bound exactly once, during [New], by probing the supplied
// [Runtime] for optional capabilities (via type assertion, in preference
// order):
//
//  1. [MicrotaskHost] - microtask-granular, preferred
//  2. [ObserverHost] - mutation-observation primitive, microtask-granular
//  3. [ImmediateHost] - low-latency macrotask
//  4. [Runtime.ScheduleTimer] - zero-delay timer, universal fallback
//
// Hosts with known platform defects can exclude strategies or request
// workarounds via [QuirkHost]. The chosen granularity is published through
// [Scheduler.UsingMicrotask] for consumers that branch on flush timing.
//
// # Calling Conventions
//
// [Scheduler.Schedule] is fire-and-forget: the callback runs on the next
// flush and failures are reported to the configured [Reporter], never to the
// caller. [Scheduler.Next] returns a [Promise] that fulfills with the
// supplied argument when the next flush reaches it; receive from
// [Promise.ToChannel] to suspend until then.
//
// # Reference Host
//
// [Loop] is a minimal single-goroutine run loop implementing [Runtime] and
// all optional capabilities. Production hosts with their own run loops only
// need to implement the subset of primitives they genuinely provide.
package nexttick
