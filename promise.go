// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package nexttick

import "sync"

// Result represents the value a [Promise] fulfills with. It can be any type,
// mirroring the dynamic argument accepted by [Scheduler.Schedule].
type Result = any

// PromiseState represents the lifecycle state of a [Promise]. A promise
// starts [Pending] and transitions to [Fulfilled] exactly once, when the
// flush that owns its task executes. The transition is irreversible.
type PromiseState int

const (
	// Pending indicates the promise's flush has not yet run.
	Pending PromiseState = iota

	// Fulfilled indicates the promise's flush has run and the result is
	// available.
	Fulfilled
)

// String returns a human-readable state name.
func (s PromiseState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	default:
		return "unknown"
	}
}

// Promise is a read-only view of a future flush, returned by
// [Scheduler.Next]. It fulfills with the argument passed to Next when the
// flush owning its task executes.
//
// Promise is safe for concurrent use; fulfillment always occurs on the
// host's callback thread.
type Promise struct {
	result      Result
	subscribers []chan Result // channels waiting for fulfillment
	state       PromiseState
	mu          sync.Mutex
}

func newPromise() *Promise { return &Promise{} }

// State returns the current [PromiseState].
func (p *Promise) State() PromiseState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Result returns the fulfillment value, or nil while the promise is pending.
func (p *Promise) Result() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// ToChannel returns a channel that receives the result when the promise
// fulfills, then closes. Receiving from it is the suspension point: the
// caller blocks until the batch's flush reaches this promise's task.
func (p *Promise) ToChannel() <-chan Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Already settled: return a pre-filled, closed channel.
	if p.state != Pending {
		ch := make(chan Result, 1)
		ch <- p.result
		close(ch)
		return ch
	}

	ch := make(chan Result, 1)
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// fulfill settles the promise and notifies all subscribers. Later calls have
// no effect.
func (p *Promise) fulfill(val Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Pending {
		return
	}

	p.state = Fulfilled
	p.result = val

	for _, ch := range p.subscribers {
		ch <- p.result // subscriber channels are buffered, never blocks
		close(ch)
	}
	p.subscribers = nil // release memory
}
