package nexttick

import (
	"sync"
	"time"
)

// baseRuntime is a deterministic, manually pumped host exposing only the
// universal timer primitive. Capability-richer fakes embed it.
type baseRuntime struct {
	mu          sync.Mutex
	timers      []func()
	timerDelays []time.Duration
}

func (r *baseRuntime) ScheduleTimer(delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timers = append(r.timers, fn)
	r.timerDelays = append(r.timerDelays, delay)
}

func (r *baseRuntime) pumpTimers() {
	r.mu.Lock()
	batch := r.timers
	r.timers = nil
	r.mu.Unlock()
	for _, fn := range batch {
		fn()
	}
}

func (r *baseRuntime) timerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// microRuntime adds a manually pumped microtask queue.
type microRuntime struct {
	baseRuntime
	micro []func()
}

func (r *microRuntime) ScheduleMicrotask(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.micro = append(r.micro, fn)
}

func (r *microRuntime) pumpMicro() {
	r.mu.Lock()
	batch := r.micro
	r.micro = nil
	r.mu.Unlock()
	for _, fn := range batch {
		fn()
	}
}

func (r *microRuntime) microCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.micro)
}

// quirkyMicroRuntime is a microRuntime with declared host defects.
type quirkyMicroRuntime struct {
	microRuntime
	quirks Quirk
}

func (r *quirkyMicroRuntime) Quirks() Quirk { return r.quirks }

// fakeObserved records stores and queues the mutation callback for manual
// delivery.
type fakeObserved struct {
	mu       sync.Mutex
	onMutate func()
	value    uint64
	stores   []uint64
	pending  int
}

func (o *fakeObserved) Store(v uint64) {
	o.mu.Lock()
	o.stores = append(o.stores, v)
	changed := o.value != v
	o.value = v
	if changed {
		o.pending++
	}
	o.mu.Unlock()
}

func (o *fakeObserved) pump() {
	o.mu.Lock()
	n := o.pending
	o.pending = 0
	o.mu.Unlock()
	for i := 0; i < n; i++ {
		o.onMutate()
	}
}

// observerRuntime adds the mutation-observation primitive, optionally
// behaving as a non-functional stub.
type observerRuntime struct {
	baseRuntime
	observed *fakeObserved
	err      error
	stubNil  bool
	quirks   Quirk
}

func (r *observerRuntime) NewObservedValue(onMutate func()) (ObservedValue, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.stubNil {
		return nil, nil
	}
	r.observed = &fakeObserved{onMutate: onMutate}
	return r.observed, nil
}

func (r *observerRuntime) Quirks() Quirk { return r.quirks }

// immediateRuntime adds the immediate-callback primitive.
type immediateRuntime struct {
	baseRuntime
	immediates []func()
}

func (r *immediateRuntime) ScheduleImmediate(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.immediates = append(r.immediates, fn)
}

func (r *immediateRuntime) pumpImmediates() {
	r.mu.Lock()
	batch := r.immediates
	r.immediates = nil
	r.mu.Unlock()
	for _, fn := range batch {
		fn()
	}
}

// fullRuntime exposes every capability, for preference-order tests.
type fullRuntime struct {
	microRuntime
	observerPart observerRuntime
	immediates   immediateRuntime
}

func (r *fullRuntime) NewObservedValue(onMutate func()) (ObservedValue, error) {
	return r.observerPart.NewObservedValue(onMutate)
}

func (r *fullRuntime) ScheduleImmediate(fn func()) {
	r.immediates.ScheduleImmediate(fn)
}

// recordingReporter captures isolated task failures.
type recordingReporter struct {
	mu      sync.Mutex
	errs    []error
	args    []any
	origins []string
}

func (r *recordingReporter) Report(err error, arg any, origin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.args = append(r.args, arg)
	r.origins = append(r.origins, origin)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}
