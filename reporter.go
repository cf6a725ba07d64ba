// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package nexttick

import "log"

// OriginTick is the origin tag passed to [Reporter.Report] for failures
// raised by callbacks executing inside a flush.
const OriginTick = "nexttick handler"

// Reporter is the process-wide error sink for isolated task failures. A
// failure inside one task is recovered, reported exactly once with the
// triggering call's argument and an origin tag, and never aborts the batch
// or the scheduler.
//
// Report is always invoked on the host's callback thread, between tasks of
// the running flush; implementations should not block.
type Reporter interface {
	Report(err error, arg any, origin string)
}

// ReporterFunc adapts a function to the [Reporter] interface.
type ReporterFunc func(err error, arg any, origin string)

// Report calls f.
func (f ReporterFunc) Report(err error, arg any, origin string) { f(err, arg, origin) }

// report dispatches an isolated task failure to the configured sink, falling
// back to the configured logger, then the stdlib logger.
func (s *Scheduler) report(err error, arg any) {
	if s.reporter != nil {
		s.reporter.Report(err, arg, OriginTick)
		return
	}
	if b := s.logger.Err(); b.Enabled() {
		b.Err(err).
			Any(`arg`, arg).
			Str(`origin`, OriginTick).
			Log(`nexttick: task failed`)
		return
	}
	log.Printf("ERROR: %s: %v", OriginTick, err)
}
