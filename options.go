// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package nexttick

import "github.com/joeycumines/logiface"

// schedulerOptions holds configuration resolved during [New].
type schedulerOptions struct {
	logger   *logiface.Logger[logiface.Event]
	reporter Reporter
}

// Option configures a [Scheduler] instance. Options are applied in order
// during [New] construction.
type Option interface {
	apply(*schedulerOptions) error
}

type optionImpl struct {
	applyFunc func(*schedulerOptions) error
}

func (o *optionImpl) apply(opts *schedulerOptions) error {
	return o.applyFunc(opts)
}

// WithLogger attaches a structured logger, used for strategy-selection and
// flush diagnostics, and as the failure sink when no [Reporter] is
// configured. Use [logiface.Logger.Logger] to generify a typed logger.
//
// A nil logger is valid and disables logging (the default).
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithReporter configures the sink that receives isolated task failures.
// When unset, failures are logged instead. See [Reporter].
func WithReporter(reporter Reporter) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.reporter = reporter
		return nil
	}}
}

// resolveOptions applies Option instances to schedulerOptions.
func resolveOptions(opts []Option) (*schedulerOptions, error) {
	cfg := &schedulerOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue // skip nil options gracefully
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
