// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package fiberio

// runtimeOptions holds configuration options for Runtime creation.
type runtimeOptions struct {
	hooksEnabled bool
	logger       Logger
	maxEvents    int
}

// --- Runtime Options ---

// RuntimeOption configures a Runtime instance.
type RuntimeOption interface {
	applyRuntime(*runtimeOptions) error
}

// runtimeOptionImpl implements RuntimeOption.
type runtimeOptionImpl struct {
	applyRuntimeFunc func(*runtimeOptions) error
}

func (o *runtimeOptionImpl) applyRuntime(opts *runtimeOptions) error {
	return o.applyRuntimeFunc(opts)
}

// WithHooksEnabled controls whether [Poll] takes the hooked slow path
// (registering with the reactor and suspending the fiber) or the
// passthrough fast path (delegating directly to the kernel poll(2)).
// Defaults to true; set false to exercise the passthrough identity
// property (spec.md §8 property 1).
func WithHooksEnabled(enabled bool) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		opts.hooksEnabled = enabled
		return nil
	}}
}

// WithLogger installs a structured logger for the runtime's informational
// and fatal records (see logging.go). A nil logger is equivalent to the
// disabled no-op logger.
func WithLogger(logger Logger) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		if logger == nil {
			logger = NewNoOpLogger()
		}
		opts.logger = logger
		return nil
	}}
}

// WithMaxEvents sets the reactor's per-wait event buffer size. Larger
// values amortize syscalls under heavy fan-in at the cost of a bigger
// preallocated buffer. Defaults to 256, matching the teacher poller's
// default.
func WithMaxEvents(n int) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		if n > 0 {
			opts.maxEvents = n
		}
		return nil
	}}
}

// resolveRuntimeOptions applies RuntimeOption instances to runtimeOptions.
func resolveRuntimeOptions(opts []RuntimeOption) (*runtimeOptions, error) {
	cfg := &runtimeOptions{
		hooksEnabled: true,
		logger:       NewNoOpLogger(),
		maxEvents:    256,
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyRuntime(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
