package processor

import (
	"time"

	"github.com/ctrlstack/taskcore/emit"
)

// Option configures a Processor at construction time.
type Option func(*processorConfig) error

// processorConfig collects options before New applies them.
type processorConfig struct {
	emitter               emit.Emitter
	metrics               *PrometheusMetrics
	defaultProgramTimeout time.Duration
	defaultCommandTimeout time.Duration
	retry                 RetryPolicy
}

func defaultConfig() processorConfig {
	return processorConfig{
		emitter:               emit.NewNullEmitter(),
		metrics:               nil,
		defaultProgramTimeout: 0,
		defaultCommandTimeout: 0,
		retry:                 defaultRetryPolicy(),
	}
}

// WithMetrics attaches a PrometheusMetrics collector. Default: nil (metrics
// calls are no-ops).
func WithMetrics(m *PrometheusMetrics) Option {
	return func(cfg *processorConfig) error {
		cfg.metrics = m
		return nil
	}
}

// WithEmitter sets the Emitter used to report Processor events. The
// Processor emits one event per executed mailbox command and no others.
//
// Default: emit.NewNullEmitter() (no-op).
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *processorConfig) error {
		cfg.emitter = e
		return nil
	}
}

// WithDefaultProgramTimeout bounds Program.Execute calls that don't specify
// their own budget. A zero duration (the default) disables the bound and
// relies entirely on the program's own non-blocking contract.
func WithDefaultProgramTimeout(d time.Duration) Option {
	return func(cfg *processorConfig) error {
		cfg.defaultProgramTimeout = d
		return nil
	}
}

// WithDefaultCommandTimeout sets an overrun threshold for Command.Execute.
// Unlike WithDefaultProgramTimeout it bounds nothing: the command still runs
// to completion on the real-time thread, and the threshold only marks a
// call that ran longer than d.
func WithDefaultCommandTimeout(d time.Duration) Option {
	return func(cfg *processorConfig) error {
		cfg.defaultCommandTimeout = d
		return nil
	}
}

// WithRetryPolicy stores p in the Processor's configuration. RetrySubmit
// does not read it: it uses the RetryPolicy passed as its own argument. It
// has no effect on queueCommand either, which always returns ErrMailboxFull
// immediately rather than blocking the real-time thread.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(cfg *processorConfig) error {
		cfg.retry = p
		return nil
	}
}
