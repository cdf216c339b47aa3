package engine

import "github.com/ctrlstack/taskcore/emit"

// Option configures an Engine at construction time.
type Option func(*engineConfig)

type engineConfig struct {
	emitter emit.Emitter
}

func defaultConfig() engineConfig {
	return engineConfig{emitter: emit.NewNullEmitter()}
}

// WithEmitter sets the Emitter used to report step ticks. Default:
// emit.NewNullEmitter().
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *engineConfig) {
		cfg.emitter = e
	}
}
