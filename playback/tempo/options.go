package tempo

import "log/slog"

// DefaultBufferSize is the cycle length in frames used when no
// WithBufferSize option is given.
const DefaultBufferSize = 4096

type config struct {
	bufferSize int
	newEngine  EngineFactory
	logger     *slog.Logger
}

// Option configures a Processor.
type Option func(*config)

// WithBufferSize sets the cycle length in frames. It must be a power of two
// in [256, 16384].
func WithBufferSize(frames int) Option {
	return func(c *config) { c.bufferSize = frames }
}

// WithEngineFactory replaces the time-stretch engine. Nil is ignored.
func WithEngineFactory(f EngineFactory) Option {
	return func(c *config) {
		if f != nil {
			c.newEngine = f
		}
	}
}

// WithLogger sets the parent logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
