package dynamodb

import "go.uber.org/zap"

// Option is a functional option for configuring a [Repository].
type Option func(*Options)

// Options holds the configuration for a [Repository].
type Options struct {
	api            API
	consistentRead bool
	logger         *zap.Logger
}

func newOptions() *Options {
	return &Options{
		logger: zap.NewNop(),
	}
}

// WithAPI sets a custom [API] implementation. This is useful when a custom
// DynamoDB configuration is required, or for injecting mocks in tests.
func WithAPI(api API) Option {
	return func(o *Options) {
		o.api = api
	}
}

// WithConsistentRead makes Get and Scan use strongly consistent reads.
func WithConsistentRead(enabled bool) Option {
	return func(o *Options) {
		o.consistentRead = enabled
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
