package master

import (
	"time"

	"go.uber.org/zap"
)

const (
	defaultBackoffInitial = 50 * time.Microsecond
	defaultBackoffMax     = 10 * time.Millisecond
)

type options struct {
	name           string
	log            *zap.SugaredLogger
	metrics        *Metrics
	backoffInitial time.Duration
	backoffMax     time.Duration
}

// Option configures a Master.
type Option func(*options)

// WithName sets the name used in logs and metric labels.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger. Defaults to the global zap logger named "master".
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMetrics reports the master activity to the given collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithBackoff sets the bounds of the exponential backoff a worker applies when
// the task provider asks it to try again.
func WithBackoff(initial, max time.Duration) Option {
	return func(o *options) {
		if initial > 0 {
			o.backoffInitial = initial
		}
		if max >= o.backoffInitial {
			o.backoffMax = max
		}
	}
}

func newOptions(opts ...Option) options {
	o := options{
		name:           "default",
		backoffInitial: defaultBackoffInitial,
		backoffMax:     defaultBackoffMax,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.S().Named("master")
	}
	o.log = o.log.With("master", o.name)
	return o
}
