package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type options struct {
	logger         *zap.Logger
	registerer     prometheus.Registerer
	fileName       string
	syncWrites     bool
	formatHeader   bool
	strictRecovery bool
}

func defaultOptions() *options {
	return &options{
		logger:   zap.NewNop(),
		fileName: LogFileName,
	}
}

// Option configures a Store at Open.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegisterer registers the store's metrics on r. They are unregistered
// again by Close.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithFileName overrides the log file name inside the store directory.
func WithFileName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.fileName = name
		}
	}
}

// WithSyncWrites fsyncs the log after every Set and Remove. A write whose
// fsync fails is cut from the log again before the error is returned.
func WithSyncWrites(sync bool) Option {
	return func(o *options) {
		o.syncWrites = sync
	}
}

// WithFormatHeader makes the log start with a magic and version header,
// which is then checked on every Open. A log written without the header
// cannot be opened with it, and the other way around.
func WithFormatHeader(enabled bool) Option {
	return func(o *options) {
		o.formatHeader = enabled
	}
}

// WithStrictRecovery makes Open fail on a torn record at the end of the
// log instead of cutting it off.
func WithStrictRecovery(strict bool) Option {
	return func(o *options) {
		o.strictRecovery = strict
	}
}
