package session

import (
	"context"
	"log/slog"

	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Option configures a Session at mount.
type Option func(*options)

type options struct {
	id         string
	logger     *slog.Logger
	kinds      []vdom.EventKind
	middleware []Middleware
	observer   func(Result, error)
	ctx        context.Context
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
		kinds:  vdom.DefaultEventKinds,
		ctx:    context.Background(),
	}
}

// WithID sets the session ID. A random UUID is used otherwise.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventKinds replaces the default event kinds subscribed at mount.
// Kinds used by handlers in any render are always added.
func WithEventKinds(kinds ...vdom.EventKind) Option {
	return func(o *options) {
		o.kinds = kinds
	}
}

// WithMiddleware appends middleware around every dispatch.
// The first middleware given is the outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mw...)
	}
}

// WithObserver registers fn to receive the outcome of every dispatch
// triggered by a host event subscription.
func WithObserver(fn func(Result, error)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithContext sets the context passed to dispatches triggered by host
// events.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}
