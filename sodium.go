// Package sodium is a transactional functional reactive programming engine.
//
// Streams carry discrete events, cells hold values that change over time.
// Every change happens inside a transaction, which propagates through the
// graph in rank order so that no listener ever sees a half-updated state.
package sodium

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AnatoleLucet/sodium/internal"
)

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

func runtime() *internal.Runtime {
	return internal.GetRuntime()
}

// Usage errors, raised as panics carrying a *UsageError.
var (
	ErrSendInCallback         = internal.ErrSendInCallback
	ErrAlreadySent            = internal.ErrAlreadySent
	ErrLoopOutsideTransaction = internal.ErrLoopOutsideTransaction
	ErrLoopAlreadyBound       = internal.ErrLoopAlreadyBound
	ErrLoopNotBound           = internal.ErrLoopNotBound
)

// UsageError is the panic value of a misuse of the API.
type UsageError = internal.UsageError

// PanicError wraps a non-error value a user function panicked with.
type PanicError = internal.PanicError

// Option configures the runtime.
type Option = internal.Option

// WithLogger sets the logger for unhandled failures and transaction tracing.
func WithLogger(logger *slog.Logger) Option { return internal.WithLogger(logger) }

// WithMetrics registers the runtime metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option { return internal.WithMetrics(reg) }

// Configure applies options to the process-wide runtime.
func Configure(opts ...Option) error {
	return runtime().Configure(opts...)
}

// Run runs fn in a transaction. Everything sent inside fn is seen as
// simultaneous. If a transaction is already open on this goroutine, fn joins it.
func Run(fn func()) {
	runtime().Run(func(*internal.Transaction) { fn() })
}

// RunResult is Run for a function returning a value.
func RunResult[T any](fn func() T) T {
	var result T
	runtime().Run(func(*internal.Transaction) { result = fn() })
	return result
}

// OnStart registers a hook called before each new transaction opens.
func OnStart(hook func()) {
	runtime().OnStart(hook)
}

// Unhandled returns the stream of failures no listener handled. While it has
// no listeners, they are logged instead.
func Unhandled() *Stream[error] {
	return &Stream[error]{runtime().Unhandled()}
}

// Occurrence is a single event: a value or an error.
type Occurrence[T any] struct {
	value T
	err   error
}

// Value wraps a value in an occurrence.
func Value[T any](v T) Occurrence[T] {
	return Occurrence[T]{value: v}
}

// Error wraps an error in an occurrence.
func Error[T any](err error) Occurrence[T] {
	return Occurrence[T]{err: err}
}

func fromEvent[T any](ev internal.Event) Occurrence[T] {
	if ev.IsError() {
		return Error[T](ev.Err)
	}

	return Value(as[T](ev.Value))
}

// Get returns the value, or the error this occurrence carries.
func (o Occurrence[T]) Get() (T, error) {
	return o.value, o.err
}

// MustGet returns the value and panics if the occurrence is an error.
func (o Occurrence[T]) MustGet() T {
	if o.err != nil {
		panic(o.err)
	}

	return o.value
}

func (o Occurrence[T]) Err() error    { return o.err }
func (o Occurrence[T]) IsError() bool { return o.err != nil }

// Listener is the handle returned by Listen.
type Listener struct {
	listener *internal.Listener
}

// Unlisten stops delivery. Calling it more than once is harmless.
func (l *Listener) Unlisten() {
	if l == nil {
		return
	}

	l.listener.Unlisten()
}

// Sendable is implemented by sinks.
type Sendable[T any] interface {
	Send(v T)
	SendError(err error)
}
