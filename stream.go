package sodium

import "github.com/AnatoleLucet/sodium/internal"

// Stream is a source of discrete events.
type Stream[T any] struct {
	stream *internal.Stream
}

// Never returns a stream that never fires.
func Never[T any]() *Stream[T] {
	return &Stream[T]{runtime().NewStream("never")}
}

// Just returns a stream that fires v once. Listen to it inside the same Run
// to see the event.
func Just[T any](v T) *Stream[T] {
	return &Stream[T]{runtime().Just(internal.Ok(v))}
}

// Listen calls fn with every occurrence, errors included.
func (s *Stream[T]) Listen(fn func(Occurrence[T])) *Listener {
	return &Listener{s.stream.ListenTerminal(func(ev internal.Event) {
		fn(fromEvent[T](ev))
	})}
}

// ListenValues calls fn with every value. Errors are reported to Unhandled.
func (s *Stream[T]) ListenValues(fn func(T)) *Listener {
	return &Listener{s.stream.ListenValues(func(v any) {
		fn(as[T](v))
	})}
}

// Filter keeps the values for which pred returns true.
func (s *Stream[T]) Filter(pred func(T) bool) *Stream[T] {
	return &Stream[T]{s.stream.Filter(func(v any) bool {
		return pred(as[T](v))
	})}
}

// Merge fires when either stream fires. Simultaneous events are combined
// with fn, this stream's event first.
func (s *Stream[T]) Merge(other *Stream[T], fn func(left, right T) T) *Stream[T] {
	return &Stream[T]{s.stream.Merge(other.stream, func(l, r any) any {
		return fn(as[T](l), as[T](r))
	})}
}

// OrElse merges with other, keeping this stream's event on collision.
func (s *Stream[T]) OrElse(other *Stream[T]) *Stream[T] {
	return s.Merge(other, func(left, _ T) T { return left })
}

// Coalesce folds all events of one transaction into one with fn.
func (s *Stream[T]) Coalesce(fn func(acc, next T) T) *Stream[T] {
	return &Stream[T]{s.stream.Coalesce(func(a, b any) any {
		return fn(as[T](a), as[T](b))
	})}
}

// Once fires on the first event only.
func (s *Stream[T]) Once() *Stream[T] {
	return &Stream[T]{s.stream.Once()}
}

// Defer fires each event again in its own transaction, after the current one.
func (s *Stream[T]) Defer() *Stream[T] {
	return &Stream[T]{s.stream.Defer()}
}

// Gate lets events through while c holds true.
func (s *Stream[T]) Gate(c *Cell[bool]) *Stream[T] {
	return &Stream[T]{s.stream.Gate(c.cell)}
}

// Hold creates a cell with the latest value of the stream.
func (s *Stream[T]) Hold(initial T) *Cell[T] {
	return &Cell[T]{s.stream.Hold(internal.Ok(initial))}
}

// HoldLazy is Hold with an initial value computed on first use.
func (s *Stream[T]) HoldLazy(initial func() T) *Cell[T] {
	return &Cell[T]{s.stream.HoldLazy(func() internal.Event {
		return lazyEvent(initial)
	})}
}

// AddCleanup ties l to the stream: it is unlistened when the stream is disposed.
func (s *Stream[T]) AddCleanup(l *Listener) *Stream[T] {
	s.stream.AddCleanup(l.listener)
	return s
}

// Dispose releases the stream's subscriptions to its inputs.
func (s *Stream[T]) Dispose() {
	s.stream.Dispose()
}

func (s *Stream[T]) node() *internal.Node {
	return s.stream.Node()
}

// Map transforms each value with f.
func Map[A, B any](s *Stream[A], f func(A) B) *Stream[B] {
	return &Stream[B]{s.stream.Map(func(v any) any {
		return f(as[A](v))
	})}
}

// Snapshot combines each event with the value c held before the transaction.
func Snapshot[A, B, C any](s *Stream[A], c *Cell[B], f func(A, B) C) *Stream[C] {
	return &Stream[C]{s.stream.Snapshot(c.cell, func(a, b any) any {
		return f(as[A](a), as[B](b))
	})}
}

// Tag replaces each event with the value of c.
func Tag[A, B any](s *Stream[A], c *Cell[B]) *Stream[B] {
	return Snapshot(s, c, func(_ A, b B) B { return b })
}

// Split fires every element of each slice in its own transaction.
func Split[T any](s *Stream[[]T]) *Stream[T] {
	return &Stream[T]{s.stream.Split(func(v any) []any {
		xs := as[[]T](v)

		out := make([]any, len(xs))
		for i, x := range xs {
			out[i] = x
		}

		return out
	})}
}

// Flatten fires the events of the latest stream s produced.
func Flatten[T any](s *Stream[*Stream[T]]) *Stream[T] {
	return &Stream[T]{s.stream.Flatten(func(v any) *internal.Stream {
		return unwrapStream(as[*Stream[T]](v))
	})}
}

// FlatMap maps each event to a stream and fires the events of the latest one.
func FlatMap[A, B any](s *Stream[A], f func(A) *Stream[B]) *Stream[B] {
	return &Stream[B]{s.stream.FlatMap(func(v any) *internal.Stream {
		return unwrapStream(f(as[A](v)))
	})}
}

// Collect runs a state machine over the stream, emitting one output per event.
func Collect[A, B, S any](s *Stream[A], init S, f func(A, S) (B, S)) *Stream[B] {
	return &Stream[B]{s.stream.Collect(init, func(a, st any) (any, any) {
		return f(as[A](a), as[S](st))
	})}
}

// CollectLazy is Collect with the initial state computed on first use.
func CollectLazy[A, B, S any](s *Stream[A], init func() S, f func(A, S) (B, S)) *Stream[B] {
	return &Stream[B]{s.stream.CollectLazy(func() internal.Event {
		return lazyEvent(init)
	}, func(a, st any) (any, any) {
		return f(as[A](a), as[S](st))
	})}
}

// Accum folds the stream into a cell.
func Accum[A, S any](s *Stream[A], init S, f func(A, S) S) *Cell[S] {
	return &Cell[S]{s.stream.Accum(init, func(a, st any) any {
		return f(as[A](a), as[S](st))
	})}
}

// AccumLazy is Accum with the initial state computed on first use.
func AccumLazy[A, S any](s *Stream[A], init func() S, f func(A, S) S) *Cell[S] {
	return &Cell[S]{s.stream.AccumLazy(func() internal.Event {
		return lazyEvent(init)
	}, func(a, st any) any {
		return f(as[A](a), as[S](st))
	})}
}

func unwrapStream[T any](s *Stream[T]) *internal.Stream {
	if s == nil {
		return nil
	}

	return s.stream
}

func lazyEvent[T any](fn func() T) internal.Event {
	return internal.Capture(func() any { return fn() })
}

// StreamSink is a stream fed from outside the graph.
type StreamSink[T any] struct {
	*Stream[T]
}

var _ Sendable[int] = (*StreamSink[int])(nil)

func NewStreamSink[T any]() *StreamSink[T] {
	return &StreamSink[T]{&Stream[T]{runtime().NewStream("sink")}}
}

// Send fires v. It opens a transaction unless one is already open. Sending
// from inside a listener, or twice in one transaction, panics.
func (s *StreamSink[T]) Send(v T) {
	s.stream.SendExternal(internal.Ok(v))
}

// SendError fires an error occurrence.
func (s *StreamSink[T]) SendError(err error) {
	s.stream.SendExternal(internal.Fail(err))
}
