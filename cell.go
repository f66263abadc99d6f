package sodium

import "github.com/AnatoleLucet/sodium/internal"

// Cell is a value that changes over time.
type Cell[T any] struct {
	cell *internal.Cell
}

// Constant returns a cell that always holds v.
func Constant[T any](v T) *Cell[T] {
	return &Cell[T]{runtime().NewConstant(internal.Ok(v))}
}

// Sample returns the current value. Inside a transaction this is the value
// from before the transaction started.
func (c *Cell[T]) Sample() (T, error) {
	return fromEvent[T](c.cell.Sample()).Get()
}

// SampleLazy returns a function that yields the value the cell has at the
// end of the current transaction. It is safe to use on a CellLoop before it
// is bound, as long as the function is only called afterwards.
func (c *Cell[T]) SampleLazy() func() (T, error) {
	var thunk func() internal.Event
	runtime().Run(func(tx *internal.Transaction) {
		thunk = c.cell.SampleLazy(tx)
	})

	return func() (T, error) {
		return fromEvent[T](thunk()).Get()
	}
}

// Listen calls fn with the current value and then with every change.
func (c *Cell[T]) Listen(fn func(Occurrence[T])) *Listener {
	return &Listener{c.cell.ListenTerminal(func(ev internal.Event) {
		fn(fromEvent[T](ev))
	})}
}

// ListenValues is Listen for values only. Errors are reported to Unhandled.
func (c *Cell[T]) ListenValues(fn func(T)) *Listener {
	return &Listener{c.cell.ListenValues(func(v any) {
		fn(as[T](v))
	})}
}

// Updates fires the new value each time the cell changes, at most once per
// transaction.
func (c *Cell[T]) Updates() *Stream[T] {
	var s *internal.Stream
	runtime().Run(func(tx *internal.Transaction) {
		s = c.cell.Updates(tx).Public()
	})

	return &Stream[T]{s}
}

// Value is Updates with the current value fired first, in the current
// transaction.
func (c *Cell[T]) Value() *Stream[T] {
	var s *internal.Stream
	runtime().Run(func(tx *internal.Transaction) {
		s = c.cell.Value(tx)
	})

	return &Stream[T]{s}
}

// Dispose releases the cell's subscription to its stream.
func (c *Cell[T]) Dispose() {
	c.cell.Dispose()
}

func (c *Cell[T]) node() *internal.Node {
	return c.cell.Stream().Node()
}

// MapCell derives a cell by applying f to every value of c.
func MapCell[A, B any](c *Cell[A], f func(A) B) *Cell[B] {
	return &Cell[B]{c.cell.Map(func(v any) any {
		return f(as[A](v))
	})}
}

// Apply applies the function held by cf to the value held by ca.
func Apply[A, B any](cf *Cell[func(A) B], ca *Cell[A]) *Cell[B] {
	return &Cell[B]{internal.Apply(cf.cell, ca.cell, func(fn, arg any) any {
		return as[func(A) B](fn)(as[A](arg))
	})}
}

// Lift2 combines two cells with f.
func Lift2[A, B, C any](f func(A, B) C, a *Cell[A], b *Cell[B]) *Cell[C] {
	curried := MapCell(a, func(x A) func(B) C {
		return func(y B) C { return f(x, y) }
	})

	return Apply(curried, b)
}

// Lift3 combines three cells with f.
func Lift3[A, B, C, D any](f func(A, B, C) D, a *Cell[A], b *Cell[B], c *Cell[C]) *Cell[D] {
	curried := MapCell(a, func(x A) func(B) func(C) D {
		return func(y B) func(C) D {
			return func(z C) D { return f(x, y, z) }
		}
	})

	return Apply(Apply(curried, b), c)
}

// SwitchC follows the cell currently held by c.
func SwitchC[T any](c *Cell[*Cell[T]]) *Cell[T] {
	return &Cell[T]{internal.SwitchC(c.cell, func(v any) *internal.Cell {
		return as[*Cell[T]](v).cell
	})}
}

// SwitchS fires the events of the stream currently held by c.
func SwitchS[T any](c *Cell[*Stream[T]]) *Stream[T] {
	return &Stream[T]{internal.SwitchS(c.cell, func(v any) *internal.Stream {
		return unwrapStream(as[*Stream[T]](v))
	})}
}

// CollectCell runs a state machine over the values of c.
func CollectCell[A, B, S any](c *Cell[A], init S, f func(A, S) (B, S)) *Cell[B] {
	return &Cell[B]{c.cell.Collect(init, func(a, st any) (any, any) {
		return f(as[A](a), as[S](st))
	})}
}

// CellSink is a cell fed from outside the graph.
type CellSink[T any] struct {
	*Cell[T]

	sink *StreamSink[T]
}

var _ Sendable[int] = (*CellSink[int])(nil)

func NewCellSink[T any](initial T) *CellSink[T] {
	sink := NewStreamSink[T]()

	return &CellSink[T]{
		Cell: sink.Hold(initial),
		sink: sink,
	}
}

// NewCellSinkLazy is NewCellSink with the initial value computed on first
// sample. initial is never called if the cell is sent to before that.
func NewCellSinkLazy[T any](initial func() T) *CellSink[T] {
	sink := NewStreamSink[T]()

	return &CellSink[T]{
		Cell: sink.HoldLazy(initial),
		sink: sink,
	}
}

// Send sets the value. The new value is visible once the transaction commits.
func (c *CellSink[T]) Send(v T) {
	c.sink.Send(v)
}

// SendError puts the cell in an error state.
func (c *CellSink[T]) SendError(err error) {
	c.sink.SendError(err)
}
