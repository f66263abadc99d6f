package sodium

import "github.com/AnatoleLucet/sodium/internal"

// StreamLoop is a forward reference to a stream, used to build cycles.
// Create and bind it inside the same Run.
type StreamLoop[T any] struct {
	*Stream[T]

	loop *internal.StreamLoop
}

func NewStreamLoop[T any]() *StreamLoop[T] {
	loop := runtime().NewStreamLoop()

	return &StreamLoop[T]{
		Stream: &Stream[T]{loop.Stream},
		loop:   loop,
	}
}

// Loop binds the reference to src. It panics if called twice.
func (l *StreamLoop[T]) Loop(src *Stream[T]) {
	l.loop.Loop(src.stream)
}

// CellLoop is a forward reference to a cell, used to build cycles.
// Create and bind it inside the same Run.
type CellLoop[T any] struct {
	*Cell[T]

	loop *internal.CellLoop
}

func NewCellLoop[T any]() *CellLoop[T] {
	loop := runtime().NewCellLoop()

	return &CellLoop[T]{
		Cell: &Cell[T]{loop.Cell},
		loop: loop,
	}
}

// Loop binds the reference to real. It panics if called twice.
func (l *CellLoop[T]) Loop(real *Cell[T]) {
	l.loop.Loop(real.cell)
}
