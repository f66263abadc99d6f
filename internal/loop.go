package internal

// StreamLoop is a stream declared before its source exists, so that graphs
// can refer to themselves. It is bound once with Loop, in the transaction
// that created it.
type StreamLoop struct {
	*Stream

	assigned bool
}

func (r *Runtime) NewStreamLoop() *StreamLoop {
	if !r.InTransaction() {
		usage("stream loop", ErrLoopOutsideTransaction)
	}

	return &StreamLoop{Stream: r.NewStream("stream-loop")}
}

// Loop binds the placeholder to src.
func (l *StreamLoop) Loop(src *Stream) {
	if l.assigned {
		usage("loop", ErrLoopAlreadyBound)
	}
	l.assigned = true

	l.rt.Run(func(tx *Transaction) {
		l.AddCleanup(src.Listen(tx, l.node, false, func(tx *Transaction, ev Event) {
			l.Send(tx, ev)
		}))
	})
}

func (l *StreamLoop) Assigned() bool {
	return l.assigned
}

// CellLoop is the cell counterpart of StreamLoop. Sampling it before Loop is
// a usage error.
type CellLoop struct {
	*Cell

	stream *StreamLoop
}

func (r *Runtime) NewCellLoop() *CellLoop {
	if !r.InTransaction() {
		usage("cell loop", ErrLoopOutsideTransaction)
	}

	stream := r.NewStreamLoop()

	c := r.newCell(stream.Stream, nil, nil)
	c.loop = stream

	return &CellLoop{Cell: c, stream: stream}
}

// Loop binds the placeholder to real.
func (l *CellLoop) Loop(real *Cell) {
	if l.stream.assigned {
		usage("loop", ErrLoopAlreadyBound)
	}

	l.rt.Run(func(tx *Transaction) {
		l.stream.Loop(real.Updates(tx))
		l.lazy = real.SampleLazy(tx)
	})
	l.OnCleanup(l.stream.Dispose)
}
