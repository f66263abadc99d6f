package internal

// Cell holds a value that changes in response to its stream.
//
// Updates seen during a transaction are staged in pending and committed in
// the last phase, so sampling inside a transaction sees the value from before
// it.
type Cell struct {
	*Owner

	rt     *Runtime
	stream *Stream

	value    Event
	hasValue bool
	lazy     func() Event
	pending  *Event

	listener *Listener

	// set for cells created by a CellLoop
	loop *StreamLoop
}

func (r *Runtime) newCell(stream *Stream, initial *Event, lazy func() Event) *Cell {
	c := &Cell{
		Owner:  newOwner(),
		rt:     r,
		stream: stream,
		lazy:   lazy,
	}
	if initial != nil {
		c.value, c.hasValue = *initial, true
	}

	r.Run(func(tx *Transaction) {
		c.listener = stream.Listen(tx, terminal, false, func(tx *Transaction, ev Event) {
			if c.pending == nil {
				tx.Last(c.commit)
			}
			c.pending = &ev
		})
	})
	c.OnCleanup(c.listener.Unlisten)

	return c
}

// NewConstant returns a cell that never changes.
func (r *Runtime) NewConstant(v Event) *Cell {
	return r.NewStream("never").Hold(v)
}

func (c *Cell) Runtime() *Runtime { return c.rt }
func (c *Cell) Stream() *Stream   { return c.stream }

func (c *Cell) commit() {
	c.value, c.hasValue = *c.pending, true
	c.lazy = nil
	c.pending = nil
}

func (c *Cell) sampleNoTrans() Event {
	if c.loop != nil && !c.loop.assigned {
		usage("sample", ErrLoopNotBound)
	}

	if !c.hasValue {
		if c.lazy == nil {
			usage("sample", ErrNoValue)
		}

		c.value, c.hasValue = c.lazy(), true
		c.lazy = nil
	}

	return c.value
}

// newValue is the value the cell will hold once the transaction commits.
func (c *Cell) newValue() Event {
	if c.pending != nil {
		return *c.pending
	}

	return c.sampleNoTrans()
}

// Sample returns the committed value.
func (c *Cell) Sample() Event {
	var ev Event
	c.rt.Run(func(tx *Transaction) {
		ev = c.sampleNoTrans()
	})

	return ev
}

type lazySample struct {
	cell  *Cell
	value Event
	done  bool
}

// SampleLazy returns a thunk for the value the cell holds at the end of tx.
// It may be called from inside loop construction, before the cell is bound.
func (c *Cell) SampleLazy(tx *Transaction) func() Event {
	s := &lazySample{cell: c}

	tx.Last(func() {
		s.value, s.done = c.newValue(), true
		s.cell = nil
	})

	return func() Event {
		if s.done {
			return s.value
		}

		return s.cell.Sample()
	}
}

// Updates sends the final new value of each transaction that changes the
// cell.
func (c *Cell) Updates(tx *Transaction) *Stream {
	return c.stream.lastFiringOnly(tx)
}

// valueStream sends the current value in tx, then every update. When the
// cell also changes in tx only the new value is sent.
func (c *Cell) valueStream(tx *Transaction) *Stream {
	spark := c.rt.newPrivate("spark")
	tx.Prioritized(spark.node, func(tx *Transaction) {
		spark.Send(tx, Ok(nil))
	})

	initial := spark.Snapshot(c, func(_, b any) any { return b }).hide()

	return initial.mergeRaw(tx, c.Updates(tx)).hide().lastFiringOnly(tx)
}

// Value is the public form of valueStream.
func (c *Cell) Value(tx *Transaction) *Stream {
	return c.valueStream(tx).Public()
}

// ListenTerminal listens to the current value and every later update.
func (c *Cell) ListenTerminal(action func(Event)) *Listener {
	var l *Listener
	c.rt.Run(func(tx *Transaction) {
		l = c.valueStream(tx).ListenTerminal(action)
	})

	return l
}

func (c *Cell) ListenValues(action func(any)) *Listener {
	var l *Listener
	c.rt.Run(func(tx *Transaction) {
		l = c.valueStream(tx).ListenValues(action)
	})

	return l
}

// Dispose detaches the cell from its stream and disposes the stream when a
// combinator built it privately.
func (c *Cell) Dispose() {
	c.rt.locked(c.Owner.dispose)
}
