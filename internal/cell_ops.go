package internal

// Map derives a cell by applying f to every value of c.
func (c *Cell) Map(f func(any) any) *Cell {
	var out *Cell

	c.rt.Run(func(tx *Transaction) {
		sampled := c.SampleLazy(tx)
		updates := c.Updates(tx).Map(f).hide()

		out = updates.HoldLazy(func() Event {
			return sampled().mapValue(f)
		})
	})

	return out
}

type applyState struct {
	fn, arg       Event
	hasFn, hasArg bool
	scheduled     bool
}

// Apply applies the function held by cf to the value held by ca. call does
// the actual invocation so that typed callers can keep their function types.
func Apply(cf, ca *Cell, call func(fn, arg any) any) *Cell {
	r := cf.rt
	st := &applyState{}

	var out *Cell

	r.Run(func(tx *Transaction) {
		stream := r.newPrivate("apply")
		in := NewNode("apply-in")
		edge := r.link(tx, in, stream.node, nil)

		flush := func(tx *Transaction) {
			if st.scheduled {
				return
			}

			st.scheduled = true
			tx.Last(func() { st.scheduled = false })
			tx.Prioritized(stream.node, func(tx *Transaction) {
				st.scheduled = false
				stream.Send(tx, combine(st.fn, st.arg, call))
			})
		}

		stream.AddCleanup(cf.valueStream(tx).Listen(tx, in, false, func(tx *Transaction, ev Event) {
			st.fn, st.hasFn = ev, true
			if st.hasArg {
				flush(tx)
			}
		}))
		stream.AddCleanup(ca.valueStream(tx).Listen(tx, in, false, func(tx *Transaction, ev Event) {
			st.arg, st.hasArg = ev, true
			if st.hasFn {
				flush(tx)
			}
		}))
		stream.OnCleanup(func() {
			r.graph.Lock()
			defer r.graph.Unlock()

			in.Unlink(edge)
		})

		out = stream.HoldLazy(func() Event {
			return combine(cf.sampleNoTrans(), ca.sampleNoTrans(), call)
		})
	})

	return out
}

type switchCState struct {
	inner     *Cell
	sub       *Listener
	latest    Event
	scheduled bool
}

// SwitchC follows the cell held by the outer cell.
//
// The new inner is subscribed as soon as the outer changes, with replay, so
// an inner that changed earlier in the same transaction is seen with its new
// value. Events from the previous inner are ignored from then on and its
// subscription is dropped in the last phase.
func SwitchC(outer *Cell, unwrap func(any) *Cell) *Cell {
	r := outer.rt
	st := &switchCState{}

	var out *Cell

	r.Run(func(tx *Transaction) {
		stream := r.newPrivate("switch-cell")

		flush := func(tx *Transaction) {
			if st.scheduled {
				return
			}

			st.scheduled = true
			tx.Last(func() { st.scheduled = false })
			tx.Prioritized(stream.node, func(tx *Transaction) {
				st.scheduled = false
				stream.Send(tx, st.latest)
			})
		}

		follow := func(inner *Cell) Handler {
			return func(tx *Transaction, ev Event) {
				if inner != st.inner {
					return
				}

				st.latest = ev
				flush(tx)
			}
		}

		stream.AddCleanup(outer.valueStream(tx).Listen(tx, stream.node, false, func(tx *Transaction, ev Event) {
			prev := st.sub

			if ev.IsError() {
				st.inner, st.sub = nil, nil
				st.latest = ev
			} else {
				inner := unwrap(ev.Value)
				if inner == st.inner {
					return
				}

				st.inner = inner
				st.latest = inner.sampleNoTrans()
				st.sub = inner.stream.Listen(tx, stream.node, false, follow(inner))
			}

			flush(tx)
			tx.Last(prev.Unlisten)
		}))
		stream.OnCleanup(func() { st.sub.Unlisten() })

		sampled := outer.SampleLazy(tx)
		out = stream.HoldLazy(func() Event {
			ev := sampled()
			if ev.IsError() {
				return ev
			}

			return unwrap(ev.Value).Sample()
		})
	})

	return out
}

type switchSState struct {
	sub *Listener
}

// SwitchS follows the stream held by the cell. The subscription is swapped
// in the last phase, so events from the old stream still arrive for the rest
// of the transaction that switched.
func SwitchS(outer *Cell, unwrap func(any) *Stream) *Stream {
	r := outer.rt
	st := &switchSState{}

	out := r.NewStream("switch-stream")

	forward := func(tx *Transaction, ev Event) {
		out.Send(tx, ev)
	}

	r.Run(func(tx *Transaction) {
		first := outer.sampleNoTrans()
		if first.IsError() {
			out.Send(tx, first)
		} else if inner := unwrap(first.Value); inner != nil {
			st.sub = inner.Listen(tx, out.node, false, forward)
		}

		out.AddCleanup(outer.Updates(tx).Listen(tx, out.node, false, func(tx *Transaction, ev Event) {
			var next *Stream
			if ev.IsError() {
				out.Send(tx, ev)
			} else {
				next = unwrap(ev.Value)
			}

			tx.Last(func() {
				st.sub.Unlisten()
				st.sub = nil

				if next != nil {
					st.sub = next.Listen(tx, out.node, true, forward)
				}
			})
		}))
	})

	out.OnCleanup(func() { st.sub.Unlisten() })

	return out
}

// Collect runs a state machine over the values of c, starting from init and
// the current value of c.
func (c *Cell) Collect(init any, f func(a, state any) (any, any)) *Cell {
	var out *Cell

	c.rt.Run(func(tx *Transaction) {
		sampled := c.SampleLazy(tx)
		updates := c.Updates(tx).hide()

		start := func() Event {
			ev := sampled()
			if ev.IsError() {
				return ev
			}

			return capture(func() any {
				b, next := f(ev.Value, init)
				return pair{out: b, state: next}
			})
		}

		second := func(v any) any { return v.(pair).state }

		loop := c.rt.NewStreamLoop()
		pairs := loop.HoldLazy(start)

		// a failing step shows in the output but leaves the state alone
		initial := pairs.SampleLazy(tx)
		state := loop.dropErrors().hide().Map(second).hide().HoldLazy(func() Event {
			return initial().mapValue(second)
		})

		loop.Loop(updates.Snapshot(state, func(a, st any) any {
			b, next := f(a, st)
			return pair{out: b, state: next}
		}).hide())

		out = pairs.Map(func(v any) any { return v.(pair).out })
		out.OnCleanup(state.Dispose)
		out.OnCleanup(pairs.Dispose)
		out.OnCleanup(loop.Dispose)
	})

	return out
}
