package internal

import "sync"

func (s *Stream) hide() *Stream {
	s.private = true
	return s
}

// derive builds a stream fed by s through the handler made by h.
func (s *Stream) derive(label string, h func(out *Stream) Handler) *Stream {
	out := s.rt.NewStream(label)

	s.rt.Run(func(tx *Transaction) {
		out.AddCleanup(s.Listen(tx, out.node, false, h(out)))
	})

	return out
}

func (s *Stream) Map(f func(any) any) *Stream {
	return s.derive("map", func(out *Stream) Handler {
		return func(tx *Transaction, ev Event) {
			out.Send(tx, ev.mapValue(f))
		}
	})
}

// Filter passes values for which pred holds. Errors pass through untouched;
// a panicking predicate drops the value and reports the failure.
func (s *Stream) Filter(pred func(any) bool) *Stream {
	return s.derive("filter", func(out *Stream) Handler {
		return func(tx *Transaction, ev Event) {
			if ev.IsError() {
				out.Send(tx, ev)
				return
			}

			var keep bool
			if err := guard(func() { keep = pred(ev.Value) }); err != nil {
				s.rt.Report(tx, err)
				return
			}

			if keep {
				out.Send(tx, ev)
			}
		}
	})
}

func (s *Stream) dropErrors() *Stream {
	return s.derive("values", func(out *Stream) Handler {
		return func(tx *Transaction, ev Event) {
			if !ev.IsError() {
				out.Send(tx, ev)
			}
		}
	})
}

// Merge combines two streams. Simultaneous events are folded with fn, the
// left one first.
func (s *Stream) Merge(other *Stream, fn func(left, right any) any) *Stream {
	var out *Stream

	s.rt.Run(func(tx *Transaction) {
		out = s.mergeRaw(tx, other).hide().Coalesce(fn)
	})

	return out
}

// mergeRaw forwards both inputs without folding. The left input goes through
// an extra node ranked below the output, so its events are delivered first.
func (s *Stream) mergeRaw(tx *Transaction, other *Stream) *Stream {
	out := s.rt.NewStream("merge")
	left := NewNode("merge-left")

	edge := s.rt.link(tx, left, out.node, nil)

	forward := func(tx *Transaction, ev Event) {
		out.Send(tx, ev)
	}

	out.AddCleanup(s.Listen(tx, left, false, forward))
	out.AddCleanup(other.Listen(tx, out.node, false, forward))
	out.OnCleanup(func() {
		s.rt.graph.Lock()
		defer s.rt.graph.Unlock()

		left.Unlink(edge)
	})

	return out
}

type coalesceState struct {
	acc     Event
	pending bool
}

// reset runs in the last phase so an aborted transaction cannot leave the
// state pending.
func (st *coalesceState) reset() {
	st.acc, st.pending = Event{}, false
}

// Coalesce folds every event of a transaction into one, sent once at the
// output's rank.
func (s *Stream) Coalesce(fn func(acc, next any) any) *Stream {
	st := &coalesceState{}

	return s.derive("coalesce", func(out *Stream) Handler {
		return func(tx *Transaction, ev Event) {
			if st.pending {
				st.acc = combine(st.acc, ev, fn)
				return
			}

			st.acc, st.pending = ev, true
			tx.Last(st.reset)
			tx.Prioritized(out.node, func(tx *Transaction) {
				acc := st.acc
				st.acc, st.pending = Event{}, false
				out.Send(tx, acc)
			})
		}
	})
}

type lastOnlyState struct {
	scheduled bool
}

// lastFiringOnly sends only the final event of each transaction.
func (s *Stream) lastFiringOnly(tx *Transaction) *Stream {
	out := s.rt.newPrivate("updates")
	st := &lastOnlyState{}

	out.AddCleanup(s.Listen(tx, out.node, false, func(tx *Transaction, _ Event) {
		if st.scheduled {
			return
		}

		st.scheduled = true
		tx.Last(func() { st.scheduled = false })
		tx.Prioritized(out.node, func(tx *Transaction) {
			st.scheduled = false
			out.Send(tx, s.firings[len(s.firings)-1])
		})
	}))

	return out
}

// Snapshot pairs each event with the value c held before the transaction.
func (s *Stream) Snapshot(c *Cell, fn func(a, b any) any) *Stream {
	return s.derive("snapshot", func(out *Stream) Handler {
		return func(tx *Transaction, ev Event) {
			out.Send(tx, combine(ev, c.sampleNoTrans(), fn))
		}
	})
}

// Gate passes events while c holds true.
func (s *Stream) Gate(c *Cell) *Stream {
	return s.derive("gate", func(out *Stream) Handler {
		return func(tx *Transaction, ev Event) {
			if ev.IsError() {
				out.Send(tx, ev)
				return
			}

			open := c.sampleNoTrans()
			if open.IsError() {
				s.rt.Report(tx, open.Err)
				return
			}

			if ok, _ := open.Value.(bool); ok {
				out.Send(tx, ev)
			}
		}
	})
}

type onceState struct {
	done     bool
	listener *Listener
}

// Once forwards the first event and then detaches from s.
func (s *Stream) Once() *Stream {
	out := s.rt.NewStream("once")
	st := &onceState{}

	s.rt.Run(func(tx *Transaction) {
		st.listener = s.Listen(tx, out.node, false, func(tx *Transaction, ev Event) {
			if st.done {
				return
			}

			st.done = true
			out.Send(tx, ev)
			st.listener.Unlisten()
		})

		out.AddCleanup(st.listener)
	})

	return out
}

// Defer resends each event in a fresh transaction once this one has closed.
func (s *Stream) Defer() *Stream {
	return s.derive("defer", func(out *Stream) Handler {
		return func(tx *Transaction, ev Event) {
			tx.Post(func() {
				s.rt.Run(func(tx *Transaction) {
					out.Send(tx, ev)
				})
			})
		}
	})
}

// Just returns a stream that fires ev once, in a transaction of its own or
// in the one already open. Only listeners attached in that transaction see it.
func (r *Runtime) Just(ev Event) *Stream {
	s := r.NewStream("just")

	r.Run(func(tx *Transaction) {
		s.Send(tx, ev)
	})

	return s
}

// Split sends each element produced by explode in its own transaction, after
// the current one has closed. An error is forwarded as a single event.
func (s *Stream) Split(explode func(any) []any) *Stream {
	return s.derive("split", func(out *Stream) Handler {
		return func(tx *Transaction, ev Event) {
			tx.Post(func() {
				if ev.IsError() {
					s.rt.Run(func(tx *Transaction) { out.Send(tx, ev) })
					return
				}

				for _, v := range explode(ev.Value) {
					s.rt.Run(func(tx *Transaction) { out.Send(tx, Ok(v)) })
				}
			})
		}
	})
}

type flattenState struct {
	current *Listener
}

// Flatten follows the stream held by the latest event of s. The inner
// subscription is swapped in the last phase, so the new inner only
// contributes from the next transaction on.
func (s *Stream) Flatten(unwrap func(any) *Stream) *Stream {
	return s.flattenWith("flatten", func(ev Event) Event {
		return ev.mapValue(func(v any) any { return unwrap(v) })
	})
}

// FlatMap maps each event to a stream and follows it like Flatten.
func (s *Stream) FlatMap(f func(any) *Stream) *Stream {
	return s.flattenWith("flatmap", func(ev Event) Event {
		return ev.mapValue(func(v any) any { return f(v) })
	})
}

func (s *Stream) flattenWith(label string, pick func(Event) Event) *Stream {
	out := s.rt.NewStream(label)
	st := &flattenState{}

	forward := func(tx *Transaction, ev Event) {
		out.Send(tx, ev)
	}

	s.rt.Run(func(tx *Transaction) {
		out.AddCleanup(s.Listen(tx, out.node, false, func(tx *Transaction, ev Event) {
			picked := pick(ev)

			var next *Stream
			if picked.IsError() {
				out.Send(tx, picked)
			} else {
				next, _ = picked.Value.(*Stream)
			}

			tx.Last(func() {
				st.current.Unlisten()
				st.current = nil

				if next != nil {
					st.current = next.Listen(tx, out.node, true, forward)
				}
			})
		}))
	})

	out.OnCleanup(func() { st.current.Unlisten() })

	return out
}

// Hold keeps the latest event of s, starting from initial.
func (s *Stream) Hold(initial Event) *Cell {
	return s.rt.newCell(s, &initial, nil)
}

// HoldLazy is Hold with an initial value computed on first sample.
func (s *Stream) HoldLazy(thunk func() Event) *Cell {
	return s.rt.newCell(s, nil, thunk)
}

type pair struct {
	out   any
	state any
}

// Collect runs a state machine over s: f maps an event and the current state
// to an output and the next state. A failing step emits an error and leaves
// the state as it was.
func (s *Stream) Collect(init any, f func(a, state any) (any, any)) *Stream {
	return s.CollectLazy(func() Event { return Ok(init) }, f)
}

// CollectLazy is Collect with the initial state computed on first use.
func (s *Stream) CollectLazy(init func() Event, f func(a, state any) (any, any)) *Stream {
	var out *Stream

	s.rt.Run(func(tx *Transaction) {
		loop := s.rt.NewStreamLoop()
		state := loop.HoldLazy(init)

		steps := s.Snapshot(state, func(a, st any) any {
			b, next := f(a, st)
			return pair{out: b, state: next}
		}).hide()

		loop.Loop(steps.dropErrors().hide().Map(func(v any) any { return v.(pair).state }))
		out = steps.Map(func(v any) any { return v.(pair).out })

		out.OnCleanup(state.Dispose)
		out.OnCleanup(loop.Dispose)
	})

	return out
}

// Accum folds s into a cell starting from init.
func (s *Stream) Accum(init any, f func(a, state any) any) *Cell {
	return s.AccumLazy(func() Event { return Ok(init) }, f)
}

// AccumLazy is Accum with the initial state computed on first use. init runs
// at most once.
func (s *Stream) AccumLazy(init func() Event, f func(a, state any) any) *Cell {
	var out *Cell

	init = sync.OnceValue(init)

	s.rt.Run(func(tx *Transaction) {
		loop := s.rt.NewStreamLoop()
		state := loop.HoldLazy(init)

		next := s.Snapshot(state, f).hide()
		loop.Loop(next.dropErrors().hide())

		out = next.HoldLazy(init)
		out.OnCleanup(state.Dispose)
		out.OnCleanup(loop.Dispose)
	})

	return out
}
