package internal

import "slices"

// Stream is a discrete source of events.
//
// firings holds what the stream sent in the open transaction and is cleared
// in the last phase. A private stream was built by a combinator for its own
// use; it is disposed as soon as its last listener goes away.
type Stream struct {
	*Owner

	rt      *Runtime
	node    *Node
	firings []Event
	private bool
}

func (r *Runtime) NewStream(label string) *Stream {
	return &Stream{
		Owner: newOwner(),
		rt:    r,
		node:  NewNode(label),
	}
}

func (r *Runtime) newPrivate(label string) *Stream {
	s := r.NewStream(label)
	s.private = true
	return s
}

func (s *Stream) Node() *Node       { return s.node }
func (s *Stream) Runtime() *Runtime { return s.rt }

// Public marks a stream as handed out to a caller, so it is no longer
// disposed when its listeners go away.
func (s *Stream) Public() *Stream {
	s.private = false
	return s
}

func (s *Stream) hasTargets() bool {
	s.rt.graph.RLock()
	defer s.rt.graph.RUnlock()

	return len(s.node.targets) > 0
}

// Listen links the stream to target. Unless suppressEarlier is set, events
// already sent in this transaction are replayed to h at target's rank.
func (s *Stream) Listen(tx *Transaction, target *Node, suppressEarlier bool, h Handler) *Listener {
	t := s.rt.link(tx, s.node, target, h)

	if !suppressEarlier && len(s.firings) > 0 {
		firings := slices.Clone(s.firings)

		tx.Prioritized(target, func(tx *Transaction) {
			for _, ev := range firings {
				if !t.active() {
					return
				}
				s.rt.deliver(tx, h, ev)
			}
		})
	}

	return &Listener{rt: s.rt, stream: s, target: t}
}

// Send buffers ev and schedules one delivery per current target.
func (s *Stream) Send(tx *Transaction, ev Event) {
	if len(s.firings) == 0 {
		tx.Last(func() {
			s.firings = nil
		})
	}
	s.firings = append(s.firings, ev)

	s.rt.graph.RLock()
	targets := slices.Clone(s.node.targets)
	s.rt.graph.RUnlock()

	for _, t := range targets {
		tx.Prioritized(t.node, func(tx *Transaction) {
			if !t.active() {
				return
			}
			s.rt.deliver(tx, t.handler, ev)
		})
	}
}

// SendExternal is the entry point for sinks. It opens or joins a
// transaction and refuses sends made from inside a delivery callback or a
// second send in the same transaction.
func (s *Stream) SendExternal(ev Event) {
	s.rt.Run(func(tx *Transaction) {
		if s.rt.InCallback() {
			usage("send", ErrSendInCallback)
		}
		if len(s.firings) > 0 {
			usage("send", ErrAlreadySent)
		}

		s.Send(tx, ev)
	})
}

// ListenTerminal attaches a listener that sits at the end of the graph.
// A panic in action is reported as unhandled and does not reach other
// listeners.
func (s *Stream) ListenTerminal(action func(Event)) *Listener {
	var l *Listener

	s.rt.Run(func(tx *Transaction) {
		l = s.Listen(tx, terminal, false, func(tx *Transaction, ev Event) {
			if err := guard(func() { action(ev) }); err != nil {
				s.rt.reportFrom(tx, s, err)
			}
		})
	})

	return l
}

// ListenValues is ListenTerminal for listeners that only take values. Error
// events are reported as unhandled instead.
func (s *Stream) ListenValues(action func(any)) *Listener {
	var l *Listener

	s.rt.Run(func(tx *Transaction) {
		l = s.Listen(tx, terminal, false, func(tx *Transaction, ev Event) {
			if ev.IsError() {
				s.rt.reportFrom(tx, s, ev.Err)
				return
			}
			if err := guard(func() { action(ev.Value) }); err != nil {
				s.rt.reportFrom(tx, s, err)
			}
		})
	})

	return l
}

// AddCleanup ties a listener's lifetime to the stream.
func (s *Stream) AddCleanup(l *Listener) {
	s.OnCleanup(l.Unlisten)
}

// Dispose runs the stream's cleanups. Private upstream streams left without
// listeners are disposed too.
func (s *Stream) Dispose() {
	s.rt.locked(s.Owner.dispose)
}

func (s *Stream) releaseIfUnused() {
	if !s.private || s.hasTargets() {
		return
	}

	s.Dispose()
}

// Listener is a subscription handle.
type Listener struct {
	rt     *Runtime
	stream *Stream
	target *Target
}

// Unlisten detaches the listener. Calling it again is a no-op.
func (l *Listener) Unlisten() {
	if l == nil {
		return
	}

	if src := l.detach(); src != nil {
		src.releaseIfUnused()
	}
}

func (l *Listener) detach() *Stream {
	l.rt.graph.Lock()
	defer l.rt.graph.Unlock()

	src := l.stream
	if src == nil {
		return nil
	}

	src.node.Unlink(l.target)
	l.stream, l.target = nil, nil

	return src
}
