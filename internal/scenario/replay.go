package scenario

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/AnatoleLucet/sodium"
)

// ErrInjected is the error sent by a step's fail list.
var ErrInjected = errors.New("injected failure")

// Record is one observed event.
type Record struct {
	// Step is 0 for events fired while the graph was built.
	Step  int    `json:"step"`
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Err   string `json:"error,omitempty"`
}

func (r Record) String() string {
	if r.Err != "" {
		return fmt.Sprintf("step %d: %s error %s", r.Step, r.Name, r.Err)
	}

	return fmt.Sprintf("step %d: %s=%d", r.Step, r.Name, r.Value)
}

// Graph is a scenario built on the process-wide runtime.
type Graph struct {
	scenario *Scenario

	streams map[string]*sodium.Stream[int64]
	cells   map[string]*sodium.Cell[int64]
	sinks   map[string]sodium.Sendable[int64]

	// roots are the inputs, in declaration order
	roots []sodium.Node
}

// Build constructs the graph in a single transaction.
func Build(s *Scenario) (*Graph, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	g := &Graph{
		scenario: s,
		streams:  make(map[string]*sodium.Stream[int64]),
		cells:    make(map[string]*sodium.Cell[int64]),
		sinks:    make(map[string]sodium.Sendable[int64]),
	}

	sodium.Run(func() {
		for _, in := range s.Inputs {
			g.input(in)
		}
		for _, n := range s.Nodes {
			g.node(n)
		}
	})

	return g, nil
}

func (g *Graph) input(in Input) {
	switch in.Kind {
	case KindStream:
		sink := sodium.NewStreamSink[int64]()
		g.streams[in.Name] = sink.Stream
		g.sinks[in.Name] = sink
		g.roots = append(g.roots, sink)
	case KindCell:
		sink := sodium.NewCellSink(in.Initial)
		g.cells[in.Name] = sink.Cell
		g.sinks[in.Name] = sink
		g.roots = append(g.roots, sink)
	}
}

func (g *Graph) node(n Node) {
	fn := binaries[n.Fn]

	switch n.Op {
	case OpMap:
		g.streams[n.Name] = sodium.Map(g.streams[n.Input], func(v int64) int64 { return fn(v, n.Arg) })
	case OpFilter:
		g.streams[n.Name] = g.streams[n.Input].Filter(predicates[n.Fn])
	case OpMerge:
		g.streams[n.Name] = g.streams[n.Input].Merge(g.streams[n.Other], fn)
	case OpSnapshot:
		g.streams[n.Name] = sodium.Snapshot(g.streams[n.Input], g.cells[n.Cell], fn)
	case OpOnce:
		g.streams[n.Name] = g.streams[n.Input].Once()
	case OpDefer:
		g.streams[n.Name] = g.streams[n.Input].Defer()
	case OpHold:
		g.cells[n.Name] = g.streams[n.Input].Hold(n.Initial)
	case OpAccum:
		g.cells[n.Name] = sodium.Accum(g.streams[n.Input], n.Initial, fn)
	case OpLift:
		g.cells[n.Name] = sodium.Lift2(fn, g.cells[n.Input], g.cells[n.Cell])
	case OpUpdates:
		g.streams[n.Name] = g.cells[n.Input].Updates()
	}
}

// Replay listens to the watched names, runs every step and returns what was
// observed, in order.
func (g *Graph) Replay() []Record {
	var (
		records []Record
		step    int
	)

	record := func(name string) func(sodium.Occurrence[int64]) {
		return func(o sodium.Occurrence[int64]) {
			v, err := o.Get()

			r := Record{Step: step, Name: name, Value: v}
			if err != nil {
				r.Value, r.Err = 0, err.Error()
			}
			records = append(records, r)
		}
	}

	var listeners []*sodium.Listener
	defer func() {
		for _, l := range listeners {
			l.Unlisten()
		}
	}()

	sodium.Run(func() {
		for _, name := range g.scenario.Watch {
			if s, ok := g.streams[name]; ok {
				listeners = append(listeners, s.Listen(record(name)))
			} else {
				listeners = append(listeners, g.cells[name].Listen(record(name)))
			}
		}
	})

	for i, st := range g.scenario.Steps {
		step = i + 1

		sodium.Run(func() {
			// map order is random; send in name order so output is stable
			for _, name := range slices.Sorted(maps.Keys(st.Send)) {
				g.sinks[name].Send(st.Send[name])
			}
			for _, name := range st.Fail {
				g.sinks[name].SendError(ErrInjected)
			}
		})
	}

	return records
}

// Inspect returns the graph reachable from the inputs.
func (g *Graph) Inspect() []sodium.NodeInfo {
	return sodium.Inspect(g.roots...)
}

// Dispose releases every derived stream and cell.
func (g *Graph) Dispose() {
	for _, n := range slices.Backward(g.scenario.Nodes) {
		if s, ok := g.streams[n.Name]; ok {
			s.Dispose()
		}
		if c, ok := g.cells[n.Name]; ok {
			c.Dispose()
		}
	}
}

// WriteText writes records one per line.
func WriteText(w io.Writer, records []Record) error {
	for _, r := range records {
		if _, err := fmt.Fprintln(w, r); err != nil {
			return err
		}
	}

	return nil
}
