// Package scenario describes reactive graphs and the transactions fed to them
// in YAML, so they can be replayed from the command line and in tests.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a graph of integer streams and cells plus a list of
// transactions to replay against it.
type Scenario struct {
	// Name identifies the scenario in output.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	// Inputs are the sinks the steps send to.
	Inputs []Input `yaml:"inputs"`

	// Nodes are derived streams and cells, in construction order. A node may
	// only refer to inputs and to nodes declared before it.
	Nodes []Node `yaml:"nodes,omitempty"`

	// Watch lists the inputs and nodes whose events are recorded.
	Watch []string `yaml:"watch"`

	// Steps are replayed one transaction each.
	Steps []Step `yaml:"steps"`
}

// Input kinds.
const (
	KindStream = "stream"
	KindCell   = "cell"
)

type Input struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Initial int64  `yaml:"initial,omitempty"`
}

// Node ops.
const (
	OpMap      = "map"
	OpFilter   = "filter"
	OpMerge    = "merge"
	OpSnapshot = "snapshot"
	OpOnce     = "once"
	OpDefer    = "defer"
	OpHold     = "hold"
	OpAccum    = "accum"
	OpLift     = "lift"
	OpUpdates  = "updates"
)

// Node is one combinator application.
type Node struct {
	Name string `yaml:"name"`
	Op   string `yaml:"op"`

	// Input is the primary operand: a stream for most ops, a cell for lift
	// and updates.
	Input string `yaml:"input"`

	// Other is the second stream of merge.
	Other string `yaml:"other,omitempty"`

	// Cell is the cell sampled by snapshot and the second operand of lift.
	Cell string `yaml:"cell,omitempty"`

	// Fn names the function: see Binary and Predicate.
	Fn string `yaml:"fn,omitempty"`

	// Arg is the constant second operand of map.
	Arg int64 `yaml:"arg,omitempty"`

	// Initial seeds hold and accum.
	Initial int64 `yaml:"initial,omitempty"`
}

// Step is one transaction. Every listed input is sent to inside it.
type Step struct {
	Send map[string]int64 `yaml:"send,omitempty"`

	// Fail sends an error occurrence to each listed input.
	Fail []string `yaml:"fail,omitempty"`
}

var (
	ErrInvalid = errors.New("invalid scenario")
)

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	return Parse(bytes.NewReader(data))
}

// Parse decodes a scenario, rejecting unknown fields, and validates it.
func Parse(r io.Reader) (*Scenario, error) {
	var s Scenario

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks names, kinds and references without building anything.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return invalid("name is required")
	}
	if len(s.Inputs) == 0 {
		return invalid("at least one input is required")
	}

	kinds := make(map[string]string)
	sinks := make(map[string]bool)

	declare := func(name, kind string) error {
		if name == "" {
			return invalid("unnamed %s", kind)
		}
		if _, ok := kinds[name]; ok {
			return invalid("%q declared twice", name)
		}
		kinds[name] = kind
		return nil
	}

	expect := func(node, ref, kind string) error {
		got, ok := kinds[ref]
		if !ok {
			return invalid("%s: unknown reference %q", node, ref)
		}
		if got != kind {
			return invalid("%s: %q is a %s, want a %s", node, ref, got, kind)
		}
		return nil
	}

	for _, in := range s.Inputs {
		if in.Kind != KindStream && in.Kind != KindCell {
			return invalid("input %q: unknown kind %q", in.Name, in.Kind)
		}
		if err := declare(in.Name, in.Kind); err != nil {
			return err
		}
		sinks[in.Name] = true
	}

	for _, n := range s.Nodes {
		var (
			kind string
			err  error
		)

		switch n.Op {
		case OpMap, OpFilter, OpOnce, OpDefer:
			kind, err = KindStream, expect(n.Name, n.Input, KindStream)
		case OpMerge:
			kind, err = KindStream, errors.Join(
				expect(n.Name, n.Input, KindStream),
				expect(n.Name, n.Other, KindStream),
			)
		case OpSnapshot:
			kind, err = KindStream, errors.Join(
				expect(n.Name, n.Input, KindStream),
				expect(n.Name, n.Cell, KindCell),
			)
		case OpHold, OpAccum:
			kind, err = KindCell, expect(n.Name, n.Input, KindStream)
		case OpLift:
			kind, err = KindCell, errors.Join(
				expect(n.Name, n.Input, KindCell),
				expect(n.Name, n.Cell, KindCell),
			)
		case OpUpdates:
			kind, err = KindStream, expect(n.Name, n.Input, KindCell)
		default:
			return invalid("%s: unknown op %q", n.Name, n.Op)
		}
		if err != nil {
			return err
		}

		if err := checkFn(n); err != nil {
			return err
		}
		if err := declare(n.Name, kind); err != nil {
			return err
		}
	}

	for _, w := range s.Watch {
		if _, ok := kinds[w]; !ok {
			return invalid("watch: unknown name %q", w)
		}
	}

	for i, step := range s.Steps {
		for name := range step.Send {
			if !sinks[name] {
				return invalid("step %d: %q is not an input", i+1, name)
			}
		}
		failed := make(map[string]bool, len(step.Fail))
		for _, name := range step.Fail {
			if !sinks[name] {
				return invalid("step %d: %q is not an input", i+1, name)
			}
			if _, ok := step.Send[name]; ok {
				return invalid("step %d: %q is both sent and failed", i+1, name)
			}
			if failed[name] {
				return invalid("step %d: %q failed twice", i+1, name)
			}
			failed[name] = true
		}
	}

	return nil
}

func checkFn(n Node) error {
	switch n.Op {
	case OpMap, OpMerge, OpSnapshot, OpAccum, OpLift:
		if _, ok := binaries[n.Fn]; !ok {
			return invalid("%s: unknown function %q", n.Name, n.Fn)
		}
	case OpFilter:
		if _, ok := predicates[n.Fn]; !ok {
			return invalid("%s: unknown predicate %q", n.Name, n.Fn)
		}
	}

	return nil
}

// Binary functions usable as fn.
var binaries = map[string]func(a, b int64) int64{
	"add":   func(a, b int64) int64 { return a + b },
	"sub":   func(a, b int64) int64 { return a - b },
	"mul":   func(a, b int64) int64 { return a * b },
	"div":   func(a, b int64) int64 { return a / b },
	"max":   func(a, b int64) int64 { return max(a, b) },
	"left":  func(a, _ int64) int64 { return a },
	"right": func(_, b int64) int64 { return b },
}

// Predicates usable as fn of filter.
var predicates = map[string]func(int64) bool{
	"even":     func(v int64) bool { return v%2 == 0 },
	"odd":      func(v int64) bool { return v%2 != 0 },
	"positive": func(v int64) bool { return v > 0 },
}
