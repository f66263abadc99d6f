package internal

import (
	"iter"
	"math"
	"slices"
	"sync/atomic"
)

// RankMax marks a node with no ordering constraint. Terminal listeners use it
// so they run after everything else in the transaction.
const RankMax int64 = math.MaxInt64

var nextNodeID atomic.Uint64

// Handler receives an event delivered along a Target.
type Handler func(tx *Transaction, ev Event)

// Node is a vertex of the dependency graph.
// Its rank is always strictly greater than the rank of any node linking to it.
type Node struct {
	id    uint64
	rank  int64
	label string

	targets []*Target
}

// Target is an outgoing edge: the destination node and the handler invoked
// when the source fires.
type Target struct {
	source  *Node
	node    *Node
	handler Handler

	// cleared on unlink, so actions already queued for it become no-ops
	detached atomic.Bool
}

func NewNode(label string) *Node {
	return &Node{
		id:    nextNodeID.Add(1),
		label: label,
	}
}

// terminal is shared by every listener that has no downstream node.
var terminal = &Node{rank: RankMax, label: "listener"}

func (n *Node) ID() uint64    { return n.id }
func (n *Node) Label() string { return n.label }

// Link registers an edge from n to dst and raises ranks downstream of dst as
// needed. It returns true when any rank changed.
// The caller must hold the graph lock.
func (n *Node) Link(dst *Node, handler Handler) (*Target, bool) {
	changed := dst.ensureBiggerThan(n.rank, make(map[*Node]struct{}))

	t := &Target{source: n, node: dst, handler: handler}
	n.targets = append(n.targets, t)

	return t, changed
}

// Unlink removes the edge. Ranks are left as they are.
// The caller must hold the graph lock.
func (n *Node) Unlink(t *Target) {
	t.detached.Store(true)

	if i := slices.Index(n.targets, t); i >= 0 {
		n.targets = slices.Delete(n.targets, i, i+1)
	}
}

func (n *Node) ensureBiggerThan(limit int64, visited map[*Node]struct{}) bool {
	if n.rank > limit {
		return false
	}
	if _, ok := visited[n]; ok {
		return false
	}
	visited[n] = struct{}{}

	n.rank = limit + 1

	for _, t := range n.targets {
		t.node.ensureBiggerThan(n.rank, visited)
	}

	return true
}

// Targets iterates over the outgoing edges.
// The caller must hold the graph lock, at least for reading.
func (n *Node) Targets() iter.Seq[*Target] {
	return func(yield func(*Target) bool) {
		for _, t := range n.targets {
			if !yield(t) {
				return
			}
		}
	}
}

func (t *Target) Node() *Node { return t.node }

func (t *Target) active() bool { return !t.detached.Load() }
