package sodium

import (
	"fmt"
	"io"
	"strings"

	"github.com/AnatoleLucet/sodium/internal"
)

// Node is anything with a place in the graph: streams and cells.
type Node interface {
	node() *internal.Node
}

// NodeInfo describes one vertex of the graph.
type NodeInfo = internal.NodeInfo

// Inspect returns the graph reachable from roots, in breadth-first order.
// It can run concurrently with transactions.
func Inspect(roots ...Node) []NodeInfo {
	nodes := make([]*internal.Node, 0, len(roots))
	for _, r := range roots {
		nodes = append(nodes, r.node())
	}

	return runtime().Inspect(nodes...)
}

// RenderGraph writes infos as text, one node per line. Nodes are numbered
// in the order given, so the output does not depend on global ids.
func RenderGraph(w io.Writer, infos []NodeInfo) error {
	names := make(map[uint64]string, len(infos))
	for i, info := range infos {
		names[info.ID] = fmt.Sprintf("n%d", i+1)
	}

	for _, info := range infos {
		rank := fmt.Sprint(info.Rank)
		if info.Terminal() {
			rank = "max"
		}

		line := fmt.Sprintf("%s %s rank=%s", names[info.ID], info.Label, rank)

		if len(info.Targets) > 0 {
			targets := make([]string, len(info.Targets))
			for i, id := range info.Targets {
				targets[i] = names[id]
			}
			line += " -> " + strings.Join(targets, ", ")
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}
