package internal

// NodeInfo is a snapshot of one graph vertex.
type NodeInfo struct {
	ID      uint64
	Label   string
	Rank    int64
	Targets []uint64
}

func (n NodeInfo) Terminal() bool {
	return n.Rank == RankMax
}

// Inspect walks the graph reachable from roots, breadth first, under the
// graph read lock. It is safe to call while a transaction is running.
func (r *Runtime) Inspect(roots ...*Node) []NodeInfo {
	r.graph.RLock()
	defer r.graph.RUnlock()

	var infos []NodeInfo

	seen := make(map[*Node]bool)
	queue := make([]*Node, 0, len(roots))

	for _, n := range roots {
		if n != nil && !seen[n] {
			seen[n] = true
			queue = append(queue, n)
		}
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		info := NodeInfo{ID: n.id, Label: n.label, Rank: n.rank}

		for t := range n.Targets() {
			info.Targets = append(info.Targets, t.node.id)

			if !seen[t.node] {
				seen[t.node] = true
				queue = append(queue, t.node)
			}
		}

		infos = append(infos, info)
	}

	return infos
}
