package internal

import "container/heap"

// PriorityHeap orders prioritized actions by the rank of their node, then by
// arrival. Ranks are read at comparison time, so after a rank change the heap
// must be rebuilt with Regen before the next Pop.
type PriorityHeap struct {
	entries entries
	seq     uint64
}

type entry struct {
	node   *Node
	action func(*Transaction)
	seq    uint64
}

type entries []*entry

func (e entries) Len() int { return len(e) }

func (e entries) Less(i, j int) bool {
	if e[i].node.rank != e[j].node.rank {
		return e[i].node.rank < e[j].node.rank
	}

	return e[i].seq < e[j].seq
}

func (e entries) Swap(i, j int) { e[i], e[j] = e[j], e[i] }

func (e *entries) Push(x any) { *e = append(*e, x.(*entry)) }

func (e *entries) Pop() any {
	old := *e
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*e = old[:n-1]
	return item
}

func NewHeap() *PriorityHeap {
	return &PriorityHeap{}
}

func (h *PriorityHeap) Insert(node *Node, action func(*Transaction)) {
	h.seq++
	heap.Push(&h.entries, &entry{node: node, action: action, seq: h.seq})
}

func (h *PriorityHeap) Len() int {
	return h.entries.Len()
}

// Pop removes the lowest (rank, seq) action.
func (h *PriorityHeap) Pop() func(*Transaction) {
	return heap.Pop(&h.entries).(*entry).action
}

// Regen restores heap order after ranks moved under queued entries.
func (h *PriorityHeap) Regen() {
	heap.Init(&h.entries)
}
